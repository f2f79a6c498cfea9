package service

import (
	"context"
	"strings"
)

// Storage - адаптер постоянного хранилища ключ/значение.
// Get возвращает repository.ErrNotFound, если ключа нет.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

const KeyLists = "lists"
const KeyDeletedLists = "deletedLists"
const KeyTemplateLists = "templateLists"
const KeyActiveListID = "activeListId"

// порядок записи ключей при сбросе на диск
var storageKeys = []string{KeyLists, KeyDeletedLists, KeyTemplateLists, KeyActiveListID}

// View - одна из трёх коллекций верхнего уровня
type View string

const ViewActive View = "active"
const ViewTrash View = "trash"
const ViewTemplates View = "templates"

// ParseView принимает также старые имена all/deleted
func ParseView(value string) (View, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "active", "all":
		return ViewActive, true
	case "trash", "deleted":
		return ViewTrash, true
	case "templates":
		return ViewTemplates, true
	default:
		return "", false
	}
}
