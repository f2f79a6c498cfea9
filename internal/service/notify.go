package service

import (
	"listKeeper/internal/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Event string
type Level string

const (
	EventListCreated      Event = "list_created"
	EventListTrashed      Event = "list_trashed"
	EventListRestored     Event = "list_restored"
	EventListPurged       Event = "list_purged"
	EventListReplaced     Event = "list_replaced"
	EventTemplateSaved    Event = "template_saved"
	EventTemplateDeleted  Event = "template_deleted"
	EventListFromTemplate Event = "list_from_template"
	EventScheduledList    Event = "scheduled_list_created"
	EventScheduleEnabled  Event = "schedule_enabled"
	EventScheduleDisabled Event = "schedule_disabled"
)

const LevelSuccess Level = "success"
const LevelInfo Level = "info"

// Notification - сообщение для пользователя (toast в интерфейсе)
type Notification struct {
	Seq      uint64    `json:"seq"`
	Event    Event     `json:"event"`
	Level    Level     `json:"level"`
	Message  string    `json:"message"`
	ListID   int64     `json:"list_id,omitempty"`
	Name     string    `json:"name,omitempty"`
	Replaced bool      `json:"replaced,omitempty"`
	At       time.Time `json:"at"`
}

type Notifier interface {
	Notify(Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier пишет уведомления в лог
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	logger.Info("Notification: "+n.Message,
		zap.String("event", string(n.Event)),
		zap.String("level", string(n.Level)),
		zap.Int64("list_id", n.ListID),
		zap.Bool("replaced", n.Replaced))
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}

func MultiNotifier(notifiers ...Notifier) Notifier {
	res := make(multiNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			res = append(res, n)
		}
	}
	return res
}

// Feed хранит последние уведомления с возрастающими номерами
type Feed struct {
	mtx      sync.RWMutex
	items    []Notification
	capacity int
	seq      uint64
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 100
	}
	return &Feed{
		items:    make([]Notification, 0, capacity),
		capacity: capacity,
	}
}

func (f *Feed) Notify(n Notification) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.seq++
	n.Seq = f.seq
	if len(f.items) == f.capacity {
		f.items = append(f.items[:0], f.items[1:]...)
	}
	f.items = append(f.items, n)
}

// Since возвращает уведомления с номером больше after
func (f *Feed) Since(after uint64) []Notification {
	f.mtx.RLock()
	defer f.mtx.RUnlock()

	res := []Notification{}
	for _, n := range f.items {
		if n.Seq > after {
			res = append(res, n)
		}
	}
	return res
}
