package handlers

import (
	"context"
	"listKeeper/internal/models/list"
	"listKeeper/internal/service"
)

type ListService interface {
	Collection(view service.View) []*list.List
	ActiveListID() *int64
	GetList(id int64) (*list.List, service.View, error)

	AddList(ctx context.Context, name string, kind list.Kind) (*list.List, error)
	UpdateList(ctx context.Context, id int64, options ...list.ListOption) (*list.List, error)
	SetActiveList(ctx context.Context, id *int64) error
	DeleteList(ctx context.Context, id int64) error
	RestoreList(ctx context.Context, id int64) error
	PermanentlyDeleteList(ctx context.Context, id int64) error
	ReorderLists(ctx context.Context, view service.View, order []int64) error

	AddTodoToList(ctx context.Context, listID int64, todo list.Todo) (*list.Todo, error)
	AddTextItemToList(ctx context.Context, listID int64, item list.TextItem) (*list.TextItem, error)
	ToggleTodo(ctx context.Context, listID, todoID int64) (*list.Todo, error)
	UpdateTodoPriority(ctx context.Context, listID, todoID int64) (*list.Todo, error)
	DeleteTodoFromList(ctx context.Context, listID, todoID int64) error
	RestoreTodoInList(ctx context.Context, listID, todoID int64) error
	PermanentlyDeleteTodo(ctx context.Context, listID, todoID int64) error
	DeleteTextItemFromList(ctx context.Context, listID, itemID int64) error
	RestoreTextItemInList(ctx context.Context, listID, itemID int64) error
	PermanentlyDeleteTextItem(ctx context.Context, listID, itemID int64) error

	SaveAsTemplate(ctx context.Context, listID int64) (*list.List, error)
	DeleteTemplate(ctx context.Context, templateID int64) error
	UseTemplate(ctx context.Context, templateID int64, newName string) (*list.List, error)
	CreateScheduledList(ctx context.Context, templateID int64) (*list.List, error)
	UpdateTemplateSchedule(ctx context.Context, templateID int64, schedule *list.RecurringSchedule) (*list.List, error)
}

type NotificationFeed interface {
	Since(after uint64) []service.Notification
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

var _ ListService = (*service.ListStore)(nil)
var _ NotificationFeed = (*service.Feed)(nil)
