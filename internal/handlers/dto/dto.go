package dto

import (
	"listKeeper/internal/models/list"
	"listKeeper/internal/service"
)

type CreateListRequest struct {
	Name string    `json:"name"`
	Type list.Kind `json:"type"`
}

type UpdateListRequest struct {
	Name *string `json:"name,omitempty"`
}

type ReorderRequest struct {
	View  string  `json:"view"`
	Order []int64 `json:"order"`
}

type SetActiveRequest struct {
	ID *int64 `json:"id"`
}

type CreateTodoRequest struct {
	ID       int64         `json:"id,omitempty"`
	Text     string        `json:"text"`
	Priority list.Priority `json:"priority,omitempty"`
}

type CreateTextItemRequest struct {
	ID   int64  `json:"id,omitempty"`
	Text string `json:"text"`
}

type UseTemplateRequest struct {
	Name string `json:"name"`
}

type ScheduleRequest struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"`
}

// ListResponse - список в формате хранилища плюс коллекция, в которой он лежит
type ListResponse struct {
	list.List
	View service.View `json:"view,omitempty"`
}

func FromList(l *list.List, view service.View) ListResponse {
	return ListResponse{List: *l, View: view}
}

func FromLists(lists []*list.List, view service.View) []ListResponse {
	result := make([]ListResponse, len(lists))
	for i, l := range lists {
		result[i] = FromList(l, view)
	}
	return result
}

func (r CreateTodoRequest) ToTodo() list.Todo {
	return list.Todo{ID: r.ID, Text: r.Text, Priority: r.Priority}
}

func (r CreateTextItemRequest) ToTextItem() list.TextItem {
	return list.TextItem{ID: r.ID, Text: r.Text}
}

func (r ScheduleRequest) ToSchedule() *list.RecurringSchedule {
	return &list.RecurringSchedule{Enabled: r.Enabled, Time: r.Time}
}
