package handlers

import (
	"context"
	"listKeeper/internal/handlers/dto"
	"listKeeper/internal/logger"
	"net/http"

	"go.uber.org/zap"
)

func (h *ListHandler) PostTodo(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var request dto.CreateTodoRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	todo, err := h.Lists.AddTodoToList(r.Context(), listID, request.ToTodo())
	if err != nil {
		handleServiceError(w, r, err, "create_todo")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("list_id", listID),
		zap.Int64("todo_id", todo.ID),
		zap.Int("http_status", http.StatusCreated))
	responseWithData(w, http.StatusCreated, todo)
}

func (h *ListHandler) PostTextItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var request dto.CreateTextItemRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	item, err := h.Lists.AddTextItemToList(r.Context(), listID, request.ToTextItem())
	if err != nil {
		handleServiceError(w, r, err, "create_text_item")
		return
	}
	responseWithData(w, http.StatusCreated, item)
}

func (h *ListHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	listID, todoID, ok := itemIDs(w, r)
	if !ok {
		return
	}

	todo, err := h.Lists.ToggleTodo(r.Context(), listID, todoID)
	if err != nil {
		handleServiceError(w, r, err, "toggle_todo")
		return
	}
	responseWithData(w, http.StatusOK, todo)
}

func (h *ListHandler) UpdateTodoPriority(w http.ResponseWriter, r *http.Request) {
	listID, todoID, ok := itemIDs(w, r)
	if !ok {
		return
	}

	todo, err := h.Lists.UpdateTodoPriority(r.Context(), listID, todoID)
	if err != nil {
		handleServiceError(w, r, err, "update_todo_priority")
		return
	}
	responseWithData(w, http.StatusOK, todo)
}

// itemAction - обработчик для операций над элементом без тела ответа
func (h *ListHandler) itemAction(operation string, action func(ctx context.Context, listID, itemID int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, itemID, ok := itemIDs(w, r)
		if !ok {
			return
		}
		if err := action(r.Context(), listID, itemID); err != nil {
			handleServiceError(w, r, err, operation)
			return
		}
		responseNoContent(w)
	}
}

func itemIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	listID, ok := urlID(w, r, "id")
	if !ok {
		return 0, 0, false
	}
	itemID, ok := urlID(w, r, "itemID")
	if !ok {
		return 0, 0, false
	}
	return listID, itemID, true
}
