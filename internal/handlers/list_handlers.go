package handlers

import (
	"context"
	"listKeeper/internal/handlers/dto"
	"listKeeper/internal/logger"
	"listKeeper/internal/models/list"
	"listKeeper/internal/service"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ListHandler struct {
	Lists  ListService
	Feed   NotificationFeed
	Health HealthChecker
}

func NewListHandler(lists ListService, feed NotificationFeed, health HealthChecker) *ListHandler {
	return &ListHandler{
		Lists:  lists,
		Feed:   feed,
		Health: health,
	}
}

// Register вешает все маршруты на роутер
func (h *ListHandler) Register(r chi.Router) {
	r.Route("/lists", func(r chi.Router) {
		r.Get("/", h.GetLists)             // GET /lists?view=active|trash|templates
		r.Post("/", h.PostList)            // POST /lists
		r.Post("/reorder", h.ReorderLists) // POST /lists/reorder

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetList)                 // GET /lists/{id}
			r.Patch("/", h.UpdateList)            // PATCH /lists/{id}
			r.Delete("/", h.DeleteList)           // DELETE /lists/{id}
			r.Post("/restore", h.RestoreList)     // POST /lists/{id}/restore
			r.Delete("/purge", h.PurgeList)       // DELETE /lists/{id}/purge
			r.Post("/template", h.SaveAsTemplate) // POST /lists/{id}/template

			r.Route("/todos", func(r chi.Router) {
				r.Post("/", h.PostTodo)
				r.Post("/{itemID}/toggle", h.ToggleTodo)
				r.Post("/{itemID}/priority", h.UpdateTodoPriority)
				r.Delete("/{itemID}", h.itemAction("delete_todo", h.Lists.DeleteTodoFromList))
				r.Post("/{itemID}/restore", h.itemAction("restore_todo", h.Lists.RestoreTodoInList))
				r.Delete("/{itemID}/purge", h.itemAction("purge_todo", h.Lists.PermanentlyDeleteTodo))
			})

			r.Route("/items", func(r chi.Router) {
				r.Post("/", h.PostTextItem)
				r.Delete("/{itemID}", h.itemAction("delete_text_item", h.Lists.DeleteTextItemFromList))
				r.Post("/{itemID}/restore", h.itemAction("restore_text_item", h.Lists.RestoreTextItemInList))
				r.Delete("/{itemID}/purge", h.itemAction("purge_text_item", h.Lists.PermanentlyDeleteTextItem))
			})
		})
	})

	r.Get("/active", h.GetActive) // GET /active
	r.Put("/active", h.PutActive) // PUT /active

	r.Route("/templates/{id}", func(r chi.Router) {
		r.Delete("/", h.DeleteTemplate)         // DELETE /templates/{id}
		r.Post("/use", h.UseTemplate)           // POST /templates/{id}/use
		r.Post("/run", h.RunTemplate)           // POST /templates/{id}/run
		r.Put("/schedule", h.PutSchedule)       // PUT /templates/{id}/schedule
		r.Delete("/schedule", h.DeleteSchedule) // DELETE /templates/{id}/schedule
	})

	r.Get("/notifications", h.GetNotifications)
	r.Get("/health", h.HealthCheck)
}

func (h *ListHandler) GetLists(w http.ResponseWriter, r *http.Request) {
	view, ok := service.ParseView(r.URL.Query().Get("view"))
	if !ok {
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "view"),
			zap.String("value", r.URL.Query().Get("view")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное значение view")
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("view", view),
		toPayload("lists", dto.FromLists(h.Lists.Collection(view), view)),
		toPayload("active_list_id", h.Lists.ActiveListID()),
	)
}

func (h *ListHandler) PostList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.CreateListRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	l, err := h.Lists.AddList(r.Context(), request.Name, request.Type)
	if err != nil {
		handleServiceError(w, r, err, "create_list")
		return
	}

	logger.Info("HTTP_OUT: Список создан",
		zap.Int64("list_id", l.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))
	responseWithData(w, http.StatusCreated, dto.FromList(l, service.ViewActive))
}

func (h *ListHandler) ReorderLists(w http.ResponseWriter, r *http.Request) {
	var request dto.ReorderRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	view, ok := service.ParseView(request.View)
	if !ok {
		responseWithError(w, http.StatusBadRequest, "неверное значение view")
		return
	}

	if err := h.Lists.ReorderLists(r.Context(), view, request.Order); err != nil {
		handleServiceError(w, r, err, "reorder_lists")
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("view", view),
		toPayload("lists", dto.FromLists(h.Lists.Collection(view), view)),
	)
}

func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	l, view, err := h.Lists.GetList(id)
	if err != nil {
		handleServiceError(w, r, err, "get_list")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromList(l, view))
}

func (h *ListHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var request dto.UpdateListRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	var options []list.ListOption
	if request.Name != nil {
		options = append(options, list.WithName(*request.Name))
	}

	l, err := h.Lists.UpdateList(r.Context(), id, options...)
	if err != nil {
		handleServiceError(w, r, err, "update_list")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromList(l, service.ViewActive))
}

func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	h.listAction(w, r, "delete_list", h.Lists.DeleteList)
}

func (h *ListHandler) RestoreList(w http.ResponseWriter, r *http.Request) {
	h.listAction(w, r, "restore_list", h.Lists.RestoreList)
}

func (h *ListHandler) PurgeList(w http.ResponseWriter, r *http.Request) {
	h.listAction(w, r, "purge_list", h.Lists.PermanentlyDeleteList)
}

func (h *ListHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	h.listAction(w, r, "delete_template", h.Lists.DeleteTemplate)
}

func (h *ListHandler) listAction(w http.ResponseWriter, r *http.Request, operation string, action func(context.Context, int64) error) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := action(r.Context(), id); err != nil {
		handleServiceError(w, r, err, operation)
		return
	}
	responseNoContent(w)
}

func (h *ListHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("active_list_id", h.Lists.ActiveListID()))
}

func (h *ListHandler) PutActive(w http.ResponseWriter, r *http.Request) {
	var request dto.SetActiveRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if err := h.Lists.SetActiveList(r.Context(), request.ID); err != nil {
		handleServiceError(w, r, err, "set_active_list")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("active_list_id", h.Lists.ActiveListID()))
}

func (h *ListHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			responseWithError(w, http.StatusBadRequest, "неверное значение after")
			return
		}
		after = parsed
	}

	notifications := []service.Notification{}
	if h.Feed != nil {
		notifications = h.Feed.Since(after)
	}
	responseWithJSON(w, http.StatusOK, toPayload("notifications", notifications))
}

func (h *ListHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if h.Health != nil {
		if err := h.Health.HealthCheck(r.Context()); err != nil {
			logger.Error("HTTP: Хранилище недоступно", err)
			responseWithJSON(w, http.StatusServiceUnavailable,
				toPayload("status", "unavailable"),
				toPayload("error", err.Error()))
			return
		}
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}
