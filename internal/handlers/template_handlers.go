package handlers

import (
	"listKeeper/internal/handlers/dto"
	"listKeeper/internal/logger"
	"listKeeper/internal/models/list"
	"listKeeper/internal/service"
	"net/http"

	"go.uber.org/zap"
)

func (h *ListHandler) SaveAsTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	tpl, err := h.Lists.SaveAsTemplate(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "save_as_template")
		return
	}

	logger.Info("HTTP_OUT: Шаблон сохранён",
		zap.Int64("list_id", id),
		zap.Int64("template_id", tpl.ID),
		zap.Int("http_status", http.StatusCreated))
	responseWithData(w, http.StatusCreated, dto.FromList(tpl, service.ViewTemplates))
}

func (h *ListHandler) UseTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var request dto.UseTemplateRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	l, err := h.Lists.UseTemplate(r.Context(), id, request.Name)
	if err != nil {
		handleServiceError(w, r, err, "use_template")
		return
	}
	responseWithData(w, http.StatusCreated, dto.FromList(l, service.ViewActive))
}

// RunTemplate - ручной запуск того же создания, что делает планировщик
func (h *ListHandler) RunTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	l, err := h.Lists.CreateScheduledList(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "run_template")
		return
	}
	responseWithData(w, http.StatusCreated, dto.FromList(l, service.ViewActive))
}

func (h *ListHandler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var request dto.ScheduleRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	h.updateSchedule(w, r, id, request.ToSchedule())
}

func (h *ListHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	h.updateSchedule(w, r, id, nil)
}

func (h *ListHandler) updateSchedule(w http.ResponseWriter, r *http.Request, id int64, schedule *list.RecurringSchedule) {
	tpl, err := h.Lists.UpdateTemplateSchedule(r.Context(), id, schedule)
	if err != nil {
		handleServiceError(w, r, err, "update_template_schedule")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromList(tpl, service.ViewTemplates))
}
