package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"listKeeper/internal/handlers"
	"listKeeper/internal/handlers/dto"
	"listKeeper/internal/models/list"
	"listKeeper/internal/repository/kv/inmemory"
	"listKeeper/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHealth - мок проверки хранилища
type MockHealth struct {
	mock.Mock
}

func (m *MockHealth) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type testServer struct {
	router *chi.Mux
	store  *service.ListStore
	feed   *service.Feed
}

func newTestServer(t *testing.T, health handlers.HealthChecker) *testServer {
	t.Helper()
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	feed := service.NewFeed(10)
	store := service.NewListStore(context.Background(), inmemory.NewKVStorage(),
		service.WithClock(func() time.Time { return clock }),
		service.WithNotifier(feed))

	router := chi.NewRouter()
	handlers.NewListHandler(store, feed, health).Register(router)
	return &testServer{router: router, store: store, feed: feed}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createList(t *testing.T, name string, kind list.Kind) dto.ListResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/lists", dto.CreateListRequest{Name: name, Type: kind})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.ListResponse](t, rec)
}

type listsResponse struct {
	View         string             `json:"view"`
	Lists        []dto.ListResponse `json:"lists"`
	ActiveListID *int64             `json:"active_list_id"`
}

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// TestHandlers_CreateAndGetLists тестирует создание и чтение списков
func TestHandlers_CreateAndGetLists(t *testing.T) {
	s := newTestServer(t, nil)

	created := s.createList(t, "Groceries", list.KindTasks)
	assert.Equal(t, "Groceries", created.Name)
	assert.Equal(t, list.KindTasks, created.Kind)
	assert.Equal(t, service.ViewActive, created.View)

	rec := s.do(t, http.MethodGet, "/lists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[listsResponse](t, rec)
	assert.Equal(t, "active", body.View)
	require.Len(t, body.Lists, 1)
	require.NotNil(t, body.ActiveListID)
	assert.Equal(t, created.ID, *body.ActiveListID)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/lists/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[dto.ListResponse](t, rec).ID)
}

// TestHandlers_RequestErrors тестирует ответы на некорректные запросы
func TestHandlers_RequestErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		rawType    string
		wantStatus int
		wantCode   string
	}{
		{name: "empty name", method: http.MethodPost, path: "/lists", body: dto.CreateListRequest{Name: " "}, wantStatus: http.StatusBadRequest, wantCode: service.CodeValidation},
		{name: "unknown kind", method: http.MethodPost, path: "/lists", body: dto.CreateListRequest{Name: "x", Type: "board"}, wantStatus: http.StatusBadRequest, wantCode: service.CodeValidation},
		{name: "missing list", method: http.MethodGet, path: "/lists/42", wantStatus: http.StatusNotFound, wantCode: service.CodeNotFound},
		{name: "bad id", method: http.MethodGet, path: "/lists/abc", wantStatus: http.StatusBadRequest},
		{name: "negative id", method: http.MethodDelete, path: "/lists/-1", wantStatus: http.StatusBadRequest},
		{name: "bad view", method: http.MethodGet, path: "/lists?view=archive", wantStatus: http.StatusBadRequest},
		{name: "no content type", method: http.MethodPost, path: "/lists", rawType: "text/plain", body: "x", wantStatus: http.StatusUnsupportedMediaType},
		{name: "unknown field", method: http.MethodPost, path: "/lists", body: map[string]any{"title": "x"}, wantStatus: http.StatusBadRequest},
		{name: "trash missing list", method: http.MethodDelete, path: "/lists/42", wantStatus: http.StatusNotFound, wantCode: service.CodeNotFound},
		{name: "missing template", method: http.MethodPost, path: "/templates/42/run", wantStatus: http.StatusNotFound, wantCode: service.CodeNotFound},
		{name: "bad after", method: http.MethodGet, path: "/notifications?after=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)

			var rec *httptest.ResponseRecorder
			if tt.rawType != "" {
				req := httptest.NewRequest(tt.method, tt.path, bytes.NewReader([]byte(`"x"`)))
				req.Header.Set("Content-Type", tt.rawType)
				rec = httptest.NewRecorder()
				s.router.ServeHTTP(rec, req)
			} else {
				rec = s.do(t, tt.method, tt.path, tt.body)
			}

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode[errorResponse](t, rec).Error)
			}
		})
	}
}

// TestHandlers_ListLifecycle тестирует корзину через HTTP
func TestHandlers_ListLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	l := s.createList(t, "Groceries", list.KindTasks)
	path := fmt.Sprintf("/lists/%d", l.ID)

	rec := s.do(t, http.MethodPatch, path, dto.UpdateListRequest{Name: ptr("Food")})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Food", decode[dto.ListResponse](t, rec).Name)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, nil).Code)
	trash := decode[listsResponse](t, s.do(t, http.MethodGet, "/lists?view=trash", nil))
	require.Len(t, trash.Lists, 1)
	assert.Equal(t, service.ViewTrash, trash.Lists[0].View)
	assert.NotNil(t, trash.Lists[0].DeletedAt)
	assert.Nil(t, trash.ActiveListID)

	rec = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, service.ViewTrash, decode[dto.ListResponse](t, rec).View)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, path+"/restore", nil).Code)
	assert.Len(t, s.store.Lists(), 1)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path+"/purge", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, nil).Code)
}

// TestHandlers_Reorder тестирует перестановку списков
func TestHandlers_Reorder(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.createList(t, "A", list.KindTasks)
	b := s.createList(t, "B", list.KindTasks)

	rec := s.do(t, http.MethodPost, "/lists/reorder", dto.ReorderRequest{View: "active", Order: []int64{a.ID, b.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[listsResponse](t, rec)
	require.Len(t, body.Lists, 2)
	assert.Equal(t, a.ID, body.Lists[0].ID)

	rec = s.do(t, http.MethodPost, "/lists/reorder", dto.ReorderRequest{View: "active", Order: []int64{a.ID}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, service.CodeInvalidReorder, decode[errorResponse](t, rec).Error)
}

// TestHandlers_Active тестирует указатель активного списка
func TestHandlers_Active(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.createList(t, "A", list.KindTasks)
	s.createList(t, "B", list.KindTasks)

	rec := s.do(t, http.MethodPut, "/active", dto.SetActiveRequest{ID: &a.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]*int64](t, s.do(t, http.MethodGet, "/active", nil))
	require.NotNil(t, body["active_list_id"])
	assert.Equal(t, a.ID, *body["active_list_id"])

	rec = s.do(t, http.MethodPut, "/active", dto.SetActiveRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[map[string]*int64](t, rec)["active_list_id"])

	missing := int64(42)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, "/active", dto.SetActiveRequest{ID: &missing}).Code)
}

// TestHandlers_Todos тестирует задачи через HTTP
func TestHandlers_Todos(t *testing.T) {
	s := newTestServer(t, nil)
	l := s.createList(t, "Groceries", list.KindTasks)
	base := fmt.Sprintf("/lists/%d/todos", l.ID)

	rec := s.do(t, http.MethodPost, base, dto.CreateTodoRequest{Text: "Buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	milk := decode[list.Todo](t, rec)
	assert.Equal(t, list.PriorityLow, milk.Priority)

	rec = s.do(t, http.MethodPost, base, dto.CreateTodoRequest{Text: "Call bank"})
	require.Equal(t, http.StatusCreated, rec.Code)
	bank := decode[list.Todo](t, rec)

	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodPost, fmt.Sprintf("%s/%d/priority", base, bank.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, list.PriorityHigh, decode[list.Todo](t, rec).Priority)

	got := decode[dto.ListResponse](t, s.do(t, http.MethodGet, fmt.Sprintf("/lists/%d", l.ID), nil))
	require.Len(t, got.Todos, 2)
	assert.Equal(t, "Call bank", got.Todos[0].Text)
	assert.Equal(t, "Buy milk", got.Todos[1].Text)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("%s/%d/toggle", base, milk.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[list.Todo](t, rec).Completed)

	item := fmt.Sprintf("%s/%d", base, milk.ID)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, item, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, item+"/restore", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, item, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, item+"/purge", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, item+"/purge", nil).Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/lists/%d/items", l.ID), dto.CreateTextItemRequest{Text: "note"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, service.CodeKindMismatch, decode[errorResponse](t, rec).Error)
}

// TestHandlers_TextItems тестирует записи текстового списка
func TestHandlers_TextItems(t *testing.T) {
	s := newTestServer(t, nil)
	l := s.createList(t, "Notes", list.KindText)
	base := fmt.Sprintf("/lists/%d/items", l.ID)

	rec := s.do(t, http.MethodPost, base, dto.CreateTextItemRequest{Text: "idea"})
	require.Equal(t, http.StatusCreated, rec.Code)
	idea := decode[list.TextItem](t, rec)

	item := fmt.Sprintf("%s/%d", base, idea.ID)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, item, nil).Code)
	got := s.store.Lists()[0]
	assert.Empty(t, got.TextItems)
	assert.Len(t, got.DeletedTextItems, 1)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, item+"/restore", nil).Code)
	assert.Len(t, s.store.Lists()[0].TextItems, 1)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/lists/%d/todos", l.ID), dto.CreateTodoRequest{Text: "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// TestHandlers_Templates тестирует шаблоны и расписание
func TestHandlers_Templates(t *testing.T) {
	s := newTestServer(t, nil)
	l := s.createList(t, "Groceries", list.KindTasks)

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/lists/%d/template", l.ID), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	tpl := decode[dto.ListResponse](t, rec)
	assert.Equal(t, "Groceries Template", tpl.Name)
	assert.Equal(t, service.ViewTemplates, tpl.View)
	tplPath := fmt.Sprintf("/templates/%d", tpl.ID)

	rec = s.do(t, http.MethodPut, tplPath+"/schedule", dto.ScheduleRequest{Enabled: true, Time: "25:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, tplPath+"/schedule", dto.ScheduleRequest{Enabled: true, Time: "09:00"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decode[dto.ListResponse](t, rec).RecurringSchedule)

	rec = s.do(t, http.MethodPost, tplPath+"/use", dto.UseTemplateRequest{Name: "Weekly"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Weekly", decode[dto.ListResponse](t, rec).Name)

	rec = s.do(t, http.MethodPost, tplPath+"/use", dto.UseTemplateRequest{Name: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, tplPath+"/run", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Groceries", decode[dto.ListResponse](t, rec).Name)
	assert.Len(t, s.store.Lists(), 2, "Groceries заменён, Weekly остался")

	rec = s.do(t, http.MethodDelete, tplPath+"/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[dto.ListResponse](t, rec).RecurringSchedule)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, tplPath, nil).Code)
	assert.Empty(t, s.store.TemplateLists())
	assert.Empty(t, s.store.DeletedLists())
}

// TestHandlers_Notifications тестирует ленту уведомлений
func TestHandlers_Notifications(t *testing.T) {
	s := newTestServer(t, nil)
	l := s.createList(t, "Groceries", list.KindTasks)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, fmt.Sprintf("/lists/%d", l.ID), nil).Code)

	type feedResponse struct {
		Notifications []service.Notification `json:"notifications"`
	}

	all := decode[feedResponse](t, s.do(t, http.MethodGet, "/notifications", nil))
	require.Len(t, all.Notifications, 2)
	assert.Equal(t, service.EventListCreated, all.Notifications[0].Event)
	assert.Equal(t, service.EventListTrashed, all.Notifications[1].Event)
	assert.Equal(t, l.ID, all.Notifications[1].ListID)

	tail := decode[feedResponse](t, s.do(t, http.MethodGet, fmt.Sprintf("/notifications?after=%d", all.Notifications[0].Seq), nil))
	require.Len(t, tail.Notifications, 1)
	assert.Equal(t, service.EventListTrashed, tail.Notifications[0].Event)
}

// TestHandlers_HealthCheck тестирует проверку хранилища
func TestHandlers_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(*MockHealth)
		wantStatus int
	}{
		{
			name:       "healthy",
			setupMock:  func(m *MockHealth) { m.On("HealthCheck", mock.Anything).Return(nil) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "storage down",
			setupMock:  func(m *MockHealth) { m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed")) },
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := new(MockHealth)
			tt.setupMock(health)
			s := newTestServer(t, health)

			rec := s.do(t, http.MethodGet, "/health", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			health.AssertExpectations(t)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
