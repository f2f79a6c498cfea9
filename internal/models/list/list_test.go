package list_test

import (
	"encoding/json"
	"listKeeper/internal/models/list"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPriority_NextAndWeight тестирует цикл и веса приоритетов
func TestPriority_NextAndWeight(t *testing.T) {
	tests := []struct {
		current list.Priority
		next    list.Priority
		weight  int
	}{
		{list.PriorityLow, list.PriorityMedium, 1},
		{list.PriorityMedium, list.PriorityHigh, 2},
		{list.PriorityHigh, list.PriorityLow, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			assert.Equal(t, tt.next, tt.current.Next())
			assert.Equal(t, tt.weight, tt.current.Weight())
			assert.True(t, tt.current.Valid())
		})
	}

	assert.False(t, list.Priority("urgent").Valid())
}

// TestSortTodos_Stable тестирует стабильность сортировки по приоритету
func TestSortTodos_Stable(t *testing.T) {
	todos := []list.Todo{
		{ID: 1, Priority: list.PriorityLow},
		{ID: 2, Priority: list.PriorityHigh},
		{ID: 3, Priority: list.PriorityLow},
		{ID: 4, Priority: list.PriorityMedium},
		{ID: 5, Priority: list.PriorityHigh},
	}

	list.SortTodos(todos)

	ids := make([]int64, 0, len(todos))
	for _, todo := range todos {
		ids = append(ids, todo.ID)
	}
	assert.Equal(t, []int64{2, 5, 4, 1, 3}, ids)
}

// TestTemplateNaming тестирует добавление и снятие суффикса шаблона
func TestTemplateNaming(t *testing.T) {
	assert.Equal(t, "Groceries Template", list.TemplateName("Groceries"))
	assert.Equal(t, "Groceries", list.OriginalName("Groceries Template"))
	// снимается только одно вхождение
	assert.Equal(t, "X Template", list.OriginalName("X Template Template"))
	assert.Equal(t, "MyTemplate", list.OriginalName("MyTemplate"))
	assert.Equal(t, "Template list", list.OriginalName("Template list"))
}

// TestValidScheduleTime тестирует формат HH:mm
func TestValidScheduleTime(t *testing.T) {
	valid := []string{"00:00", "09:00", "23:59"}
	invalid := []string{"", "9:00", "24:00", "09:60", "09-00", "09:00:00"}

	for _, value := range valid {
		assert.True(t, list.ValidScheduleTime(value), value)
	}
	for _, value := range invalid {
		assert.False(t, list.ValidScheduleTime(value), value)
	}
}

// TestRecurringSchedule_Due тестирует сравнение с минутой
func TestRecurringSchedule_Due(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 42, 0, time.Local)

	var nilSchedule *list.RecurringSchedule
	assert.False(t, nilSchedule.Due(at))
	assert.True(t, (&list.RecurringSchedule{Enabled: true, Time: "09:00"}).Due(at))
	assert.False(t, (&list.RecurringSchedule{Enabled: false, Time: "09:00"}).Due(at))
	assert.False(t, (&list.RecurringSchedule{Enabled: true, Time: "09:01"}).Due(at))
}

// TestList_CloneIsDeep тестирует независимость копии
func TestList_CloneIsDeep(t *testing.T) {
	deletedAt := time.Now()
	original := &list.List{
		ID:                1,
		Name:              "Groceries",
		Kind:              list.KindTasks,
		Todos:             []list.Todo{{ID: 10, Text: "Buy milk", Priority: list.PriorityLow}},
		DeletedTodos:      []list.Todo{{ID: 11, Text: "Old", DeletedAt: &deletedAt}},
		RecurringSchedule: &list.RecurringSchedule{Enabled: true, Time: "09:00"},
	}

	cloned := original.Clone()
	cloned.Todos[0].Text = "changed"
	cloned.RecurringSchedule.Time = "10:00"
	*cloned.DeletedTodos[0].DeletedAt = time.Time{}

	assert.Equal(t, "Buy milk", original.Todos[0].Text)
	assert.Equal(t, "09:00", original.RecurringSchedule.Time)
	assert.Equal(t, deletedAt, *original.DeletedTodos[0].DeletedAt)
	assert.NotNil(t, cloned.TextItems)
}

// TestList_JSONFieldNames тестирует имена полей хранимого формата
func TestList_JSONFieldNames(t *testing.T) {
	l := &list.List{ID: 1, Name: "Notes", Kind: list.KindText}
	l.Normalize()

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "name", "type", "todos", "textItems", "deletedTodos", "deletedTextItems", "createdAt"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "deletedAt")
	assert.NotContains(t, raw, "recurringSchedule")
}

// TestList_Apply тестирует функциональные опции
func TestList_Apply(t *testing.T) {
	l := &list.List{Name: "Old"}

	applied := l.Apply(list.WithName("   "), list.WithName("  New  "))

	assert.Equal(t, 1, applied)
	assert.Equal(t, "New", l.Name)
}
