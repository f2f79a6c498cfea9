package list

import (
	"slices"
	"strings"
	"time"
)

type Kind string
type Priority string

const KindTasks Kind = "tasks"
const KindText Kind = "text"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"

// суффикс, который добавляется к имени списка при сохранении шаблона
const TemplateSuffix = " Template"

// формат времени ежедневного расписания
const ScheduleLayout = "15:04"

type Todo struct {
	ID           int64      `json:"id"`
	Text         string     `json:"text"`
	Completed    bool       `json:"completed"`
	Priority     Priority   `json:"priority"`
	IsRemoving   bool       `json:"isRemoving"`
	IsCompleting bool       `json:"isCompleting"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

type TextItem struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	IsRemoving bool   `json:"isRemoving"`
}

type RecurringSchedule struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"`
}

type List struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	Kind              Kind               `json:"type"`
	Todos             []Todo             `json:"todos"`
	TextItems         []TextItem         `json:"textItems"`
	DeletedTodos      []Todo             `json:"deletedTodos"`
	DeletedTextItems  []TextItem         `json:"deletedTextItems"`
	CreatedAt         time.Time          `json:"createdAt"`
	RecurringSchedule *RecurringSchedule `json:"recurringSchedule,omitempty"`
	DeletedAt         *time.Time         `json:"deletedAt,omitempty"`
}

func (k Kind) Valid() bool {
	return k == KindTasks || k == KindText
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Weight - вес приоритета для сортировки, неизвестный приоритет считается low
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Next - циклический переход low -> medium -> high -> low
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// SortTodos сортирует по убыванию веса приоритета, равные сохраняют порядок
func SortTodos(todos []Todo) {
	slices.SortStableFunc(todos, func(a, b Todo) int {
		return b.Priority.Weight() - a.Priority.Weight()
	})
}

func TemplateName(name string) string {
	return name + TemplateSuffix
}

// OriginalName снимает один завершающий суффикс " Template"
func OriginalName(templateName string) string {
	return strings.TrimSuffix(templateName, TemplateSuffix)
}

// ValidScheduleTime проверяет строгий формат HH:mm
func ValidScheduleTime(value string) bool {
	if len(value) != len(ScheduleLayout) {
		return false
	}
	_, err := time.Parse(ScheduleLayout, value)
	return err == nil
}

// Due - сработает ли расписание в минуту at
func (s *RecurringSchedule) Due(at time.Time) bool {
	if s == nil || !s.Enabled {
		return false
	}
	return s.Time == at.Format(ScheduleLayout)
}

func (l *List) Clone() *List {
	if l == nil {
		return nil
	}
	cloned := *l
	cloned.Todos = cloneTodos(l.Todos)
	cloned.TextItems = cloneTextItems(l.TextItems)
	cloned.DeletedTodos = cloneTodos(l.DeletedTodos)
	cloned.DeletedTextItems = cloneTextItems(l.DeletedTextItems)
	if l.RecurringSchedule != nil {
		schedule := *l.RecurringSchedule
		cloned.RecurringSchedule = &schedule
	}
	if l.DeletedAt != nil {
		deletedAt := *l.DeletedAt
		cloned.DeletedAt = &deletedAt
	}
	return &cloned
}

// Normalize заменяет nil-срезы пустыми и восстанавливает порядок задач
func (l *List) Normalize() {
	if l.Todos == nil {
		l.Todos = []Todo{}
	}
	if l.TextItems == nil {
		l.TextItems = []TextItem{}
	}
	if l.DeletedTodos == nil {
		l.DeletedTodos = []Todo{}
	}
	if l.DeletedTextItems == nil {
		l.DeletedTextItems = []TextItem{}
	}
	SortTodos(l.Todos)
}

func (l *List) FindTodo(id int64) int {
	return slices.IndexFunc(l.Todos, func(t Todo) bool { return t.ID == id })
}

func (l *List) FindDeletedTodo(id int64) int {
	return slices.IndexFunc(l.DeletedTodos, func(t Todo) bool { return t.ID == id })
}

func (l *List) FindTextItem(id int64) int {
	return slices.IndexFunc(l.TextItems, func(t TextItem) bool { return t.ID == id })
}

func (l *List) FindDeletedTextItem(id int64) int {
	return slices.IndexFunc(l.DeletedTextItems, func(t TextItem) bool { return t.ID == id })
}

// HasItem - занят ли id среди активных и удалённых элементов списка
func (l *List) HasItem(id int64) bool {
	switch l.Kind {
	case KindText:
		return l.FindTextItem(id) >= 0 || l.FindDeletedTextItem(id) >= 0
	default:
		return l.FindTodo(id) >= 0 || l.FindDeletedTodo(id) >= 0
	}
}

func cloneTodos(todos []Todo) []Todo {
	if todos == nil {
		return []Todo{}
	}
	res := make([]Todo, len(todos))
	for i, t := range todos {
		res[i] = t
		if t.DeletedAt != nil {
			deletedAt := *t.DeletedAt
			res[i].DeletedAt = &deletedAt
		}
	}
	return res
}

func cloneTextItems(items []TextItem) []TextItem {
	if items == nil {
		return []TextItem{}
	}
	return slices.Clone(items)
}
