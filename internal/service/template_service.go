package service

import (
	"context"
	"fmt"
	"listKeeper/internal/logger"
	"listKeeper/internal/models/list"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// SaveAsTemplate снимает копию активного списка в шаблоны
func (s *ListStore) SaveAsTemplate(ctx context.Context, listID int64) (*list.List, error) {
	var saved *list.List
	err := s.mutate(ctx, "save_as_template", func(m *mutation) error {
		l, err := s.activeListLocked(listID)
		if err != nil {
			return err
		}

		tpl := l.Clone()
		tpl.ID = s.ids.next()
		tpl.Name = list.TemplateName(l.Name)
		tpl.CreatedAt = s.now()
		tpl.DeletedAt = nil
		tpl.Normalize()
		s.templates = prepend(s.templates, tpl)

		saved = tpl.Clone()
		m.touch(KeyTemplateLists)
		m.notify(EventTemplateSaved, LevelSuccess, fmt.Sprintf("Шаблон \"%s\" сохранён", tpl.Name), tpl)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Шаблон сохранён", zap.Int64("list_id", listID), zap.Int64("template_id", saved.ID))
	return saved, nil
}

func (s *ListStore) DeleteTemplate(ctx context.Context, templateID int64) error {
	return s.mutate(ctx, "delete_template", func(m *mutation) error {
		i := indexOf(s.templates, templateID)
		if i < 0 {
			return NewNotFound(ResourceTemplate, templateID)
		}

		tpl := s.templates[i]
		s.templates = slices.Delete(s.templates, i, i+1)

		m.touch(KeyTemplateLists)
		m.notify(EventTemplateDeleted, LevelSuccess, fmt.Sprintf("Шаблон \"%s\" удалён", tpl.Name), tpl)
		return nil
	})
}

// UseTemplate создаёт список из шаблона; активный список с тем же
// именем заменяется, указатель активного списка сбрасывается
func (s *ListStore) UseTemplate(ctx context.Context, templateID int64, newName string) (*list.List, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, NewValidationError("name", "название не может быть пустым")
	}

	var created *list.List
	err := s.mutate(ctx, "use_template", func(m *mutation) error {
		i := indexOf(s.templates, templateID)
		if i < 0 {
			return NewNotFound(ResourceTemplate, templateID)
		}

		l, replaced := s.instantiateLocked(s.templates[i], newName)
		s.activeListID = nil

		m.touch(KeyLists, KeyActiveListID)
		notifyInstantiated(m, l, replaced, EventListFromTemplate,
			fmt.Sprintf("Создан список \"%s\" из шаблона", l.Name))

		created = l.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Список создан из шаблона", zap.Int64("template_id", templateID), zap.Int64("list_id", created.ID))
	return created, nil
}

// CreateScheduledList - создание списка по расписанию шаблона.
// Имя берётся из имени шаблона без суффикса " Template".
func (s *ListStore) CreateScheduledList(ctx context.Context, templateID int64) (*list.List, error) {
	var created *list.List
	err := s.mutate(ctx, "create_scheduled_list", func(m *mutation) error {
		i := indexOf(s.templates, templateID)
		if i < 0 {
			return NewNotFound(ResourceTemplate, templateID)
		}

		tpl := s.templates[i]
		name := list.OriginalName(tpl.Name)
		if strings.TrimSpace(name) == "" {
			return NewValidationError("name", fmt.Sprintf("из имени шаблона %q не получается имя списка", tpl.Name))
		}

		l, replaced := s.instantiateLocked(tpl, name)
		m.touch(KeyLists)
		if s.activeListID != nil && indexOf(s.lists, *s.activeListID) < 0 {
			s.activeListID = nil
			m.touch(KeyActiveListID)
		}

		notifyInstantiated(m, l, replaced, EventScheduledList,
			fmt.Sprintf("Создан список \"%s\" по расписанию", l.Name))

		created = l.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Список создан по расписанию", zap.Int64("template_id", templateID), zap.Int64("list_id", created.ID))
	return created, nil
}

// UpdateTemplateSchedule ставит или снимает (nil) ежедневное расписание шаблона
func (s *ListStore) UpdateTemplateSchedule(ctx context.Context, templateID int64, schedule *list.RecurringSchedule) (*list.List, error) {
	if schedule != nil {
		cp := *schedule
		cp.Time = strings.TrimSpace(cp.Time)
		if (cp.Enabled || cp.Time != "") && !list.ValidScheduleTime(cp.Time) {
			return nil, NewValidationError("time", fmt.Sprintf("время %q не в формате HH:mm", cp.Time))
		}
		schedule = &cp
	}

	var updated *list.List
	err := s.mutate(ctx, "update_template_schedule", func(m *mutation) error {
		i := indexOf(s.templates, templateID)
		if i < 0 {
			return NewNotFound(ResourceTemplate, templateID)
		}

		tpl := s.templates[i]
		tpl.RecurringSchedule = schedule

		if tpl.RecurringSchedule != nil && tpl.RecurringSchedule.Enabled {
			m.notify(EventScheduleEnabled, LevelSuccess,
				fmt.Sprintf("Расписание для \"%s\": ежедневно в %s", tpl.Name, tpl.RecurringSchedule.Time), tpl)
		} else {
			m.notify(EventScheduleDisabled, LevelInfo,
				fmt.Sprintf("Расписание для \"%s\" отключено", tpl.Name), tpl)
		}

		updated = tpl.Clone()
		m.touch(KeyTemplateLists)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// instantiateLocked создаёт активный список из шаблона и убирает активные
// списки с тем же именем; вызывать под блокировкой
func (s *ListStore) instantiateLocked(tpl *list.List, name string) (*list.List, bool) {
	l := tpl.Clone()
	l.ID = s.ids.next()
	l.Name = name
	l.CreatedAt = s.now()
	l.RecurringSchedule = nil
	l.DeletedAt = nil
	l.DeletedTodos = []list.Todo{}
	l.DeletedTextItems = []list.TextItem{}
	for i := range l.Todos {
		l.Todos[i].IsRemoving = false
		l.Todos[i].IsCompleting = false
	}
	for i := range l.TextItems {
		l.TextItems[i].IsRemoving = false
	}
	l.Normalize()

	before := len(s.lists)
	s.lists = slices.DeleteFunc(s.lists, func(existing *list.List) bool {
		return existing.Name == name
	})
	replaced := len(s.lists) != before

	s.lists = prepend(s.lists, l)
	return l, replaced
}

func notifyInstantiated(m *mutation, l *list.List, replaced bool, event Event, message string) {
	if replaced {
		m.notes = append(m.notes, Notification{
			Event:    EventListReplaced,
			Level:    LevelInfo,
			Message:  fmt.Sprintf("Существующий список \"%s\" заменён", l.Name),
			ListID:   l.ID,
			Name:     l.Name,
			Replaced: true,
		})
		message += " (заменён существующий)"
	}
	m.notes = append(m.notes, Notification{
		Event:    event,
		Level:    LevelSuccess,
		Message:  message,
		ListID:   l.ID,
		Name:     l.Name,
		Replaced: replaced,
	})
}
