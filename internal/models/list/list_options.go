package list

import "strings"

type ListOption func(*List)

// пустое имя не применяется - опция возвращается как nil
func WithName(name string) ListOption {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return func(l *List) {
		l.Name = name
	}
}

// Apply применяет опции, пропуская nil
func (l *List) Apply(options ...ListOption) int {
	applied := 0
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
		applied++
	}
	return applied
}
