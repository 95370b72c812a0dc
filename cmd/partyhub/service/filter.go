package service

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
)

// EventFilter evaluates CEL expressions against events, e.g.
//
//	event.votes > 3 && event.agendaName.startsWith("Drama")
type EventFilter struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEventFilter creates a filter with an empty program cache
func NewEventFilter() (*EventFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &EventFilter{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Compile checks expr and caches its program
func (f *EventFilter) Compile(expr string) error {
	_, err := f.program(expr)
	return err
}

// Match reports whether event satisfies expr
func (f *EventFilter) Match(expr string, event *models.Event) (bool, error) {
	prg, err := f.program(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"event": eventVars(event),
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return boolean, got %T", out.Value())
	}
	return result, nil
}

// Apply returns the events that satisfy expr, preserving order
func (f *EventFilter) Apply(expr string, events []*models.Event) ([]*models.Event, error) {
	matched := make([]*models.Event, 0, len(events))
	for _, e := range events {
		ok, err := f.Match(expr, e)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// CacheSize returns the number of compiled expressions
func (f *EventFilter) CacheSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

func (f *EventFilter) program(expr string) (cel.Program, error) {
	f.mu.RLock()
	prg, ok := f.cache[expr]
	f.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := f.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	prg, err := f.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	f.mu.Lock()
	f.cache[expr] = prg
	f.mu.Unlock()
	return prg, nil
}

func eventVars(e *models.Event) map[string]any {
	description := ""
	if e.Description != nil {
		description = *e.Description
	}
	return map[string]any{
		"id":          e.ID,
		"agendaId":    e.AgendaID,
		"agendaName":  e.AgendaName,
		"name":        e.Name,
		"description": description,
		"sortOrder":   int64(e.SortOrder),
		"votes":       int64(e.Count.Votes),
	}
}
