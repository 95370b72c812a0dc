package models

import "time"

// Agenda groups events participants vote on
// Maps to: agendas table
type Agenda struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Events      []*Event  `json:"events"`
}

// Event is one performance or item within an agenda
// Maps to: events table
type Event struct {
	ID          int64      `json:"id"`
	AgendaID    int64      `json:"agendaId"`
	AgendaName  string     `json:"agendaName,omitempty"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	SortOrder   int        `json:"sortOrder"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Count       EventCount `json:"_count"`
}

// EventCount carries aggregate counts for an event
type EventCount struct {
	Votes int `json:"votes"`
}

// AgendaInput is the writable part of an agenda. PATCH documents apply to this shape.
type AgendaInput struct {
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description" yaml:"description"`
	SortOrder   int     `json:"sortOrder" yaml:"sortOrder"`
}

// EventInput is the writable part of an event
type EventInput struct {
	AgendaID    int64   `json:"agendaId" yaml:"-"`
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description" yaml:"description"`
	SortOrder   int     `json:"sortOrder" yaml:"sortOrder"`
}

// EventQuery filters the admin event listing
type EventQuery struct {
	AgendaID *int64
	Filter   string // CEL expression over `event`
}
