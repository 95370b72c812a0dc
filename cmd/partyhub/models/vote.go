package models

import "time"

// Vote is one participant's choice within an agenda
// Maps to: votes table (unique per user and agenda)
type Vote struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	AgendaID  int64     `json:"agendaId"`
	EventID   int64     `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// VoteRef is the compact form returned in a participant's history
type VoteRef struct {
	AgendaID int64 `json:"agendaId"`
	EventID  int64 `json:"eventId"`
}

// UserVote is a vote joined with agenda and event names for the admin view
type UserVote struct {
	ID         int64     `json:"id"`
	AgendaID   int64     `json:"agendaId"`
	AgendaName string    `json:"agendaName"`
	EventID    int64     `json:"eventId"`
	EventName  string    `json:"eventName"`
	CreatedAt  time.Time `json:"createdAt"`
}
