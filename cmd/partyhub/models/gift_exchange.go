package models

import "time"

// ExchangeStatus is the state of a participant's gift exchange
type ExchangeStatus string

const (
	ExchangeNotStarted ExchangeStatus = "not_started"
	ExchangeSearching  ExchangeStatus = "searching"
	ExchangeCompleted  ExchangeStatus = "completed"
)

// GiftExchange is the assignment record owned by one participant
// Maps to: gift_exchanges table
//
// Invariants: one row per owner, target never equals owner,
// completed rows never change again.
type GiftExchange struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"userId"`
	TargetUserID *int64         `json:"targetUserId"`
	Status       ExchangeStatus `json:"status"`
	Version      int64          `json:"version"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ExchangeView is what status() reports to the owner
type ExchangeView struct {
	Status      ExchangeStatus `json:"status"`
	TargetUser  *Participant   `json:"targetUser"`
	CompletedAt *time.Time     `json:"completedAt"`
}

// ExchangeRow is one giver/receiver pairing in the admin listing
type ExchangeRow struct {
	Giver                string         `json:"giver"`
	GiverPlayerNumber    string         `json:"giverPlayerNumber"`
	Receiver             string         `json:"receiver"`
	ReceiverPlayerNumber string         `json:"receiverPlayerNumber"`
	Status               ExchangeStatus `json:"status"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// ExchangeStats aggregates exchange counts by status
type ExchangeStats struct {
	Total     int `json:"total"`
	Searching int `json:"searching"`
	Completed int `json:"completed"`
}

// ExchangeSummary is the admin listing payload
type ExchangeSummary struct {
	Exchanges []ExchangeRow `json:"exchanges"`
	Stats     ExchangeStats `json:"stats"`
}

// Placeholders rendered for exchanges without a receiver
const (
	ReceiverNotAssigned       = "Not assigned"
	ReceiverNumberNotAssigned = "N/A"
)

// ExchangeEventKind names a state transition
type ExchangeEventKind string

const (
	ExchangeStarted    ExchangeEventKind = "started"
	ExchangeReassigned ExchangeEventKind = "reassigned"
	ExchangeConfirmed  ExchangeEventKind = "completed"
)

// ExchangeEvent is published on the in-process queue after each committed transition
type ExchangeEvent struct {
	Kind     ExchangeEventKind `json:"kind"`
	OwnerID  int64             `json:"ownerId"`
	TargetID int64             `json:"targetId"`
	Version  int64             `json:"version"`
	At       time.Time         `json:"at"`
}
