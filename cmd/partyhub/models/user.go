package models

import "time"

// User is a registered participant
// Maps to: users table
type User struct {
	ID           int64     `json:"id"`
	PlayerNumber string    `json:"playerNumber"`
	Name         string    `json:"name"`
	Department   *string   `json:"department"`
	SessionToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns the fields a participant may see about themselves
func (u *User) Public() PublicUser {
	return PublicUser{
		PlayerNumber: u.PlayerNumber,
		Name:         u.Name,
		Department:   u.Department,
	}
}

// Participant returns the identity shown to other participants
func (u *User) Participant() Participant {
	return Participant{
		ID:           u.ID,
		PlayerNumber: u.PlayerNumber,
		Name:         u.Name,
	}
}

// PublicUser is the session payload returned to the owning participant
type PublicUser struct {
	PlayerNumber string  `json:"playerNumber"`
	Name         string  `json:"name"`
	Department   *string `json:"department"`
}

// Participant is another participant's public identity (gift target)
type Participant struct {
	ID           int64  `json:"id"`
	PlayerNumber string `json:"playerNumber"`
	Name         string `json:"name"`
}

// UserSummary is a row of the admin user listing
type UserSummary struct {
	ID           int64     `json:"id"`
	PlayerNumber string    `json:"playerNumber"`
	Name         string    `json:"name"`
	Department   *string   `json:"department"`
	CreatedAt    time.Time `json:"createdAt"`
	VoteCount    int       `json:"voteCount"`
}

// UserQuery filters the admin user listing
type UserQuery struct {
	Search string
	Limit  int
}
