package rating

import (
	"errors"
	"time"
)

// ErrOutOfRange rejects anything outside the 1..5 scale before it reaches
// the database check constraint.
var ErrOutOfRange = errors.New("rating must be 1-5")

const (
	Min = 1
	Max = 5
)

func InRange(n int) bool {
	return n >= Min && n <= Max
}

// Rating is one user's current score for one store. The (UserID, StoreID)
// pair is unique; resubmission updates in place.
type Rating struct {
	UserID    string    `json:"userId"`
	StoreID   string    `json:"storeId"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoreEntry is a rating as the owner dashboard shows it, with the rater's
// identity attached.
type StoreEntry struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}
