package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("store not found")
	// ErrOwnerInvalid covers both cases the admin can get wrong: the owner id
	// does not resolve to a store_owner account, or that account already owns
	// a store.
	ErrOwnerInvalid = errors.New("owner not found or not a store_owner")
)

type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	OwnerID   *string   `json:"ownerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListFilter drives the admin store listing.
type ListFilter struct {
	Name      *string
	Email     *string
	Address   *string
	SortBy    string
	SortOrder string
}

// ListItem joins the store with its owner's name and its average rating.
type ListItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Address       string  `json:"address"`
	OwnerName     *string `json:"ownerName"`
	AverageRating float64 `json:"averageRating"`
}

// BrowseItem is the end-user view of a store: the overall average plus the
// browsing user's own rating, nil until they have rated it.
type BrowseItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	AverageRating float64 `json:"avgRating"`
	UserRating    *int    `json:"userRating"`
}
