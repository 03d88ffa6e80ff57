package store

import (
	"errors"
	"time"
)

// Sort fields accepted by ListTweets
const (
	SortByID   = "id"
	SortByDate = "date"
	SortByBody = "body"
)

// Sort orders accepted by ListTweets
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidSort is returned for an unknown sort field or order
	ErrInvalidSort = errors.New("invalid sort")
	// ErrInvalidLimit is returned for a negative list limit
	ErrInvalidLimit = errors.New("invalid limit")
)

// Tweet is a stored tweet row
type Tweet struct {
	ID       int
	Body     string
	Date     time.Time
	AuthorID int
	Read     bool
}

// User is a stored user row
type User struct {
	ID        int
	Username  string
	FirstName string
	LastName  string
	AvatarURL string
}

// FullName returns the first and last name joined by a space
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ListOptions controls ListTweets. Zero values list every tweet by ascending id.
type ListOptions struct {
	Limit     int    `json:"limit"`
	SortField string `json:"sortField"`
	SortOrder string `json:"sortOrder"`
}
