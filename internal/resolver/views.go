package resolver

import (
	"time"

	"nplusone/internal/store"
)

// TweetView is the wire form of a tweet with its author resolved
type TweetView struct {
	ID     int       `json:"id"`
	Body   string    `json:"body"`
	Date   time.Time `json:"date"`
	Read   bool      `json:"read"`
	Author *UserView `json:"author"`
}

// UserView is the wire form of a user
type UserView struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// NodeView is one linked list node
type NodeView struct {
	Value int       `json:"value"`
	Next  *NodeView `json:"next"`
}

// LinkedListView is the wire form of the linked list
type LinkedListView struct {
	Head   *NodeView `json:"head"`
	Length int       `json:"length"`
}

func newUserView(u *store.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		AvatarURL: u.AvatarURL,
	}
}

func newTweetView(t *store.Tweet, author *store.User) *TweetView {
	return &TweetView{
		ID:     t.ID,
		Body:   t.Body,
		Date:   t.Date,
		Read:   t.Read,
		Author: newUserView(author),
	}
}

func newLinkedListView(values []int) *LinkedListView {
	var head *NodeView
	for i := len(values) - 1; i >= 0; i-- {
		head = &NodeView{Value: values[i], Next: head}
	}
	return &LinkedListView{
		Head:   head,
		Length: len(values),
	}
}
