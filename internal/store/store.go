// Package store holds the in-memory tweet, user and linked list dataset.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Store is an in-memory dataset safe for concurrent use
type Store struct {
	mu     sync.RWMutex
	tweets []Tweet
	users  []User
	list   []int

	userLookups  atomic.Int64
	tweetLookups atomic.Int64

	logger zerolog.Logger
}

// New creates an empty Store
func New(logger zerolog.Logger) *Store {
	return &Store{
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// NewSeeded creates a Store holding the demo dataset
func NewSeeded(logger zerolog.Logger) *Store {
	s := New(logger)
	now := time.Now()

	s.tweets = []Tweet{
		{ID: 1, Body: "Lorem Ipsum", Date: now, AuthorID: 10},
		{ID: 2, Body: "Sic dolor amet", Date: now, AuthorID: 11},
	}
	s.users = []User{
		{ID: 10, Username: "johndoe", FirstName: "John", LastName: "Doe", AvatarURL: "acme.com/avatars/10"},
		{ID: 11, Username: "janedoe", FirstName: "Jane", LastName: "Doe", AvatarURL: "acme.com/avatars/11"},
	}
	s.list = []int{1, 2, 3}

	return s
}

// AddUser inserts or replaces a user
func (s *Store) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i] = u
			return
		}
	}
	s.users = append(s.users, u)
}

// FindUsers returns the users whose id is in ids, in storage order.
// Unknown ids are skipped.
func (s *Store) FindUsers(ctx context.Context, ids []int) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.userLookups.Add(1)
	s.logger.Debug().Ints("ids", ids).Msg("loading users")

	want := idSet(ids)

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(ids))
	for _, u := range s.users {
		if want[u.ID] {
			users = append(users, u)
		}
	}
	return users, nil
}

// FindTweets returns the tweets whose id is in ids, in storage order.
// Unknown ids are skipped.
func (s *Store) FindTweets(ctx context.Context, ids []int) ([]Tweet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.tweetLookups.Add(1)
	s.logger.Debug().Ints("ids", ids).Msg("loading tweets")

	want := idSet(ids)

	s.mu.RLock()
	defer s.mu.RUnlock()

	tweets := make([]Tweet, 0, len(ids))
	for _, t := range s.tweets {
		if want[t.ID] {
			tweets = append(tweets, t)
		}
	}
	return tweets, nil
}

// ListTweets returns tweets sorted and limited by opts
func (s *Store) ListTweets(opts ListOptions) ([]Tweet, error) {
	less, err := tweetOrder(opts.SortField, opts.SortOrder)
	if err != nil {
		return nil, err
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("limit %d must be non-negative: %w", opts.Limit, ErrInvalidLimit)
	}

	s.mu.RLock()
	tweets := make([]Tweet, len(s.tweets))
	copy(tweets, s.tweets)
	s.mu.RUnlock()

	sort.SliceStable(tweets, func(i, j int) bool { return less(tweets[i], tweets[j]) })

	if opts.Limit > 0 && opts.Limit < len(tweets) {
		tweets = tweets[:opts.Limit]
	}
	return tweets, nil
}

// CreateTweet stores a new tweet with the next free id
func (s *Store) CreateTweet(body string, authorID int) Tweet {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := -1
	for _, t := range s.tweets {
		if t.ID > next {
			next = t.ID
		}
	}

	t := Tweet{
		ID:       next + 1,
		Body:     body,
		Date:     time.Now(),
		AuthorID: authorID,
	}
	s.tweets = append(s.tweets, t)

	s.logger.Debug().Int("id", t.ID).Int("authorId", authorID).Msg("tweet created")
	return t
}

// DeleteTweet removes a tweet and returns it
func (s *Store) DeleteTweet(id int) (Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tweets {
		if t.ID == id {
			s.tweets = append(s.tweets[:i], s.tweets[i+1:]...)
			s.logger.Debug().Int("id", id).Msg("tweet deleted")
			return t, nil
		}
	}
	return Tweet{}, fmt.Errorf("tweet %d: %w", id, ErrNotFound)
}

// MarkTweetRead flags a tweet as read. It returns false if the tweet does not exist.
func (s *Store) MarkTweetRead(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tweets {
		if s.tweets[i].ID == id {
			s.tweets[i].Read = true
			return true
		}
	}
	return false
}

// LinkedList returns a snapshot of the list values from head to tail
func (s *Store) LinkedList() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]int, len(s.list))
	copy(values, s.list)
	return values
}

// AddNode appends value to the tail of the list and returns the new length
func (s *Store) AddNode(value int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.list = append(s.list, value)
	return len(s.list)
}

// UserLookups returns how many times FindUsers has been called
func (s *Store) UserLookups() int64 {
	return s.userLookups.Load()
}

// TweetLookups returns how many times FindTweets has been called
func (s *Store) TweetLookups() int64 {
	return s.tweetLookups.Load()
}

func idSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func tweetOrder(field, order string) (func(a, b Tweet) bool, error) {
	var less func(a, b Tweet) bool
	switch strings.ToLower(field) {
	case "", SortByID:
		less = func(a, b Tweet) bool { return a.ID < b.ID }
	case SortByDate:
		less = func(a, b Tweet) bool { return a.Date.Before(b.Date) }
	case SortByBody:
		less = func(a, b Tweet) bool { return a.Body < b.Body }
	default:
		return nil, fmt.Errorf("sort field %q: %w", field, ErrInvalidSort)
	}

	switch strings.ToLower(order) {
	case "", SortAsc:
		return less, nil
	case SortDesc:
		return func(a, b Tweet) bool { return less(b, a) }, nil
	default:
		return nil, fmt.Errorf("sort order %q: %w", order, ErrInvalidSort)
	}
}
