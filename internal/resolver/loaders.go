package resolver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nplusone/internal/config"
	"nplusone/internal/dataloader"
	"nplusone/internal/store"
)

// Loaders is the set of data loaders owned by one operation
type Loaders struct {
	Users  *dataloader.Loader[int, *store.User]
	Tweets *dataloader.Loader[int, *store.Tweet]
}

// NewLoaders creates the loaders for one operation. Batches are only
// dispatched by Flush, which the operation's Window calls.
func NewLoaders(st *store.Store, cfg config.LoaderConfig, logger zerolog.Logger) (*Loaders, error) {
	users, err := dataloader.New(userBatchFunc(st), loaderOptions[int, *store.User]("users", cfg, logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create users loader: %w", err)
	}

	tweets, err := dataloader.New(tweetBatchFunc(st), loaderOptions[int, *store.Tweet]("tweets", cfg, logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tweets loader: %w", err)
	}

	return &Loaders{
		Users:  users,
		Tweets: tweets,
	}, nil
}

// Flush dispatches the open batch of every loader
func (l *Loaders) Flush() {
	l.Users.Flush()
	l.Tweets.Flush()
}

func loaderOptions[K comparable, V any](name string, cfg config.LoaderConfig, logger zerolog.Logger) []dataloader.Option[K, V] {
	opts := []dataloader.Option[K, V]{
		dataloader.WithName[K, V](name),
		dataloader.WithLogger[K, V](logger),
		dataloader.WithManualDispatch[K, V](),
		dataloader.WithMaxBatchSize[K, V](cfg.GetMaxBatchSize()),
		dataloader.WithCacheEnabled[K, V](cfg.IsCacheEnabled()),
		dataloader.WithBatchTimeout[K, V](cfg.GetBatchTimeoutDuration()),
	}
	if cfg.CacheSize > 0 {
		opts = append(opts, dataloader.WithLRUCache[K, V](cfg.CacheSize))
	}
	return opts
}

// userBatchFunc looks users up in one store call and lines the rows up
// with the requested ids. Unknown ids resolve to nil.
func userBatchFunc(st *store.Store) dataloader.BatchFunc[int, *store.User] {
	return func(ctx context.Context, ids []int) ([]*dataloader.Result[*store.User], error) {
		users, err := st.FindUsers(ctx, ids)
		if err != nil {
			return nil, err
		}

		byID := make(map[int]*store.User, len(users))
		for i := range users {
			byID[users[i].ID] = &users[i]
		}

		results := make([]*dataloader.Result[*store.User], len(ids))
		for i, id := range ids {
			results[i] = &dataloader.Result[*store.User]{Data: byID[id]}
		}
		return results, nil
	}
}

func tweetBatchFunc(st *store.Store) dataloader.BatchFunc[int, *store.Tweet] {
	return func(ctx context.Context, ids []int) ([]*dataloader.Result[*store.Tweet], error) {
		tweets, err := st.FindTweets(ctx, ids)
		if err != nil {
			return nil, err
		}

		byID := make(map[int]*store.Tweet, len(tweets))
		for i := range tweets {
			byID[tweets[i].ID] = &tweets[i]
		}

		results := make([]*dataloader.Result[*store.Tweet], len(ids))
		for i, id := range ids {
			results[i] = &dataloader.Result[*store.Tweet]{Data: byID[id]}
		}
		return results, nil
	}
}
