package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"nplusone/internal/jsonrpc"
	"nplusone/internal/store"
)

type handlerFunc func(ctx context.Context, op *operation, req *jsonrpc.Request) (interface{}, error)

type method struct {
	handle handlerFunc
	// mutations run alone, in request order
	mutation bool
}

var methods = map[string]method{
	"tweet_get":          {handle: getTweet},
	"tweets_list":        {handle: listTweets},
	"user_get":           {handle: getUser},
	"user_getMany":       {handle: getUsers},
	"linkedList_get":     {handle: getLinkedList},
	"tweet_create":       {handle: createTweet, mutation: true},
	"tweet_delete":       {handle: deleteTweet, mutation: true},
	"tweet_markRead":     {handle: markTweetRead, mutation: true},
	"linkedList_addNode": {handle: addNode, mutation: true},
}

// Methods returns the names of the supported methods
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	return names
}

func isMutation(req *jsonrpc.Request) bool {
	return req != nil && methods[req.Method].mutation
}

func getTweet(ctx context.Context, op *operation, req *jsonrpc.Request) (interface{}, error) {
	var id int
	if err := req.UnmarshalParams(1, &id); err != nil {
		return nil, invalidParams(err)
	}

	t, err := Await(ctx, op.window, op.loaders.Tweets.Load(ctx, id))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	return op.resolveTweet(ctx, t)
}

func listTweets(ctx context.Context, op *operation, req *jsonrpc.Request) (interface{}, error) {
	var opts store.ListOptions
	if err := req.UnmarshalParams(0, &opts); err != nil {
		return nil, invalidParams(err)
	}

	tweets, err := op.store.ListTweets(opts)
	if err != nil {
		return nil, err
	}

	views := make([]*TweetView, len(tweets))
	var g errgroup.Group
	for i := range tweets {
		i := i
		op.window.Go(&g, func() error {
			v, err := op.resolveTweet(ctx, &tweets[i])
			if err != nil {
				return fmt.Errorf("tweet %d: %w", tweets[i].ID, err)
			}
			views[i] = v
			return nil
		})
	}
	if err := op.window.Wait(&g); err != nil {
		return nil, err
	}
	return views, nil
}

func getUser(ctx context.Context, op *operation, req *jsonrpc.Request) (interface{}, error) {
	var id int
	if err := req.UnmarshalParams(1, &id); err != nil {
		return nil, invalidParams(err)
	}

	u, err := Await(ctx, op.window, op.loaders.Users.Load(ctx, id))
	if err != nil {
		return nil, err
	}
	return newUserView(u), nil
}

func getUsers(ctx context.Context, op *operation, req *jsonrpc.Request) (interface{}, error) {
	var ids []int
	if err := req.UnmarshalParams(1, &ids); err != nil {
		return nil, invalidParams(err)
	}

	users, err := AwaitMany(ctx, op.window, op.loaders.Users.LoadMany(ctx, ids))
	if err != nil {
		return nil, err
	}

	views := make([]*UserView, len(users))
	for i, u := range users {
		views[i] = newUserView(u)
	}
	return views, nil
}

func getLinkedList(_ context.Context, op *operation, _ *jsonrpc.Request) (interface{}, error) {
	return newLinkedListView(op.store.LinkedList()), nil
}

type createTweetParams struct {
	Body     string `json:"body"`
	AuthorID *int   `json:"author_id"`
}

func createTweet(ctx context.Context, op *operation, req *jsonrpc.Request) (interface{}, error) {
	var p createTweetParams
	if err := req.UnmarshalParams(1, &p); err != nil {
		return nil, invalidParams(err)
	}
	if p.AuthorID == nil {
		return nil, invalidParams(fmt.Errorf("author_id is required"))
	}

	t := op.store.CreateTweet(p.Body, *p.AuthorID)
	// an earlier call in this operation may have cached the id as missing
	op.loaders.Tweets.Clear(t.ID)
	op.loaders.Tweets.Prime(t.ID, &t)
	return op.resolveTweet(ctx, &t)
}

func deleteTweet(ctx context.Context, op *operation, req *jsonrpc.Request) (interface{}, error) {
	var id int
	if err := req.UnmarshalParams(1, &id); err != nil {
		return nil, invalidParams(err)
	}

	t, err := op.store.DeleteTweet(id)
	if err != nil {
		return nil, err
	}
	op.loaders.Tweets.Clear(id)
	return op.resolveTweet(ctx, &t)
}

func markTweetRead(_ context.Context, op *operation, req *jsonrpc.Request) (interface{}, error) {
	var id int
	if err := req.UnmarshalParams(1, &id); err != nil {
		return nil, invalidParams(err)
	}

	ok := op.store.MarkTweetRead(id)
	if ok {
		op.loaders.Tweets.Clear(id)
	}
	return ok, nil
}

func addNode(_ context.Context, op *operation, req *jsonrpc.Request) (interface{}, error) {
	var value int
	if err := req.UnmarshalParams(1, &value); err != nil {
		return nil, invalidParams(err)
	}

	op.store.AddNode(value)
	return &NodeView{Value: value}, nil
}
