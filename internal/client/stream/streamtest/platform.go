// Package streamtest provides an in-memory activity feed platform that
// behaves like the hosted service for the calls the client makes.
package streamtest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/thestream/internal/client/stream"
)

// Platform holds every feed and follow edge in memory. It is safe for
// concurrent use.
type Platform struct {
	mu        sync.Mutex
	feeds     map[string][]entry // newest first
	followers map[string]map[string]struct{}
	seq       uint64
	now       func() time.Time

	calls atomic.Int64
	fail  atomic.Pointer[error]
}

// NewPlatform returns an empty platform.
func NewPlatform() *Platform {
	return &Platform{
		feeds:     make(map[string][]entry),
		followers: make(map[string]map[string]struct{}),
		now:       time.Now,
	}
}

// NewClient returns a client scoped to userID. apiKey and token are not
// checked.
func (p *Platform) NewClient(apiKey, token, userID string) stream.Client {
	return &client{platform: p, userID: userID}
}

// Calls reports how many feed operations have reached the platform.
func (p *Platform) Calls() int {
	return int(p.calls.Load())
}

// FailWith makes every subsequent operation return err. A nil err restores
// normal behaviour.
func (p *Platform) FailWith(err error) {
	if err == nil {
		p.fail.Store(nil)
		return
	}
	p.fail.Store(&err)
}

// Seed appends activities to feedID as if they had been added oldest
// first. It does not count as a call.
func (p *Platform) Seed(feedID string, activities ...stream.Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range activities {
		p.store(feedID, a)
	}
}

// Following reports whether follower follows target.
func (p *Platform) Following(follower, target string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.followers[target][follower]
	return ok
}

func (p *Platform) enter() error {
	p.calls.Add(1)
	if err := p.fail.Load(); err != nil {
		return *err
	}
	return nil
}

// entry orders activities by the moment the platform stored them.
type entry struct {
	seq      uint64
	activity stream.Activity
}

// store assigns id and time when missing, puts a at the head of feedID
// and fans it out to followers. Callers hold mu.
func (p *Platform) store(feedID string, a stream.Activity) stream.Activity {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Time == "" {
		a.Time = p.now().UTC().Format("2006-01-02T15:04:05.000000")
	}
	if len(a.Extra) > 0 {
		extra := make(map[string]any, len(a.Extra))
		for k, v := range a.Extra {
			extra[k] = v
		}
		a.Extra = extra
	}

	p.seq++
	e := entry{seq: p.seq, activity: a}
	p.feeds[feedID] = append([]entry{e}, p.feeds[feedID]...)
	for follower := range p.followers[feedID] {
		p.feeds[follower] = append([]entry{e}, p.feeds[follower]...)
	}
	return a
}

type client struct {
	platform *Platform
	userID   string
}

func (c *client) UserID() string { return c.userID }

func (c *client) FlatFeed(slug, userID string) stream.Feed {
	if userID == "" {
		userID = c.userID
	}
	return &feed{platform: c.platform, slug: slug, userID: userID}
}

type feed struct {
	platform *Platform
	slug     string
	userID   string
}

func (f *feed) ID() string { return stream.FeedID(f.slug, f.userID) }

func (f *feed) GetActivities(ctx context.Context, limit int) ([]stream.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.platform.enter(); err != nil {
		return nil, err
	}

	f.platform.mu.Lock()
	defer f.platform.mu.Unlock()

	all := f.platform.feeds[f.ID()]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]stream.Activity, len(all))
	for i, e := range all {
		out[i] = e.activity
	}
	return out, nil
}

func (f *feed) AddActivity(ctx context.Context, a stream.Activity) (stream.Activity, error) {
	if err := ctx.Err(); err != nil {
		return stream.Activity{}, err
	}
	if err := f.platform.enter(); err != nil {
		return stream.Activity{}, err
	}

	f.platform.mu.Lock()
	defer f.platform.mu.Unlock()
	return f.platform.store(f.ID(), a), nil
}

func (f *feed) Follow(ctx context.Context, target stream.Feed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.platform.enter(); err != nil {
		return err
	}

	p := f.platform
	p.mu.Lock()
	defer p.mu.Unlock()

	followers := p.followers[target.ID()]
	if followers == nil {
		followers = make(map[string]struct{})
		p.followers[target.ID()] = followers
	}
	if _, ok := followers[f.ID()]; ok {
		return nil
	}
	followers[f.ID()] = struct{}{}

	p.feeds[f.ID()] = mergeNewestFirst(p.feeds[f.ID()], p.feeds[target.ID()])
	return nil
}

// mergeNewestFirst merges two newest-first feeds into a new slice.
func mergeNewestFirst(a, b []entry) []entry {
	if len(b) == 0 {
		return a
	}
	out := make([]entry, 0, len(a)+len(b))
	for len(a) > 0 && len(b) > 0 {
		if a[0].seq >= b[0].seq {
			out = append(out, a[0])
			a = a[1:]
		} else {
			out = append(out, b[0])
			b = b[1:]
		}
	}
	out = append(out, a...)
	return append(out, b...)
}
