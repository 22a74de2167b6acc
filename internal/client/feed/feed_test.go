package feed

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/thestream/internal/client/errs"
	"github.com/atinyakov/thestream/internal/client/stream"
	"github.com/atinyakov/thestream/internal/client/stream/streamtest"
)

type fakeSession struct {
	client stream.Client
	user   string
	ready  bool
}

func (s fakeSession) FeedClient() (stream.Client, string, error) {
	if !s.ready {
		return nil, "", errs.ErrSessionNotReady
	}
	return s.client, s.user, nil
}

func newFacade(p *streamtest.Platform, user string) *Facade {
	return New(fakeSession{client: p.NewClient("key", "token", user), user: user, ready: true})
}

func TestFacade_FetchBoundedNewestFirst(t *testing.T) {
	p := streamtest.NewPlatform()
	for i := range 30 {
		p.Seed("timeline:alice", stream.Activity{Actor: "SU:bob", Verb: "post", Object: fmt.Sprintf("t%d", i)})
		p.Seed("user:alice", stream.Activity{Actor: "SU:alice", Verb: "post", Object: fmt.Sprintf("u%d", i)})
	}
	f := newFacade(p, "alice")

	timeline, err := f.FetchTimeline(t.Context())
	require.NoError(t, err)
	require.Len(t, timeline, PageSize)
	for i, a := range timeline {
		assert.Equal(t, fmt.Sprintf("t%d", 29-i), a.Object)
	}

	profile, err := f.FetchProfile(t.Context())
	require.NoError(t, err)
	require.Len(t, profile, PageSize)
	assert.Equal(t, "u29", profile[0].Object)
}

func TestFacade_PostThenProfile(t *testing.T) {
	p := streamtest.NewPlatform()
	p.Seed("user:alice", stream.Activity{Actor: "SU:alice", Verb: "post", Object: "old", Extra: map[string]any{"message": "earlier"}})
	f := newFacade(p, "alice")

	before, err := f.FetchProfile(t.Context())
	require.NoError(t, err)

	stored, err := f.Post(t.Context(), "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)

	after, err := f.FetchProfile(t.Context())
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	var hellos []stream.Activity
	for _, a := range after {
		if a.Message() == "hello" {
			hellos = append(hellos, a)
		}
	}
	require.Len(t, hellos, 1)
	assert.Equal(t, "SU:alice", hellos[0].Actor)
	assert.Equal(t, "post", hellos[0].Verb)
	assert.NotEmpty(t, hellos[0].Object)
	assert.Equal(t, after[0].ID, hellos[0].ID)
}

func TestFacade_PostUsesFreshObjectIDs(t *testing.T) {
	f := newFacade(streamtest.NewPlatform(), "alice")

	a, err := f.Post(t.Context(), "one")
	require.NoError(t, err)
	b, err := f.Post(t.Context(), "two")
	require.NoError(t, err)
	assert.NotEqual(t, a.Object, b.Object)
}

func TestFacade_FollowTwice(t *testing.T) {
	p := streamtest.NewPlatform()
	f := newFacade(p, "alice")

	require.NoError(t, f.Follow(t.Context(), "bob"))
	require.NoError(t, f.Follow(t.Context(), "bob"))
	assert.True(t, p.Following("timeline:alice", "user:bob"))

	bob := newFacade(p, "bob")
	_, err := bob.Post(t.Context(), "from bob")
	require.NoError(t, err)

	timeline, err := f.FetchTimeline(t.Context())
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, "SU:bob", timeline[0].Actor)
}

func TestFacade_SessionNotReady(t *testing.T) {
	p := streamtest.NewPlatform()
	f := New(fakeSession{client: p.NewClient("key", "token", "alice"), user: "alice"})

	_, err := f.FetchTimeline(t.Context())
	assert.ErrorIs(t, err, errs.ErrSessionNotReady)
	_, err = f.FetchProfile(t.Context())
	assert.ErrorIs(t, err, errs.ErrSessionNotReady)
	_, err = f.Post(t.Context(), "hello")
	assert.ErrorIs(t, err, errs.ErrSessionNotReady)
	err = f.Follow(t.Context(), "bob")
	assert.ErrorIs(t, err, errs.ErrSessionNotReady)

	assert.Zero(t, p.Calls())
}

func TestFacade_PlatformFailure(t *testing.T) {
	p := streamtest.NewPlatform()
	boom := errors.New("boom")
	p.FailWith(boom)
	f := newFacade(p, "alice")

	_, err := f.FetchTimeline(t.Context())
	assert.ErrorIs(t, err, errs.ErrFeedOperationFailed)
	assert.ErrorIs(t, err, boom)

	_, err = f.Post(t.Context(), "hello")
	assert.ErrorIs(t, err, errs.ErrFeedOperationFailed)

	err = f.Follow(t.Context(), "bob")
	assert.ErrorIs(t, err, errs.ErrFeedOperationFailed)
}
