package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/thestream/internal/client/errs"
	"github.com/atinyakov/thestream/internal/client/feed"
	"github.com/atinyakov/thestream/internal/client/session"
	"github.com/atinyakov/thestream/internal/client/stream"
	"github.com/atinyakov/thestream/internal/client/stream/streamtest"
	"github.com/atinyakov/thestream/internal/models"
)

type recordingView struct {
	mu       sync.Mutex
	errors   []string
	signedIn string
	timeline []stream.Activity
	profile  []stream.Activity
	profiles int
	posted   []stream.Activity
	followed []string
	people   []string
	chat     *models.ChatCredentials
}

func (v *recordingView) ShowError(intent, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, intent+": "+message)
}

func (v *recordingView) ShowSignedIn(username string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signedIn = username
}

func (v *recordingView) ShowTimeline(activities []stream.Activity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timeline = activities
}

func (v *recordingView) ShowProfile(activities []stream.Activity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.profile = activities
	v.profiles++
}

func (v *recordingView) ShowPostSubmitted(activity stream.Activity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posted = append(v.posted, activity)
}

func (v *recordingView) ShowFollowed(username string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.followed = append(v.followed, username)
}

func (v *recordingView) ShowPeople(users []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.people = users
}

func (v *recordingView) ShowChat(creds models.ChatCredentials) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.chat = &creds
}

func (v *recordingView) snapshot(fn func(v *recordingView)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v)
}

type fakeBackend struct {
	mu        sync.Mutex
	signInErr error
	feedErr   error
	users     []string
}

func (b *fakeBackend) SignIn(_ context.Context, user string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.signInErr != nil {
		return "", b.signInErr
	}
	return "auth-" + user, nil
}

func (b *fakeBackend) FeedCredentials(context.Context, string) (models.StreamCredentials, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.feedErr != nil {
		return models.StreamCredentials{}, b.feedErr
	}
	return models.StreamCredentials{Token: "feed", APIKey: "key"}, nil
}

func (b *fakeBackend) ChatCredentials(_ context.Context, token string) (models.ChatCredentials, error) {
	return models.ChatCredentials{Token: "chat-" + token, APIKey: "key"}, nil
}

func (b *fakeBackend) ListUsers(context.Context, string) ([]string, error) {
	return b.users, nil
}

type harness struct {
	platform *streamtest.Platform
	backend  *fakeBackend
	view     *recordingView
	flow     *Flow
}

func newHarness() *harness {
	p := streamtest.NewPlatform()
	b := &fakeBackend{users: []string{"alice", "bob"}}
	s := session.New(b, func(creds models.StreamCredentials, username string) (stream.Client, error) {
		return p.NewClient(creds.APIKey, creds.Token, username), nil
	}, nil)
	v := &recordingView{}
	return &harness{
		platform: p,
		backend:  b,
		view:     v,
		flow:     New(s, feed.New(s), v, Immediate, nil),
	}
}

func (h *harness) signIn(t *testing.T, user string) {
	t.Helper()
	_, err := h.flow.SignIn(t.Context(), user).Wait(t.Context())
	require.NoError(t, err)
}

func TestFlow_SignIn(t *testing.T) {
	h := newHarness()

	got, err := h.flow.SignIn(t.Context(), "alice").Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "alice", got)

	h.view.snapshot(func(v *recordingView) {
		assert.Equal(t, "alice", v.signedIn)
		assert.Empty(t, v.errors)
	})
}

func TestFlow_SignInFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(b *fakeBackend)
		wantErr error
	}{
		{
			name:    "sign-in step",
			setup:   func(b *fakeBackend) { b.signInErr = errors.New("backend down") },
			wantErr: errs.ErrAuthFailed,
		},
		{
			name:    "feed credential step",
			setup:   func(b *fakeBackend) { b.feedErr = errors.New("platform down") },
			wantErr: errs.ErrCredentialFetchFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h.backend)

			_, err := h.flow.SignIn(t.Context(), "alice").Wait(t.Context())
			assert.ErrorIs(t, err, tt.wantErr)

			h.view.snapshot(func(v *recordingView) {
				assert.Empty(t, v.signedIn)
				require.Len(t, v.errors, 1)
				assert.Contains(t, v.errors[0], IntentSignIn)
			})
		})
	}
}

func TestFlow_LoadTimelineKeepsPriorListOnFailure(t *testing.T) {
	h := newHarness()
	for i := range 3 {
		h.platform.Seed("timeline:alice", stream.Activity{Actor: "SU:bob", Verb: "post", Object: fmt.Sprint(i)})
	}
	h.signIn(t, "alice")

	_, err := h.flow.LoadTimeline(t.Context()).Wait(t.Context())
	require.NoError(t, err)

	h.platform.FailWith(errors.New("platform down"))
	_, err = h.flow.LoadTimeline(t.Context()).Wait(t.Context())
	assert.ErrorIs(t, err, errs.ErrFeedOperationFailed)

	h.view.snapshot(func(v *recordingView) {
		assert.Len(t, v.timeline, 3)
		require.Len(t, v.errors, 1)
		assert.Contains(t, v.errors[0], "platform down")
	})
}

func TestFlow_SubmitPostReloadsProfile(t *testing.T) {
	h := newHarness()
	h.signIn(t, "alice")

	posted, err := h.flow.SubmitPost(t.Context(), "hello").Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "hello", posted.Message())

	assert.Eventually(t, func() bool {
		var n int
		h.view.snapshot(func(v *recordingView) {
			if v.profiles > 0 {
				n = len(v.profile)
			}
		})
		return n == 1
	}, time.Second, 5*time.Millisecond)

	h.view.snapshot(func(v *recordingView) {
		require.Len(t, v.posted, 1)
		assert.Equal(t, "SU:alice", v.profile[0].Actor)
	})
}

func TestFlow_FollowAndPeople(t *testing.T) {
	h := newHarness()
	h.signIn(t, "alice")

	_, err := h.flow.Follow(t.Context(), "bob").Wait(t.Context())
	require.NoError(t, err)
	_, err = h.flow.Follow(t.Context(), "bob").Wait(t.Context())
	require.NoError(t, err)

	people, err := h.flow.LoadPeople(t.Context()).Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, people)

	h.view.snapshot(func(v *recordingView) {
		assert.Equal(t, []string{"bob", "bob"}, v.followed)
		assert.Equal(t, []string{"bob"}, v.people)
		assert.Empty(t, v.errors)
	})
}

func TestFlow_OpenChat(t *testing.T) {
	h := newHarness()
	h.signIn(t, "alice")

	creds, err := h.flow.OpenChat(t.Context()).Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "chat-auth-alice", creds.Token)

	h.view.snapshot(func(v *recordingView) {
		require.NotNil(t, v.chat)
		assert.Equal(t, "key", v.chat.APIKey)
	})
}

func TestFlow_FeedBeforeSignIn(t *testing.T) {
	h := newHarness()

	_, err := h.flow.LoadProfile(t.Context()).Wait(t.Context())
	assert.ErrorIs(t, err, errs.ErrSessionNotReady)
	_, err = h.flow.SubmitPost(t.Context(), "hello").Wait(t.Context())
	assert.ErrorIs(t, err, errs.ErrSessionNotReady)
	_, err = h.flow.Follow(t.Context(), "bob").Wait(t.Context())
	assert.ErrorIs(t, err, errs.ErrSessionNotReady)

	assert.Zero(t, h.platform.Calls())
	h.view.snapshot(func(v *recordingView) {
		assert.Len(t, v.errors, 3)
	})
}

func TestFlow_PresentsThroughDispatcher(t *testing.T) {
	h := newHarness()
	q := NewQueue(1)
	h.flow = New(h.flow.session, h.flow.feed, h.view, q, nil)

	task := h.flow.SignIn(t.Context(), "alice")

	select {
	case fn := <-q.C():
		h.view.snapshot(func(v *recordingView) { assert.Empty(t, v.signedIn) })
		fn()
	case <-time.After(time.Second):
		t.Fatal("no presentation dispatched")
	}

	_, err := task.Wait(t.Context())
	require.NoError(t, err)
	h.view.snapshot(func(v *recordingView) { assert.Equal(t, "alice", v.signedIn) })
}

type brokenFeed struct {
	Feed
	activities *[]stream.Activity
}

func (b brokenFeed) FetchTimeline(context.Context) ([]stream.Activity, error) {
	return *b.activities, nil
}

func TestFlow_PanicIsPresented(t *testing.T) {
	h := newHarness()
	h.flow = New(h.flow.session, brokenFeed{}, h.view, Immediate, nil)

	_, err := h.flow.LoadTimeline(t.Context()).Wait(t.Context())
	require.Error(t, err)
	assert.ErrorContains(t, err, "nil pointer dereference")

	h.view.snapshot(func(v *recordingView) {
		require.Len(t, v.errors, 1)
		assert.Contains(t, v.errors[0], IntentTimeline)
		assert.Contains(t, v.errors[0], errs.UnknownMessage)
		assert.Nil(t, v.timeline)
	})
}
