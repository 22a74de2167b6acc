// Package flow turns user intents into session and feed calls. Network
// work runs on background tasks; results reach the View only through the
// Dispatcher.
package flow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/thestream/internal/client/errs"
	"github.com/atinyakov/thestream/internal/client/stream"
	"github.com/atinyakov/thestream/internal/models"
)

// Intent names, used in logs and error presentation.
const (
	IntentSignIn   = "sign in"
	IntentTimeline = "timeline"
	IntentProfile  = "profile"
	IntentPost     = "post"
	IntentFollow   = "follow"
	IntentPeople   = "people"
	IntentChat     = "chat"
)

type Session interface {
	SignIn(ctx context.Context, username string) error
	EstablishFeedSession(ctx context.Context) error
	ListUsers(ctx context.Context) ([]string, error)
	ChatCredentials(ctx context.Context) (models.ChatCredentials, error)
}

type Feed interface {
	FetchTimeline(ctx context.Context) ([]stream.Activity, error)
	FetchProfile(ctx context.Context) ([]stream.Activity, error)
	Post(ctx context.Context, message string) (stream.Activity, error)
	Follow(ctx context.Context, other string) error
}

// View presents results. Its methods are only called through the
// Dispatcher. On failure only ShowError is called, so whatever the view
// displayed before stays in place.
type View interface {
	ShowError(intent, message string)
	ShowSignedIn(username string)
	ShowTimeline(activities []stream.Activity)
	ShowProfile(activities []stream.Activity)
	ShowPostSubmitted(activity stream.Activity)
	ShowFollowed(username string)
	ShowPeople(users []string)
	ShowChat(creds models.ChatCredentials)
}

type Flow struct {
	session  Session
	feed     Feed
	view     View
	dispatch Dispatcher
	log      *zap.Logger
}

func New(session Session, feed Feed, view View, dispatch Dispatcher, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{session: session, feed: feed, view: view, dispatch: dispatch, log: log}
}

// run executes work in the background, then dispatches either present or
// an error message. The task finishes after the dispatch.
func run[T any](f *Flow, ctx context.Context, intent string, work func(context.Context) (T, error), present func(T)) *Task[T] {
	return Go(ctx, func(ctx context.Context) (T, error) {
		val, err := guard(ctx, work)
		if err != nil {
			f.log.Warn("intent failed", zap.String("intent", intent), zap.Error(err))
			msg := errs.Message(err)
			f.dispatch.Dispatch(func() { f.view.ShowError(intent, msg) })
			return val, err
		}
		f.dispatch.Dispatch(func() { present(val) })
		return val, nil
	})
}

// guard turns a panic in work into an error so it is presented like any
// other failure.
func guard[T any](ctx context.Context, work func(context.Context) (T, error)) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", errs.UnknownMessage, r)
		}
	}()
	return work(ctx)
}

// SignIn signs in and establishes the feed session. Either step failing
// leaves the user on the sign-in view with an error.
func (f *Flow) SignIn(ctx context.Context, username string) *Task[string] {
	return run(f, ctx, IntentSignIn, func(ctx context.Context) (string, error) {
		if err := f.session.SignIn(ctx, username); err != nil {
			return "", err
		}
		if err := f.session.EstablishFeedSession(ctx); err != nil {
			return "", err
		}
		return username, nil
	}, f.view.ShowSignedIn)
}

func (f *Flow) LoadTimeline(ctx context.Context) *Task[[]stream.Activity] {
	return run(f, ctx, IntentTimeline, f.feed.FetchTimeline, f.view.ShowTimeline)
}

func (f *Flow) LoadProfile(ctx context.Context) *Task[[]stream.Activity] {
	return run(f, ctx, IntentProfile, f.feed.FetchProfile, f.view.ShowProfile)
}

// SubmitPost posts message and, once it is acknowledged, reloads the
// profile. The returned task does not wait for the reload.
func (f *Flow) SubmitPost(ctx context.Context, message string) *Task[stream.Activity] {
	return run(f, ctx, IntentPost, func(ctx context.Context) (stream.Activity, error) {
		return f.feed.Post(ctx, message)
	}, func(a stream.Activity) {
		f.view.ShowPostSubmitted(a)
		f.LoadProfile(ctx)
	})
}

func (f *Flow) Follow(ctx context.Context, other string) *Task[string] {
	return run(f, ctx, IntentFollow, func(ctx context.Context) (string, error) {
		return other, f.feed.Follow(ctx, other)
	}, f.view.ShowFollowed)
}

func (f *Flow) LoadPeople(ctx context.Context) *Task[[]string] {
	return run(f, ctx, IntentPeople, f.session.ListUsers, f.view.ShowPeople)
}

func (f *Flow) OpenChat(ctx context.Context) *Task[models.ChatCredentials] {
	return run(f, ctx, IntentChat, f.session.ChatCredentials, f.view.ShowChat)
}
