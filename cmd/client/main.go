// Package main is the terminal client: an interactive shell that signs in
// through the credential backend and works with the hosted feeds.
package main

import (
	"bufio"
	"cmp"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/thestream/internal/client/backend"
	"github.com/atinyakov/thestream/internal/client/feed"
	"github.com/atinyakov/thestream/internal/client/flow"
	"github.com/atinyakov/thestream/internal/client/session"
	"github.com/atinyakov/thestream/internal/client/stream"
	"github.com/atinyakov/thestream/internal/logger"
	"github.com/atinyakov/thestream/internal/models"
)

var (
	version   string
	buildDate string
)

const helpText = "Available commands: signin <user>, timeline, profile, post <text>, people, follow <user>, chat, help, exit"

// shell owns the view. Every presentation callback runs on its loop.
type shell struct {
	flow  *flow.Flow
	view  *consoleView
	queue *flow.Queue
	out   io.Writer
}

// handle starts the intent for one input line. It returns false on exit.
func (s *shell) handle(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "signin":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: signin <user>")
			return true
		}
		s.flow.SignIn(ctx, args[1])
	case "timeline":
		s.flow.LoadTimeline(ctx)
	case "profile":
		s.flow.LoadProfile(ctx)
	case "post":
		msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "post"))
		if msg == "" {
			fmt.Fprintln(s.out, "Usage: post <text>")
			return true
		}
		s.flow.SubmitPost(ctx, msg)
	case "people":
		s.flow.LoadPeople(ctx)
	case "follow":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: follow <user>")
			return true
		}
		s.flow.Follow(ctx, args[1])
	case "chat":
		s.flow.OpenChat(ctx)
	case "exit":
		fmt.Fprintln(s.out, "Bye")
		return false
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return true
}

// run reads lines from in and drains presentation callbacks until exit,
// end of input or ctx cancellation.
func (s *shell) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	s.view.prompt()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.queue.C():
			fmt.Fprintln(s.out)
			fn()
			s.view.prompt()
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !s.handle(ctx, line) {
				return
			}
			s.view.prompt()
		}
	}
}

func main() {
	var (
		baseURL  string
		feedURL  string
		caFile   string
		user     string
		logLevel string
		showVer  bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "credential backend base URL")
	flag.StringVar(&feedURL, "feed-url", stream.DefaultBaseURL, "hosted feed REST base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for a TLS backend")
	flag.StringVar(&user, "user", "", "sign in as this user on start")
	flag.StringVar(&logLevel, "log-level", "error", "log level")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("thestream client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	log := logger.New()
	if err := log.Init(logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	httpClient, err := backend.NewHTTPClient(caFile)
	if err != nil {
		log.Log.Fatal("failed to build backend client", zap.Error(err))
	}

	feedHTTP := &http.Client{}
	newFeedClient := func(creds models.StreamCredentials, username string) (stream.Client, error) {
		c, err := stream.NewCloudClient(creds.APIKey, creds.Token, username,
			stream.WithBaseURL(feedURL), stream.WithHTTPClient(feedHTTP))
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	sess := session.New(backend.New(httpClient, baseURL), newFeedClient, log.Log)
	view := &consoleView{out: os.Stdout}
	queue := flow.NewQueue(16)
	defer queue.Close()

	sh := &shell{
		flow:  flow.New(sess, feed.New(sess), view, queue, log.Log),
		view:  view,
		queue: queue,
		out:   os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(helpText)
	if user != "" {
		sh.flow.SignIn(ctx, user)
	}
	sh.run(ctx, os.Stdin)
}
