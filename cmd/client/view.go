package main

import (
	"fmt"
	"io"

	"github.com/atinyakov/thestream/internal/client/flow"
	"github.com/atinyakov/thestream/internal/client/stream"
	"github.com/atinyakov/thestream/internal/models"
)

// consoleView prints results to out. It is only touched from the shell
// loop, so it needs no locking.
type consoleView struct {
	out io.Writer
	// user is set once sign-in is presented.
	user string
}

// ShowError reports a failed intent. A failed sign-in has already dropped
// the previous identity, so the prompt stops showing it.
func (v *consoleView) ShowError(intent, message string) {
	if intent == flow.IntentSignIn {
		v.user = ""
	}
	fmt.Fprintf(v.out, "%s failed: %s\n", intent, message)
}

func (v *consoleView) ShowSignedIn(username string) {
	v.user = username
	fmt.Fprintf(v.out, "Signed in as %s\n", username)
}

func (v *consoleView) ShowTimeline(activities []stream.Activity) {
	fmt.Fprintln(v.out, "Timeline:")
	v.printActivities(activities)
}

func (v *consoleView) ShowProfile(activities []stream.Activity) {
	fmt.Fprintln(v.out, "Profile:")
	v.printActivities(activities)
}

func (v *consoleView) printActivities(activities []stream.Activity) {
	if len(activities) == 0 {
		fmt.Fprintln(v.out, "  (no activities)")
		return
	}
	for _, a := range activities {
		fmt.Fprintf(v.out, "  %s  %s: %s\n", a.Time, a.Actor, a.Message())
	}
}

func (v *consoleView) ShowPostSubmitted(activity stream.Activity) {
	fmt.Fprintf(v.out, "Posted %q\n", activity.Message())
}

func (v *consoleView) ShowFollowed(username string) {
	fmt.Fprintf(v.out, "Now following %s\n", username)
}

func (v *consoleView) ShowPeople(users []string) {
	if len(users) == 0 {
		fmt.Fprintln(v.out, "Nobody else is here yet")
		return
	}
	fmt.Fprintln(v.out, "People:")
	for _, u := range users {
		fmt.Fprintf(v.out, "  %s\n", u)
	}
}

func (v *consoleView) ShowChat(creds models.ChatCredentials) {
	fmt.Fprintf(v.out, "Chat ready for %s (api key %s, avatar %s)\n", creds.User.ID, creds.APIKey, creds.User.Image)
}

func (v *consoleView) prompt() {
	if v.user == "" {
		fmt.Fprint(v.out, "thestream> ")
		return
	}
	fmt.Fprintf(v.out, "thestream(%s)> ", v.user)
}
