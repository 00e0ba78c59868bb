package moderation

import (
	"fmt"
	"math/rand/v2"
)

const WebsiteButtonLabel = "🌐 Visit our website"

// welcomeTemplates each take the member's display name.
var welcomeTemplates = []string{
	"👋 Welcome, %s! Glad to have you here.",
	"🎉 %s just joined the group. Say hi, everyone!",
	"Hey %s, welcome aboard! Please take a moment to read the rules.",
	"🌟 A warm welcome to %s! Make yourself at home.",
	"Hello %s! We're happy you found us. Enjoy the conversation.",
	"✨ %s has arrived. Welcome to the community!",
	"🙌 Welcome %s! Feel free to introduce yourself.",
}

type Button struct {
	Label string
	URL   string
}

type Welcome struct {
	Text    string
	Buttons []Button
}

// WelcomeSelector picks welcome messages. The zero value selects uniformly at random.
type WelcomeSelector struct {
	// IntN returns a value in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

func (w WelcomeSelector) Select(userName, websiteLink string) Welcome {
	intn := w.IntN
	if intn == nil {
		intn = rand.IntN
	}
	if userName == "" {
		userName = "friend"
	}

	welcome := Welcome{Text: fmt.Sprintf(welcomeTemplates[intn(len(welcomeTemplates))], userName)}
	if websiteLink != "" {
		welcome.Buttons = []Button{{Label: WebsiteButtonLabel, URL: websiteLink}}
	}
	return welcome
}

// SelectWelcome chooses a random welcome for userName, adding a website
// button only when websiteLink is set.
func SelectWelcome(userName, websiteLink string) Welcome {
	return WelcomeSelector{}.Select(userName, websiteLink)
}
