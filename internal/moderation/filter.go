// Package moderation holds the pure moderation policy: content matching,
// the warn/mute/ban transition, welcome selection and the settings view
// rendered by the admin console. Nothing here performs I/O.
package moderation

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	lru "github.com/hashicorp/golang-lru/v2"

	"group-guard-bot/internal/repository"
)

type Reason string

const (
	ReasonNone       Reason = ""
	ReasonLink       Reason = "link"
	ReasonBannedWord Reason = "banned_word"
	ReasonFlood      Reason = "flood"
)

// Verdict is the outcome of checking one message.
type Verdict struct {
	Blocked bool
	Reason  Reason
	// Match is the banned word or link fragment that triggered the block.
	Match string
}

// linkPattern matches scheme prefixes, bare domain markers, @handles and
// t.me deep links. The bare ".com" marker also fires inside ordinary words.
var linkPattern = regexp.MustCompile(`(?i)https?://\S*|t\.me/\S*|\.(?:com|org|net)|@\w+`)

// FindLink returns the first link-like fragment in text.
func FindLink(text string) (string, bool) {
	m := linkPattern.FindString(text)
	return m, m != ""
}

const matcherCacheSize = 256

// matchers holds one automaton per distinct banned-word list, so a chat's
// matcher is rebuilt only after its list changes.
var matchers = mustMatcherCache(matcherCacheSize)

func mustMatcherCache(size int) *lru.Cache[string, *ahocorasick.Matcher] {
	c, err := lru.New[string, *ahocorasick.Matcher](size)
	if err != nil {
		panic(err)
	}
	return c
}

func matcherFor(dict []string) *ahocorasick.Matcher {
	key := strings.Join(dict, "\x00")
	if m, ok := matchers.Get(key); ok {
		return m
	}
	m := ahocorasick.NewStringMatcher(dict)
	matchers.Add(key, m)
	return m
}

// FindBannedWord reports the first banned word contained in text, ignoring case.
func FindBannedWord(text string, words []string) (string, bool) {
	dict := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			dict = append(dict, w)
		}
	}
	if len(dict) == 0 || text == "" {
		return "", false
	}
	hits := matcherFor(dict).MatchThreadSafe([]byte(strings.ToLower(text)))
	if len(hits) == 0 {
		return "", false
	}
	return dict[hits[0]], true
}

// Check evaluates text against the chat settings. Exempt authors are never blocked.
func Check(text string, settings *repository.ChatSettings, exempt bool) Verdict {
	if exempt || settings == nil {
		return Verdict{}
	}
	if settings.LinkFilterEnabled {
		if m, ok := FindLink(text); ok {
			return Verdict{Blocked: true, Reason: ReasonLink, Match: m}
		}
	}
	if len(settings.BannedWords) > 0 {
		if w, ok := FindBannedWord(text, settings.BannedWords); ok {
			return Verdict{Blocked: true, Reason: ReasonBannedWord, Match: w}
		}
	}
	return Verdict{}
}

func ShouldBlock(text string, settings *repository.ChatSettings, exempt bool) bool {
	return Check(text, settings, exempt).Blocked
}
