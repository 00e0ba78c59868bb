package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"group-guard-bot/internal/repository"
)

func TestRenderToggles(t *testing.T) {
	s := repository.DefaultSettings(-1, "")
	assert.Equal(t, []Toggle{
		{Key: KeyLinkFilter, Label: "Link filter", Enabled: false},
		{Key: KeyWelcomeMsg, Label: "Welcome message", Enabled: true},
		{Key: KeyCleanService, Label: "Clean service messages", Enabled: true},
	}, RenderToggles(&s))
}

func TestTogglePatch_FlipsOnlyTheKey(t *testing.T) {
	s := repository.DefaultSettings(-1, "https://example.org")
	s.BannedWords = append(s.BannedWords, "spam")

	for _, key := range []SettingKey{KeyLinkFilter, KeyWelcomeMsg, KeyCleanService} {
		merged := repository.Merge(s, TogglePatch(&s, key))
		for _, tg := range RenderToggles(&merged) {
			before := settingValue(&s, tg.Key)
			if tg.Key == key {
				assert.Equal(t, !before, tg.Enabled, key)
			} else {
				assert.Equal(t, before, tg.Enabled, key)
			}
		}
		assert.Equal(t, []string{"spam"}, []string(merged.BannedWords))
		assert.Equal(t, "https://example.org", merged.WebsiteLink)
	}
}

func TestParseSettingKey(t *testing.T) {
	k, ok := ParseSettingKey("welcome_msg")
	assert.True(t, ok)
	assert.Equal(t, KeyWelcomeMsg, k)

	_, ok = ParseSettingKey("image")
	assert.False(t, ok)
}
