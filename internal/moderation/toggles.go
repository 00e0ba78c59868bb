package moderation

import "group-guard-bot/internal/repository"

// SettingKey names a boolean chat setting that admins can flip.
type SettingKey string

const (
	KeyLinkFilter   SettingKey = "link_filter"
	KeyWelcomeMsg   SettingKey = "welcome_msg"
	KeyCleanService SettingKey = "clean_service"
)

var settingKeys = []SettingKey{KeyLinkFilter, KeyWelcomeMsg, KeyCleanService}

var settingLabels = map[SettingKey]string{
	KeyLinkFilter:   "Link filter",
	KeyWelcomeMsg:   "Welcome message",
	KeyCleanService: "Clean service messages",
}

func ParseSettingKey(s string) (SettingKey, bool) {
	for _, k := range settingKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Toggle describes one switch of the settings console.
type Toggle struct {
	Key     SettingKey
	Label   string
	Enabled bool
}

func settingValue(s *repository.ChatSettings, key SettingKey) bool {
	switch key {
	case KeyLinkFilter:
		return s.LinkFilterEnabled
	case KeyWelcomeMsg:
		return s.WelcomeEnabled
	case KeyCleanService:
		return s.CleanServiceMessages
	}
	return false
}

// RenderToggles returns the console switches for settings in display order.
func RenderToggles(s *repository.ChatSettings) []Toggle {
	toggles := make([]Toggle, 0, len(settingKeys))
	for _, k := range settingKeys {
		toggles = append(toggles, Toggle{Key: k, Label: settingLabels[k], Enabled: settingValue(s, k)})
	}
	return toggles
}

// TogglePatch builds the partial update that flips key. Only that field is set.
func TogglePatch(s *repository.ChatSettings, key SettingKey) repository.SettingsPatch {
	v := !settingValue(s, key)
	var patch repository.SettingsPatch
	switch key {
	case KeyLinkFilter:
		patch.LinkFilterEnabled = &v
	case KeyWelcomeMsg:
		patch.WelcomeEnabled = &v
	case KeyCleanService:
		patch.CleanServiceMessages = &v
	}
	return patch
}
