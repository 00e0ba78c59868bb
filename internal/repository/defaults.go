package repository

import "github.com/lib/pq"

// DefaultSettings returns the record materialized on the first access to a chat.
func DefaultSettings(chatID int64, websiteLink string) ChatSettings {
	return ChatSettings{
		ChatID:               chatID,
		LinkFilterEnabled:    false,
		WelcomeEnabled:       true,
		CleanServiceMessages: true,
		WebsiteLink:          websiteLink,
		BannedWords:          pq.StringArray{},
		BannedUsers:          pq.Int64Array{},
		MutedUsers:           pq.Int64Array{},
		WarnCounts:           map[int64]int{},
	}
}

// SettingsPatch is a partial update. Nil fields are left untouched by Merge.
type SettingsPatch struct {
	LinkFilterEnabled    *bool
	WelcomeEnabled       *bool
	CleanServiceMessages *bool
	WebsiteLink          *string
	BannedWords          *[]string
}

// Merge applies the fields present in patch on top of current.
func Merge(current ChatSettings, patch SettingsPatch) ChatSettings {
	merged := current.Clone()
	if patch.LinkFilterEnabled != nil {
		merged.LinkFilterEnabled = *patch.LinkFilterEnabled
	}
	if patch.WelcomeEnabled != nil {
		merged.WelcomeEnabled = *patch.WelcomeEnabled
	}
	if patch.CleanServiceMessages != nil {
		merged.CleanServiceMessages = *patch.CleanServiceMessages
	}
	if patch.WebsiteLink != nil {
		merged.WebsiteLink = *patch.WebsiteLink
	}
	if patch.BannedWords != nil {
		merged.BannedWords = append(pq.StringArray{}, (*patch.BannedWords)...)
	}
	return merged
}

// Clone returns a copy that shares no slices or maps with s.
func (s ChatSettings) Clone() ChatSettings {
	c := s
	if s.BannedWords != nil {
		c.BannedWords = append(pq.StringArray{}, s.BannedWords...)
	}
	if s.BannedUsers != nil {
		c.BannedUsers = append(pq.Int64Array{}, s.BannedUsers...)
	}
	if s.MutedUsers != nil {
		c.MutedUsers = append(pq.Int64Array{}, s.MutedUsers...)
	}
	if s.WarnCounts != nil {
		c.WarnCounts = make(map[int64]int, len(s.WarnCounts))
		for id, n := range s.WarnCounts {
			c.WarnCounts[id] = n
		}
	}
	return c
}

// AddBannedUser records userID in the banned set. It reports whether the set changed.
func (s *ChatSettings) AddBannedUser(userID int64) bool {
	if s.HasBannedUser(userID) {
		return false
	}
	s.BannedUsers = append(s.BannedUsers, userID)
	return true
}

func (s *ChatSettings) AddMutedUser(userID int64) bool {
	if s.HasMutedUser(userID) {
		return false
	}
	s.MutedUsers = append(s.MutedUsers, userID)
	return true
}
