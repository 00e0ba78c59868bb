package moderation

import "time"

// DefaultWarnLimit is the warn count at which an infraction becomes a ban.
const DefaultWarnLimit = 5

// DefaultMuteDuration is how long a warned user stays restricted.
const DefaultMuteDuration = 24 * time.Hour

type Action string

const (
	ActionMute Action = "mute"
	ActionBan  Action = "ban"
)

// Infraction is the result of recording one infraction for a user.
type Infraction struct {
	Count  int
	Action Action
}

// DecideInfraction maps a post-increment warn count to the action to take.
// Counts are never reset after a ban, so any count at or above the limit bans.
func DecideInfraction(count, limit int) Infraction {
	if limit <= 0 {
		limit = DefaultWarnLimit
	}
	if count >= limit {
		return Infraction{Count: count, Action: ActionBan}
	}
	return Infraction{Count: count, Action: ActionMute}
}
