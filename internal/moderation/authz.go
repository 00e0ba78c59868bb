package moderation

// Authorizer holds the out-of-band configured owners and the chats the bot
// serves. An empty chat list means every chat is served.
type Authorizer struct {
	owners map[int64]struct{}
	chats  map[int64]struct{}
}

func NewAuthorizer(ownerIDs, authorizedChats []int64) Authorizer {
	a := Authorizer{
		owners: make(map[int64]struct{}, len(ownerIDs)),
		chats:  make(map[int64]struct{}, len(authorizedChats)),
	}
	for _, id := range ownerIDs {
		a.owners[id] = struct{}{}
	}
	for _, id := range authorizedChats {
		a.chats[id] = struct{}{}
	}
	return a
}

func (a Authorizer) IsOwner(userID int64) bool {
	_, ok := a.owners[userID]
	return ok
}

func (a Authorizer) ChatAllowed(chatID int64) bool {
	if len(a.chats) == 0 {
		return true
	}
	_, ok := a.chats[chatID]
	return ok
}

// IsPrivileged combines owner status with the platform admin flag.
func (a Authorizer) IsPrivileged(userID int64, isChatAdmin bool) bool {
	return isChatAdmin || a.IsOwner(userID)
}
