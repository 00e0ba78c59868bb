// Package messages holds the user-facing texts. Texts sent with HTML
// formatting escape their arguments at the call site.
package messages

const (
	MsgStart = "👋 Hi! I keep group chats clean.\n\n" +
		"Add me to a group as an administrator with the rights to delete messages and ban users, " +
		"then send /settings in the group to configure me."
	MsgHelp = "<b>Group commands</b> (admins only)\n" +
		"/settings - open the settings panel\n" +
		"/mute - reply to a user (or pass an id) to warn and mute them\n" +
		"/ban - reply to a user (or pass an id) to ban them\n" +
		"/warns - reply to a user to see their warnings\n" +
		"/setwebsite &lt;url&gt; - set the welcome website link\n" +
		"/addword w1, w2 - add banned words\n" +
		"/delword w - remove a banned word\n" +
		"/words - list banned words\n" +
		"/clearwords - remove all banned words\n" +
		"/stats - show moderation statistics\n" +
		"/cancel - cancel the current input"

	MsgProhibitedLink    = "⚠️ %s, links are not allowed in this chat."
	MsgProhibitedWord    = "⚠️ %s, your message contained a banned word."
	MsgProhibitedFlood   = "⚠️ %s, you are sending messages too fast."
	MsgUserMuted         = "🔇 %s has been muted for %s. Warnings: %d/%d."
	MsgUserBanned        = "⛔ %s has been banned. Warnings: %d/%d."
	MsgUserBannedDirect  = "⛔ %s has been banned."
	MsgUserWarns         = "%s has %s (limit %d)."
	MsgTargetRequired    = "Reply to a user's message or pass a numeric user id."
	MsgAdminsOnly        = "⛔ This command is for group admins only."
	MsgUserNotFound      = "❓ User not found in this chat."
	MsgGenericError      = "😕 Something went wrong. Please try again later."
	MsgPrivateOnlyStart  = "This command only works in groups. Add me to a group and send it there."
	MsgSettingsTitle     = "⚙️ <b>Settings for %s</b>\n\nWebsite: %s\nBanned words: %d"
	MsgSettingsNoWebsite = "not set"

	MsgPromptWebsite     = "🌐 Send the website link for welcome messages (http:// or https://). Send /cancel to stop."
	MsgPromptAddWords    = "🚫 Send the words to ban, separated by commas. Send /cancel to stop."
	MsgPromptImportWords = "📄 Send a .txt file with one banned word per line. Send /cancel to stop."
	MsgInvalidWebsite    = "❌ That is not a valid link. It must start with http:// or https://. Try again or send /cancel."
	MsgWebsiteSet        = "✅ Website link set to %s"
	MsgSessionCancelled  = "Cancelled."
	MsgNothingToCancel   = "There is nothing to cancel."

	MsgWordsAdded       = "✅ Added %d banned word(s)."
	MsgWordRemoved      = "✅ Removed %q from banned words."
	MsgWordNotFound     = "❓ %q is not a banned word."
	MsgWordsCleared     = "🗑 Removed %d banned word(s)."
	MsgWordsList        = "🚫 Banned words (%d):\n%s"
	MsgWordsEmpty       = "No banned words yet."
	MsgNoValidItems     = "❌ No valid words found."
	MsgImportFileNeeded = "❌ Please send a .txt file."
	MsgImportEmpty      = "❌ The file has no usable words."
	MsgImportSuccess    = "✅ Imported %d banned word(s)."
	MsgImportPartial    = "✅ Imported %d banned word(s), skipped %d line(s) with spaces."
	MsgImportError      = "❌ Could not read the file."

	MsgChatStatistics = "📊 <b>Statistics for %s</b>\n\n" +
		"Link violations: %d\n" +
		"Banned word violations: %d\n" +
		"Flood violations: %d\n" +
		"Mutes: %d\n" +
		"Bans: %d\n" +
		"Welcomes sent: %d"
)

const (
	BtnEnabled     = "✅"
	BtnDisabled    = "❌"
	BtnWebsite     = "🌐 Set website link"
	BtnAddWords    = "🚫 Add banned words"
	BtnImportWords = "📄 Import words from file"
	BtnClearWords  = "🗑 Clear banned words"
	BtnStatistics  = "📊 Statistics"
	BtnClose       = "✖️ Close"
	BtnCancel      = "✖️ Cancel"
)

const (
	CbSettingUpdated = "Setting updated"
	CbAdminsOnly     = "Admins only"
	CbExpired        = "This input has expired"
	CbError          = "Something went wrong"
)
