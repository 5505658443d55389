package channel

import (
	"strings"

	"github.com/matthewhand/hivepace/pkg/message"
)

// AllowList controls which users and groups may interact with a channel.
// An empty or nil AllowList denies everyone.
type AllowList struct {
	users  map[string]struct{}
	groups map[string]struct{}
}

// NewAllowList creates an AllowList with O(1) lookups. Keys are trimmed
// and lowercased at construction time so IsAllowed can use direct map
// lookups.
func NewAllowList(users, groups []string) *AllowList {
	a := &AllowList{
		users:  make(map[string]struct{}, len(users)),
		groups: make(map[string]struct{}, len(groups)),
	}
	for _, u := range users {
		a.users[normalizeKey(u)] = struct{}{}
	}
	for _, g := range groups {
		a.groups[normalizeKey(g)] = struct{}{}
	}
	return a
}

// IsAllowed reports whether the message sender or chat is permitted:
// a sender ID matching a user entry or a chat ID matching a group entry
// allows the message, anything else is denied.
func (a *AllowList) IsAllowed(msg message.InboundMessage) bool {
	if a == nil || (len(a.users) == 0 && len(a.groups) == 0) {
		return false
	}

	if _, ok := a.users[normalizeKey(msg.Sender.ID)]; ok {
		return true
	}
	if _, ok := a.groups[normalizeKey(msg.Chat.ID)]; ok {
		return true
	}
	return false
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
