package realtime

import "fmt"

// Event names broadcast to connected clients.
const (
	EventNewMessage     = "newMessage"
	EventMemberAdded    = "memberAdded"
	EventMemberRemoved  = "memberRemoved"
	EventGroupDissolved = "groupDissolved"
	EventNewMatch       = "newMatch"
	EventMatchRemoved   = "matchRemoved"
	EventNotification   = "notification"
)

// Notifier broadcasts membership and message events to connected clients.
// Emits are fire-and-forget; callers never wait for delivery.
type Notifier interface {
	EmitToChat(chatID uint64, event string, payload any)
	EmitToUser(userID uint64, event string, payload any)
}

// ChatRoom returns the room name for a chat-scoped broadcast.
func ChatRoom(chatID uint64) string { return fmt.Sprintf("chat_%d", chatID) }

// UserRoom returns the room name for a user-scoped broadcast.
func UserRoom(userID uint64) string { return fmt.Sprintf("user_%d", userID) }
