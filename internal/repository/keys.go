package repository

// Storage keys match the original browser app, so data exported from it can
// be imported unchanged.
const (
	// SessionKey holds the single active session record.
	SessionKey = "ticketapp_session"
	// UsersKey holds the registered-user list.
	UsersKey = "ticketapp_users"

	ticketsKeyPrefix = "ticketapp_tickets"
)

// TicketsKey derives the partition key for a user's tickets. The empty user
// id maps to the bare prefix: the shared partition for anonymous callers.
func TicketsKey(userID string) string {
	if userID == "" {
		return ticketsKeyPrefix
	}
	return ticketsKeyPrefix + "_" + userID
}
