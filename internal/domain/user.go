package domain

import "time"

// User is a record in the persisted user registry. Email is stored lowercased
// and trimmed and acts as the natural key.
//
// Password is kept exactly as submitted. Plaintext storage is a deliberate
// parity decision with the demo data format and a documented weakness; do not
// reuse this registry for anything real.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns the public projection embedded in sessions.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name}
}
