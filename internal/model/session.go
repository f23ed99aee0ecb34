package model

import "time"

// Session is the server-side state behind an authenticated client.
type Session struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
