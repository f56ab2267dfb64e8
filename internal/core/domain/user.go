package domain

import "time"

// UserRecord is a user known to the bot.
type UserRecord struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the chat identity attached to an incoming update.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}
