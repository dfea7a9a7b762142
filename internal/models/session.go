package models

import "time"

type Session struct {
	Token     string `gorm:"primarykey"`
	UserID    uint   `gorm:"index"` // with index, user easy to find all sessions they have
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Valid reports whether the session can still authenticate requests.
func (s *Session) Valid() bool {
	return !s.Revoked && time.Now().Before(s.ExpiresAt)
}
