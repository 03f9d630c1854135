package main

import "time"

// PendingAuth is the single-use state nonce persisted between the redirect
// to the instance and the callback.
type PendingAuth struct {
	ID        uint
	SessionID string `gorm:"index"`
	State     string
}

// Connection is the session credential for one connected browser session.
type Connection struct {
	ID          uint
	SessionID   string `gorm:"uniqueIndex"`
	AccessToken string
	ExpiresAt   time.Time
}
