package main

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenSkew mirrors the library's front-loaded expiry so a near-dead token
// reads as disconnected.
const tokenSkew = 30 * time.Second

// dbTokenStore holds the session credential in sqlite, one row per browser
// session.
type dbTokenStore struct {
	db  *gorm.DB
	sid string
}

func (s *dbTokenStore) Store(token string, expiresIn time.Duration) {
	conn := &Connection{
		SessionID:   s.sid,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(expiresIn - tokenSkew),
	}

	s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(conn)
}

func (s *dbTokenStore) Read() (string, bool) {
	var conn Connection
	if err := s.db.Raw("SELECT * FROM connections WHERE session_id = ?", s.sid).Scan(&conn).Error; err != nil {
		return "", false
	}

	if conn.AccessToken == "" {
		return "", false
	}

	if !time.Now().Before(conn.ExpiresAt) {
		s.Clear()
		return "", false
	}

	return conn.AccessToken, true
}

func (s *dbTokenStore) Clear() {
	s.db.Exec("DELETE FROM connections WHERE session_id = ?", s.sid)
}

// dbStateStore persists the pending nonce across the authorization
// redirect.
type dbStateStore struct {
	db  *gorm.DB
	sid string
}

func (s *dbStateStore) Save(nonce string) {
	s.db.Exec("DELETE FROM pending_auths WHERE session_id = ?", s.sid)
	s.db.Create(&PendingAuth{SessionID: s.sid, State: nonce})
}

func (s *dbStateStore) Consume() (string, bool) {
	var pending PendingAuth
	if err := s.db.Raw("SELECT * FROM pending_auths WHERE session_id = ?", s.sid).Scan(&pending).Error; err != nil {
		return "", false
	}

	if pending.State == "" {
		return "", false
	}

	s.db.Exec("DELETE FROM pending_auths WHERE session_id = ?", s.sid)

	return pending.State, true
}
