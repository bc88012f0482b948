package entity

import (
	"errors"
	"time"
)

// ErrInvalidSession is returned when an update session record is incomplete.
var ErrInvalidSession = errors.New("invalid update session")

// SessionID uniquely identifies one check or install run of the engine.
type SessionID string

// SessionKind distinguishes release checks from firmware installs.
type SessionKind string

const (
	SessionKindCheck   SessionKind = "check"
	SessionKindInstall SessionKind = "install"
)

// UpdateSession captures the outcome of a single engine run for the journal.
type UpdateSession struct {
	ID             SessionID
	Kind           SessionKind
	CurrentVersion string
	TargetVersion  string
	Status         UpdateStatus
	Error          UpdateError
	BytesWritten   uint64
	TotalBytes     uint64
	StartedAt      time.Time
	EndedAt        *time.Time
}

// ShortID returns the last eight characters of the session ID.
func (s *UpdateSession) ShortID() string {
	id := string(s.ID)
	if len(id) < 8 {
		return id
	}
	return id[len(id)-8:]
}

func (s *UpdateSession) IsActive() bool {
	return s != nil && s.EndedAt == nil
}

// End stamps the session with its final status.
func (s *UpdateSession) End(endedAt time.Time, status UpdateStatus, err UpdateError) {
	endedAt = endedAt.UTC()
	s.EndedAt = &endedAt
	s.Status = status
	s.Error = err
}

// Duration returns how long the session ran, or zero while it is active.
func (s *UpdateSession) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

func (s *UpdateSession) Validate() error {
	if s == nil {
		return ErrInvalidSession
	}
	if s.ID == "" {
		return ErrInvalidSession
	}
	if s.Kind != SessionKindCheck && s.Kind != SessionKindInstall {
		return ErrInvalidSession
	}
	if s.StartedAt.IsZero() {
		return ErrInvalidSession
	}
	return nil
}
