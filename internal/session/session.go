// Package session keeps per-call conversational state in an external
// key/value store between webhook deliveries.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ivr-flow/internal/models"
)

type State string

const (
	StateActive    State = "active"
	StateCompleted State = "completed"
)

var (
	ErrNotFound  = errors.New("session: not found")
	ErrExists    = errors.New("session: already exists")
	ErrCompleted = errors.New("session: already completed")
	ErrConflict  = errors.New("session: concurrent update")
	ErrDecode    = errors.New("session: decode failed")
)

// Session is the JSON document stored under one call's key.
type Session struct {
	CallUUID        string              `json:"call_uuid"`
	FromNumber      string              `json:"from_number"`
	ToNumber        string              `json:"to_number"`
	CurrentMenuID   string              `json:"current_menu_id"`
	MenuHistory     []string            `json:"menu_history"`
	UserInputs      []models.DigitInput `json:"user_inputs"`
	InvalidAttempts int                 `json:"invalid_attempts,omitempty"`
	StartTime       time.Time           `json:"start_time"`
	LastActivity    time.Time           `json:"last_activity"`
	State           State               `json:"state"`
}

// New builds an active session positioned at the root menu.
func New(callUUID, from, to, rootMenuID string, now time.Time) *Session {
	return &Session{
		CallUUID:      callUUID,
		FromNumber:    from,
		ToNumber:      to,
		CurrentMenuID: rootMenuID,
		MenuHistory:   []string{rootMenuID},
		UserInputs:    []models.DigitInput{},
		StartTime:     now,
		LastActivity:  now,
		State:         StateActive,
	}
}

// Advance moves the caller to menuID, keeping CurrentMenuID equal to the
// last element of MenuHistory.
func (s *Session) Advance(menuID string) {
	s.MenuHistory = append(s.MenuHistory, menuID)
	s.CurrentMenuID = menuID
}

// RecordInput appends a digit press made at menuID.
func (s *Session) RecordInput(menuID, digit string, at time.Time) {
	s.UserInputs = append(s.UserInputs, models.DigitInput{
		MenuID:    menuID,
		Digit:     digit,
		Timestamp: at,
	})
}

func (s *Session) IsCompleted() bool {
	return s.State == StateCompleted
}

// LastMenu is the most recent menu visited.
func (s *Session) LastMenu() string {
	if len(s.MenuHistory) == 0 {
		return s.CurrentMenuID
	}
	return s.MenuHistory[len(s.MenuHistory)-1]
}

func (s *Session) validate() error {
	if s.CallUUID == "" {
		return errors.New("missing call_uuid")
	}
	if len(s.MenuHistory) == 0 {
		return errors.New("empty menu_history")
	}
	if s.MenuHistory[len(s.MenuHistory)-1] != s.CurrentMenuID {
		return fmt.Errorf("current_menu_id %q is not the last visited menu", s.CurrentMenuID)
	}
	switch s.State {
	case StateActive, StateCompleted:
	default:
		return fmt.Errorf("unknown state %q", s.State)
	}
	return nil
}

// DecodeError is returned when a stored document cannot be turned back
// into a Session. It matches ErrDecode with errors.Is.
type DecodeError struct {
	CallUUID string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("session %s: decode: %v", e.CallUUID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func encode(s *Session) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("session %s: %w", s.CallUUID, err)
	}
	return json.Marshal(s)
}

func decode(callUUID string, raw []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &DecodeError{CallUUID: callUUID, Err: err}
	}
	if err := s.validate(); err != nil {
		return nil, &DecodeError{CallUUID: callUUID, Err: err}
	}
	if s.UserInputs == nil {
		s.UserInputs = []models.DigitInput{}
	}
	return &s, nil
}
