// Package ivr drives a call through the menu graph in response to Plivo's
// answer, digit-input and hangup webhooks.
package ivr

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"ivr-flow/internal/config"
	"ivr-flow/internal/menu"
	"ivr-flow/internal/models"
	"ivr-flow/internal/plivoxml"
	"ivr-flow/internal/session"
)

// Caller-facing messages.
const (
	MsgUnavailable      = "Sorry, our system is unavailable. Please try later."
	MsgCallError        = "An error occurred. Please try again later."
	MsgSessionExpired   = "Your session has expired. Please call back."
	MsgSystemError      = "System error. Please try later."
	MsgThankYou         = "Thank you for calling."
	MsgTransferConfig   = "Transfer configuration error."
	MsgInvalidInput     = "Invalid input. Please try again."
	MsgEscalateTransfer = "I didn't understand that. Your call is being transferred."
	MsgEscalateHangup   = "I didn't understand that. Goodbye."
)

const (
	callStatusCompleted    = "completed"
	defaultTransferTimeout = 30
)

// maxCallDuration is the longest duration credited to one call, in seconds.
const maxCallDuration = 24 * 60 * 60

// IncomingCall is the answer webhook payload.
type IncomingCall struct {
	CallUUID string
	From     string
	To       string
}

// HangupEvent is the hangup webhook payload. Duration is in seconds; zero
// means the provider did not report one.
type HangupEvent struct {
	CallUUID string
	Cause    string
	Duration int
}

// Engine is the call-flow state machine. It holds no per-call state of its
// own; everything lives in the session store between webhooks.
type Engine struct {
	sessions  session.Store
	menus     menu.Repository
	finalizer Finalizer
	cfg       config.IVRConfig
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*Engine)

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sends engine logs to l. A nil logger silences them.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		e.logger = l
	}
}

func NewEngine(sessions session.Store, menus menu.Repository, finalizer Finalizer, cfg config.IVRConfig, opts ...Option) *Engine {
	e := &Engine{
		sessions:  sessions,
		menus:     menus,
		finalizer: finalizer,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.RootMenuID == "" {
		e.cfg.RootMenuID = "main_menu"
	}
	return e
}

// HandleIncomingCall opens a session at the root menu and prompts with it.
func (e *Engine) HandleIncomingCall(ctx context.Context, call IncomingCall) plivoxml.Response {
	e.logger.Printf("incoming call: uuid=%s from=%s to=%s", call.CallUUID, call.From, call.To)

	root, err := e.menus.Get(ctx, e.cfg.RootMenuID)
	if err != nil {
		e.logger.Printf("incoming call: root menu %s: %v", e.cfg.RootMenuID, err)
		return plivoxml.SpeakHangup(MsgUnavailable, plivoxml.Voice{})
	}

	if _, err := e.sessions.Create(ctx, call.CallUUID, call.From, call.To); err != nil {
		if !errors.Is(err, session.ErrExists) {
			e.logger.Printf("incoming call: create session %s: %v", call.CallUUID, err)
			return plivoxml.SpeakHangup(MsgCallError, plivoxml.Voice{})
		}
		// redelivered answer webhook; keep the live session
		e.logger.Printf("incoming call: session %s already exists", call.CallUUID)
		return e.resume(ctx, call.CallUUID, root)
	}

	return e.prompt(root)
}

// HandleDigits validates a key press against the caller's current menu and
// moves the conversation on.
func (e *Engine) HandleDigits(ctx context.Context, callUUID, digits string) plivoxml.Response {
	e.logger.Printf("digit input: uuid=%s digits=%s", callUUID, digits)

	sess, err := e.sessions.Get(ctx, callUUID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		e.logger.Printf("digit input: session %s expired", callUUID)
		return plivoxml.SpeakHangup(MsgSessionExpired, plivoxml.Voice{})
	case err != nil:
		e.logger.Printf("digit input: load session %s: %v", callUUID, err)
		return plivoxml.SpeakHangup(MsgSystemError, plivoxml.Voice{})
	case sess.IsCompleted():
		return plivoxml.SpeakHangup(MsgSessionExpired, plivoxml.Voice{})
	}

	current, err := e.menus.Get(ctx, sess.CurrentMenuID)
	if err != nil {
		e.logger.Printf("digit input: current menu %s: %v", sess.CurrentMenuID, err)
		return plivoxml.SpeakHangup(MsgSystemError, plivoxml.Voice{})
	}

	target, ok := current.Target(digits)
	if !ok {
		return e.invalidInput(ctx, callUUID, current)
	}

	resp, advanceTo := e.route(ctx, target)

	// the press is recorded whatever the target turned out to be
	at := e.now()
	_, err = e.sessions.Update(ctx, callUUID, func(s *session.Session) error {
		s.RecordInput(current.MenuID, digits, at)
		s.InvalidAttempts = 0
		if advanceTo != "" {
			s.Advance(advanceTo)
		}
		return nil
	})
	if err != nil {
		e.logger.Printf("digit input: update session %s: %v", callUUID, err)
	}
	return resp
}

// route decides the response for a valid digit leading to target and the
// menu the session should advance to ("" to stay put).
func (e *Engine) route(ctx context.Context, target string) (plivoxml.Response, string) {
	if target == "" {
		return plivoxml.SpeakHangup(MsgThankYou, plivoxml.Voice{}), ""
	}

	next, err := e.menus.Get(ctx, target)
	if err != nil {
		e.logger.Printf("digit input: target menu %s: %v", target, err)
		return plivoxml.SpeakHangup(MsgSystemError, plivoxml.Voice{}), ""
	}

	switch next.ActionType {
	case models.ActionTransfer:
		number := next.TransferNumber()
		if number == "" {
			e.logger.Printf("digit input: transfer menu %s has no transfer_number", next.MenuID)
			return plivoxml.SpeakHangup(MsgTransferConfig, plivoxml.Voice{}), ""
		}
		return plivoxml.Dial(number, next.TransferTimeout(e.transferTimeout()), next.Message, voiceOf(next)), next.MenuID
	case models.ActionHangup:
		return plivoxml.SpeakHangup(next.Message, voiceOf(next)), ""
	default:
		return e.prompt(next), next.MenuID
	}
}

func (e *Engine) invalidInput(ctx context.Context, callUUID string, current *models.MenuNode) plivoxml.Response {
	attempts := 0
	updated, err := e.sessions.Update(ctx, callUUID, func(s *session.Session) error {
		s.InvalidAttempts++
		return nil
	})
	if err != nil {
		e.logger.Printf("digit input: count invalid attempt %s: %v", callUUID, err)
	} else {
		attempts = updated.InvalidAttempts
	}

	if e.cfg.MaxRetries > 0 && attempts >= e.cfg.MaxRetries {
		e.logger.Printf("digit input: %s reached %d invalid attempts", callUUID, attempts)
		if e.cfg.SupportTransferNumber != "" {
			return plivoxml.Dial(e.cfg.SupportTransferNumber, e.transferTimeout(), MsgEscalateTransfer, plivoxml.Voice{})
		}
		return plivoxml.SpeakHangup(MsgEscalateHangup, plivoxml.Voice{})
	}

	if current.InvalidInputMenuID != "" {
		node, err := e.menus.Get(ctx, current.InvalidInputMenuID)
		if err == nil {
			return e.prompt(node)
		}
		e.logger.Printf("digit input: invalid-input menu %s: %v", current.InvalidInputMenuID, err)
	}
	return plivoxml.Speak(MsgInvalidInput, plivoxml.Voice{})
}

// HandleHangup finalizes a call: the call record and caller profile are
// written independently, then the session is removed. It reports whether a
// session was found and finalized.
func (e *Engine) HandleHangup(ctx context.Context, ev HangupEvent) bool {
	e.logger.Printf("call hangup: uuid=%s cause=%s duration=%ds", ev.CallUUID, ev.Cause, ev.Duration)

	sess, err := e.sessions.Get(ctx, ev.CallUUID)
	if errors.Is(err, session.ErrNotFound) {
		e.logger.Printf("call hangup: session %s already expired or deleted", ev.CallUUID)
		return false
	}
	if err != nil {
		e.logger.Printf("call hangup: load session %s: %v", ev.CallUUID, err)
		return false
	}

	completed, err := e.sessions.Update(ctx, ev.CallUUID, func(s *session.Session) error {
		s.State = session.StateCompleted
		return nil
	})
	switch {
	case errors.Is(err, session.ErrCompleted), errors.Is(err, session.ErrNotFound):
		// another hangup delivery got here first
		e.logger.Printf("call hangup: session %s already finalized", ev.CallUUID)
		return false
	case err != nil:
		e.logger.Printf("call hangup: mark %s completed: %v", ev.CallUUID, err)
	default:
		sess = completed
	}

	duration := ev.Duration
	if duration < 0 {
		duration = 0
	}
	if duration > maxCallDuration {
		e.logger.Printf("call hangup: duration %ds for %s capped", duration, ev.CallUUID)
		duration = maxCallDuration
	}
	now := e.now()
	end := now
	if duration > 0 {
		end = sess.StartTime.Add(time.Duration(duration) * time.Second)
	}

	rec := &models.CallRecord{
		CallUUID:    sess.CallUUID,
		FromNumber:  sess.FromNumber,
		ToNumber:    sess.ToNumber,
		StartTime:   sess.StartTime,
		EndTime:     &end,
		Duration:    duration,
		CallStatus:  callStatusCompleted,
		HangupCause: ev.Cause,
		MenuPath:    sess.MenuHistory,
		UserInputs:  sess.UserInputs,
	}
	if err := e.finalizer.SaveCallRecord(ctx, rec); err != nil {
		e.logger.Printf("call hangup: %v", err)
	} else {
		e.logger.Printf("call hangup: saved call record %s", sess.CallUUID)
	}

	if err := e.finalizer.UpsertCallerProfile(ctx, CallerUpdate{
		PhoneNumber: sess.FromNumber,
		Duration:    duration,
		At:          now,
		LastMenu:    sess.LastMenu(),
	}); err != nil {
		e.logger.Printf("call hangup: %v", err)
	}

	if _, err := e.sessions.Delete(ctx, ev.CallUUID); err != nil {
		e.logger.Printf("call hangup: delete session %s: %v", ev.CallUUID, err)
	}
	return true
}

// resume re-prompts the menu a live session is waiting in, so the prompt
// matches the digits the next input will be checked against.
func (e *Engine) resume(ctx context.Context, callUUID string, root *models.MenuNode) plivoxml.Response {
	live, err := e.sessions.Get(ctx, callUUID)
	if err != nil || live.IsCompleted() || live.CurrentMenuID == root.MenuID {
		return e.prompt(root)
	}
	node, err := e.menus.Get(ctx, live.CurrentMenuID)
	if err != nil || node.ActionType == models.ActionTransfer || node.ActionType == models.ActionHangup {
		return e.prompt(root)
	}
	return e.prompt(node)
}

func (e *Engine) prompt(node *models.MenuNode) plivoxml.Response {
	timeout := node.Timeout
	if timeout <= 0 {
		timeout = e.cfg.DefaultTimeout
	}
	return plivoxml.GetDigits(node.Message, timeout, node.MaxDigits, e.cfg.ActionURL(), voiceOf(node))
}

func (e *Engine) transferTimeout() int {
	if e.cfg.DefaultTransferTimeout > 0 {
		return e.cfg.DefaultTransferTimeout
	}
	return defaultTransferTimeout
}

func voiceOf(node *models.MenuNode) plivoxml.Voice {
	return plivoxml.Voice{Language: node.Language, Voice: node.Voice, AudioURL: node.AudioURL}
}
