package ivr

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"ivr-flow/internal/config"
	"ivr-flow/internal/menu"
	"ivr-flow/internal/models"
	"ivr-flow/internal/session"
)

// fakeMenus is an in-memory menu.Repository.
type fakeMenus struct {
	nodes   map[string]*models.MenuNode
	lookups int
}

func newFakeMenus(nodes ...models.MenuNode) *fakeMenus {
	m := &fakeMenus{nodes: make(map[string]*models.MenuNode)}
	for i := range nodes {
		n := nodes[i]
		m.nodes[n.MenuID] = &n
	}
	return m
}

func (m *fakeMenus) Get(_ context.Context, menuID string) (*models.MenuNode, error) {
	m.lookups++
	n, ok := m.nodes[menuID]
	if !ok || !n.IsActive {
		return nil, menu.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

// recordingFinalizer keeps every write and aggregates profiles like the
// database would.
type recordingFinalizer struct {
	mu         sync.Mutex
	records    []*models.CallRecord
	updates    []CallerUpdate
	profiles   map[string]*models.CallerProfile
	recordErr  error
	profileErr error
}

func newRecordingFinalizer() *recordingFinalizer {
	return &recordingFinalizer{profiles: make(map[string]*models.CallerProfile)}
}

func (f *recordingFinalizer) SaveCallRecord(_ context.Context, rec *models.CallRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *recordingFinalizer) UpsertCallerProfile(_ context.Context, u CallerUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return f.profileErr
	}
	f.updates = append(f.updates, u)
	p, ok := f.profiles[u.PhoneNumber]
	if !ok {
		f.profiles[u.PhoneNumber] = &models.CallerProfile{
			PhoneNumber: u.PhoneNumber, FirstCallAt: u.At, LastCallAt: u.At,
			TotalCalls: 1, TotalDuration: u.Duration,
		}
		return nil
	}
	p.TotalCalls++
	p.TotalDuration += u.Duration
	p.LastCallAt = u.At
	return nil
}

func (f *recordingFinalizer) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records) + len(f.updates)
}

// threeNodeGraph: root offers 1 -> hangup node A, 2 -> transfer node B.
func threeNodeGraph() []models.MenuNode {
	return []models.MenuNode{
		{
			MenuID:       "main_menu",
			Message:      "Press 1 to leave, 2 for an agent.",
			MaxDigits:    1,
			Timeout:      8,
			DigitActions: map[string]string{"1": "goodbye", "2": "agent"},
			ActionType:   models.ActionMenu,
			IsActive:     true,
		},
		{
			MenuID:     "goodbye",
			Message:    "Goodbye & thanks for calling.",
			ActionType: models.ActionHangup,
			IsActive:   true,
		},
		{
			MenuID:       "agent",
			Message:      "Connecting you to an agent.",
			ActionType:   models.ActionTransfer,
			ActionConfig: &models.ActionConfig{TransferNumber: "+15550009999"},
			IsActive:     true,
		},
	}
}

type fixture struct {
	engine    *Engine
	store     *session.MemoryStore
	menus     *fakeMenus
	finalizer *recordingFinalizer
	clock     *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testIVRConfig() config.IVRConfig {
	cfg := config.Defaults().IVR
	cfg.WebhookBaseURL = "https://ivr.example.com"
	return cfg
}

func newFixture(t *testing.T, cfg config.IVRConfig, nodes ...models.MenuNode) *fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStore(session.Options{
		RootMenuID:       cfg.RootMenuID,
		TTL:              cfg.SessionTTLDuration(),
		RejectDuplicates: cfg.RejectDuplicateSessions,
		Now:              clock.Now,
	})
	menus := newFakeMenus(nodes...)
	fin := newRecordingFinalizer()
	engine := NewEngine(store, menus, fin, cfg,
		WithClock(clock.Now),
		WithLogger(log.New(io.Discard, "", 0)),
	)
	return &fixture{engine: engine, store: store, menus: menus, finalizer: fin, clock: clock}
}

func (f *fixture) answer(t *testing.T, callUUID, from string) {
	t.Helper()
	resp := f.engine.HandleIncomingCall(context.Background(), IncomingCall{CallUUID: callUUID, From: from, To: "+15550000000"})
	if resp.Hangs() {
		t.Fatalf("answer hung up: %s", resp.Body)
	}
}

func (f *fixture) session(t *testing.T, callUUID string) *session.Session {
	t.Helper()
	s, err := f.store.Get(context.Background(), callUUID)
	if err != nil {
		t.Fatalf("session %s: %v", callUUID, err)
	}
	return s
}
