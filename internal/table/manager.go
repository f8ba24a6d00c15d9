package table

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/virtuallego/backend/internal/config"
	"github.com/virtuallego/backend/internal/lego"
	"github.com/virtuallego/backend/internal/logger"
)

// Manager owns every open table. The database and Redis are optional; without them tables
// live in memory only.
type Manager struct {
	tables      map[string]*Table // token -> table
	db          *sqlx.DB
	rdb         *redis.Client
	config      *config.Config
	broadcaster Broadcaster
	log         *zap.SugaredLogger
	now         func() time.Time
	mu          sync.RWMutex
}

// NewManager creates a table manager
func NewManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *Manager {
	return &Manager{
		tables: make(map[string]*Table),
		db:     db,
		rdb:    rdb,
		config: cfg,
		log:    logger.Named("table"),
		now:    time.Now,
	}
}

// SetBroadcaster wires the websocket hub in.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.mu.Lock()
	m.broadcaster = b
	m.mu.Unlock()
}

func (m *Manager) getBroadcaster() Broadcaster {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.broadcaster
}

// generateToken returns length random bytes, hex encoded.
func generateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("table token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// CreateTable opens a new table with a fresh rack. An empty pin makes it public.
func (m *Manager) CreateTable(pin string) (*Table, error) {
	pinHash, err := hashPIN(pin)
	if err != nil {
		return nil, err
	}

	token, err := generateToken(8)
	if err != nil {
		m.log.Errorw("could not generate table token", "error", err)
		return nil, err
	}

	now := m.now()
	t := newTable(uuid.NewString(), token, pinHash, lego.NewDriver(lego.NewWorld()), now)

	m.mu.Lock()
	if len(m.tables) >= m.config.MaxTables {
		m.mu.Unlock()
		return nil, ErrTooManyTables
	}
	m.tables[t.Token] = t
	m.mu.Unlock()

	if id, err := m.insertTable(t); err != nil {
		m.log.Warnw("could not record table", "token", t.Token, "error", err)
	} else {
		t.SessionID = id
	}
	m.saveSnapshot(t, t.Snapshot())
	m.touch(t.Token, now)

	m.log.Infow("table created", "token", t.Token, "id", t.ID, "private", t.Private())
	return t, nil
}

// GetTableByToken looks in memory first, then tries to rebuild the table from Redis.
func (m *Manager) GetTableByToken(token string) (*Table, error) {
	m.mu.RLock()
	t, ok := m.tables[token]
	m.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := m.loadTable(token)
	if err != nil {
		if !errors.Is(err, ErrTableNotFound) {
			m.log.Warnw("rehydrate failed", "token", token, "error", err)
		}
		return nil, ErrTableNotFound
	}

	m.mu.Lock()
	if existing, ok := m.tables[token]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.tables[token] = t
	m.mu.Unlock()

	m.log.Infow("table rehydrated", "token", token, "frame", t.driver.Frame())
	m.touch(token, m.now())
	return t, nil
}

// CloseTable stops a table, drops its cached state and tells anyone watching.
func (m *Manager) CloseTable(token, reason string) error {
	m.mu.Lock()
	t, ok := m.tables[token]
	if ok {
		delete(m.tables, token)
	}
	m.mu.Unlock()
	if !ok {
		return ErrTableNotFound
	}
	t.persistMu.Lock()
	closed := t.close()
	if closed {
		m.dropCached(token)
	}
	t.persistMu.Unlock()
	if !closed {
		return ErrTableClosed
	}

	if err := m.markClosed(t); err != nil {
		m.log.Warnw("could not mark table closed", "token", token, "error", err)
	}
	m.publish(TableEvent{Type: MsgTableClosed, TableToken: token, Reason: reason})

	m.log.Infow("table closed", "token", token, "reason", reason)
	return nil
}

// ActiveTableCount returns the number of open tables
func (m *Manager) ActiveTableCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}

// Launch starts a round at the table.
func (m *Manager) Launch(token string) error {
	t, err := m.GetTableByToken(token)
	if err != nil {
		return err
	}
	now := m.now()
	if err := t.launch(now); err != nil {
		return err
	}
	m.touch(token, now)
	return nil
}

// Steer moves the control disk by delta along z.
func (m *Manager) Steer(token string, delta float64) (float64, error) {
	return m.steer(token, func(w *lego.World) float64 { return w.SteerControlDisk(delta) })
}

// Nudge is the keyboard step: direction "left" or "right".
func (m *Manager) Nudge(token, direction string) (float64, error) {
	switch direction {
	case "left":
		return m.steer(token, (*lego.World).NudgeLeft)
	case "right":
		return m.steer(token, (*lego.World).NudgeRight)
	}
	return 0, ErrBadDirection
}

// Drag converts a pointer drag in pixels into a steer.
func (m *Manager) Drag(token string, dx float64) (float64, error) {
	return m.steer(token, func(w *lego.World) float64 { return w.SteerByDrag(dx) })
}

func (m *Manager) steer(token string, fn func(w *lego.World) float64) (float64, error) {
	t, err := m.GetTableByToken(token)
	if err != nil {
		return 0, err
	}
	now := m.now()
	z, err := t.steer(now, fn)
	if err != nil {
		return 0, err
	}
	m.touch(token, now)
	return z, nil
}

func (m *Manager) openTables() []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	return out
}

// Tick advances every open table by the wall-clock time since its previous tick.
func (m *Manager) Tick(now time.Time) {
	b := m.getBroadcaster()
	for _, t := range m.openTables() {
		f, ok := t.advance(now, m.config.SnapshotEveryTicks)
		if !ok {
			continue
		}

		for _, e := range f.result.Events {
			if e.Type == lego.EventFault {
				m.log.Warnw("degenerate contact", "token", t.Token, "disk", e.DiskID, "against", e.TargetID, "detail", e.Detail)
			}
		}
		if f.publish && b != nil {
			b.BroadcastToTable(t.Token, FrameMessage{
				Type:     MsgFrame,
				Frame:    f.result.Frame,
				Events:   f.result.Events,
				Snapshot: f.result.Snapshot,
			})
		}
		for _, ev := range eventsFor(t.Token, f.result) {
			m.publish(ev)
		}
		if f.ended != nil {
			m.log.Infow("round ended", "token", t.Token, "round", f.ended.Stats.Number,
				"cleared", f.ended.Stats.TargetsCleared, "frames", f.ended.Stats.Frames)
			if err := m.recordRound(t, *f.ended); err != nil {
				m.log.Warnw("could not record round", "token", t.Token, "error", err)
			}
		}
		if f.persist {
			m.saveSnapshot(t, f.result.Snapshot)
		}
	}
}

// StartTicker runs Tick at the configured rate until ctx is done.
func (m *Manager) StartTicker(ctx context.Context) error {
	hz := m.config.TickRateHz
	if hz <= 0 {
		hz = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	m.log.Infow("ticker started", "hz", hz)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("ticker stopping")
			return nil
		case now := <-ticker.C:
			m.Tick(now)
		}
	}
}

// Shutdown saves every open table so another process can pick them up.
func (m *Manager) Shutdown() {
	for _, t := range m.openTables() {
		m.saveSnapshot(t, t.Snapshot())
	}
}
