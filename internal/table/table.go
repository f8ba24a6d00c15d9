package table

import (
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/virtuallego/backend/internal/lego"
)

// Status of a table session
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// MaxFrameDT caps the wall-clock step handed to the driver so a stalled ticker cannot move
// a disk further than one diameter in a single frame.
const MaxFrameDT = 0.05

const historySize = 50

// Table is one running world plus the session data around it. Every access to the driver
// goes through mu.
type Table struct {
	ID        string
	Token     string
	SessionID int64
	CreatedAt time.Time

	pinHash        []byte
	status         Status
	lastActivity   time.Time
	lastTick       time.Time
	roundStartedAt time.Time
	ticks          uint64
	dirty          bool
	history        []RoundRecord

	driver *lego.Driver
	mu     sync.Mutex

	// persistMu serialises cache writes with close.
	persistMu sync.Mutex
}

// RoundRecord is a finished round kept in memory for tables without a database.
type RoundRecord struct {
	Stats     lego.RoundStats
	StartedAt time.Time
	EndedAt   time.Time
}

func newTable(id, token string, pinHash []byte, driver *lego.Driver, now time.Time) *Table {
	return &Table{
		ID:           id,
		Token:        token,
		CreatedAt:    now,
		pinHash:      pinHash,
		status:       StatusOpen,
		lastActivity: now,
		lastTick:     now,
		driver:       driver,
		dirty:        true,
	}
}

// Private reports whether joining needs a PIN.
func (t *Table) Private() bool {
	return len(t.pinHash) > 0
}

// CheckPIN compares pin against the stored hash. Public tables accept anything.
func (t *Table) CheckPIN(pin string) error {
	if !t.Private() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(t.pinHash, []byte(pin)); err != nil {
		return ErrWrongPIN
	}
	return nil
}

func (t *Table) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Table) LastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActivity
}

// Snapshot copies the world under the lock.
func (t *Table) Snapshot() lego.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.driver.Snapshot()
}

// History returns finished rounds, newest first.
func (t *Table) History() []RoundRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RoundRecord, len(t.history))
	for i, r := range t.history {
		out[len(t.history)-1-i] = r
	}
	return out
}

func (t *Table) launch(now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusOpen {
		return ErrTableClosed
	}
	if err := t.driver.Launch(); err != nil {
		return err
	}
	t.roundStartedAt = now
	t.lastActivity = now
	t.dirty = true
	return nil
}

// steer applies fn to the world and returns the control disk's new z.
func (t *Table) steer(now time.Time, fn func(w *lego.World) float64) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusOpen {
		return 0, ErrTableClosed
	}
	z := fn(t.driver.World)
	t.lastActivity = now
	t.dirty = true
	return z, nil
}

// frame is what one tick produced for a table.
type frame struct {
	result  lego.FrameResult
	ended   *RoundRecord
	publish bool // worth sending to clients
	persist bool // snapshot due
}

func (t *Table) advance(now time.Time, snapshotEvery int) (frame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusOpen {
		return frame{}, false
	}

	dt := now.Sub(t.lastTick).Seconds()
	if dt < 0 {
		dt = 0
	}
	if dt > MaxFrameDT {
		dt = MaxFrameDT
	}
	t.lastTick = now
	t.ticks++

	f := frame{result: t.driver.Advance(dt)}
	f.publish = t.dirty || t.driver.World.Round == lego.RoundActive || len(f.result.Events) > 0
	t.dirty = false

	for _, e := range f.result.Events {
		if e.Type == lego.EventReset && e.Round != nil {
			rec := RoundRecord{Stats: *e.Round, StartedAt: t.roundStartedAt, EndedAt: now}
			t.history = append(t.history, rec)
			if len(t.history) > historySize {
				t.history = t.history[len(t.history)-historySize:]
			}
			f.ended = &rec
		}
	}
	f.persist = f.ended != nil || (snapshotEvery > 0 && t.ticks%uint64(snapshotEvery) == 0)
	return f, true
}

func (t *Table) close() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusClosed {
		return false
	}
	t.status = StatusClosed
	return true
}

func hashPIN(pin string) ([]byte, error) {
	if pin == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
}
