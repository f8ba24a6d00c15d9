package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virtuallego/backend/internal/lego"
	rediskeys "github.com/virtuallego/backend/internal/redis"
)

const (
	snapshotTTL  = time.Hour
	redisTimeout = 2 * time.Second
)

// storedTable is the Redis form of a table.
type storedTable struct {
	ID             string        `json:"id"`
	Token          string        `json:"token"`
	PINHash        string        `json:"pin_hash,omitempty"`
	SessionID      int64         `json:"session_id"`
	CreatedAt      time.Time     `json:"created_at"`
	RoundStartedAt time.Time     `json:"round_started_at"`
	History        []RoundRecord `json:"history,omitempty"`
	Snapshot       lego.Snapshot `json:"snapshot"`
}

// stored returns false once the table is closed; closed tables are never written back.
func (t *Table) stored(s lego.Snapshot) (storedTable, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusClosed {
		return storedTable{}, false
	}
	history := make([]RoundRecord, len(t.history))
	copy(history, t.history)
	return storedTable{
		ID:             t.ID,
		Token:          t.Token,
		PINHash:        string(t.pinHash),
		SessionID:      t.SessionID,
		CreatedAt:      t.CreatedAt,
		RoundStartedAt: t.roundStartedAt,
		History:        history,
		Snapshot:       s,
	}, true
}

func restoreTable(st storedTable, now time.Time) (*Table, error) {
	dr, err := lego.RestoreDriver(st.Snapshot)
	if err != nil {
		return nil, err
	}
	var pinHash []byte
	if st.PINHash != "" {
		pinHash = []byte(st.PINHash)
	}
	t := newTable(st.ID, st.Token, pinHash, dr, now)
	t.SessionID = st.SessionID
	t.CreatedAt = st.CreatedAt
	t.roundStartedAt = st.RoundStartedAt
	t.history = st.History
	return t, nil
}

// saveSnapshot writes the table to table:<token>:state.
func (m *Manager) saveSnapshot(t *Table, s lego.Snapshot) {
	if m.rdb == nil {
		return
	}
	t.persistMu.Lock()
	defer t.persistMu.Unlock()

	st, ok := t.stored(s)
	if !ok {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		m.log.Warnw("could not encode snapshot", "token", t.Token, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := m.rdb.SetEx(ctx, rediskeys.TableStateKey(t.Token), data, snapshotTTL).Err(); err != nil {
		m.log.Warnw("could not save snapshot", "token", t.Token, "error", err)
	}
}

// loadTable rebuilds a table from its cached snapshot.
func (m *Manager) loadTable(token string) (*Table, error) {
	if m.rdb == nil {
		return nil, ErrTableNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	data, err := m.rdb.Get(ctx, rediskeys.TableStateKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}

	var st storedTable
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode cached table: %w", err)
	}
	return restoreTable(st, m.now())
}

func (m *Manager) dropCached(token string) {
	if m.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := m.rdb.Del(ctx, rediskeys.TableStateKey(token)).Err(); err != nil {
		m.log.Warnw("could not drop snapshot", "token", token, "error", err)
	}
	m.rdb.ZRem(ctx, rediskeys.TableIdleSet, token)
}

// touch pushes the table's idle deadline out.
func (m *Manager) touch(token string, now time.Time) {
	if m.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	deadline := now.Unix() + int64(m.config.TableIdleSeconds)
	if err := m.rdb.ZAdd(ctx, rediskeys.TableIdleSet, redis.Z{Score: float64(deadline), Member: token}).Err(); err != nil {
		m.log.Warnw("could not schedule idle check", "token", token, "error", err)
	}
}

// publish sends ev over table_events, or straight to the rooms when Redis is not configured.
func (m *Manager) publish(ev TableEvent) {
	if m.rdb == nil {
		Deliver(m.getBroadcaster(), ev)
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := m.rdb.Publish(ctx, rediskeys.TableEventsChannel, data).Err(); err != nil {
		m.log.Warnw("publish failed, delivering locally", "type", ev.Type, "token", ev.TableToken, "error", err)
		Deliver(m.getBroadcaster(), ev)
	}
}

func idleMax(now time.Time) string {
	return strconv.FormatInt(now.Unix(), 10)
}
