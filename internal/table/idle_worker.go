package table

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virtuallego/backend/internal/logger"
	rediskeys "github.com/virtuallego/backend/internal/redis"
)

// RunIdleWorker closes tables nobody has touched for TABLE_IDLE_SECONDS. With Redis it works
// off the table_idle sorted set; without it, it scans the tables in memory.
func (m *Manager) RunIdleWorker(ctx context.Context) error {
	log := logger.Named("idle")
	poll := time.Duration(m.config.IdleWorkerPollInterval) * time.Second
	if poll <= 0 {
		poll = 15 * time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	log.Infow("idle worker started", "poll", poll)
	for {
		select {
		case <-ctx.Done():
			log.Info("idle worker stopping")
			return nil
		case now := <-ticker.C:
			if n := m.SweepIdle(ctx, now); n > 0 {
				log.Infow("closed idle tables", "count", n)
			}
		}
	}
}

// SweepIdle closes every table whose idle deadline has passed and returns how many it closed.
func (m *Manager) SweepIdle(ctx context.Context, now time.Time) int {
	var candidates []string
	if m.rdb != nil {
		members, err := m.rdb.ZRangeByScore(ctx, rediskeys.TableIdleSet, &redis.ZRangeBy{Min: "-inf", Max: idleMax(now)}).Result()
		if err != nil {
			m.log.Warnw("could not fetch idle tables", "error", err)
			return 0
		}
		for _, token := range members {
			// only the worker that removes the member acts on it
			if removed, _ := m.rdb.ZRem(ctx, rediskeys.TableIdleSet, token).Result(); removed > 0 {
				candidates = append(candidates, token)
			}
		}
	} else {
		for _, t := range m.openTables() {
			candidates = append(candidates, t.Token)
		}
	}

	limit := time.Duration(m.config.TableIdleSeconds) * time.Second
	closed := 0
	for _, token := range candidates {
		m.mu.RLock()
		t, ok := m.tables[token]
		m.mu.RUnlock()
		if !ok {
			// not loaded here; its cached state just expires
			continue
		}
		if now.Sub(t.LastActivity()) < limit {
			m.touch(token, t.LastActivity())
			continue
		}
		if err := m.CloseTable(token, "idle"); err == nil {
			closed++
		}
	}
	return closed
}
