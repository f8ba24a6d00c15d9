package table

import (
	"github.com/virtuallego/backend/internal/models"
)

// insertTable writes the lego_tables row and returns its id. Without a database it is a no-op.
func (m *Manager) insertTable(t *Table) (int64, error) {
	if m == nil || m.db == nil {
		return 0, nil
	}
	var id int64
	err := m.db.Get(&id,
		`INSERT INTO lego_tables (table_uuid, token, private, status, created_at) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		t.ID, t.Token, t.Private(), models.TableOpen, t.CreatedAt)
	return id, err
}

// recordRound stores a finished round and bumps the table's round counter.
func (m *Manager) recordRound(t *Table, r RoundRecord) error {
	if m == nil || m.db == nil || t.SessionID == 0 {
		return nil
	}
	tx, err := m.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	started := r.StartedAt
	if started.IsZero() {
		started = r.EndedAt
	}
	if _, err := tx.Exec(
		`INSERT INTO lego_rounds (table_id, round_number, targets_cleared, frames, started_at, ended_at)
		 VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (table_id, round_number) DO NOTHING`,
		t.SessionID, r.Stats.Number, r.Stats.TargetsCleared, r.Stats.Frames, started, r.EndedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE lego_tables SET rounds_played = GREATEST(rounds_played, $1) WHERE id=$2`,
		r.Stats.Number, t.SessionID); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *Manager) markClosed(t *Table) error {
	if m == nil || m.db == nil || t.SessionID == 0 {
		return nil
	}
	_, err := m.db.Exec(`UPDATE lego_tables SET status=$1, closed_at=NOW() WHERE id=$2`, models.TableClosed, t.SessionID)
	return err
}

// ListRounds returns up to limit finished rounds for the table, newest first. It reads the
// database when there is one and the in-memory history otherwise.
func (m *Manager) ListRounds(token string, limit int) ([]models.Round, error) {
	if limit <= 0 || limit > historySize {
		limit = historySize
	}

	if m.db != nil {
		rounds := []models.Round{}
		err := m.db.Select(&rounds,
			`SELECT r.id, r.table_id, r.round_number, r.targets_cleared, r.frames, r.started_at, r.ended_at
			 FROM lego_rounds r JOIN lego_tables t ON t.id = r.table_id
			 WHERE t.token=$1 ORDER BY r.round_number DESC LIMIT $2`, token, limit)
		return rounds, err
	}

	t, err := m.GetTableByToken(token)
	if err != nil {
		return nil, err
	}
	history := t.History()
	if len(history) > limit {
		history = history[:limit]
	}
	rounds := make([]models.Round, 0, len(history))
	for _, r := range history {
		rounds = append(rounds, models.Round{
			RoundNumber:    r.Stats.Number,
			TargetsCleared: r.Stats.TargetsCleared,
			Frames:         r.Stats.Frames,
			StartedAt:      r.StartedAt,
			EndedAt:        r.EndedAt,
		})
	}
	return rounds, nil
}
