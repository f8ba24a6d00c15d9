package models

import "time"

// Table status values stored in lego_tables.status
const (
	TableOpen   = "OPEN"
	TableClosed = "CLOSED"
)

// Round is one finished round on a table
type Round struct {
	ID             int64     `db:"id" json:"id"`
	TableID        int64     `db:"table_id" json:"table_id"`
	RoundNumber    int       `db:"round_number" json:"round_number"`
	TargetsCleared int       `db:"targets_cleared" json:"targets_cleared"`
	Frames         int       `db:"frames" json:"frames"`
	StartedAt      time.Time `db:"started_at" json:"started_at"`
	EndedAt        time.Time `db:"ended_at" json:"ended_at"`
}
