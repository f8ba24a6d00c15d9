package table

import "github.com/virtuallego/backend/internal/lego"

// Outbound message types shared with the websocket layer.
const (
	MsgFrame         = "frame"
	MsgRoundReset    = "round_reset"
	MsgTargetCleared = "target_cleared"
	MsgTableClosed   = "table_closed"
)

// Broadcaster pushes messages to everyone watching a table.
type Broadcaster interface {
	BroadcastToTable(tableToken string, message interface{})
	CloseRoom(tableToken string)
}

// TableEvent is a discrete table occurrence. It travels over the table_events channel
// when Redis is configured.
type TableEvent struct {
	Type       string           `json:"type"`
	TableToken string           `json:"table_token"`
	TargetID   *int             `json:"target_id,omitempty"`
	Round      *lego.RoundStats `json:"round,omitempty"`
	Reason     string           `json:"reason,omitempty"`
}

// FrameMessage is sent to a room after a tick that changed something.
type FrameMessage struct {
	Type     string        `json:"type"`
	Frame    uint64        `json:"frame"`
	Events   []lego.Event  `json:"events"`
	Snapshot lego.Snapshot `json:"snapshot"`
}

// Deliver hands ev to the rooms. A closed table also loses its room.
func Deliver(b Broadcaster, ev TableEvent) {
	if b == nil {
		return
	}
	b.BroadcastToTable(ev.TableToken, ev)
	if ev.Type == MsgTableClosed {
		b.CloseRoom(ev.TableToken)
	}
}

// eventsFor turns a frame's core events into table events worth announcing.
func eventsFor(token string, res lego.FrameResult) []TableEvent {
	var out []TableEvent
	for _, e := range res.Events {
		switch e.Type {
		case lego.EventTarget:
			id := e.TargetID
			round := res.Snapshot.Stats
			out = append(out, TableEvent{Type: MsgTargetCleared, TableToken: token, TargetID: &id, Round: &round})
		case lego.EventReset:
			out = append(out, TableEvent{Type: MsgRoundReset, TableToken: token, Round: e.Round})
		}
	}
	return out
}
