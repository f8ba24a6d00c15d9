package lego

import "errors"

// EventType classifies what happened during a frame.
type EventType string

const (
	EventWall    EventType = "wall"    // moving disk touched a wall
	EventTarget  EventType = "target"  // a target was cleared
	EventControl EventType = "control" // moving disk deflected off the control disk
	EventLaunch  EventType = "launch"
	EventReset   EventType = "reset" // moving disk left the table; rack restored
	EventFault   EventType = "fault" // degenerate geometry, see Detail
)

// Event records a single occurrence within a frame.
type Event struct {
	Type     EventType   `json:"type"`
	DiskID   int         `json:"disk_id"`
	TargetID int         `json:"target_id"` // target, wall or control id
	Speed    float64     `json:"speed"`
	Detail   string      `json:"detail,omitempty"`
	Round    *RoundStats `json:"round,omitempty"` // set on launch and reset
}

// FrameResult is what one Advance call hands back to the caller.
type FrameResult struct {
	Frame    uint64   `json:"frame"`
	Events   []Event  `json:"events"`
	Snapshot Snapshot `json:"snapshot"`
}

// Driver advances a World one frame at a time. It is not safe for concurrent use; callers
// serialise Advance and the input methods.
type Driver struct {
	World   *World
	Events  []Event
	frame   uint64
	pending []Event // input events raised between frames
}

// NewDriver creates a driver around w.
func NewDriver(w *World) *Driver {
	return &Driver{
		World:  w,
		Events: make([]Event, 0),
	}
}

// Frame returns the number of completed Advance calls.
func (dr *Driver) Frame() uint64 {
	return dr.frame
}

// Launch forwards the launch input to the round machine.
func (dr *Driver) Launch() error {
	if err := dr.World.Launch(); err != nil {
		return err
	}
	stats := dr.World.Stats
	dr.pending = append(dr.pending, Event{
		Type:   EventLaunch,
		DiskID: MoverID,
		Speed:  dr.World.Mover.Velocity.Magnitude(),
		Round:  &stats,
	})
	return nil
}

// SteerControlDisk forwards a steer input; see World.SteerControlDisk.
func (dr *Driver) SteerControlDisk(delta float64) float64 {
	return dr.World.SteerControlDisk(delta)
}

// Advance runs one frame. The order of the passes is fixed: later passes may overwrite what
// earlier ones did in the same frame.
func (dr *Driver) Advance(dt float64) FrameResult {
	w := dr.World
	dr.Events = append(make([]Event, 0, len(dr.pending)), dr.pending...)
	dr.pending = nil

	// 1. integrate
	w.Mover.Integrate(dt)
	w.Control.Integrate(dt)
	for _, t := range w.Targets {
		t.Integrate(dt)
	}

	// 2. moving disk against each wall
	for _, wall := range w.Walls {
		hit, err := wall.ResolveCollisionWith(w.Mover)
		if err != nil {
			dr.fault(MoverID, wall.ID, err)
			continue
		}
		if hit {
			dr.record(EventWall, MoverID, wall.ID, w.Mover.Velocity.Magnitude())
		}
	}

	// 3. moving disk against each target
	for _, t := range w.Targets {
		hit, err := t.ResolveCollisionWith(w.Mover)
		if err != nil {
			dr.fault(MoverID, t.ID, err)
			continue
		}
		if hit {
			w.Stats.TargetsCleared++
			dr.record(EventTarget, MoverID, t.ID, w.Mover.Velocity.Magnitude())
		}
	}

	// 4. control disk against each wall
	for _, wall := range w.Walls {
		if _, err := wall.ResolveCollisionWith(w.Control); err != nil {
			dr.fault(ControlID, wall.ID, err)
		}
	}

	// 5. moving disk against the control disk. While idle the trailing disk sits exactly one
	// diameter away and may register contact every frame; only active contacts are reported.
	hit, err := w.Control.ResolveCollisionWith(w.Mover)
	if err != nil {
		dr.fault(MoverID, ControlID, err)
	} else if hit && w.Round == RoundActive {
		dr.record(EventControl, MoverID, ControlID, w.Mover.Velocity.Magnitude())
	}

	// 6. round machine
	if w.Round == RoundActive {
		w.Stats.Frames++
	}
	if w.stepRound() {
		stats := w.Stats
		dr.Events = append(dr.Events, Event{Type: EventReset, DiskID: MoverID, Round: &stats})
	}

	dr.frame++

	// 7. hand positions back
	return FrameResult{
		Frame:    dr.frame,
		Events:   dr.Events,
		Snapshot: dr.Snapshot(),
	}
}

func (dr *Driver) record(t EventType, diskID, targetID int, speed float64) {
	dr.Events = append(dr.Events, Event{
		Type:     t,
		DiskID:   diskID,
		TargetID: targetID,
		Speed:    speed,
	})
}

func (dr *Driver) fault(diskID, targetID int, err error) {
	detail := "unknown"
	switch {
	case errors.Is(err, ErrCoincidentCenters):
		detail = "coincident_centers"
	case errors.Is(err, ErrUnresolvedWallContact):
		detail = "wall_corner"
	}
	dr.Events = append(dr.Events, Event{
		Type:     EventFault,
		DiskID:   diskID,
		TargetID: targetID,
		Detail:   detail,
	})
}
