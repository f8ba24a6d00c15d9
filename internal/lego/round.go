package lego

// RoundState is the single flag of the round machine.
type RoundState string

const (
	RoundIdle   RoundState = "IDLE"
	RoundActive RoundState = "ACTIVE"
)

// RoundStats describes the round in play (or the last one, while idle).
type RoundStats struct {
	Number         int `json:"number"`
	TargetsCleared int `json:"targets_cleared"`
	Frames         int `json:"frames"`
}

// Launch starts a round: the moving disk leaves with the fixed launch velocity.
func (w *World) Launch() error {
	if w.Round != RoundIdle {
		return ErrRoundActive
	}
	w.Round = RoundActive
	w.Mover.SetVelocity(LaunchVelocityX, LaunchVelocityZ)
	w.Stats = RoundStats{Number: w.Stats.Number + 1}
	return nil
}

// slaveMover parks the moving disk one diameter behind the control disk.
func (w *World) slaveMover() {
	c := w.Control.Position
	w.Mover.SetPosition(c.X-TrailOffset, c.Y, c.Z)
}

// outOfBounds reports whether the moving disk has left through the open end.
func (w *World) outOfBounds() bool {
	return w.Mover.Position.X >= OutOfBoundsX
}

// resetRound ends the round and puts every target back in its home slot.
func (w *World) resetRound() {
	w.Round = RoundIdle
	w.slaveMover()
	w.Mover.SetVelocity(0, 0)
	for i, t := range w.Targets {
		h := w.Homes[i]
		t.SetPosition(h.X, h.Y, h.Z)
		t.SetVelocity(0, 0)
	}
}

// stepRound runs the per-frame part of the round machine. It returns true when the round ended.
func (w *World) stepRound() bool {
	if w.Round == RoundIdle {
		w.slaveMover()
	}
	if w.outOfBounds() {
		w.resetRound()
		return true
	}
	return false
}
