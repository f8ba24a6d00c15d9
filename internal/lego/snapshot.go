package lego

import "fmt"

// DiskState is a read-only copy of a disk for renderers and persistence.
type DiskState struct {
	ID       int      `json:"id"`
	Position Vec3     `json:"position"`
	Velocity Velocity `json:"velocity"`
	Radius   float64  `json:"radius"`
	Control  bool     `json:"control,omitempty"`
	Cleared  bool     `json:"cleared,omitempty"`
}

// WallState is a read-only copy of a wall.
type WallState struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

// TableState is the playing surface. It is drawn but never collided with.
type TableState struct {
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

// Snapshot is everything a renderer needs to draw a frame, and enough to rebuild the World.
type Snapshot struct {
	Frame   uint64      `json:"frame"`
	Round   RoundState  `json:"round"`
	Stats   RoundStats  `json:"stats"`
	Mover   DiskState   `json:"mover"`
	Control DiskState   `json:"control"`
	Targets []DiskState `json:"targets"`
	Homes   []Vec3      `json:"homes"`
	Walls   []WallState `json:"walls"`
	Table   TableState  `json:"table"`
}

func diskState(d *Disk) DiskState {
	return DiskState{
		ID:       d.ID,
		Position: d.Position,
		Velocity: d.Velocity,
		Radius:   d.Radius,
		Control:  d.Control,
		Cleared:  d.Cleared(),
	}
}

// Snapshot copies the current state of the world.
func (dr *Driver) Snapshot() Snapshot {
	w := dr.World
	s := Snapshot{
		Frame:   dr.frame,
		Round:   w.Round,
		Stats:   w.Stats,
		Mover:   diskState(w.Mover),
		Control: diskState(w.Control),
		Targets: make([]DiskState, len(w.Targets)),
		Homes:   make([]Vec3, len(w.Homes)),
		Walls:   make([]WallState, len(w.Walls)),
		Table:   TableState{Width: TableWidth, Depth: TableDepth},
	}
	for i, t := range w.Targets {
		s.Targets[i] = diskState(t)
	}
	copy(s.Homes, w.Homes)
	for i, wall := range w.Walls {
		s.Walls[i] = WallState{
			ID: wall.ID, X: wall.X, Y: wall.Y, Z: wall.Z,
			Width: wall.Width, Depth: wall.Depth, Height: wall.Height,
		}
	}
	return s
}

// RestoreDriver rebuilds a driver (and its world) from a snapshot, resuming the frame counter.
func RestoreDriver(s Snapshot) (*Driver, error) {
	if len(s.Targets) != len(s.Homes) {
		return nil, fmt.Errorf("%w: %d targets but %d homes", ErrInvalidSnapshot, len(s.Targets), len(s.Homes))
	}
	if len(s.Walls) < 2 {
		return nil, fmt.Errorf("%w: need the two corridor walls, got %d walls", ErrInvalidSnapshot, len(s.Walls))
	}
	if s.Round != RoundIdle && s.Round != RoundActive {
		return nil, fmt.Errorf("%w: unknown round state %q", ErrInvalidSnapshot, s.Round)
	}

	targets := make([]*Disk, len(s.Targets))
	for i, ds := range s.Targets {
		targets[i] = restoreDisk(ds)
	}
	homes := make([]Vec3, len(s.Homes))
	copy(homes, s.Homes)

	walls := make([]*Wall, len(s.Walls))
	for i, ws := range s.Walls {
		walls[i] = &Wall{ID: ws.ID, X: ws.X, Y: ws.Y, Z: ws.Z, Width: ws.Width, Depth: ws.Depth, Height: ws.Height}
	}

	control := restoreDisk(s.Control)
	control.Control = true
	w := newWorld(targets, homes, control, restoreDisk(s.Mover), walls)
	w.Round = s.Round
	w.Stats = s.Stats

	dr := NewDriver(w)
	dr.frame = s.Frame
	return dr, nil
}

func restoreDisk(ds DiskState) *Disk {
	r := ds.Radius
	if r == 0 {
		r = DiskRadius
	}
	return &Disk{
		ID:       ds.ID,
		Position: ds.Position,
		Velocity: ds.Velocity,
		Radius:   r,
		Control:  ds.Control,
	}
}
