package lego

// Stable ids for the two special disks. Targets use 0..NumTargets-1.
const (
	ControlID = NumTargets
	MoverID   = NumTargets + 1
)

// World owns every object on the table plus the round flag. It is mutated only by its Driver.
type World struct {
	Targets []*Disk
	Homes   []Vec3 // home slot of Targets[i]
	Control *Disk
	Mover   *Disk
	Walls   []*Wall

	Round RoundState
	Stats RoundStats

	CorridorMinZ float64
	CorridorMaxZ float64
}

// NewWorld builds the reference table: two long walls, one short wall at -x, the +x end open,
// a 4×13 rack and the control/moving pair near the open end.
func NewWorld() *World {
	walls := []*Wall{
		NewWall(0, 0, 3.06, TableWidth, 0.12),
		NewWall(1, 0, -3.06, TableWidth, 0.12),
		NewWall(2, -4.56, 0, 0.12, 6.24),
	}

	homes := StandardRack()
	targets := make([]*Disk, len(homes))
	for i, h := range homes {
		targets[i] = NewDisk(i, h.X, h.Z)
	}

	control := NewDisk(ControlID, TableHalfX-DiskRadius, 0)
	control.Control = true
	mover := NewDisk(MoverID, TableHalfX-3*DiskRadius, 0)

	return newWorld(targets, homes, control, mover, walls)
}

func newWorld(targets []*Disk, homes []Vec3, control, mover *Disk, walls []*Wall) *World {
	w := &World{
		Targets: targets,
		Homes:   homes,
		Control: control,
		Mover:   mover,
		Walls:   walls,
		Round:   RoundIdle,
	}
	w.CorridorMaxZ = walls[0].MinZ() - control.Radius
	w.CorridorMinZ = walls[1].MaxZ() + control.Radius
	return w
}

// StandardRack returns the home slots of the 52 targets, row-major.
func StandardRack() []Vec3 {
	homes := make([]Vec3, 0, NumTargets)
	for row := 0; row < TargetRows; row++ {
		for col := 0; col < TargetColumns; col++ {
			homes = append(homes, NewVec3(0.9-0.9*float64(row), DiskRadius, 0.43*float64(col-6)))
		}
	}
	return homes
}

// SteerControlDisk moves the control disk along z, clamped to the corridor between the long walls.
// It returns the resulting z.
func (w *World) SteerControlDisk(delta float64) float64 {
	c := w.Control.Position
	z := c.Z + delta
	if z > w.CorridorMaxZ {
		z = w.CorridorMaxZ
	}
	if z < w.CorridorMinZ {
		z = w.CorridorMinZ
	}
	w.Control.SetPosition(c.X, c.Y, z)
	return z
}

func (w *World) NudgeLeft() float64  { return w.SteerControlDisk(-NudgeStep) }
func (w *World) NudgeRight() float64 { return w.SteerControlDisk(NudgeStep) }

// SteerByDrag converts a horizontal pointer drag (in pixels) into a steer.
func (w *World) SteerByDrag(dx float64) float64 {
	return w.SteerControlDisk(dx * DragScale)
}

// ClearedCount is the number of targets currently parked at the sentinel.
func (w *World) ClearedCount() int {
	n := 0
	for _, t := range w.Targets {
		if t.Cleared() {
			n++
		}
	}
	return n
}
