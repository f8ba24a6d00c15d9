package lego

// Wall is a static axis-aligned box. Only its x-z footprint takes part in collisions.
type Wall struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Width  float64 `json:"width"` // x extent
	Depth  float64 `json:"depth"` // z extent
	Height float64 `json:"height"`
}

// NewWall creates a wall of the standard height.
func NewWall(id int, x, z, width, depth float64) *Wall {
	return &Wall{
		ID:     id,
		X:      x,
		Y:      WallY,
		Z:      z,
		Width:  width,
		Depth:  depth,
		Height: WallHeight,
	}
}

func (w *Wall) SetPosition(x, y, z float64) {
	w.X, w.Y, w.Z = x, y, z
}

func (w *Wall) MinX() float64 { return w.X - w.Width/2 }
func (w *Wall) MaxX() float64 { return w.X + w.Width/2 }
func (w *Wall) MinZ() float64 { return w.Z - w.Depth/2 }
func (w *Wall) MaxZ() float64 { return w.Z + w.Depth/2 }

// Intersects is a broad-phase test: the disk centre must lie inside the footprint grown by the
// disk radius on every side. Corners are accepted as a square, not rounded.
func (w *Wall) Intersects(d *Disk) bool {
	x, z, r := d.Position.X, d.Position.Z, d.Radius
	return w.MinX()-r <= x && x <= w.MaxX()+r &&
		w.MinZ()-r <= z && z <= w.MaxZ()+r
}

// ResolveCollisionWith pushes d out through the face it hit and reflects one velocity component.
// The face is chosen against the un-grown footprint. A disk in the corner region (or inside the
// footprint) gets no correction and ErrUnresolvedWallContact. The control disk is always left at
// rest after contact.
func (w *Wall) ResolveCollisionWith(d *Disk) (bool, error) {
	if !w.Intersects(d) {
		return false, nil
	}

	x, z, r := d.Position.X, d.Position.Z, d.Radius
	insideX := w.MinX() <= x && x <= w.MaxX()
	insideZ := w.MinZ() <= z && z <= w.MaxZ()

	var err error
	switch {
	case insideX && !insideZ:
		if w.MinZ()-r <= z && z <= w.Z {
			z = w.MinZ() - r - CorrectionEpsilon
		} else {
			z = w.MaxZ() + r + CorrectionEpsilon
		}
		d.Velocity.Z = -d.Velocity.Z
	case !insideX && insideZ:
		if w.MinX()-r <= x && x <= w.X {
			x = w.MinX() - r - CorrectionEpsilon
		} else {
			x = w.MaxX() + r + CorrectionEpsilon
		}
		d.Velocity.X = -d.Velocity.X
	default:
		err = ErrUnresolvedWallContact
	}

	if d.Control {
		d.Velocity = Velocity{}
	}
	d.Position.X, d.Position.Z = x, z
	return true, err
}
