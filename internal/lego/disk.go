package lego

import "math"

// Disk is a moving circular body on the table.
type Disk struct {
	ID       int      `json:"id"`
	Position Vec3     `json:"position"`
	Velocity Velocity `json:"velocity"`
	Radius   float64  `json:"radius"`
	Control  bool     `json:"control"`
}

// NewDisk places a disk at rest height on the x-z plane with zero velocity.
func NewDisk(id int, x, z float64) *Disk {
	return &Disk{
		ID:       id,
		Position: NewVec3(x, DiskRadius, z),
		Radius:   DiskRadius,
	}
}

func (d *Disk) SetPosition(x, y, z float64) {
	d.Position = Vec3{X: x, Y: y, Z: z}
}

func (d *Disk) SetVelocity(vx, vz float64) {
	d.Velocity = Velocity{X: vx, Z: vz}
}

// Integrate advances the disk by its velocity. Below VelocityEpsilon on both axes the disk is
// stopped outright. Position is not clamped here; wall resolution later in the frame pulls disks back.
func (d *Disk) Integrate(dt float64) {
	if math.Abs(d.Velocity.X) > VelocityEpsilon || math.Abs(d.Velocity.Z) > VelocityEpsilon {
		d.Position.X += TimeScale * dt * d.Velocity.X
		d.Position.Z += TimeScale * dt * d.Velocity.Z
		return
	}
	d.Velocity = Velocity{}
}

// Intersects reports whether the two disks overlap on the x-z plane.
func (d *Disk) Intersects(other *Disk) bool {
	return d.Position.PlanarDistance(other.Position) < d.Radius+other.Radius
}

// ResolveCollisionWith is called on the disk that was touched, with the disk that touched it.
// other keeps its speed but is redirected along the d→other direction. d is then parked at the
// sentinel unless it is the control disk. Returns false when the disks do not intersect.
func (d *Disk) ResolveCollisionWith(other *Disk) (bool, error) {
	if !d.Intersects(other) {
		return false, nil
	}

	dx := other.Position.X - d.Position.X
	dz := other.Position.Z - d.Position.Z
	dist := math.Sqrt(dx*dx + dz*dz)
	if dist < MinSeparation {
		return true, ErrCoincidentCenters
	}

	scale := other.Velocity.Magnitude() / dist
	other.Velocity = Velocity{X: scale * dx, Z: scale * dz}

	if !d.Control {
		d.Position = Sentinel
	}
	return true, nil
}

// Cleared reports whether the disk has been parked at the sentinel.
func (d *Disk) Cleared() bool {
	return d.Position == Sentinel
}
