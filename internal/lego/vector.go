package lego

import "math"

// Vec3 is a point on the table. Motion happens on the x-z plane; Y is the rest height.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Plus(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Minus(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// PlanarDistance ignores Y.
func (v Vec3) PlanarDistance(o Vec3) float64 {
	dx := v.X - o.X
	dz := v.Z - o.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Velocity is a planar velocity; there is no vertical component.
type Velocity struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

func (v Velocity) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Z*v.Z)
}

func (v Velocity) Times(s float64) Velocity {
	return Velocity{X: v.X * s, Z: v.Z * s}
}

func (v Velocity) IsZero() bool {
	return v.X == 0 && v.Z == 0
}
