package lego

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longWall() *Wall  { return NewWall(0, 0, 3.06, TableWidth, 0.12) }
func shortWall() *Wall { return NewWall(2, -4.56, 0, 0.12, 6.24) }

func TestWallBroadPhaseUsesExpandedBox(t *testing.T) {
	w := longWall()

	assert.True(t, w.Intersects(NewDisk(0, 0, 2.8)))
	assert.False(t, w.Intersects(NewDisk(0, 0, 2.7)))
	assert.True(t, w.Intersects(NewDisk(0, 4.6, 3.0)))
	assert.False(t, w.Intersects(NewDisk(0, 4.8, 3.0)))
	// the square corner of the grown box counts, although the disk does not touch the wall
	assert.True(t, w.Intersects(NewDisk(0, 4.7, 2.8)))
}

func TestWallZFaceNearSide(t *testing.T) {
	w := longWall()
	d := NewDisk(0, 0, 2.9)
	d.SetVelocity(1, 2)

	hit, err := w.ResolveCollisionWith(d)
	require.NoError(t, err)
	require.True(t, hit)

	assert.InDelta(t, w.MinZ()-DiskRadius-CorrectionEpsilon, d.Position.Z, tol)
	assert.InDelta(t, 2.78, d.Position.Z, tol)
	assert.Equal(t, 0.0, d.Position.X)
	assert.Equal(t, Velocity{X: 1, Z: -2}, d.Velocity)
}

func TestWallZFaceFarSide(t *testing.T) {
	w := longWall()
	d := NewDisk(0, 1, 3.2)
	d.SetVelocity(0.5, -1)

	_, err := w.ResolveCollisionWith(d)
	require.NoError(t, err)

	assert.InDelta(t, w.MaxZ()+DiskRadius+CorrectionEpsilon, d.Position.Z, tol)
	assert.Equal(t, Velocity{X: 0.5, Z: 1}, d.Velocity)
}

func TestWallXFace(t *testing.T) {
	w := shortWall()
	d := NewDisk(0, -4.4, 0.3)
	d.SetVelocity(-2.5, 0.3)

	hit, err := w.ResolveCollisionWith(d)
	require.NoError(t, err)
	require.True(t, hit)

	assert.InDelta(t, w.MaxX()+DiskRadius+CorrectionEpsilon, d.Position.X, tol)
	assert.InDelta(t, -4.28, d.Position.X, tol)
	assert.Equal(t, 0.3, d.Position.Z)
	assert.Equal(t, Velocity{X: 2.5, Z: 0.3}, d.Velocity)
}

func TestWallXFaceNearSide(t *testing.T) {
	w := shortWall()
	d := NewDisk(0, -4.7, 0)
	d.SetVelocity(1, 0)

	_, err := w.ResolveCollisionWith(d)
	require.NoError(t, err)

	assert.InDelta(t, w.MinX()-DiskRadius-CorrectionEpsilon, d.Position.X, tol)
	assert.Equal(t, Velocity{X: -1}, d.Velocity)
}

func TestWallCorrectionLeavesBroadPhase(t *testing.T) {
	w := longWall()
	d := NewDisk(0, -2, 2.95)
	d.SetVelocity(0, 1)

	_, err := w.ResolveCollisionWith(d)
	require.NoError(t, err)

	assert.False(t, w.Intersects(d))
}

func TestWallCornerRegionFaults(t *testing.T) {
	w := shortWall()
	d := NewDisk(0, -4.4, 3.2)
	d.SetVelocity(-1, 1)

	hit, err := w.ResolveCollisionWith(d)
	assert.True(t, hit)
	assert.ErrorIs(t, err, ErrUnresolvedWallContact)
	assert.Equal(t, NewVec3(-4.4, DiskRadius, 3.2), d.Position)
	assert.Equal(t, Velocity{X: -1, Z: 1}, d.Velocity)
}

func TestWallEmbeddedCentreFaults(t *testing.T) {
	w := shortWall()
	d := NewDisk(0, -4.56, 0)
	d.SetVelocity(-1, 0)

	_, err := w.ResolveCollisionWith(d)
	assert.ErrorIs(t, err, ErrUnresolvedWallContact)
	assert.Equal(t, Velocity{X: -1}, d.Velocity)
}

func TestWallStopsControlDisk(t *testing.T) {
	w := longWall()
	d := NewDisk(ControlID, 4.29, 2.9)
	d.Control = true
	d.SetVelocity(0.3, 0.7)

	_, err := w.ResolveCollisionWith(d)
	require.NoError(t, err)

	assert.InDelta(t, 2.78, d.Position.Z, tol)
	assert.True(t, d.Velocity.IsZero())
}

func TestWallStopsControlDiskInCorner(t *testing.T) {
	w := shortWall()
	d := NewDisk(ControlID, -4.4, 3.2)
	d.Control = true
	d.SetVelocity(1, 1)

	_, err := w.ResolveCollisionWith(d)
	assert.ErrorIs(t, err, ErrUnresolvedWallContact)
	assert.True(t, d.Velocity.IsZero())
}

func TestWallMissIsNoop(t *testing.T) {
	w := longWall()
	d := NewDisk(0, 0, 0)
	d.SetVelocity(1, 1)

	hit, err := w.ResolveCollisionWith(d)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, Velocity{X: 1, Z: 1}, d.Velocity)
}
