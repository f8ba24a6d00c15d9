package lego

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameDT = 1.0 / 60

func newTestDriver() *Driver {
	return NewDriver(NewWorld())
}

// runUntil advances until an event of type t shows up or the frame budget runs out.
func runUntil(dr *Driver, t EventType, maxFrames int) (FrameResult, bool) {
	for i := 0; i < maxFrames; i++ {
		res := dr.Advance(frameDT)
		for _, e := range res.Events {
			if e.Type == t {
				return res, true
			}
		}
	}
	return FrameResult{}, false
}

func TestNewWorldLayout(t *testing.T) {
	w := NewWorld()

	require.Len(t, w.Targets, NumTargets)
	require.Len(t, w.Homes, NumTargets)
	require.Len(t, w.Walls, NumWalls)

	assert.InDelta(t, 0.9, w.Homes[0].X, tol)
	assert.InDelta(t, -2.58, w.Homes[0].Z, tol)
	assert.Equal(t, DiskRadius, w.Homes[0].Y)
	assert.InDelta(t, 0.9-0.9*3, w.Homes[NumTargets-1].X, tol)
	assert.InDelta(t, 0.43*6, w.Homes[NumTargets-1].Z, tol)

	for i, d := range w.Targets {
		assert.Equal(t, i, d.ID)
		assert.Equal(t, w.Homes[i], d.Position)
		assert.False(t, d.Control)
	}
	assert.True(t, w.Control.Control)
	assert.False(t, w.Mover.Control)
	assert.InDelta(t, 4.29, w.Control.Position.X, tol)
	assert.InDelta(t, w.Control.Position.X-TrailOffset, w.Mover.Position.X, tol)
	assert.Equal(t, RoundIdle, w.Round)
	assert.InDelta(t, 2.79, w.CorridorMaxZ, tol)
	assert.InDelta(t, -2.79, w.CorridorMinZ, tol)
}

func TestSteerClampsToCorridor(t *testing.T) {
	w := NewWorld()

	z := w.SteerControlDisk(10)
	assert.Equal(t, w.CorridorMaxZ, z)
	assert.Equal(t, w.CorridorMaxZ, w.Control.Position.Z)

	z = w.SteerControlDisk(-100)
	assert.Equal(t, w.CorridorMinZ, z)

	w.SteerControlDisk(w.CorridorMaxZ - w.CorridorMinZ) // back to the top edge
	assert.InDelta(t, w.CorridorMaxZ, w.Control.Position.Z, tol)
	assert.LessOrEqual(t, w.Control.Position.Z, w.CorridorMaxZ)
}

func TestNudgeAndDrag(t *testing.T) {
	w := NewWorld()

	assert.InDelta(t, 0.1, w.NudgeRight(), tol)
	assert.InDelta(t, 0.0, w.NudgeLeft(), tol)
	assert.InDelta(t, -0.2, w.SteerByDrag(20), tol)
	assert.InDelta(t, 4.29, w.Control.Position.X, tol)
}

func TestLaunchOnlyFromIdle(t *testing.T) {
	dr := newTestDriver()

	require.NoError(t, dr.Launch())
	assert.Equal(t, RoundActive, dr.World.Round)
	assert.Equal(t, Velocity{X: LaunchVelocityX, Z: LaunchVelocityZ}, dr.World.Mover.Velocity)
	assert.Equal(t, 1, dr.World.Stats.Number)

	assert.ErrorIs(t, dr.Launch(), ErrRoundActive)
	assert.Equal(t, 1, dr.World.Stats.Number)

	res := dr.Advance(frameDT)
	require.NotEmpty(t, res.Events)
	assert.Equal(t, EventLaunch, res.Events[0].Type)
	require.NotNil(t, res.Events[0].Round)
	assert.Equal(t, 1, res.Events[0].Round.Number)
}

func TestIdleMoverFollowsControl(t *testing.T) {
	dr := newTestDriver()

	dr.SteerControlDisk(0.5)
	dr.Advance(0)

	c := dr.World.Control.Position
	assert.Equal(t, NewVec3(c.X-2*DiskRadius, c.Y, c.Z), dr.World.Mover.Position)

	dr.SteerControlDisk(-1.2)
	for i := 0; i < 3; i++ {
		dr.Advance(0)
		c = dr.World.Control.Position
		assert.Equal(t, NewVec3(c.X-2*DiskRadius, c.Y, c.Z), dr.World.Mover.Position)
	}
}

func TestIdleMoverIgnoresStrayVelocity(t *testing.T) {
	dr := newTestDriver()
	dr.World.Mover.SetVelocity(1, 1)

	dr.Advance(frameDT)

	c := dr.World.Control.Position
	assert.Equal(t, NewVec3(c.X-TrailOffset, c.Y, c.Z), dr.World.Mover.Position)
}

func TestOutOfBoundsResetsRack(t *testing.T) {
	dr := newTestDriver()
	w := dr.World
	require.NoError(t, dr.Launch())

	w.Targets[3].SetPosition(Sentinel.X, Sentinel.Y, Sentinel.Z)
	w.Targets[10].SetVelocity(0.5, -0.5)
	w.Targets[40].SetPosition(1, DiskRadius, 1)
	w.Mover.SetPosition(8.05, DiskRadius, 0)
	w.Mover.SetVelocity(2.5, 0)

	res := dr.Advance(0)

	assert.Equal(t, RoundIdle, w.Round)
	assert.True(t, w.Mover.Velocity.IsZero())
	c := w.Control.Position
	assert.Equal(t, NewVec3(c.X-TrailOffset, c.Y, c.Z), w.Mover.Position)
	for i, d := range w.Targets {
		assert.Equal(t, w.Homes[i], d.Position, "target %d", i)
		assert.True(t, d.Velocity.IsZero(), "target %d", i)
	}
	assert.Zero(t, w.ClearedCount())

	var reset *Event
	for i := range res.Events {
		if res.Events[i].Type == EventReset {
			reset = &res.Events[i]
		}
	}
	require.NotNil(t, reset)
	require.NotNil(t, reset.Round)
	assert.Equal(t, 1, reset.Round.Number)
}

func TestThresholdIsInclusive(t *testing.T) {
	dr := newTestDriver()
	require.NoError(t, dr.Launch())
	dr.World.Mover.SetPosition(OutOfBoundsX, DiskRadius, 0)
	dr.World.Mover.SetVelocity(0, 0)

	dr.Advance(0)

	assert.Equal(t, RoundIdle, dr.World.Round)
}

func TestLaunchClearsTargetAndReturnsToControl(t *testing.T) {
	dr := newTestDriver()
	require.NoError(t, dr.Launch())

	res, ok := runUntil(dr, EventTarget, 200)
	require.True(t, ok, "moving disk never reached the rack")

	var cleared []int
	for _, e := range res.Events {
		if e.Type == EventTarget {
			cleared = append(cleared, e.TargetID)
		}
	}
	// straight down the middle: first row, centre column
	assert.Equal(t, []int{6}, cleared)
	assert.True(t, dr.World.Targets[6].Cleared())
	assert.Greater(t, dr.World.Mover.Velocity.X, 0.0)
	assert.InDelta(t, 2.5, dr.World.Mover.Velocity.Magnitude(), 1e-9)
	assert.Equal(t, 1, dr.World.Stats.TargetsCleared)

	_, ok = runUntil(dr, EventControl, 200)
	require.True(t, ok, "moving disk never came back to the control disk")
	assert.Less(t, dr.World.Mover.Velocity.X, 0.0)
	assert.InDelta(t, 4.29, dr.World.Control.Position.X, tol)
	assert.False(t, dr.World.Control.Cleared())
}

func TestMissedReturnEndsRound(t *testing.T) {
	dr := newTestDriver()
	require.NoError(t, dr.Launch())
	dr.Advance(frameDT)
	dr.SteerControlDisk(10) // get out of the way

	res, ok := runUntil(dr, EventReset, 400)
	require.True(t, ok, "round never ended")

	assert.Equal(t, RoundIdle, dr.World.Round)
	assert.Equal(t, res.Snapshot.Round, RoundIdle)
	assert.Zero(t, dr.World.ClearedCount())
	for _, e := range res.Events {
		if e.Type == EventReset {
			assert.Equal(t, 1, e.Round.TargetsCleared)
			assert.Greater(t, e.Round.Frames, 0)
		}
	}

	// a second round can start
	require.NoError(t, dr.Launch())
	assert.Equal(t, 2, dr.World.Stats.Number)
}

func TestShortWallBouncesMover(t *testing.T) {
	dr := newTestDriver()
	w := dr.World
	require.NoError(t, dr.Launch())
	// a lane with no targets in it
	w.Mover.SetPosition(-3.5, DiskRadius, 2.5)
	w.Mover.SetVelocity(-2.5, 0)

	res, ok := runUntil(dr, EventWall, 60)
	require.True(t, ok)

	var wallIDs []int
	for _, e := range res.Events {
		if e.Type == EventWall {
			wallIDs = append(wallIDs, e.TargetID)
		}
	}
	assert.Contains(t, wallIDs, 2)
	assert.InDelta(t, 2.5, w.Mover.Velocity.X, tol)
	assert.GreaterOrEqual(t, w.Mover.Position.X, -4.5+DiskRadius)
}

func TestCoincidentContactIsReportedNotFatal(t *testing.T) {
	dr := newTestDriver()
	w := dr.World
	require.NoError(t, dr.Launch())
	w.Mover.SetPosition(w.Homes[20].X, w.Homes[20].Y, w.Homes[20].Z)
	w.Mover.SetVelocity(0, 0)

	res := dr.Advance(0)

	var faults []Event
	for _, e := range res.Events {
		if e.Type == EventFault {
			faults = append(faults, e)
		}
	}
	require.Len(t, faults, 1)
	assert.Equal(t, "coincident_centers", faults[0].Detail)
	assert.Equal(t, 20, faults[0].TargetID)
	assert.False(t, w.Targets[20].Cleared())
}

func TestSnapshotRestoreContinuesIdentically(t *testing.T) {
	a := newTestDriver()
	require.NoError(t, a.Launch())
	for i := 0; i < 40; i++ {
		a.Advance(frameDT)
	}

	raw, err := json.Marshal(a.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	b, err := RestoreDriver(snap)
	require.NoError(t, err)
	assert.Equal(t, a.Frame(), b.Frame())

	for i := 0; i < 120; i++ {
		ra := a.Advance(frameDT)
		rb := b.Advance(frameDT)
		require.Equal(t, ra.Snapshot, rb.Snapshot, "diverged at frame %d", ra.Frame)
	}
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	snap := newTestDriver().Snapshot()

	bad := snap
	bad.Homes = bad.Homes[:10]
	_, err := RestoreDriver(bad)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	bad = snap
	bad.Walls = bad.Walls[:1]
	_, err = RestoreDriver(bad)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	bad = snap
	bad.Round = "PAUSED"
	_, err = RestoreDriver(bad)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestDeterminism(t *testing.T) {
	run := func() Snapshot {
		dr := newTestDriver()
		_ = dr.Launch()
		for i := 0; i < 300; i++ {
			if i == 90 {
				dr.SteerControlDisk(0.35)
			}
			dr.Advance(frameDT)
		}
		return dr.Snapshot()
	}

	assert.Equal(t, run(), run())
}
