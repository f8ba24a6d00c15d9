package lego

// Table and physics constants. These are fixed for the session and are not read from configuration.
const (
	DiskRadius = 0.21

	TargetRows    = 4
	TargetColumns = 13
	NumTargets    = TargetRows * TargetColumns // 52
	NumWalls      = 3

	TimeScale         = 3.3  // integration multiplier
	VelocityEpsilon   = 0.01 // below this on both axes a disk stops
	CorrectionEpsilon = 0.01 // extra push past a wall face
	MinSeparation     = 1e-9 // closer centres are treated as coincident

	OutOfBoundsX = 8.0

	LaunchVelocityX = -2.5
	LaunchVelocityZ = 0.0

	// TrailOffset is how far behind the control disk (along -x) the moving disk waits while idle.
	TrailOffset = 2 * DiskRadius

	// Input scaling recovered from the desktop controls.
	NudgeStep = 0.1   // one arrow-key press
	DragScale = -0.01 // per pixel of horizontal right-button drag

	WallHeight = 0.3
	WallY      = 0.12
	TableWidth = 9.0
	TableDepth = 6.0
	TableHalfX = TableWidth / 2
	SentinelX  = -10.0
	SentinelY  = -10.0
	SentinelZ  = 0.0
)

// Sentinel is where cleared targets are parked. They stay allocated and inert until the rack resets.
var Sentinel = Vec3{X: SentinelX, Y: SentinelY, Z: SentinelZ}
