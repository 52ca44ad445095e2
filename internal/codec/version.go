// Package codec implements the little-endian primitives of the save stream
// and the rules for which save format version carries which field.
package codec

import "fmt"

// SaveVersion is the newest save format this build writes and the newest
// it accepts.
//
//	0  legacy: stream starts with the shape count, no ids
//	1  shape category id
//	2  material id
//	3  one colour per shape
//	4  active level id
//	5  random state, creation and destruction rates with progress
//	6  level state block
//	7  rotation and velocity vectors per shape
//	8  origin factory id, per-renderer colour arrays
//	9  shape age and behaviour list
//	10 spawn zone transforms in the level state block
const SaveVersion int32 = 10

// Version thresholds, named by what they introduce.
const (
	VersionShapeID       int32 = 1
	VersionMaterialID    int32 = 2
	VersionColor         int32 = 3
	VersionLevelID       int32 = 4
	VersionRandomState   int32 = 5
	VersionLevelState    int32 = 6
	VersionLegacyMotion  int32 = 7
	VersionFactories     int32 = 8
	VersionBehaviors     int32 = 9
	VersionZoneTransform int32 = 10
)

// UnsupportedVersionError is returned for a stream written by a newer build.
type UnsupportedVersionError struct {
	Version int32
	Max     int32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported future save version %d (max %d)", e.Version, e.Max)
}
