// Package dat implements the DAT metadata file codec: the six
// per-version flag tables (C5) and the header/category-run/texture
// pattern block reader and writer shared across versions (C6).
package dat

// Version is one of the six wire formats the DAT codec understands.
type Version int

const (
	V1 Version = iota + 1
	V2
	V3
	V4
	V5
	V6
)

// VersionForClient selects the wire version for a client version number,
// per the thresholds: <740->V1, <755->V2, <780->V3, <860->V4, <1010->V5,
// else V6.
func VersionForClient(clientVersion int) Version {
	switch {
	case clientVersion < 740:
		return V1
	case clientVersion < 755:
		return V2
	case clientVersion < 780:
		return V3
	case clientVersion < 860:
		return V4
	case clientVersion < 1010:
		return V5
	default:
		return V6
	}
}

func (v Version) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	case V3:
		return "V3"
	case V4:
		return "V4"
	case V5:
		return "V5"
	case V6:
		return "V6"
	default:
		return "unknown"
	}
}

// sentinel is the table-terminator byte shared by all six versions.
const sentinel = 0xFF
