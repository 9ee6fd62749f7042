// Package thing holds the in-memory data model for a client "thing"
// (item, outfit, effect or missile): its flags/attributes and its one
// or two frame groups, plus the pure helpers that do not belong to any
// single wire codec.
package thing

// Category is the closed enumeration of thing kinds. Each category has
// its own ID range and frame-group policy.
type Category int

const (
	// Item things are identified starting at 100.
	Item Category = iota
	// Outfit things are identified starting at 1; only outfits may
	// carry a Walking frame group in addition to Default.
	Outfit
	// Effect things are identified starting at 1.
	Effect
	// Missile things are identified starting at 1.
	Missile
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Item:
		return "Item"
	case Outfit:
		return "Outfit"
	case Effect:
		return "Effect"
	case Missile:
		return "Missile"
	default:
		return "Unknown"
	}
}

// FirstID returns the lowest valid id for the category.
func (c Category) FirstID() uint32 {
	if c == Item {
		return 100
	}
	return 1
}

// FrameGroupSlot names which animation/state slot a frame group fills.
// Only Outfit things may use Walking; every other category has exactly
// one group, addressed as Default.
type FrameGroupSlot int

const (
	Default FrameGroupSlot = iota
	Walking
)

func (s FrameGroupSlot) String() string {
	if s == Walking {
		return "Walking"
	}
	return "Default"
}

// AnimationMode selects how an animated frame group's frames advance.
type AnimationMode uint8

const (
	Async AnimationMode = iota
	Sync
)

// FrameDuration is one (min,max) millisecond pair for a single animation
// frame.
type FrameDuration struct {
	Min uint32
	Max uint32
}

// Animation describes how a frame group with more than one frame plays.
// It is only present on the wire when frames>1, and only explicit when
// the improvedAnimations feature is enabled -- otherwise the reader
// synthesises one from a caller-supplied category default.
type Animation struct {
	Mode       AnimationMode
	LoopCount  int32
	StartFrame int32
	Durations  []FrameDuration
}

// BonesOffset is a signed pixel offset pair for one cardinal direction,
// used by the HasBones flag (V4+). Order is fixed: North, South, East,
// West -- never reorder by any other convention.
type BonesOffset struct {
	X int16
	Y int16
}

// MarketItem carries the V5+ market metadata for an item.
type MarketItem struct {
	Category             uint16
	TradeAs              uint16
	ShowAs               uint16
	Name                 string
	RestrictToProfession uint16
	RestrictToLevel      uint16
}

// FrameGroup describes how sprites are laid out for one animation/state
// slot of a thing.
type FrameGroup struct {
	Width  uint8
	Height uint8
	// ExactSize is the bounding-box pixel size. It is only meaningful
	// (and only present on the wire) when Width>1 or Height>1; readers
	// must synthesise 32 for 1x1 groups and writers must not emit it.
	ExactSize uint8
	Layers    uint8
	PatternX  uint8
	PatternY  uint8
	PatternZ  uint8
	Frames    uint8

	// Animation is nil unless Frames>1.
	Animation *Animation

	// SpriteIndex is a dense sequence of sprite IDs of length
	// TotalSprites(group), hard-capped at 4096.
	SpriteIndex []uint32
}

// MaxSpritesPerGroup is the wire-format hard cap on one frame group's
// total sprite count.
const MaxSpritesPerGroup = 4096

// TotalSprites computes width*height*layers*patternX*patternY*patternZ*frames.
func TotalSprites(g *FrameGroup) int {
	if g == nil {
		return 0
	}
	patternZ := int(g.PatternZ)
	if patternZ == 0 {
		patternZ = 1
	}
	return int(g.Width) * int(g.Height) * int(g.Layers) *
		int(g.PatternX) * int(g.PatternY) * patternZ * int(g.Frames)
}

// DefaultExactSize returns the value a reader must synthesise for a
// frame group's ExactSize when the wire does not carry one.
func DefaultExactSize(width, height uint8) uint8 {
	if width == 1 && height == 1 {
		return 32
	}
	return 0 // caller must have an explicit value in this case
}

// HasExplicitExactSize reports whether a group of the given dimensions
// carries an ExactSize byte on the wire.
func HasExplicitExactSize(width, height uint8) bool {
	return width > 1 || height > 1
}

// Features is the tuple of client-version-dependent wire toggles that
// alter the DAT format.
type Features struct {
	// Extended widens sprite ids from 16-bit to 32-bit.
	Extended bool
	// ImprovedAnimations makes the frame group emit its animation
	// descriptor explicitly instead of synthesising durations.
	ImprovedAnimations bool
	// FrameGroups allows outfits to carry a Walking group in addition
	// to Default, with an explicit count+tag-byte preamble.
	FrameGroups bool
	// Transparency makes sprite RLE pixels carry an explicit alpha byte.
	Transparency bool
}

// ApplyVersionDefaults ORs in the feature flags implied by the client
// version thresholds: 960 -> extended, 1050 -> improvedAnimations,
// 1057 -> frameGroups. Transparency is not threshold-derived; callers
// set it explicitly from the project's own configuration.
func ApplyVersionDefaults(f Features, version int) Features {
	if version >= 960 {
		f.Extended = true
	}
	if version >= 1050 {
		f.ImprovedAnimations = true
	}
	if version >= 1057 {
		f.FrameGroups = true
	}
	return f
}

// Thing is a record identified by (category, id) carrying every flag
// and attribute any DAT wire version can ever emit; fields the current
// wire version does not represent simply stay at their zero default.
type Thing struct {
	Category Category
	ID       uint32

	// Layer selectors -- mutually exclusive, and when writing, emitted
	// first in this priority order: Ground, GroundBorder, OnBottom, OnTop.
	IsGround       bool
	GroundSpeed    uint16
	IsGroundBorder bool
	OnBottom       bool
	OnTop          bool

	IsContainer  bool
	Stackable    bool
	ForceUse     bool
	MultiUse     bool
	Writable     bool
	MaxTextLen   uint16
	WritableOnce bool // V1 only quirk, see the V1 table in dat/tables.go

	IsFluidContainer bool
	IsSplash         bool
	NotWalkable      bool
	NotMoveable      bool
	BlockProjectile  bool
	NotPathable      bool
	NoMoveAnimation  bool // V6+

	Pickupable bool
	Hangable   bool // V2+
	Vertical   bool // V2+
	Horizontal bool // V2+
	Rotatable  bool

	HasLight   bool
	LightLevel uint16
	LightColor uint16

	DontHide bool // V4+

	HasOffset bool
	// OffsetX/OffsetY are only meaningful from V3 onward; V1/V2 carry
	// HasOffset as a bare bool with no payload.
	OffsetX int16
	OffsetY int16

	HasElevation bool
	Elevation    uint16

	LyingCorpse   bool
	AnimateAlways bool

	HasMinimapColor bool
	MinimapColor    uint16

	HasLensHelp bool
	LensHelp    uint16

	FullGround bool
	IgnoreLook bool // V4+

	HasCloth  bool // V5+
	ClothSlot uint16

	Translucent bool // V5+

	IsMarketItem bool // V5+
	Market       MarketItem

	HasCharges bool // V4+

	Wrappable   bool // V4+
	Unwrappable bool // V4+

	HasBones bool // V4+
	Bones    [4]BonesOffset

	DefaultAction      bool // V6+
	DefaultActionValue uint16
	TopEffect          bool // V6+
	Usable             bool // V6+

	// Groups holds the thing's one (or, for outfits with the
	// frame-groups feature, two) frame groups.
	Groups map[FrameGroupSlot]*FrameGroup
}

// New returns a factory-default, empty thing for the given category/id.
func New(category Category, id uint32) *Thing {
	return &Thing{
		Category: category,
		ID:       id,
		Groups:   map[FrameGroupSlot]*FrameGroup{Default: {Frames: 1}},
	}
}

// GetFrameGroup returns the thing's frame group for the given slot, or
// nil if it has none (e.g. Walking on a non-outfit or an outfit that
// was never given a second group).
func GetFrameGroup(t *Thing, slot FrameGroupSlot) *FrameGroup {
	if t == nil || t.Groups == nil {
		return nil
	}
	return t.Groups[slot]
}

// SetFrameGroup installs a frame group at the given slot. Walking is
// only meaningful for Outfit things; callers are responsible for
// checking the category and the frameGroups feature before calling this
// for a Walking slot.
func SetFrameGroup(t *Thing, slot FrameGroupSlot, g *FrameGroup) {
	if t.Groups == nil {
		t.Groups = map[FrameGroupSlot]*FrameGroup{}
	}
	t.Groups[slot] = g
}
