package dat

import (
	"fmt"

	"github.com/tibia-tools/assets/binstream"
	"github.com/tibia-tools/assets/thing"
)

// flagTable is one version's bidirectional flag dictionary: a decode
// map keyed by wire tag, and a fixed write order (layer-selector flags
// always emitted first: Ground, GroundBorder, OnBottom, OnTop).
type flagTable struct {
	version    Version
	decode     map[byte]flagCodec
	writeOrder []flagCodec
}

func groundFlag() flagCodec {
	return u16Flag(tagGround, "Ground",
		func(t *thing.Thing) (uint16, bool) { return t.GroundSpeed, t.IsGround },
		func(t *thing.Thing, v uint16) { t.IsGround, t.GroundSpeed = true, v })
}

func onBottomFlag() flagCodec {
	return boolFlag(tagOnBottom, "OnBottom",
		func(t *thing.Thing) bool { return t.OnBottom },
		func(t *thing.Thing, v bool) { t.OnBottom = v })
}

func onTopFlag() flagCodec {
	return boolFlag(tagOnTop, "OnTop",
		func(t *thing.Thing) bool { return t.OnTop },
		func(t *thing.Thing, v bool) { t.OnTop = v })
}

func groundBorderFlag() flagCodec {
	return boolFlag(tagGroundBorder, "GroundBorder",
		func(t *thing.Thing) bool { return t.IsGroundBorder },
		func(t *thing.Thing, v bool) { t.IsGroundBorder = v })
}

// baseFlags returns every flag common to all six versions, in a stable
// definition order (write order is derived separately, layer selectors
// first).
func baseFlags() []flagCodec {
	return []flagCodec{
		boolFlag(tagContainer, "Container", func(t *thing.Thing) bool { return t.IsContainer }, func(t *thing.Thing, v bool) { t.IsContainer = v }),
		boolFlag(tagStackable, "Stackable", func(t *thing.Thing) bool { return t.Stackable }, func(t *thing.Thing, v bool) { t.Stackable = v }),
		boolFlag(tagForceUse, "ForceUse", func(t *thing.Thing) bool { return t.ForceUse }, func(t *thing.Thing, v bool) { t.ForceUse = v }),
		boolFlag(tagMultiUse, "MultiUse", func(t *thing.Thing) bool { return t.MultiUse }, func(t *thing.Thing, v bool) { t.MultiUse = v }),
		writableFlag(tagWritable, "Writable",
			func(t *thing.Thing) bool { return t.Writable },
			func(t *thing.Thing) uint16 { return t.MaxTextLen },
			func(t *thing.Thing, v uint16) { t.Writable, t.MaxTextLen = true, v }),
		boolFlag(tagFluidContainer, "FluidContainer", func(t *thing.Thing) bool { return t.IsFluidContainer }, func(t *thing.Thing, v bool) { t.IsFluidContainer = v }),
		boolFlag(tagSplash, "Splash", func(t *thing.Thing) bool { return t.IsSplash }, func(t *thing.Thing, v bool) { t.IsSplash = v }),
		boolFlag(tagNotWalkable, "NotWalkable", func(t *thing.Thing) bool { return t.NotWalkable }, func(t *thing.Thing, v bool) { t.NotWalkable = v }),
		boolFlag(tagNotMoveable, "NotMoveable", func(t *thing.Thing) bool { return t.NotMoveable }, func(t *thing.Thing, v bool) { t.NotMoveable = v }),
		boolFlag(tagBlockProjectile, "BlockProjectile", func(t *thing.Thing) bool { return t.BlockProjectile }, func(t *thing.Thing, v bool) { t.BlockProjectile = v }),
		boolFlag(tagNotPathable, "NotPathable", func(t *thing.Thing) bool { return t.NotPathable }, func(t *thing.Thing, v bool) { t.NotPathable = v }),
		boolFlag(tagPickupable, "Pickupable", func(t *thing.Thing) bool { return t.Pickupable }, func(t *thing.Thing, v bool) { t.Pickupable = v }),
		boolFlag(tagRotatable, "Rotatable", func(t *thing.Thing) bool { return t.Rotatable }, func(t *thing.Thing, v bool) { t.Rotatable = v }),
		u16PairFlag(tagHasLight, "HasLight",
			func(t *thing.Thing) (uint16, uint16, bool) { return t.LightLevel, t.LightColor, t.HasLight },
			func(t *thing.Thing, a, b uint16) { t.HasLight, t.LightLevel, t.LightColor = true, a, b }),
		u16Flag(tagHasElevation, "HasElevation",
			func(t *thing.Thing) (uint16, bool) { return t.Elevation, t.HasElevation },
			func(t *thing.Thing, v uint16) { t.HasElevation, t.Elevation = true, v }),
		boolFlag(tagLyingCorpse, "LyingCorpse", func(t *thing.Thing) bool { return t.LyingCorpse }, func(t *thing.Thing, v bool) { t.LyingCorpse = v }),
		boolFlag(tagAnimateAlways, "AnimateAlways", func(t *thing.Thing) bool { return t.AnimateAlways }, func(t *thing.Thing, v bool) { t.AnimateAlways = v }),
		u16Flag(tagMinimapColor, "MinimapColor",
			func(t *thing.Thing) (uint16, bool) { return t.MinimapColor, t.HasMinimapColor },
			func(t *thing.Thing, v uint16) { t.HasMinimapColor, t.MinimapColor = true, v }),
		u16Flag(tagLensHelp, "LensHelp",
			func(t *thing.Thing) (uint16, bool) { return t.LensHelp, t.HasLensHelp },
			func(t *thing.Thing, v uint16) { t.HasLensHelp, t.LensHelp = true, v }),
		boolFlag(tagFullGround, "FullGround", func(t *thing.Thing) bool { return t.FullGround }, func(t *thing.Thing, v bool) { t.FullGround = v }),
	}
}

func v2Additions() []flagCodec {
	return []flagCodec{
		boolFlag(tagHangable, "Hangable", func(t *thing.Thing) bool { return t.Hangable }, func(t *thing.Thing, v bool) { t.Hangable = v }),
		boolFlag(tagVertical, "Vertical", func(t *thing.Thing) bool { return t.Vertical }, func(t *thing.Thing, v bool) { t.Vertical = v }),
		boolFlag(tagHorizontal, "Horizontal", func(t *thing.Thing) bool { return t.Horizontal }, func(t *thing.Thing, v bool) { t.Horizontal = v }),
	}
}

func v4Additions(wrappableTag, unwrappableTag, hasBonesTag byte) []flagCodec {
	return []flagCodec{
		boolFlag(tagHasCharges, "HasCharges", func(t *thing.Thing) bool { return t.HasCharges }, func(t *thing.Thing, v bool) { t.HasCharges = v }),
		boolFlag(tagDontHide, "DontHide", func(t *thing.Thing) bool { return t.DontHide }, func(t *thing.Thing, v bool) { t.DontHide = v }),
		boolFlag(tagIgnoreLook, "IgnoreLook", func(t *thing.Thing) bool { return t.IgnoreLook }, func(t *thing.Thing, v bool) { t.IgnoreLook = v }),
		boolFlag(wrappableTag, "Wrappable", func(t *thing.Thing) bool { return t.Wrappable }, func(t *thing.Thing, v bool) { t.Wrappable = v }),
		boolFlag(unwrappableTag, "Unwrappable", func(t *thing.Thing) bool { return t.Unwrappable }, func(t *thing.Thing, v bool) { t.Unwrappable = v }),
		hasBonesFlag(hasBonesTag),
	}
}

func v5Additions() []flagCodec {
	return []flagCodec{
		u16Flag(tagClothV5, "Cloth",
			func(t *thing.Thing) (uint16, bool) { return t.ClothSlot, t.HasCloth },
			func(t *thing.Thing, v uint16) { t.HasCloth, t.ClothSlot = true, v }),
		boolFlag(tagTranslucent, "Translucent", func(t *thing.Thing) bool { return t.Translucent }, func(t *thing.Thing, v bool) { t.Translucent = v }),
		marketItemFlag(),
	}
}

func v6Additions() []flagCodec {
	return []flagCodec{
		boolFlag(tagNoMoveAnimation, "NoMoveAnimation", func(t *thing.Thing) bool { return t.NoMoveAnimation }, func(t *thing.Thing, v bool) { t.NoMoveAnimation = v }),
		u16Flag(tagDefaultAction, "DefaultAction",
			func(t *thing.Thing) (uint16, bool) { return t.DefaultActionValue, t.DefaultAction },
			func(t *thing.Thing, v uint16) { t.DefaultAction, t.DefaultActionValue = true, v }),
		boolFlag(tagTopEffect, "TopEffect", func(t *thing.Thing) bool { return t.TopEffect }, func(t *thing.Thing, v bool) { t.TopEffect = v }),
		boolFlag(tagUsable, "Usable", func(t *thing.Thing) bool { return t.Usable }, func(t *thing.Thing, v bool) { t.Usable = v }),
	}
}

// buildTable assembles a flagTable from a version and its applicable
// flag list, putting the mutually-exclusive layer selectors first in
// writeOrder (Ground, GroundBorder, OnBottom, OnTop, in that priority)
// and every other flag after, in definition order.
func buildTable(v Version, flags []flagCodec) *flagTable {
	decode := make(map[byte]flagCodec, len(flags))
	for _, f := range flags {
		decode[f.tag] = f
	}

	layerTags := map[byte]bool{
		tagGround: true, tagGroundBorder: true, tagOnBottom: true, tagOnTop: true,
	}
	var layerOrder []flagCodec
	for _, tag := range []byte{tagGround, tagGroundBorder, tagOnBottom, tagOnTop} {
		if f, ok := decode[tag]; ok {
			layerOrder = append(layerOrder, f)
		}
	}
	var rest []flagCodec
	for _, f := range flags {
		if !layerTags[f.tag] {
			rest = append(rest, f)
		}
	}

	return &flagTable{
		version:    v,
		decode:     decode,
		writeOrder: append(layerOrder, rest...),
	}
}

// TableFor returns the flag table for a given wire version.
func TableFor(v Version) *flagTable {
	switch v {
	case V1:
		flags := append([]flagCodec{groundFlag(), onBottomFlag(), onTopFlag()}, baseFlags()...)
		flags = append(flags, boolFlag(tagWritableOnce, "WritableOnce",
			func(t *thing.Thing) bool { return t.WritableOnce },
			func(t *thing.Thing, v bool) { t.WritableOnce = v }))
		flags = append(flags, hasOffsetFlag(false))
		return buildTable(V1, flags)
	case V2:
		flags := append([]flagCodec{groundFlag(), onBottomFlag(), onTopFlag()}, baseFlags()...)
		flags = append(flags, v2Additions()...)
		flags = append(flags, hasOffsetFlag(false))
		return buildTable(V2, flags)
	case V3:
		flags := append([]flagCodec{groundFlag(), groundBorderFlag(), onBottomFlag(), onTopFlag()}, baseFlags()...)
		flags = append(flags, v2Additions()...)
		flags = append(flags, hasOffsetFlag(true))
		return buildTable(V3, flags)
	case V4:
		flags := append([]flagCodec{groundFlag(), groundBorderFlag(), onBottomFlag(), onTopFlag()}, baseFlags()...)
		flags = append(flags, v2Additions()...)
		flags = append(flags, hasOffsetFlag(true))
		// Legacy quirk: V4's writer emits Wrappable/Unwrappable using
		// V6's tag numbers, not its own. HasBones uses its own (V4)
		// tag -- no quirk for V4 itself, see V5 below.
		flags = append(flags, v4Additions(tagWrappableV6, tagUnwrappableV6, tagHasBonesV4)...)
		return buildTable(V4, flags)
	case V5:
		flags := append([]flagCodec{groundFlag(), groundBorderFlag(), onBottomFlag(), onTopFlag()}, baseFlags()...)
		flags = append(flags, v2Additions()...)
		flags = append(flags, hasOffsetFlag(true))
		// Legacy quirk: V5's writer also emits Wrappable/Unwrappable
		// using V6's tag numbers, and emits HasBones using V4's tag
		// number rather than a V5-specific one.
		flags = append(flags, v4Additions(tagWrappableV6, tagUnwrappableV6, tagHasBonesV4)...)
		flags = append(flags, v5Additions()...)
		return buildTable(V5, flags)
	case V6:
		flags := append([]flagCodec{groundFlag(), groundBorderFlag(), onBottomFlag(), onTopFlag()}, baseFlags()...)
		flags = append(flags, v2Additions()...)
		flags = append(flags, hasOffsetFlag(true))
		flags = append(flags, v4Additions(tagWrappableV6, tagUnwrappableV6, tagHasBonesV4)...)
		flags = append(flags, v5Additions()...)
		flags = append(flags, v6Additions()...)
		return buildTable(V6, flags)
	default:
		panic(fmt.Sprintf("dat: unknown version %v", v))
	}
}

// ReadFlags reads property-flag tags from r until the 0xFF sentinel,
// dispatching each to the version's decode table. An unknown tag is a
// fatal error reporting the previously-seen tag for diagnostics.
func ReadFlags(r *binstream.Reader, v Version, t *thing.Thing) error {
	table := TableFor(v)
	var prevTag *byte
	for {
		tag, err := r.U8()
		if err != nil {
			return fmt.Errorf("dat: reading flag tag: %w", err)
		}
		if tag == sentinel {
			return nil
		}
		codec, ok := table.decode[tag]
		if !ok {
			if prevTag != nil {
				return fmt.Errorf("dat: unknown flag tag 0x%02X (previous tag was 0x%02X)", tag, *prevTag)
			}
			return fmt.Errorf("dat: unknown flag tag 0x%02X (no previous tag)", tag)
		}
		if err := codec.decode(r, t); err != nil {
			return err
		}
		prevTag = &tag
	}
}

// WriteFlags emits every applicable flag for t in the version's fixed
// write order, followed by the 0xFF sentinel.
func WriteFlags(w *binstream.Writer, v Version, t *thing.Thing) {
	table := TableFor(v)
	for _, f := range table.writeOrder {
		f.encode(w, t)
	}
	w.U8(sentinel)
}
