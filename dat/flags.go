package dat

import (
	"fmt"

	"github.com/tibia-tools/assets/binstream"
	"github.com/tibia-tools/assets/thing"
)

// Tag bytes are assigned once, in order of introduction. Each version's
// table uses the subset of tags it knows (WritableOnce only in V1, and
// HasOffset's payload depends on the version), plus two documented
// legacy renumbering quirks below.
const (
	tagGround = iota
	tagOnBottom
	tagOnTop
	tagContainer
	tagStackable
	tagForceUse
	tagMultiUse
	tagWritable
	tagWritableOnce // V1 only
	tagFluidContainer
	tagSplash
	tagNotWalkable
	tagNotMoveable
	tagBlockProjectile
	tagNotPathable
	tagPickupable
	tagRotatable
	tagHasLight
	tagHasOffset // V1/V2: bare flag; V3+: (i16,i16) payload
	tagHasElevation
	tagLyingCorpse
	tagAnimateAlways
	tagMinimapColor
	tagLensHelp
	tagFullGround

	tagHangable // V2+
	tagVertical
	tagHorizontal

	tagGroundBorder // V3+

	tagHasCharges // V4+
	tagDontHide
	tagIgnoreLook
	tagHasBonesV4 // V4's natural tag; reused as-is by V5 (legacy quirk)

	tagClothV5 // V5+
	tagTranslucent
	tagMarketItem

	tagNoMoveAnimation // V6+
	tagDefaultAction
	tagTopEffect
	tagUsable
	tagWrappableV6 // V6's natural tag; reused by V4/V5 writers (legacy quirk)
	tagUnwrappableV6
)

// flagCodec is one entry in a version's bidirectional tag<->field table:
// decode dispatches on the wire tag, encode checks whether the field
// applies to a thing and, if so, writes the tag and its payload.
type flagCodec struct {
	tag    byte
	name   string
	decode func(r *binstream.Reader, t *thing.Thing) error
	encode func(w *binstream.Writer, t *thing.Thing) bool
}

func boolFlag(tag byte, name string, get func(*thing.Thing) bool, set func(*thing.Thing, bool)) flagCodec {
	return flagCodec{
		tag:  tag,
		name: name,
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			set(t, true)
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			if !get(t) {
				return false
			}
			w.U8(tag)
			return true
		},
	}
}

func u16Flag(tag byte, name string, get func(*thing.Thing) (uint16, bool), set func(*thing.Thing, uint16)) flagCodec {
	return flagCodec{
		tag:  tag,
		name: name,
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			v, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: %s: %w", name, err)
			}
			set(t, v)
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			v, ok := get(t)
			if !ok {
				return false
			}
			w.U8(tag)
			w.U16(v)
			return true
		},
	}
}

func u16PairFlag(tag byte, name string, get func(*thing.Thing) (a, b uint16, ok bool), set func(*thing.Thing, uint16, uint16)) flagCodec {
	return flagCodec{
		tag:  tag,
		name: name,
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			a, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: %s: %w", name, err)
			}
			b, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: %s: %w", name, err)
			}
			set(t, a, b)
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			a, b, ok := get(t)
			if !ok {
				return false
			}
			w.U8(tag)
			w.U16(a)
			w.U16(b)
			return true
		},
	}
}

// hasOffsetFlag implements the HAS_OFFSET tag, whose payload depends on
// the version: V1/V2 carry no payload at all, V3+ carry (i16,i16).
func hasOffsetFlag(withPayload bool) flagCodec {
	return flagCodec{
		tag:  tagHasOffset,
		name: "HasOffset",
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			t.HasOffset = true
			if !withPayload {
				return nil
			}
			x, err := r.I16()
			if err != nil {
				return fmt.Errorf("dat: HasOffset: %w", err)
			}
			y, err := r.I16()
			if err != nil {
				return fmt.Errorf("dat: HasOffset: %w", err)
			}
			t.OffsetX, t.OffsetY = x, y
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			if !t.HasOffset {
				return false
			}
			w.U8(tagHasOffset)
			if withPayload {
				w.I16(t.OffsetX)
				w.I16(t.OffsetY)
			}
			return true
		},
	}
}

func writableFlag(tag byte, name string, get func(*thing.Thing) bool, maxLen func(*thing.Thing) uint16, set func(*thing.Thing, uint16)) flagCodec {
	return flagCodec{
		tag:  tag,
		name: name,
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			v, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: %s: %w", name, err)
			}
			set(t, v)
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			if !get(t) {
				return false
			}
			w.U8(tag)
			w.U16(maxLen(t))
			return true
		},
	}
}

func marketItemFlag() flagCodec {
	return flagCodec{
		tag:  tagMarketItem,
		name: "MarketItem",
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			cat, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: MarketItem: category: %w", err)
			}
			tradeAs, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: MarketItem: tradeAs: %w", err)
			}
			showAs, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: MarketItem: showAs: %w", err)
			}
			nameLen, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: MarketItem: name length: %w", err)
			}
			name, err := r.Latin1String(uint32(nameLen))
			if err != nil {
				return fmt.Errorf("dat: MarketItem: name: %w", err)
			}
			restrictProfession, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: MarketItem: restrictProfession: %w", err)
			}
			restrictLevel, err := r.U16()
			if err != nil {
				return fmt.Errorf("dat: MarketItem: restrictLevel: %w", err)
			}
			t.IsMarketItem = true
			t.Market = thing.MarketItem{
				Category:             cat,
				TradeAs:              tradeAs,
				ShowAs:               showAs,
				Name:                 name,
				RestrictToProfession: restrictProfession,
				RestrictToLevel:      restrictLevel,
			}
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			if !t.IsMarketItem {
				return false
			}
			w.U8(tagMarketItem)
			w.U16(t.Market.Category)
			w.U16(t.Market.TradeAs)
			w.U16(t.Market.ShowAs)
			encoded := binstream.NewWriter()
			if err := encoded.Latin1String(t.Market.Name); err != nil {
				// Latin-1 cannot represent every Unicode string; the
				// legacy format itself has no fallback, so neither do we.
				panic(fmt.Sprintf("dat: MarketItem name not representable in latin-1: %v", err))
			}
			w.U16(uint16(encoded.Len()))
			w.WriteBytes(encoded.Bytes())
			w.U16(t.Market.RestrictToProfession)
			w.U16(t.Market.RestrictToLevel)
			return true
		},
	}
}

func hasBonesFlag(tag byte) flagCodec {
	return flagCodec{
		tag:  tag,
		name: "HasBones",
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			var bones [4]thing.BonesOffset
			for i := 0; i < 4; i++ {
				x, err := r.I16()
				if err != nil {
					return fmt.Errorf("dat: HasBones: %w", err)
				}
				y, err := r.I16()
				if err != nil {
					return fmt.Errorf("dat: HasBones: %w", err)
				}
				bones[i] = thing.BonesOffset{X: x, Y: y}
			}
			t.HasBones = true
			t.Bones = bones
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			if !t.HasBones {
				return false
			}
			w.U8(tag)
			for _, b := range t.Bones {
				w.I16(b.X)
				w.I16(b.Y)
			}
			return true
		},
	}
}
