// Package obd implements the single-object exchange format: a packet
// carrying one thing plus all sprites it references, always wrapped in
// an LZMA stream, in one of three wire sub-versions (V1/V2/V3).
package obd

import (
	"fmt"

	"github.com/tibia-tools/assets/binstream"
	"github.com/tibia-tools/assets/thing"
)

// propCodec is one entry of the generic OBD properties dictionary: a
// second, smaller flag table distinct from any of the six DAT tables,
// shared by the V2 and V3 bodies. categoryGate, when non-nil, silently
// skips writing the flag for a non-matching category.
type propCodec struct {
	tag         byte
	name        string
	categoryGate func(thing.Category) bool
	decode      func(r *binstream.Reader, t *thing.Thing) error
	encode      func(w *binstream.Writer, t *thing.Thing) bool
}

const propSentinel = 0xFF

func propBool(tag byte, name string, get func(*thing.Thing) bool, set func(*thing.Thing, bool)) propCodec {
	return propCodec{
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

func propU16(tag byte, name string, get func(*thing.Thing) (uint16, bool), set func(*thing.Thing, uint16)) propCodec {
	return propCodec{
		tag:  tag,
		name: name,
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			v, err := r.U16()
			if err != nil {
				return fmt.Errorf("obd: %s: %w", name, err)
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

func propOffset() propCodec {
	return propCodec{
		tag:  propTagHasOffset,
		name: "HasOffset",
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			x, err := r.I16()
			if err != nil {
				return fmt.Errorf("obd: HasOffset: %w", err)
			}
			y, err := r.I16()
			if err != nil {
				return fmt.Errorf("obd: HasOffset: %w", err)
			}
			t.HasOffset, t.OffsetX, t.OffsetY = true, x, y
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			if !t.HasOffset {
				return false
			}
			w.U8(propTagHasOffset)
			w.I16(t.OffsetX)
			w.I16(t.OffsetY)
			return true
		},
	}
}

func propTopEffect() propCodec {
	return propCodec{
		tag:          propTagTopEffect,
		name:         "TopEffect",
		categoryGate: func(c thing.Category) bool { return c == thing.Effect },
		decode: func(r *binstream.Reader, t *thing.Thing) error {
			t.TopEffect = true
			return nil
		},
		encode: func(w *binstream.Writer, t *thing.Thing) bool {
			if !t.TopEffect {
				return false
			}
			w.U8(propTagTopEffect)
			return true
		},
	}
}

const (
	propTagGround = iota
	propTagOnBottom
	propTagOnTop
	propTagContainer
	propTagStackable
	propTagMultiUse
	propTagForceUse
	propTagPickupable
	propTagRotatable
	propTagHangable
	propTagVertical
	propTagHorizontal
	propTagHasLight
	propTagHasOffset
	propTagHasElevation
	propTagFullGround
	propTagTopEffect
	propTagUsable
)

// genericProperties returns the full generic OBD property dictionary,
// in its fixed write order. It is a smaller, independent byte-tag
// dictionary from any of the six DAT tables.
func genericProperties() []propCodec {
	return []propCodec{
		propU16(propTagGround, "Ground",
			func(t *thing.Thing) (uint16, bool) { return t.GroundSpeed, t.IsGround },
			func(t *thing.Thing, v uint16) { t.IsGround, t.GroundSpeed = true, v }),
		propBool(propTagOnBottom, "OnBottom", func(t *thing.Thing) bool { return t.OnBottom }, func(t *thing.Thing, v bool) { t.OnBottom = v }),
		propBool(propTagOnTop, "OnTop", func(t *thing.Thing) bool { return t.OnTop }, func(t *thing.Thing, v bool) { t.OnTop = v }),
		propBool(propTagContainer, "Container", func(t *thing.Thing) bool { return t.IsContainer }, func(t *thing.Thing, v bool) { t.IsContainer = v }),
		propBool(propTagStackable, "Stackable", func(t *thing.Thing) bool { return t.Stackable }, func(t *thing.Thing, v bool) { t.Stackable = v }),
		propBool(propTagMultiUse, "MultiUse", func(t *thing.Thing) bool { return t.MultiUse }, func(t *thing.Thing, v bool) { t.MultiUse = v }),
		propBool(propTagForceUse, "ForceUse", func(t *thing.Thing) bool { return t.ForceUse }, func(t *thing.Thing, v bool) { t.ForceUse = v }),
		propBool(propTagPickupable, "Pickupable", func(t *thing.Thing) bool { return t.Pickupable }, func(t *thing.Thing, v bool) { t.Pickupable = v }),
		propBool(propTagRotatable, "Rotatable", func(t *thing.Thing) bool { return t.Rotatable }, func(t *thing.Thing, v bool) { t.Rotatable = v }),
		propBool(propTagHangable, "Hangable", func(t *thing.Thing) bool { return t.Hangable }, func(t *thing.Thing, v bool) { t.Hangable = v }),
		propBool(propTagVertical, "Vertical", func(t *thing.Thing) bool { return t.Vertical }, func(t *thing.Thing, v bool) { t.Vertical = v }),
		propBool(propTagHorizontal, "Horizontal", func(t *thing.Thing) bool { return t.Horizontal }, func(t *thing.Thing, v bool) { t.Horizontal = v }),
		{
			tag:  propTagHasLight,
			name: "HasLight",
			decode: func(r *binstream.Reader, t *thing.Thing) error {
				level, err := r.U16()
				if err != nil {
					return fmt.Errorf("obd: HasLight: %w", err)
				}
				color, err := r.U16()
				if err != nil {
					return fmt.Errorf("obd: HasLight: %w", err)
				}
				t.HasLight, t.LightLevel, t.LightColor = true, level, color
				return nil
			},
			encode: func(w *binstream.Writer, t *thing.Thing) bool {
				if !t.HasLight {
					return false
				}
				w.U8(propTagHasLight)
				w.U16(t.LightLevel)
				w.U16(t.LightColor)
				return true
			},
		},
		propOffset(),
		propU16(propTagHasElevation, "HasElevation",
			func(t *thing.Thing) (uint16, bool) { return t.Elevation, t.HasElevation },
			func(t *thing.Thing, v uint16) { t.HasElevation, t.Elevation = true, v }),
		propBool(propTagFullGround, "FullGround", func(t *thing.Thing) bool { return t.FullGround }, func(t *thing.Thing, v bool) { t.FullGround = v }),
		propTopEffect(),
		propBool(propTagUsable, "Usable", func(t *thing.Thing) bool { return t.Usable }, func(t *thing.Thing, v bool) { t.Usable = v }),
	}
}

// writeGenericProperties emits every applicable flag in fixed order,
// skipping category-gated flags that do not match t.Category, then the
// sentinel.
func writeGenericProperties(w *binstream.Writer, t *thing.Thing) {
	for _, p := range genericProperties() {
		if p.categoryGate != nil && !p.categoryGate(t.Category) {
			continue
		}
		p.encode(w, t)
	}
	w.U8(propSentinel)
}

// readGenericProperties dispatches tags by value until the sentinel. An
// unknown tag is a fatal error.
func readGenericProperties(r *binstream.Reader, t *thing.Thing) error {
	decode := make(map[byte]propCodec)
	for _, p := range genericProperties() {
		decode[p.tag] = p
	}
	for {
		tag, err := r.U8()
		if err != nil {
			return fmt.Errorf("obd: reading property tag: %w", err)
		}
		if tag == propSentinel {
			return nil
		}
		p, ok := decode[tag]
		if !ok {
			return fmt.Errorf("obd: unknown property tag 0x%02X", tag)
		}
		if err := p.decode(r, t); err != nil {
			return err
		}
	}
}
