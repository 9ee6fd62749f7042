package dat

import (
	"fmt"

	"github.com/tibia-tools/assets/binstream"
	"github.com/tibia-tools/assets/thing"
)

// ErrSpriteCountExceeded is returned when a frame group's total sprite
// count exceeds MaxSpritesPerGroup.
var ErrSpriteCountExceeded = fmt.Errorf("dat: frame group sprite count exceeds %d", thing.MaxSpritesPerGroup)

// Header is the DAT file's fixed 12-byte preamble.
type Header struct {
	Signature     uint32
	MaxItemID     uint16
	MaxOutfitID   uint16
	MaxEffectID   uint16
	MaxMissileID  uint16
}

func readHeader(r *binstream.Reader) (Header, error) {
	var h Header
	var err error
	if h.Signature, err = r.U32(); err != nil {
		return h, fmt.Errorf("dat: header signature: %w", err)
	}
	if h.MaxItemID, err = r.U16(); err != nil {
		return h, fmt.Errorf("dat: header maxItemId: %w", err)
	}
	if h.MaxOutfitID, err = r.U16(); err != nil {
		return h, fmt.Errorf("dat: header maxOutfitId: %w", err)
	}
	if h.MaxEffectID, err = r.U16(); err != nil {
		return h, fmt.Errorf("dat: header maxEffectId: %w", err)
	}
	if h.MaxMissileID, err = r.U16(); err != nil {
		return h, fmt.Errorf("dat: header maxMissileId: %w", err)
	}
	return h, nil
}

func writeHeader(w *binstream.Writer, h Header) {
	w.U32(h.Signature)
	w.U16(h.MaxItemID)
	w.U16(h.MaxOutfitID)
	w.U16(h.MaxEffectID)
	w.U16(h.MaxMissileID)
}

// Table is a parsed DAT file: every thing keyed by (category, id).
type Table struct {
	Signature uint32
	Version   Version
	Features  thing.Features
	Items     map[uint32]*thing.Thing
	Outfits   map[uint32]*thing.Thing
	Effects   map[uint32]*thing.Thing
	Missiles  map[uint32]*thing.Thing
}

func newTable(sig uint32, v Version, f thing.Features) *Table {
	return &Table{
		Signature: sig,
		Version:   v,
		Features:  f,
		Items:     map[uint32]*thing.Thing{},
		Outfits:   map[uint32]*thing.Thing{},
		Effects:   map[uint32]*thing.Thing{},
		Missiles:  map[uint32]*thing.Thing{},
	}
}

func bucketFor(t *Table, c thing.Category) map[uint32]*thing.Thing {
	switch c {
	case thing.Item:
		return t.Items
	case thing.Outfit:
		return t.Outfits
	case thing.Effect:
		return t.Effects
	case thing.Missile:
		return t.Missiles
	default:
		return nil
	}
}

// durationDefault returns the (min,max) frame duration a reader
// synthesises for a category when no explicit animation descriptor is
// present on the wire.
type durationDefault func(category thing.Category) (min, max uint32)

// categoryRun describes one of the four fixed runs a DAT file is laid
// out in: a category (whose FirstID is 100 for items, 1 otherwise) and
// the last id present (from the header).
type categoryRun struct {
	category thing.Category
	lastID   uint16
}

// Read parses a complete DAT buffer for the given client version and
// transparency setting, deriving the wire version and feature set from
// clientVersion. Read failures abort the whole parse; a partially
// parsed table is never returned.
func Read(buf []byte, clientVersion int, transparency bool, defaults durationDefault) (*Table, error) {
	v := VersionForClient(clientVersion)
	f := thing.ApplyVersionDefaults(thing.Features{Transparency: transparency}, clientVersion)

	r := binstream.NewReader(buf)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	table := newTable(h.Signature, v, f)

	runs := []categoryRun{
		{thing.Item, h.MaxItemID},
		{thing.Outfit, h.MaxOutfitID},
		{thing.Effect, h.MaxEffectID},
		{thing.Missile, h.MaxMissileID},
	}

	for _, run := range runs {
		first := run.category.FirstID()
		if run.category == thing.Item && uint32(run.lastID) < 100 {
			// maxItemId below the item floor: legacy files yield zero
			// items rather than erroring.
			continue
		}
		for id := first; id <= uint32(run.lastID); id++ {
			t := thing.New(run.category, id)
			if err := ReadFlags(r, v, t); err != nil {
				return nil, fmt.Errorf("dat: %s %d: %w", run.category, id, err)
			}
			if err := readTexturePatternBlock(r, t, v, f, defaults); err != nil {
				return nil, fmt.Errorf("dat: %s %d: texture pattern: %w", run.category, id, err)
			}
			bucketFor(table, run.category)[id] = t
		}
	}

	return table, nil
}

// Write serialises a table back to its wire form under the table's own
// version and feature set.
func Write(table *Table) ([]byte, error) {
	w := binstream.NewWriter()
	writeHeader(w, Header{
		Signature:    table.Signature,
		MaxItemID:    maxKey(table.Items, 0),
		MaxOutfitID:  maxKey(table.Outfits, 0),
		MaxEffectID:  maxKey(table.Effects, 0),
		MaxMissileID: maxKey(table.Missiles, 0),
	})

	runs := []struct {
		category thing.Category
		bucket   map[uint32]*thing.Thing
		lastID   uint32
	}{
		{thing.Item, table.Items, uint32(maxKey(table.Items, 0))},
		{thing.Outfit, table.Outfits, uint32(maxKey(table.Outfits, 0))},
		{thing.Effect, table.Effects, uint32(maxKey(table.Effects, 0))},
		{thing.Missile, table.Missiles, uint32(maxKey(table.Missiles, 0))},
	}

	for _, run := range runs {
		first := run.category.FirstID()
		for id := first; id <= run.lastID; id++ {
			t := run.bucket[id]
			if t == nil {
				t = thing.New(run.category, id)
			}
			WriteFlags(w, table.Version, t)
			if err := writeTexturePatternBlock(w, t, table.Version, table.Features); err != nil {
				return nil, fmt.Errorf("dat: %s %d: texture pattern: %w", run.category, id, err)
			}
		}
	}

	return w.Bytes(), nil
}

func maxKey(m map[uint32]*thing.Thing, fallback uint16) uint16 {
	var max uint32
	found := false
	for k := range m {
		if !found || k > max {
			max = k
			found = true
		}
	}
	if !found {
		return fallback
	}
	return uint16(max)
}

func readTexturePatternBlock(r *binstream.Reader, t *thing.Thing, v Version, f thing.Features, defaults durationDefault) error {
	groupCount := 1
	var groupSlots []thing.FrameGroupSlot

	if t.Category == thing.Outfit && f.FrameGroups {
		n, err := r.U8()
		if err != nil {
			return fmt.Errorf("group count: %w", err)
		}
		groupCount = int(n)
		for i := 0; i < groupCount; i++ {
			if _, err := r.U8(); err != nil {
				return fmt.Errorf("group tag: %w", err)
			}
			// Only the count is meaningful: slots follow read order.
			if i == 0 {
				groupSlots = append(groupSlots, thing.Default)
			} else {
				groupSlots = append(groupSlots, thing.Walking)
			}
		}
	} else {
		groupSlots = []thing.FrameGroupSlot{thing.Default}
	}

	for _, slot := range groupSlots {
		g, err := readFrameGroup(r, v, f, defaults, t.Category)
		if err != nil {
			return err
		}
		thing.SetFrameGroup(t, slot, g)
	}
	return nil
}

func readFrameGroup(r *binstream.Reader, v Version, f thing.Features, defaults durationDefault, category thing.Category) (*thing.FrameGroup, error) {
	g := &thing.FrameGroup{}
	var err error
	if g.Width, err = r.U8(); err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	if g.Height, err = r.U8(); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if thing.HasExplicitExactSize(g.Width, g.Height) {
		if g.ExactSize, err = r.U8(); err != nil {
			return nil, fmt.Errorf("exactSize: %w", err)
		}
	} else {
		g.ExactSize = thing.DefaultExactSize(g.Width, g.Height)
	}
	if g.Layers, err = r.U8(); err != nil {
		return nil, fmt.Errorf("layers: %w", err)
	}
	if g.PatternX, err = r.U8(); err != nil {
		return nil, fmt.Errorf("patternX: %w", err)
	}
	if g.PatternY, err = r.U8(); err != nil {
		return nil, fmt.Errorf("patternY: %w", err)
	}
	if patternZCarried(v) {
		if g.PatternZ, err = r.U8(); err != nil {
			return nil, fmt.Errorf("patternZ: %w", err)
		}
	} else {
		g.PatternZ = 1
	}
	if g.Frames, err = r.U8(); err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}

	if g.Frames > 1 {
		if f.ImprovedAnimations {
			anim, err := readAnimation(r, g.Frames)
			if err != nil {
				return nil, err
			}
			g.Animation = anim
		} else {
			min, max := defaults(category)
			durations := make([]thing.FrameDuration, g.Frames)
			for i := range durations {
				durations[i] = thing.FrameDuration{Min: min, Max: max}
			}
			g.Animation = &thing.Animation{Durations: durations}
		}
	}

	total := thing.TotalSprites(g)
	if total > thing.MaxSpritesPerGroup {
		return nil, ErrSpriteCountExceeded
	}
	g.SpriteIndex = make([]uint32, total)
	for i := 0; i < total; i++ {
		if f.Extended {
			g.SpriteIndex[i], err = r.U32()
		} else {
			var v uint16
			v, err = r.U16()
			g.SpriteIndex[i] = uint32(v)
		}
		if err != nil {
			return nil, fmt.Errorf("spriteIndex[%d]: %w", i, err)
		}
	}

	return g, nil
}

// patternZCarried reports whether the texture pattern block carries an
// explicit patternZ byte: true from client version 755 onward, which is
// exactly the V2->V3 wire-version cutover.
func patternZCarried(v Version) bool {
	return v >= V3
}

func readAnimation(r *binstream.Reader, frames uint8) (*thing.Animation, error) {
	a := &thing.Animation{}
	mode, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("animation mode: %w", err)
	}
	a.Mode = thing.AnimationMode(mode)
	if a.LoopCount, err = r.I32(); err != nil {
		return nil, fmt.Errorf("animation loopCount: %w", err)
	}
	startFrame, err := r.I8()
	if err != nil {
		return nil, fmt.Errorf("animation startFrame: %w", err)
	}
	a.StartFrame = int32(startFrame)
	a.Durations = make([]thing.FrameDuration, frames)
	for i := 0; i < int(frames); i++ {
		min, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("animation duration[%d].min: %w", i, err)
		}
		max, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("animation duration[%d].max: %w", i, err)
		}
		a.Durations[i] = thing.FrameDuration{Min: min, Max: max}
	}
	return a, nil
}

func writeTexturePatternBlock(w *binstream.Writer, t *thing.Thing, v Version, f thing.Features) error {
	var slots []thing.FrameGroupSlot
	if t.Category == thing.Outfit && f.FrameGroups {
		for _, slot := range []thing.FrameGroupSlot{thing.Default, thing.Walking} {
			if thing.GetFrameGroup(t, slot) != nil {
				slots = append(slots, slot)
			}
		}
		w.U8(uint8(len(slots)))
		for _, slot := range slots {
			tag := uint8(0)
			if slot == thing.Walking {
				tag = 1
			}
			w.U8(tag)
		}
	} else {
		slots = []thing.FrameGroupSlot{thing.Default}
	}

	for _, slot := range slots {
		g := thing.GetFrameGroup(t, slot)
		if g == nil {
			g = &thing.FrameGroup{Frames: 1}
		}
		if err := writeFrameGroup(w, g, v, f); err != nil {
			return err
		}
	}
	return nil
}

func writeFrameGroup(w *binstream.Writer, g *thing.FrameGroup, v Version, f thing.Features) error {
	w.U8(g.Width)
	w.U8(g.Height)
	if thing.HasExplicitExactSize(g.Width, g.Height) {
		w.U8(g.ExactSize)
	}
	w.U8(g.Layers)
	w.U8(g.PatternX)
	w.U8(g.PatternY)
	if patternZCarried(v) {
		patternZ := g.PatternZ
		if patternZ == 0 {
			patternZ = 1
		}
		w.U8(patternZ)
	}
	w.U8(g.Frames)

	if g.Frames > 1 && f.ImprovedAnimations && g.Animation != nil {
		a := g.Animation
		w.U8(uint8(a.Mode))
		w.I32(a.LoopCount)
		w.I8(int8(a.StartFrame))
		for _, d := range a.Durations {
			w.U32(d.Min)
			w.U32(d.Max)
		}
	}

	total := thing.TotalSprites(g)
	if total > thing.MaxSpritesPerGroup {
		return ErrSpriteCountExceeded
	}
	if len(g.SpriteIndex) != total {
		return fmt.Errorf("dat: frame group sprite index length %d does not match computed total %d", len(g.SpriteIndex), total)
	}
	for _, id := range g.SpriteIndex {
		if f.Extended {
			w.U32(id)
		} else {
			w.U16(uint16(id))
		}
	}
	return nil
}
