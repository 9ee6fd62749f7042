package obd

import (
	"fmt"

	"github.com/tibia-tools/assets/binstream"
	"github.com/tibia-tools/assets/dat"
	"github.com/tibia-tools/assets/lzma"
	"github.com/tibia-tools/assets/thing"
)

// Sub identifies one of the three OBD wire sub-versions.
type Sub int

const (
	SubV1 Sub = iota + 1
	SubV2
	SubV3
)

const (
	markerV2 = 200
	markerV3 = 300
	// v1Threshold is the lowest client version value V1 bodies carry as
	// their own marker field; anything below it (and not 200 or 300) is
	// an unknown format.
	v1Threshold = 710
	// paddedSpriteSize is the fixed per-sprite record size V2 uses for
	// random-access friendliness: a 32x32 compressed tile padded to this
	// many bytes with trailing zeros if shorter, or entirely absent.
	paddedSpriteSize = 4096
)

// FixedRecordSize is the wire size of one V2 sprite record's payload
// (the compressed bytes are zero-padded up to this length).
const FixedRecordSize = paddedSpriteSize

// ErrUnknownFormat is returned when the first u16 after LZMA inflation
// does not match any known OBD marker.
var ErrUnknownFormat = fmt.Errorf("obd: unknown OBD format")

// Packet is a decoded OBD payload: one thing plus every sprite it
// references, keyed by sprite id. Frame groups inside Thing carry the
// ids to look the sprites up by.
type Packet struct {
	Sub           Sub
	ClientVersion uint16
	Thing         *thing.Thing
	Sprites       map[uint32][]byte
}

// Decode inflates an LZMA-wrapped OBD buffer and parses it into a
// Packet, detecting the sub-version from the first u16 after inflation.
func Decode(buf []byte, defaults func(thing.Category) (min, max uint32)) (*Packet, error) {
	raw, err := lzma.Decompress(buf)
	if err != nil {
		return nil, fmt.Errorf("obd: lzma inflate: %w", err)
	}

	r := binstream.NewReader(raw)
	marker, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("obd: reading format marker: %w", err)
	}

	switch {
	case marker == markerV3:
		return decodeV3(r)
	case marker == markerV2:
		return decodeV2(r)
	case marker >= v1Threshold:
		r.Seek(0)
		return decodeV1(r, defaults)
	default:
		return nil, ErrUnknownFormat
	}
}

// Encode serialises a Packet under the given sub-version and wraps the
// result in an LZMA stream.
func Encode(p *Packet, level int) ([]byte, error) {
	w := binstream.NewWriter()
	var err error
	switch p.Sub {
	case SubV1:
		encodeV1(w, p)
	case SubV2:
		err = encodeV2(w, p)
	case SubV3:
		err = encodeV3(w, p)
	default:
		return nil, fmt.Errorf("obd: unknown sub-version %d", p.Sub)
	}
	if err != nil {
		return nil, err
	}
	return lzma.Compress(w.Bytes(), level)
}

func categoryName(c thing.Category) string { return c.String() }

func categoryFromName(name string) (thing.Category, error) {
	switch name {
	case "Item":
		return thing.Item, nil
	case "Outfit":
		return thing.Outfit, nil
	case "Effect":
		return thing.Effect, nil
	case "Missile":
		return thing.Missile, nil
	default:
		return 0, fmt.Errorf("obd: unknown category name %q", name)
	}
}

// decodeV1 parses the variable-length V1 body, which starts with the
// client version itself (no dedicated marker distinct from it).
func decodeV1(r *binstream.Reader, defaults func(thing.Category) (uint32, uint32)) (*Packet, error) {
	clientVersion, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("obd v1: clientVersion: %w", err)
	}
	catName, err := r.LengthPrefixedString()
	if err != nil {
		return nil, fmt.Errorf("obd v1: categoryName: %w", err)
	}
	category, err := categoryFromName(catName)
	if err != nil {
		return nil, fmt.Errorf("obd v1: %w", err)
	}

	t := thing.New(category, 0)
	version := dat.VersionForClient(int(clientVersion))
	if err := dat.ReadFlags(r, version, t); err != nil {
		return nil, fmt.Errorf("obd v1: properties: %w", err)
	}

	g, err := readLayout(r, version >= dat.V3)
	if err != nil {
		return nil, fmt.Errorf("obd v1: layout: %w", err)
	}
	if g.Frames > 1 {
		min, max := defaults(category)
		g.Animation = defaultAnimation(g.Frames, min, max)
	}
	thing.SetFrameGroup(t, thing.Default, g)

	sprites := map[uint32][]byte{}
	total := thing.TotalSprites(g)
	ids := make([]uint32, total)
	for i := 0; i < total; i++ {
		id, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("obd v1: sprite[%d] id: %w", i, err)
		}
		length, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("obd v1: sprite[%d] length: %w", i, err)
		}
		var body []byte
		if length > 0 {
			b, err := r.Bytes(length)
			if err != nil {
				return nil, fmt.Errorf("obd v1: sprite[%d] bytes: %w", i, err)
			}
			body = append([]byte(nil), b...)
		}
		ids[i] = id
		if body != nil {
			sprites[id] = body
		}
	}
	g.SpriteIndex = ids

	return &Packet{Sub: SubV1, ClientVersion: clientVersion, Thing: t, Sprites: sprites}, nil
}

func encodeV1(w *binstream.Writer, p *Packet) {
	w.U16(p.ClientVersion)
	w.LengthPrefixedString(categoryName(p.Thing.Category))

	version := dat.VersionForClient(int(p.ClientVersion))
	dat.WriteFlags(w, version, p.Thing)

	g := thing.GetFrameGroup(p.Thing, thing.Default)
	if g == nil {
		g = &thing.FrameGroup{Frames: 1}
	}
	writeLayout(w, g, version >= dat.V3)

	for _, id := range g.SpriteIndex {
		w.U32(id)
		body := p.Sprites[id]
		w.U32(uint32(len(body)))
		if len(body) > 0 {
			w.WriteBytes(body)
		}
	}
}

// decodeV2 parses the fixed-size-record V2 body. The marker u16 has
// already been consumed by the caller.
func decodeV2(r *binstream.Reader) (*Packet, error) {
	clientVersion, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("obd v2: clientVersion: %w", err)
	}
	catByte, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("obd v2: category: %w", err)
	}
	category := thing.Category(catByte)

	spritesStart, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("obd v2: spritesStart: %w", err)
	}

	t := thing.New(category, 0)
	if err := readGenericProperties(r, t); err != nil {
		return nil, fmt.Errorf("obd v2: properties: %w", err)
	}

	g, err := readLayout(r, true)
	if err != nil {
		return nil, fmt.Errorf("obd v2: layout: %w", err)
	}
	if g.Frames > 1 {
		anim, err := readAnimationDescriptor(r, g.Frames)
		if err != nil {
			return nil, fmt.Errorf("obd v2: animation: %w", err)
		}
		g.Animation = anim
	}
	thing.SetFrameGroup(t, thing.Default, g)

	r.Seek(spritesStart)
	sprites := map[uint32][]byte{}
	total := thing.TotalSprites(g)
	ids := make([]uint32, total)
	for i := 0; i < total; i++ {
		id, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("obd v2: sprite[%d] id: %w", i, err)
		}
		body, err := r.Bytes(paddedSpriteSize)
		if err != nil {
			return nil, fmt.Errorf("obd v2: sprite[%d] body: %w", i, err)
		}
		ids[i] = id
		sprites[id] = body
	}
	g.SpriteIndex = ids

	return &Packet{Sub: SubV2, ClientVersion: clientVersion, Thing: t, Sprites: sprites}, nil
}

func encodeV2(w *binstream.Writer, p *Packet) error {
	w.U16(markerV2)
	w.U16(p.ClientVersion)
	w.U8(uint8(p.Thing.Category))

	placeholderOffset := w.Cursor()
	w.U32(0) // spritesStart placeholder, back-patched below

	writeGenericProperties(w, p.Thing)

	g := thing.GetFrameGroup(p.Thing, thing.Default)
	if g == nil {
		g = &thing.FrameGroup{Frames: 1}
	}
	writeLayout(w, g, true)
	if g.Frames > 1 && g.Animation != nil {
		writeAnimationDescriptor(w, g.Animation)
	}

	spritesStart := w.Cursor()
	w.Seek(placeholderOffset)
	w.U32(spritesStart)
	w.Seek(spritesStart)

	for _, id := range g.SpriteIndex {
		w.U32(id)
		body := p.Sprites[id]
		if len(body) > paddedSpriteSize {
			return fmt.Errorf("obd v2: sprite %d exceeds fixed record size (%d > %d)", id, len(body), paddedSpriteSize)
		}
		padded := make([]byte, paddedSpriteSize)
		copy(padded, body)
		w.WriteBytes(padded)
	}
	return nil
}

// decodeV3 parses the variable-length, multi-frame-group V3 body. The
// marker u16 has already been consumed by the caller.
func decodeV3(r *binstream.Reader) (*Packet, error) {
	clientVersion, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("obd v3: clientVersion: %w", err)
	}
	catByte, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("obd v3: category: %w", err)
	}
	category := thing.Category(catByte)

	// spritesStart is carried for V2-style random access symmetry but
	// V3's sprite records are variable-length, so it is not used to seek
	// here; records are simply read in sequence following the layout(s).
	if _, err := r.U32(); err != nil {
		return nil, fmt.Errorf("obd v3: spritesStart: %w", err)
	}

	t := thing.New(category, 0)
	if err := readGenericProperties(r, t); err != nil {
		return nil, fmt.Errorf("obd v3: properties: %w", err)
	}

	groupCount := 1
	var slots []thing.FrameGroupSlot
	if category == thing.Outfit {
		n, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("obd v3: groupCount: %w", err)
		}
		groupCount = int(n)
	}
	if groupCount <= 0 {
		groupCount = 1
	}

	sprites := map[uint32][]byte{}
	for i := 0; i < groupCount; i++ {
		slot := thing.Default
		if category == thing.Outfit {
			if _, err := r.U8(); err != nil {
				return nil, fmt.Errorf("obd v3: groupTag: %w", err)
			}
			// Only the count is meaningful: slots follow read order.
			if i > 0 {
				slot = thing.Walking
			}
		}
		slots = append(slots, slot)

		g, err := readLayout(r, true)
		if err != nil {
			return nil, fmt.Errorf("obd v3: group %d layout: %w", i, err)
		}
		if g.Frames > 1 {
			anim, err := readAnimationDescriptor(r, g.Frames)
			if err != nil {
				return nil, fmt.Errorf("obd v3: group %d animation: %w", i, err)
			}
			g.Animation = anim
		}

		total := thing.TotalSprites(g)
		ids := make([]uint32, total)
		for j := 0; j < total; j++ {
			id, err := r.U32()
			if err != nil {
				return nil, fmt.Errorf("obd v3: group %d sprite[%d] id: %w", i, j, err)
			}
			length, err := r.U32()
			if err != nil {
				return nil, fmt.Errorf("obd v3: group %d sprite[%d] length: %w", i, j, err)
			}
			var body []byte
			if length > 0 {
				b, err := r.Bytes(length)
				if err != nil {
					return nil, fmt.Errorf("obd v3: group %d sprite[%d] bytes: %w", i, j, err)
				}
				body = append([]byte(nil), b...)
			}
			ids[j] = id
			if body != nil {
				sprites[id] = body
			}
		}
		g.SpriteIndex = ids
		thing.SetFrameGroup(t, slot, g)
	}

	return &Packet{Sub: SubV3, ClientVersion: clientVersion, Thing: t, Sprites: sprites}, nil
}

func encodeV3(w *binstream.Writer, p *Packet) error {
	w.U16(markerV3)
	w.U16(p.ClientVersion)
	w.U8(uint8(p.Thing.Category))

	placeholderOffset := w.Cursor()
	w.U32(0)

	writeGenericProperties(w, p.Thing)

	var slots []thing.FrameGroupSlot
	if p.Thing.Category == thing.Outfit {
		for _, slot := range []thing.FrameGroupSlot{thing.Default, thing.Walking} {
			if thing.GetFrameGroup(p.Thing, slot) != nil {
				slots = append(slots, slot)
			}
		}
		if len(slots) == 0 {
			slots = []thing.FrameGroupSlot{thing.Default}
		}
		w.U8(uint8(len(slots)))
	} else {
		slots = []thing.FrameGroupSlot{thing.Default}
	}

	spritesStart := w.Cursor()
	w.Seek(placeholderOffset)
	w.U32(spritesStart)
	w.Seek(spritesStart)

	for _, slot := range slots {
		if p.Thing.Category == thing.Outfit {
			tag := uint8(0)
			if slot == thing.Walking {
				tag = 1
			}
			w.U8(tag)
		}
		g := thing.GetFrameGroup(p.Thing, slot)
		if g == nil {
			g = &thing.FrameGroup{Frames: 1}
		}
		writeLayout(w, g, true)
		if g.Frames > 1 && g.Animation != nil {
			writeAnimationDescriptor(w, g.Animation)
		}
		for _, id := range g.SpriteIndex {
			w.U32(id)
			body := p.Sprites[id]
			w.U32(uint32(len(body)))
			if len(body) > 0 {
				w.WriteBytes(body)
			}
		}
	}
	return nil
}
