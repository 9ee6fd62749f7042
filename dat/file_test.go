package dat

import (
	"testing"

	"github.com/tibia-tools/assets/binstream"
	"github.com/tibia-tools/assets/thing"
)

func defaultDurations(category thing.Category) (uint32, uint32) {
	return 100, 100
}

func TestDatRoundTripV6MarketItem(t *testing.T) {
	table := newTable(0xDEADBEEF, V6, thing.ApplyVersionDefaults(thing.Features{}, 1056))

	it := thing.New(thing.Item, 100)
	it.IsMarketItem = true
	it.Market = thing.MarketItem{
		Category: 1, TradeAs: 100, ShowAs: 101,
		Name: "Magic Sword", RestrictToProfession: 5, RestrictToLevel: 80,
	}
	thing.SetFrameGroup(it, thing.Default, &thing.FrameGroup{
		Width: 1, Height: 1, Layers: 1, PatternX: 1, PatternY: 1, PatternZ: 1, Frames: 1,
		SpriteIndex: []uint32{42},
	})
	table.Items[100] = it

	buf, err := Write(table)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(buf, 1056, false, defaultDurations)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	gotThing := got.Items[100]
	if gotThing == nil {
		t.Fatal("item 100 missing after round trip")
	}
	if gotThing.Market != it.Market || !gotThing.IsMarketItem {
		t.Fatalf("market item mismatch: %+v", gotThing.Market)
	}
	g := thing.GetFrameGroup(gotThing, thing.Default)
	if g == nil || len(g.SpriteIndex) != 1 || g.SpriteIndex[0] != 42 {
		t.Fatalf("sprite index mismatch: %+v", g)
	}
}

func TestDatV1PatternZAbsentSynthesisesOne(t *testing.T) {
	table := newTable(1, V1, thing.ApplyVersionDefaults(thing.Features{}, 710))

	it := thing.New(thing.Item, 100)
	thing.SetFrameGroup(it, thing.Default, &thing.FrameGroup{
		Width: 1, Height: 1, Layers: 1, PatternX: 1, PatternY: 1, PatternZ: 3, Frames: 1,
		SpriteIndex: []uint32{7},
	})
	table.Items[100] = it

	buf, err := Write(table)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(buf, 710, false, defaultDurations)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	g := thing.GetFrameGroup(got.Items[100], thing.Default)
	if g == nil {
		t.Fatal("missing frame group")
	}
	if g.PatternZ != 1 {
		t.Fatalf("PatternZ = %d, want 1 (V1 never emits it)", g.PatternZ)
	}
}

func TestDatMaxItemIdBelow100YieldsZeroItems(t *testing.T) {
	table := newTable(1, V6, thing.Features{})
	buf, err := Write(table)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Write of an empty item map emits maxItemId=0 in the header, which
	// is below the item floor of 100.
	_ = buf
	got, err := Read(buf, 1056, false, defaultDurations)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("expected zero items, got %d", len(got.Items))
	}
}

func TestDatSpriteCountExceededFails(t *testing.T) {
	g := &thing.FrameGroup{
		Width: 10, Height: 10, Layers: 5, PatternX: 4, PatternY: 4, PatternZ: 3, Frames: 1,
	}
	if thing.TotalSprites(g) <= thing.MaxSpritesPerGroup {
		t.Fatalf("test fixture does not exceed cap: %d", thing.TotalSprites(g))
	}
	err := writeFrameGroup(binstream.NewWriter(), g, V6, thing.Features{})
	if err == nil {
		t.Fatal("expected sprite count exceeded error")
	}
}

func TestOutfitFrameGroupsWalkingSlot(t *testing.T) {
	f := thing.ApplyVersionDefaults(thing.Features{}, 1057)
	table := newTable(1, V6, f)

	o := thing.New(thing.Outfit, 1)
	thing.SetFrameGroup(o, thing.Default, &thing.FrameGroup{
		Width: 1, Height: 1, Layers: 1, PatternX: 4, PatternY: 1, PatternZ: 1, Frames: 1,
		SpriteIndex: []uint32{1, 2, 3, 4},
	})
	thing.SetFrameGroup(o, thing.Walking, &thing.FrameGroup{
		Width: 1, Height: 1, Layers: 1, PatternX: 4, PatternY: 1, PatternZ: 1, Frames: 1,
		SpriteIndex: []uint32{5, 6, 7, 8},
	})
	table.Outfits[1] = o

	buf, err := Write(table)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(buf, 1057, false, defaultDurations)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	gotOutfit := got.Outfits[1]
	if gotOutfit == nil {
		t.Fatal("outfit 1 missing")
	}
	walking := thing.GetFrameGroup(gotOutfit, thing.Walking)
	if walking == nil || len(walking.SpriteIndex) != 4 || walking.SpriteIndex[0] != 5 {
		t.Fatalf("walking group mismatch: %+v", walking)
	}
}
