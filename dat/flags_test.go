package dat

import (
	"testing"

	"github.com/tibia-tools/assets/binstream"
	"github.com/tibia-tools/assets/thing"
)

func TestFlagsRoundTripAllVersions(t *testing.T) {
	versions := []Version{V1, V2, V3, V4, V5, V6}
	for _, v := range versions {
		v := v
		t.Run(v.String(), func(t *testing.T) {
			src := thing.New(thing.Item, 100)
			src.IsGround = true
			src.GroundSpeed = 150
			src.Stackable = true
			src.Pickupable = true
			src.HasLight = true
			src.LightLevel = 7
			src.LightColor = 215

			w := binstream.NewWriter()
			WriteFlags(w, v, src)

			r := binstream.NewReader(w.Bytes())
			got := thing.New(thing.Item, 100)
			if err := ReadFlags(r, v, got); err != nil {
				t.Fatalf("ReadFlags: %v", err)
			}
			if !got.IsGround || got.GroundSpeed != 150 {
				t.Fatalf("ground not round-tripped: %+v", got)
			}
			if !got.Stackable || !got.Pickupable {
				t.Fatalf("bool flags not round-tripped: %+v", got)
			}
			if !got.HasLight || got.LightLevel != 7 || got.LightColor != 215 {
				t.Fatalf("light not round-tripped: %+v", got)
			}
			if r.Remaining() != 0 {
				t.Fatalf("%d bytes left unconsumed after sentinel", r.Remaining())
			}
		})
	}
}

func TestGroundBorderOnlyFromV3(t *testing.T) {
	src := thing.New(thing.Item, 100)
	src.IsGroundBorder = true

	w := binstream.NewWriter()
	WriteFlags(w, V3, src)

	got := thing.New(thing.Item, 100)
	r := binstream.NewReader(w.Bytes())
	if err := ReadFlags(r, V3, got); err != nil {
		t.Fatalf("ReadFlags: %v", err)
	}
	if !got.IsGroundBorder {
		t.Fatal("GroundBorder not round-tripped on V3")
	}
}

func TestHasOffsetPayloadGatedByVersion(t *testing.T) {
	src := thing.New(thing.Item, 100)
	src.HasOffset = true
	src.OffsetX = -5
	src.OffsetY = 10

	w1 := binstream.NewWriter()
	WriteFlags(w1, V1, src)
	got1 := thing.New(thing.Item, 100)
	if err := ReadFlags(binstream.NewReader(w1.Bytes()), V1, got1); err != nil {
		t.Fatalf("V1 ReadFlags: %v", err)
	}
	if !got1.HasOffset || got1.OffsetX != 0 || got1.OffsetY != 0 {
		t.Fatalf("V1 HasOffset should carry no payload: %+v", got1)
	}

	w3 := binstream.NewWriter()
	WriteFlags(w3, V3, src)
	got3 := thing.New(thing.Item, 100)
	if err := ReadFlags(binstream.NewReader(w3.Bytes()), V3, got3); err != nil {
		t.Fatalf("V3 ReadFlags: %v", err)
	}
	if !got3.HasOffset || got3.OffsetX != -5 || got3.OffsetY != 10 {
		t.Fatalf("V3 HasOffset payload not round-tripped: %+v", got3)
	}
}

func TestWrappableUsesV6TagOnV4AndV5(t *testing.T) {
	src := thing.New(thing.Item, 100)
	src.Wrappable = true
	src.HasBones = true
	src.Bones = [4]thing.BonesOffset{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}, {X: 7, Y: 8}}

	for _, v := range []Version{V4, V5} {
		w := binstream.NewWriter()
		WriteFlags(w, v, src)
		if b := w.Bytes(); len(b) < 2 || b[0] != tagWrappableV6 || b[1] != tagHasBonesV4 {
			t.Fatalf("%v: wrote % X, want Wrappable tag 0x%02X then HasBones tag 0x%02X", v, b, tagWrappableV6, tagHasBonesV4)
		}
		got := thing.New(thing.Item, 100)
		if err := ReadFlags(binstream.NewReader(w.Bytes()), v, got); err != nil {
			t.Fatalf("%v ReadFlags: %v", v, err)
		}
		if !got.Wrappable {
			t.Fatalf("%v: Wrappable not round-tripped", v)
		}
		if !got.HasBones || got.Bones != src.Bones {
			t.Fatalf("%v: Bones not round-tripped: %+v", v, got.Bones)
		}
	}
}

func TestMarketItemV5(t *testing.T) {
	src := thing.New(thing.Item, 100)
	src.IsMarketItem = true
	src.Market = thing.MarketItem{
		Category: 3, TradeAs: 100, ShowAs: 100,
		Name: "Fire Sword", RestrictToProfession: 1, RestrictToLevel: 20,
	}

	w := binstream.NewWriter()
	WriteFlags(w, V5, src)
	got := thing.New(thing.Item, 100)
	if err := ReadFlags(binstream.NewReader(w.Bytes()), V5, got); err != nil {
		t.Fatalf("ReadFlags: %v", err)
	}
	if got.Market != src.Market {
		t.Fatalf("market item not round-tripped: %+v", got.Market)
	}
}

func TestUnknownTagIsFatal(t *testing.T) {
	w := binstream.NewWriter()
	w.U8(0xFE) // never a valid tag in any table
	w.U8(sentinel)

	got := thing.New(thing.Item, 100)
	err := ReadFlags(binstream.NewReader(w.Bytes()), V6, got)
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestVersionForClientThresholds(t *testing.T) {
	cases := []struct {
		client int
		want   Version
	}{
		{739, V1}, {740, V2}, {754, V2}, {755, V3}, {779, V3},
		{780, V4}, {859, V4}, {860, V5}, {1009, V5}, {1010, V6}, {9999, V6},
	}
	for _, c := range cases {
		if got := VersionForClient(c.client); got != c.want {
			t.Errorf("VersionForClient(%d) = %v, want %v", c.client, got, c.want)
		}
	}
}
