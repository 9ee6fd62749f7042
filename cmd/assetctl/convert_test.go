package main

import (
	"testing"

	"github.com/tibia-tools/assets/dat"
	"github.com/tibia-tools/assets/thing"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]thing.Category{
		"item":    thing.Item,
		"outfit":  thing.Outfit,
		"effect":  thing.Effect,
		"missile": thing.Missile,
	}
	for name, want := range cases {
		got, err := parseCategory(name)
		if err != nil || got != want {
			t.Fatalf("parseCategory(%q) = %v, %v, want %v", name, got, err, want)
		}
	}

	if _, err := parseCategory("bogus"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestBucketForMatchesCategory(t *testing.T) {
	table := &dat.Table{
		Items:    map[uint32]*thing.Thing{1: thing.New(thing.Item, 1)},
		Outfits:  map[uint32]*thing.Thing{2: thing.New(thing.Outfit, 2)},
		Effects:  map[uint32]*thing.Thing{3: thing.New(thing.Effect, 3)},
		Missiles: map[uint32]*thing.Thing{4: thing.New(thing.Missile, 4)},
	}

	if b := bucketFor(table, thing.Item); b[1] == nil {
		t.Fatal("expected item bucket to contain id 1")
	}
	if b := bucketFor(table, thing.Outfit); b[2] == nil {
		t.Fatal("expected outfit bucket to contain id 2")
	}
	if b := bucketFor(table, thing.Effect); b[3] == nil {
		t.Fatal("expected effect bucket to contain id 3")
	}
	if b := bucketFor(table, thing.Missile); b[4] == nil {
		t.Fatal("expected missile bucket to contain id 4")
	}
}
