// Package spritestore overlays in-memory edits on top of a read-only
// SPR accessor (spr.Accessor), tracking overrides, deletions and a
// changed-id set, plus a bounded render-preview cache and a single
// pending-operation descriptor.
package spritestore

import (
	"sync"

	"github.com/tibia-tools/assets/spr"
)

// Store is the sprite overlay owned by a project session (C10). It is
// safe for concurrent use.
type Store struct {
	mu sync.Mutex

	accessor *spr.Accessor

	overrides map[uint32][]byte
	deletions map[uint32]struct{}
	changes   map[uint32]struct{}

	cache *lruCache

	selection Selection
	operation *Operation
}

// Selection tracks which sprite id is "current" and, for bulk actions,
// every id in a wider multi-select.
type Selection struct {
	Current  uint32
	MultiIDs []uint32
}

const defaultCacheMaxSize = 2000

// New returns an empty store with no accessor installed yet.
func New() *Store {
	return &Store{
		overrides: map[uint32][]byte{},
		deletions: map[uint32]struct{}{},
		changes:   map[uint32]struct{}{},
		cache:     newLRUCache(defaultCacheMaxSize),
	}
}

// Has reports whether id currently resolves to any pixels, applying the
// deletions > overrides > accessor resolution order.
func (s *Store) Has(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.has(id)
}

func (s *Store) has(id uint32) bool {
	if _, deleted := s.deletions[id]; deleted {
		return false
	}
	if _, ok := s.overrides[id]; ok {
		return true
	}
	if s.accessor != nil && s.accessor.Has(id) {
		return true
	}
	return false
}

// Get resolves id's pixels under the same ordering as Has: deletions
// shadow overrides, which shadow the accessor.
func (s *Store) Get(id uint32) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) get(id uint32) ([]byte, bool) {
	if _, deleted := s.deletions[id]; deleted {
		return nil, false
	}
	if p, ok := s.overrides[id]; ok {
		return p, true
	}
	if s.accessor != nil {
		if p, ok := s.accessor.Get(id); ok {
			return p, true
		}
	}
	return nil, false
}

// SetSprite stores pixels in the override map, clears any pending
// deletion, marks id changed, and invalidates its cache entry.
func (s *Store) SetSprite(id uint32, pixels []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[id] = pixels
	delete(s.deletions, id)
	s.changes[id] = struct{}{}
	s.cache.invalidate(id)
}

// RemoveSprite clears any override, marks id deleted and changed, and
// invalidates its cache entry.
func (s *Store) RemoveSprite(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, id)
	s.deletions[id] = struct{}{}
	s.changes[id] = struct{}{}
	s.cache.invalidate(id)
}

// AddSprite allocates the next free id above every id the accessor or
// the overrides currently know about, stores the given pixels (which
// may be nil for a blank sprite) there, and returns the new id.
func (s *Store) AddSprite(pixels []byte) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nextID uint32
	if s.accessor != nil {
		nextID = s.accessor.SpriteCount()
	}
	for id := range s.overrides {
		if id > nextID {
			nextID = id
		}
	}
	newID := nextID + 1

	s.overrides[newID] = pixels
	delete(s.deletions, newID)
	s.changes[newID] = struct{}{}
	s.cache.invalidate(newID)
	return newID
}

// ReplaceEntry is one (id, pixels) pair for a bulk ReplaceSprites call.
type ReplaceEntry struct {
	ID     uint32
	Pixels []byte
}

// ReplaceSprites applies SetSprite's contract to every entry, inserting
// at most once per id into the changed set.
func (s *Store) ReplaceSprites(entries []ReplaceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.overrides[e.ID] = e.Pixels
		delete(s.deletions, e.ID)
		s.changes[e.ID] = struct{}{}
		s.cache.invalidate(e.ID)
	}
}

// LoadFromBuffer replaces the current accessor (disposing the previous
// one, if any) with one built from buf, and clears overrides,
// deletions, changes and selection. The cache keeps its configured max
// size but is emptied.
func (s *Store) LoadFromBuffer(buf []byte, extended bool) error {
	acc, err := spr.NewAccessorFromBytes(buf, extended)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessor != nil {
		s.accessor.Dispose()
	}
	s.accessor = acc
	s.overrides = map[uint32][]byte{}
	s.deletions = map[uint32]struct{}{}
	s.changes = map[uint32]struct{}{}
	s.selection = Selection{}
	s.cache.clear()
	return nil
}

// ClearSprites disposes the accessor and zeroes every sub-state,
// including any pending operation.
func (s *Store) ClearSprites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessor != nil {
		s.accessor.Dispose()
		s.accessor = nil
	}
	s.overrides = map[uint32][]byte{}
	s.deletions = map[uint32]struct{}{}
	s.changes = map[uint32]struct{}{}
	s.selection = Selection{}
	s.operation = nil
	s.cache.clear()
}

// GetAllSprites materialises the effective view (accessor union
// overrides, minus deletions) into a single map. Used on project
// compile.
func (s *Store) GetAllSprites() map[uint32][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[uint32][]byte{}
	if s.accessor != nil {
		for id, pixels := range s.accessor.ExtractAll() {
			if _, deleted := s.deletions[id]; deleted {
				continue
			}
			out[id] = pixels
		}
	}
	for id, pixels := range s.overrides {
		if _, deleted := s.deletions[id]; deleted {
			continue
		}
		out[id] = pixels
	}
	return out
}

// GetSpriteCount returns the number of ids currently resolving to
// pixels: accessor entries plus added overrides, minus deletions.
func (s *Store) GetSpriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[uint32]struct{}{}
	if s.accessor != nil {
		it := s.accessor.Ids()
		for id, ok := it.Next(); ok; id, ok = it.Next() {
			seen[id] = struct{}{}
		}
	}
	for id := range s.overrides {
		seen[id] = struct{}{}
	}
	count := 0
	for id := range seen {
		if _, deleted := s.deletions[id]; deleted {
			continue
		}
		count++
	}
	return count
}

// ChangedIDs returns every id touched since the last LoadFromBuffer or
// ClearSprites, in no particular order.
func (s *Store) ChangedIDs() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint32, 0, len(s.changes))
	for id := range s.changes {
		ids = append(ids, id)
	}
	return ids
}

// SetCacheMaxSize trims the render cache immediately to the new bound.
func (s *Store) SetCacheMaxSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.setMaxSize(n)
}

// CachePreview returns a cached rendered preview for id, if any.
func (s *Store) CachePreview(id uint32) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.get(id)
}

// PutPreview inserts a rendered preview for id, evicting the oldest
// entry if the cache would exceed its bound.
func (s *Store) PutPreview(id uint32, preview []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.put(id, preview)
}
