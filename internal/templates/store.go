// Package templates holds the reference icon library used for matching.
//
// A Store owns one Entry per catalog item with a loadable icon, plus derived
// descriptors (color profile, average HSV, rarity) and lookup indices by id,
// rarity, and dominant color. The store is an explicit object handed to the
// pipeline; there is no process-global template state.
package templates

import (
	"context"
	"image"
	"log/slog"
	"runtime"
	"sync"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/imaging"
)

// templateSize is the canonical template edge length. Wiki icons ship at
// 32x32; matching quality is better after nearest-neighbor upscaling to 64.
const templateSize = 64

// hsvSampleStep samples every 4th pixel when deriving descriptors.
const hsvSampleStep = 4

// Entry is one reference icon with its derived descriptors.
type Entry struct {
	ItemID  string
	Image   image.Image
	Width   int
	Height  int
	Profile imaging.ColorProfile
	AvgHSV  imaging.HSV
	Rarity  catalog.Rarity

	// Luma is the precomputed luminance buffer of Image at its native
	// template dimensions. Matching resizes Image per cell, so Luma serves
	// only same-size comparisons and descriptor work.
	Luma []float64
}

// Store indexes template entries by id, rarity, and dominant color.
//
// Reads are safe for concurrent use once LoadAll completes. LoadAll and
// Reset mutate the indices and must be serialized by the caller against
// in-flight detection runs.
type Store struct {
	mu       sync.RWMutex
	loaded   bool
	byID     map[string]*Entry
	byRarity map[catalog.Rarity][]*Entry
	byColor  map[imaging.ColorName][]*Entry

	cache *imaging.IconCache
	log   *slog.Logger
}

// NewStore creates an empty store. A nil logger defaults to slog.Default().
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		cache: imaging.NewIconCache(),
		log:   logger,
	}
	s.resetIndices()
	return s
}

func (s *Store) resetIndices() {
	s.byID = make(map[string]*Entry)
	s.byRarity = make(map[catalog.Rarity][]*Entry)
	s.byColor = make(map[imaging.ColorName][]*Entry)
}

// Loaded reports whether a LoadAll pass has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Len returns the number of loaded entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// LoadAll decodes and indexes the icon of every catalog item that has one.
// All icons load concurrently; an item whose icon fails to decode is logged
// and skipped without aborting the batch. The store is marked loaded once
// every item has been attempted.
//
// Calling LoadAll on an already-loaded store is a no-op. The only returned
// error is context cancellation.
func (s *Store) LoadAll(ctx context.Context, cat *catalog.Catalog) error {
	if s.Loaded() {
		return nil
	}

	type loadResult struct {
		entry *Entry
	}

	sem := make(chan struct{}, runtime.NumCPU())
	results := make(chan loadResult, len(cat.Items))
	var wg sync.WaitGroup

	for _, item := range cat.Items {
		if !item.HasIcon() {
			continue
		}
		wg.Add(1)
		go func(item catalog.Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			entry, err := s.buildEntry(item)
			if err != nil {
				s.log.Warn("skipping item template",
					"item", item.ID, "icon", item.IconPath, "error", err)
				return
			}
			results <- loadResult{entry: entry}
		}(item)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	entries := make([]*Entry, 0, len(cat.Items))
	for r := range results {
		entries = append(entries, r.entry)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		// Last load wins on duplicate ids.
		s.byID[e.ItemID] = e
	}
	for _, e := range s.byID {
		s.byRarity[e.Rarity] = append(s.byRarity[e.Rarity], e)
		s.byColor[e.Profile.Dominant] = append(s.byColor[e.Profile.Dominant], e)
	}
	s.loaded = true

	s.log.Info("template store loaded", "entries", len(s.byID))
	return nil
}

// buildEntry decodes one icon and derives its descriptors.
func (s *Store) buildEntry(item catalog.Item) (*Entry, error) {
	img, err := s.cache.Load(item.IconPath)
	if err != nil {
		return nil, err
	}

	// Normalize small pixel-art icons up to the canonical template size.
	b := img.Bounds()
	if b.Dx() < templateSize || b.Dy() < templateSize {
		img = imaging.ResizeNearest(img, templateSize, templateSize)
		b = img.Bounds()
	}

	return &Entry{
		ItemID:  item.ID,
		Image:   img,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Profile: imaging.ExtractProfile(img, hsvSampleStep),
		AvgHSV:  imaging.AvgHSV(img, hsvSampleStep),
		Rarity:  item.Rarity,
		Luma:    imaging.Luminance(img),
	}, nil
}

// Get returns the entry for an item id, or nil if absent.
func (s *Store) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// ByRarity returns all entries of a rarity tier. The returned slice is
// shared; callers must not mutate it.
func (s *Store) ByRarity(r catalog.Rarity) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byRarity[r]
}

// ByColor returns all entries whose dominant palette color matches.
func (s *Store) ByColor(c imaging.ColorName) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byColor[c]
}

// All returns every loaded entry in unspecified order.
func (s *Store) All() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	return out
}

// Reset clears all indices, the icon cache, and the loaded flag. A
// subsequent LoadAll reloads from scratch.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIndices()
	s.cache.Clear()
	s.loaded = false
}
