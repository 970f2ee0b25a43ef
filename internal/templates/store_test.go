package templates

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/imaging"
)

// writeIconPNG writes a uniform 32x32 icon to dir and returns its path.
func writeIconPNG(t *testing.T, dir, name string, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create icon file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode icon: %v", err)
	}
	return path
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	dir := t.TempDir()
	return &catalog.Catalog{Items: []catalog.Item{
		{ID: "banana", Name: "Banana", Rarity: catalog.RarityCommon,
			IconPath: writeIconPNG(t, dir, "banana.png", color.RGBA{240, 220, 40, 255})},
		{ID: "crystal", Name: "Crystal", Rarity: catalog.RarityEpic,
			IconPath: writeIconPNG(t, dir, "crystal.png", color.RGBA{150, 60, 230, 255})},
		{ID: "crown", Name: "Crown", Rarity: catalog.RarityLegendary,
			IconPath: writeIconPNG(t, dir, "crown.png", color.RGBA{250, 140, 20, 255})},
		{ID: "ghost", Name: "Ghost", Rarity: catalog.RarityCommon}, // no icon
	}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestStore_LoadAll(t *testing.T) {
	store := NewStore(quietLogger())
	cat := testCatalog(t)

	if err := store.LoadAll(context.Background(), cat); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if !store.Loaded() {
		t.Error("store should be marked loaded")
	}
	// Item without icon is excluded, not an error.
	if store.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", store.Len())
	}

	entry := store.Get("banana")
	if entry == nil {
		t.Fatal("banana entry missing")
	}
	// 32x32 icons normalize up to the canonical 64x64 template.
	if entry.Width != 64 || entry.Height != 64 {
		t.Errorf("template size: got %dx%d, want 64x64", entry.Width, entry.Height)
	}
	if entry.Profile.Dominant != imaging.ColorYellow {
		t.Errorf("banana dominant color: got %s, want yellow", entry.Profile.Dominant)
	}
	if len(entry.Luma) != entry.Width*entry.Height {
		t.Errorf("luma buffer length %d does not match %dx%d", len(entry.Luma), entry.Width, entry.Height)
	}
}

func TestStore_Indices(t *testing.T) {
	store := NewStore(quietLogger())
	if err := store.LoadAll(context.Background(), testCatalog(t)); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if got := store.ByRarity(catalog.RarityLegendary); len(got) != 1 || got[0].ItemID != "crown" {
		t.Errorf("ByRarity(legendary): got %v", got)
	}
	if got := store.ByRarity(catalog.RarityRare); len(got) != 0 {
		t.Errorf("ByRarity(rare) should be empty, got %d entries", len(got))
	}
	if got := store.ByColor(imaging.ColorPurple); len(got) != 1 || got[0].ItemID != "crystal" {
		t.Errorf("ByColor(purple): got %v", got)
	}
	if store.Get("missing") != nil {
		t.Error("Get of unknown id should return nil")
	}
}

func TestStore_LoadAllIdempotent(t *testing.T) {
	store := NewStore(quietLogger())
	cat := testCatalog(t)

	if err := store.LoadAll(context.Background(), cat); err != nil {
		t.Fatalf("first LoadAll failed: %v", err)
	}
	before := store.Len()

	// Second load must be a no-op even with a different catalog.
	if err := store.LoadAll(context.Background(), &catalog.Catalog{}); err != nil {
		t.Fatalf("second LoadAll failed: %v", err)
	}
	if store.Len() != before {
		t.Errorf("idempotent LoadAll changed entry count: %d -> %d", before, store.Len())
	}
}

func TestStore_Reset(t *testing.T) {
	store := NewStore(quietLogger())
	cat := testCatalog(t)

	if err := store.LoadAll(context.Background(), cat); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	store.Reset()
	if store.Loaded() {
		t.Error("store should not be loaded after Reset")
	}
	if store.Len() != 0 {
		t.Errorf("expected 0 entries after Reset, got %d", store.Len())
	}

	// Reload from scratch works.
	if err := store.LoadAll(context.Background(), cat); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if store.Len() != 3 {
		t.Errorf("expected 3 entries after reload, got %d", store.Len())
	}
}

func TestStore_SkipsCorruptIcon(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt icon: %v", err)
	}

	cat := &catalog.Catalog{Items: []catalog.Item{
		{ID: "good", Name: "Good", Rarity: catalog.RarityCommon,
			IconPath: writeIconPNG(t, dir, "good.png", color.RGBA{40, 200, 60, 255})},
		{ID: "bad", Name: "Bad", Rarity: catalog.RarityCommon, IconPath: bad},
	}}

	store := NewStore(quietLogger())
	if err := store.LoadAll(context.Background(), cat); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("expected 1 entry (corrupt icon skipped), got %d", store.Len())
	}
	if store.Get("bad") != nil {
		t.Error("corrupt icon should not produce an entry")
	}
	if !store.Loaded() {
		t.Error("store should still be marked loaded after partial failure")
	}
}
