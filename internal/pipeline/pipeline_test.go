package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/strategy"
	"github.com/bonktools/bonkscan/internal/templates"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeIconPNG(t *testing.T, dir, name string, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			// Patterned so templates have nonzero variance.
			v := uint8((x*5 + y*9) % 100)
			img.SetRGBA(x, y, color.RGBA{
				uint8(min(255, int(c.R)+int(v))),
				uint8(min(255, int(c.G)+int(v))),
				uint8(min(255, int(c.B)+int(v))),
				255,
			})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create icon: %v", err)
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
			IconPath: writeIconPNG(t, dir, "banana.png", color.RGBA{140, 130, 10, 255})},
		{ID: "crystal", Name: "Crystal", Rarity: catalog.RarityEpic,
			IconPath: writeIconPNG(t, dir, "crystal.png", color.RGBA{120, 20, 150, 255})},
	}}
}

func loadedStore(t *testing.T) *templates.Store {
	t.Helper()
	store := templates.NewStore(quietLogger())
	if err := store.LoadAll(context.Background(), testCatalog(t)); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	return store
}

func defaultStrategy(t *testing.T) strategy.Strategy {
	t.Helper()
	strat, err := strategy.NewRegistry().Get("default")
	if err != nil {
		t.Fatalf("default strategy missing: %v", err)
	}
	return strat
}

func TestDetector_RunDarkScreenshot(t *testing.T) {
	detector := New(loadedStore(t), quietLogger())

	// A dark screenshot runs the full pipeline on fallback layout and
	// finds nothing; that is a successful run, not an error.
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	for y := 0; y < 360; y++ {
		for x := 0; x < 640; x++ {
			img.SetRGBA(x, y, color.RGBA{8, 8, 12, 255})
		}
	}

	statuses := map[string]bool{}
	result, err := detector.Run(context.Background(), img, defaultStrategy(t), nil, func(percent int, status string) {
		statuses[status] = true
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Detections) != 0 {
		t.Errorf("dark screenshot produced detections: %+v", result.Detections)
	}
	if len(result.Items) != 0 {
		t.Errorf("dark screenshot produced items: %+v", result.Items)
	}
	if result.Layout == nil || len(result.Layout.Cells) == 0 {
		t.Fatal("layout should always carry fallback cells")
	}
	if result.Metrics.CellsTotal != len(result.Layout.Cells) {
		t.Errorf("CellsTotal = %d, want %d", result.Metrics.CellsTotal, len(result.Layout.Cells))
	}
	// Every candidate slot on a dark screen reads as empty.
	if result.Metrics.CellsEmpty != result.Metrics.CellsTotal {
		t.Errorf("CellsEmpty = %d, want %d", result.Metrics.CellsEmpty, result.Metrics.CellsTotal)
	}
	if result.Metrics.TotalMS <= 0 {
		t.Error("TotalMS not recorded")
	}
	for _, status := range []string{"grid detected", "cells extracted", "detections aggregated", "complete"} {
		if !statuses[status] {
			t.Errorf("progress never reported %q", status)
		}
	}
	// Fewer than three detections verify trivially.
	if !result.Verification.Valid {
		t.Error("empty detection set should verify trivially")
	}
}

func TestDetector_ProgressMilestones(t *testing.T) {
	store := templates.NewStore(quietLogger())
	detector := New(store, quietLogger())

	type milestone struct {
		percent int
		status  string
	}
	var milestones []milestone
	record := func(percent int, status string) {
		milestones = append(milestones, milestone{percent, status})
	}

	if err := detector.LoadTemplates(context.Background(), testCatalog(t), record); err != nil {
		t.Fatalf("LoadTemplates failed: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	result, err := detector.Run(context.Background(), img, defaultStrategy(t), nil, record)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	seen := map[string]int{}
	for i := 1; i < len(milestones); i++ {
		if milestones[i].percent < milestones[i-1].percent {
			t.Errorf("progress went backwards: %v -> %v", milestones[i-1], milestones[i])
		}
	}
	for _, m := range milestones {
		if m.percent < 0 || m.percent > 100 {
			t.Errorf("percent %d out of range at %q", m.percent, m.status)
		}
		seen[m.status] = m.percent
	}

	for _, status := range []string{"loading templates", "templates loaded", "grid detected", "cells extracted", "detections aggregated", "complete"} {
		if _, ok := seen[status]; !ok {
			t.Errorf("milestone %q never reported", status)
		}
	}
	if seen["complete"] != 100 {
		t.Errorf("complete reported at %d%%, want 100", seen["complete"])
	}
	last := milestones[len(milestones)-1]
	if last.status != "complete" {
		t.Errorf("final milestone = %q, want complete", last.status)
	}

	if result.Metrics.LoadMS <= 0 {
		t.Error("LoadMS not recorded for a LoadTemplates-initialized run")
	}
}

func TestDetector_RunUnloadedStore(t *testing.T) {
	detector := New(templates.NewStore(quietLogger()), quietLogger())
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))

	if _, err := detector.Run(context.Background(), img, defaultStrategy(t), nil, nil); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestDetector_RunBytesUndecodable(t *testing.T) {
	detector := New(loadedStore(t), quietLogger())

	if _, err := detector.RunBytes(context.Background(), []byte("not an image"), defaultStrategy(t), nil, nil); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDetector_RunCanceled(t *testing.T) {
	detector := New(loadedStore(t), quietLogger())

	// Bright noise so extraction keeps cells and matching has work to
	// cancel.
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	for y := 0; y < 1080; y++ {
		for x := 0; x < 1920; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8((x*3 + y*7) % 256), uint8((x*5 + y) % 256), uint8(x % 256), 255})
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := detector.Run(ctx, img, defaultStrategy(t), nil, nil); err == nil {
		t.Fatal("expected context error")
	}
}
