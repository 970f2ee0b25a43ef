// Package pipeline runs the full screenshot-to-inventory flow: grid
// inference, cell extraction, template matching, geometric verification,
// and aggregation into item counts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/grid"
	"github.com/bonktools/bonkscan/internal/imaging"
	"github.com/bonktools/bonkscan/internal/match"
	"github.com/bonktools/bonkscan/internal/strategy"
	"github.com/bonktools/bonkscan/internal/templates"
)

// ErrNotLoaded is returned by Run when the template store has not completed
// a LoadAll pass.
var ErrNotLoaded = errors.New("template store not loaded")

// Progress reports pipeline advancement as an overall percentage (0-100)
// with a short status line. Milestones fire at template load (via
// LoadTemplates), grid detection, cell extraction, each match batch,
// aggregation, and completion; percent never decreases within a run and
// reaches 100 exactly once, at "complete".
type Progress func(percent int, status string)

// Overall progress percentages per milestone. Matching interpolates
// between pctExtracted and pctMatched by cells scored.
const (
	pctLoading    = 0
	pctLoaded     = 5
	pctGrid       = 15
	pctExtracted  = 25
	pctMatched    = 90
	pctAggregated = 95
	pctComplete   = 100
)

// Metrics records per-stage timings and cell accounting for one run.
// LoadMS covers the template load performed by LoadTemplates; it is zero
// when the store was loaded elsewhere.
type Metrics struct {
	TotalMS     float64 `json:"total_ms"`
	LoadMS      float64 `json:"load_ms"`
	GridMS      float64 `json:"grid_ms"`
	ExtractMS   float64 `json:"extract_ms"`
	MatchMS     float64 `json:"match_ms"`
	AggregateMS float64 `json:"aggregate_ms"`

	CellsTotal       int `json:"cells_total"`
	CellsEmpty       int `json:"cells_empty"`
	CellsOutOfBounds int `json:"cells_out_of_bounds"`
	CellsScored      int `json:"cells_scored"`

	Detections    int     `json:"detections"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Result is the full outcome of one detection run.
type Result struct {
	Strategy     string            `json:"strategy"`
	Layout       *grid.Layout      `json:"layout"`
	Verification grid.Verification `json:"verification"`
	Detections   []match.Detection `json:"detections"`
	Items        []match.ItemCount `json:"items"`
	Metrics      Metrics           `json:"metrics"`
}

// Detector wires a loaded template store to the matching stages. Safe for
// concurrent Run calls once the store is loaded.
type Detector struct {
	store   *templates.Store
	matcher *match.Matcher
	log     *slog.Logger

	// loadMS is the duration of the LoadTemplates pass, carried into each
	// run's metrics.
	loadMS float64
}

// New creates a detector. A nil logger defaults to slog.Default().
func New(store *templates.Store, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		store:   store,
		matcher: match.NewMatcher(store, logger),
		log:     logger,
	}
}

// LoadTemplates loads the template store from the catalog, reporting the
// template-load milestone and recording its duration for run metrics.
// Loading the store directly works too; runs then report no load phase.
func (d *Detector) LoadTemplates(ctx context.Context, cat *catalog.Catalog, progress Progress) error {
	if progress != nil {
		progress(pctLoading, "loading templates")
	}

	start := time.Now()
	if err := d.store.LoadAll(ctx, cat); err != nil {
		return err
	}
	d.loadMS = msSince(start)

	if progress != nil {
		progress(pctLoaded, "templates loaded")
	}
	return nil
}

// Run detects inventory items in a decoded screenshot.
//
// Degraded inputs degrade confidence rather than failing: a screenshot
// with no recognizable inventory yields an empty result. The only errors
// are an unloaded template store and context cancellation. fb may be nil;
// progress may be nil.
func (d *Detector) Run(ctx context.Context, img image.Image, strat strategy.Strategy, fb match.Feedback, progress Progress) (*Result, error) {
	if !d.store.Loaded() {
		return nil, ErrNotLoaded
	}
	if fb == nil {
		fb = match.NoFeedback{}
	}
	report := func(percent int, status string) {
		if progress != nil {
			progress(percent, status)
		}
	}

	start := time.Now()
	result := &Result{Strategy: strat.Name}
	result.Metrics.LoadMS = d.loadMS

	gridStart := time.Now()
	layout := grid.Infer(img, catalog.BorderColors())
	result.Layout = layout
	result.Metrics.GridMS = msSince(gridStart)
	report(pctGrid, "grid detected")
	d.log.Debug("grid inferred",
		"cells", len(layout.Cells),
		"icon_size", layout.IconSize,
		"confidence", layout.Confidence)

	extractStart := time.Now()
	cells, skipped := match.ExtractCells(img, layout.Cells, strat)
	result.Metrics.ExtractMS = msSince(extractStart)
	result.Metrics.CellsTotal = len(layout.Cells)
	result.Metrics.CellsEmpty = skipped.Empty
	result.Metrics.CellsOutOfBounds = skipped.OutOfBounds
	result.Metrics.CellsScored = len(cells)
	report(pctExtracted, "cells extracted")

	matchStart := time.Now()
	detections, err := d.matcher.MatchCells(ctx, cells, strat, fb, func(done, total int) {
		percent := pctExtracted + (pctMatched-pctExtracted)*done/total
		report(percent, fmt.Sprintf("matching cells (%d/%d)", done, total))
	})
	if err != nil {
		return nil, err
	}
	result.Metrics.MatchMS = msSince(matchStart)

	aggStart := time.Now()
	result.Verification, result.Detections = d.verify(detections, layout.IconSize)
	result.Items = match.Aggregate(result.Detections)
	result.Metrics.AggregateMS = msSince(aggStart)
	report(pctAggregated, "detections aggregated")

	result.Metrics.Detections = len(result.Detections)
	if n := len(result.Detections); n > 0 {
		var sum float64
		for _, det := range result.Detections {
			sum += det.Confidence
		}
		result.Metrics.AvgConfidence = sum / float64(n)
	}
	result.Metrics.TotalMS = msSince(start)
	report(pctComplete, "complete")

	d.log.Info("detection run complete",
		"strategy", strat.Name,
		"cells", result.Metrics.CellsScored,
		"detections", result.Metrics.Detections,
		"items", len(result.Items),
		"total_ms", result.Metrics.TotalMS)
	return result, nil
}

// verify checks detected positions for grid consistency. A valid
// verification drops spacing outliers; an invalid one keeps everything and
// leaves the low confidence on record.
func (d *Detector) verify(detections []match.Detection, iconSize int) (grid.Verification, []match.Detection) {
	positions := make([]image.Point, len(detections))
	for i, det := range detections {
		positions[i] = det.Region.Center()
	}

	ver := grid.VerifyPositions(positions, float64(iconSize))
	if !ver.Valid {
		d.log.Warn("detected positions failed grid verification",
			"confidence", ver.Confidence,
			"dropped", ver.Dropped)
		return ver, detections
	}
	if ver.Dropped == 0 {
		return ver, detections
	}

	kept := make([]match.Detection, 0, len(ver.KeptIndex))
	for _, idx := range ver.KeptIndex {
		kept = append(kept, detections[idx])
	}
	d.log.Debug("grid verification dropped outliers",
		"kept", len(kept),
		"dropped", ver.Dropped)
	return ver, kept
}

// RunBytes decodes an encoded screenshot and runs detection on it. An
// undecodable image is the one fatal input error.
func (d *Detector) RunBytes(ctx context.Context, data []byte, strat strategy.Strategy, fb match.Feedback, progress Progress) (*Result, error) {
	img, err := imaging.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	return d.Run(ctx, img, strat, fb, progress)
}

// RunFile loads a screenshot from disk and runs detection on it.
func (d *Detector) RunFile(ctx context.Context, path string, strat strategy.Strategy, fb match.Feedback, progress Progress) (*Result, error) {
	img, err := imaging.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading screenshot: %w", err)
	}
	return d.Run(ctx, img, strat, fb, progress)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
