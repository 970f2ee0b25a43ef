package match

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/bonktools/bonkscan/internal/imaging"
	"github.com/bonktools/bonkscan/internal/strategy"
	"github.com/bonktools/bonkscan/internal/templates"
)

// MethodTemplateMatch tags detections produced by template comparison.
const MethodTemplateMatch = "template_match"

// Detection is one accepted cell match.
type Detection struct {
	ItemID     string      `json:"item_id"`
	Confidence float64     `json:"confidence"`
	Region     imaging.ROI `json:"region"`
	Method     string      `json:"method"`
}

// Matcher scores cells against a loaded template store.
type Matcher struct {
	store *templates.Store
	log   *slog.Logger
}

// NewMatcher creates a matcher. A nil logger defaults to slog.Default().
func NewMatcher(store *templates.Store, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{store: store, log: logger}
}

// MatchCells resolves each cell to at most one detection.
//
// Scoring runs once per cell, in parallel, since the best candidate for a
// cell does not depend on the pass. The acceptance ladder then walks the
// pass thresholds strictest first: a cell accepted on an earlier pass is
// never revisited, so later, looser passes only pick up what the strict
// passes left behind. Single-pass strategies use the middle threshold.
//
// Detections come back ordered by cell index. Progress, when non-nil, is
// called from this goroutine after each scored batch.
func (m *Matcher) MatchCells(ctx context.Context, cells []Cell, strat strategy.Strategy, fb Feedback, progress func(done, total int)) ([]Detection, error) {
	bests, err := m.scoreAll(ctx, cells, strat, fb, progress)
	if err != nil {
		return nil, err
	}

	passes := []int{1}
	if strat.MultiPassEnabled {
		passes = []int{0, 1, 2}
	}

	accepted := make([]*Detection, len(cells))
	for _, pass := range passes {
		for i := range cells {
			if accepted[i] != nil || bests[i] == nil {
				continue
			}
			best := bests[i]
			// Per-rarity thresholds key off the rarity read from the
			// cell's border; an unreadable border falls back to the
			// candidate template's tier.
			rarity := cells[i].Rarity
			if rarity == "" {
				rarity = best.Entry.Rarity
			}
			threshold := strat.ThresholdFor(pass, rarity)
			if best.Score < threshold {
				continue
			}
			accepted[i] = &Detection{
				ItemID:     best.Entry.ItemID,
				Confidence: best.Score,
				Region:     cells[i].Region,
				Method:     MethodTemplateMatch,
			}
			m.log.Debug("cell matched",
				"cell", i,
				"item", best.Entry.ItemID,
				"confidence", best.Score,
				"pass", pass+1)
		}
	}

	detections := make([]Detection, 0, len(cells))
	for _, d := range accepted {
		if d != nil {
			detections = append(detections, *d)
		}
	}
	return detections, nil
}

// scoreAll computes the best candidate per cell. Cells are processed in
// fixed-size batches, parallel within a batch, so cancellation is checked
// and progress reported between batches.
func (m *Matcher) scoreAll(ctx context.Context, cells []Cell, strat strategy.Strategy, fb Feedback, progress func(done, total int)) ([]*scored, error) {
	const batchSize = 16

	bests := make([]*scored, len(cells))
	workers := runtime.NumCPU()

	for start := 0; start < len(cells); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize
		if end > len(cells) {
			end = len(cells)
		}

		var wg sync.WaitGroup
		sem := make(chan struct{}, workers)
		for i := start; i < end; i++ {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				cands := candidatesFor(m.store, &cells[i], strat)
				bests[i] = scoreCell(&cells[i], cands, strat, fb)
			}(i)
		}
		wg.Wait()

		if progress != nil {
			progress(end, len(cells))
		}
	}
	return bests, nil
}
