package match

import (
	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/imaging"
	"github.com/bonktools/bonkscan/internal/similarity"
	"github.com/bonktools/bonkscan/internal/strategy"
	"github.com/bonktools/bonkscan/internal/templates"
)

// similarityFloor is the absolute raw-similarity minimum. A candidate below
// it is rejected outright, no matter how it ranks against the others.
const similarityFloor = 0.35

// Contextual confidence adjustments.
const (
	boostLegendary = 0.03
	boostEpic      = 0.02
	boostCommon    = -0.02

	borderAgreeFactor    = 1.05
	borderDisagreeFactor = 0.85
)

// scored is the best candidate for one cell. Raw is the unadjusted
// similarity; Score carries boosts, border validation, feedback penalties,
// and the final clamp.
type scored struct {
	Entry *templates.Entry
	Raw   float64
	Score float64
}

// scoreCell finds the strongest candidate for a cell, or nil when every
// candidate falls under the similarity floor. Candidates whose comparison
// errors out are skipped rather than failing the cell.
func scoreCell(cell *Cell, cands []*templates.Entry, strat strategy.Strategy, fb Feedback) *scored {
	var best *scored
	for _, entry := range cands {
		resized := imaging.ResizeNearest(entry.Image, cell.Region.Width, cell.Region.Height)
		raw, err := similarity.Score(cell.Luma, imaging.Luminance(resized), strat.Algorithm)
		if err != nil {
			continue
		}
		if raw < similarityFloor {
			continue
		}

		score := adjustScore(raw, entry, cell, strat, fb)
		if best == nil || score > best.Score {
			best = &scored{Entry: entry, Raw: raw, Score: score}
		}
	}
	return best
}

func adjustScore(raw float64, entry *templates.Entry, cell *Cell, strat strategy.Strategy, fb Feedback) float64 {
	score := raw

	if strat.UseFeedbackLoop && fb != nil {
		score -= fb.Penalty(entry.ItemID)
	}

	if strat.UseContextBoosting {
		switch entry.Rarity {
		case catalog.RarityLegendary:
			score += boostLegendary
		case catalog.RarityEpic:
			score += boostEpic
		case catalog.RarityCommon:
			score += boostCommon
		}
	}

	if strat.UseBorderValidation && cell.Rarity != "" {
		if entry.Rarity == cell.Rarity {
			score *= borderAgreeFactor
		} else {
			score *= borderDisagreeFactor
		}
	}

	return similarity.Clamp(score)
}
