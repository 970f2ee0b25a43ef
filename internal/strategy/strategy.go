// Package strategy defines the named configuration bundles that steer a
// detection run: the similarity algorithm, candidate filtering mode,
// multi-pass thresholds, and feature toggles.
//
// Strategies are data, not code: a built-in registry covers the common
// cases and a YAML file can add or override bundles. A Strategy is
// validated once at construction and never mutated during a run.
package strategy

import (
	"fmt"
	"sort"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/similarity"
)

// ColorFiltering selects how the candidate set is narrowed per cell.
type ColorFiltering string

const (
	FilterNone        ColorFiltering = "none"
	FilterRarityFirst ColorFiltering = "rarity-first"
	FilterColorFirst  ColorFiltering = "color-first"
)

// ColorAnalysis selects how much color work runs per cell.
type ColorAnalysis string

const (
	AnalysisNone        ColorAnalysis = "none"
	AnalysisMultiRegion ColorAnalysis = "multi-region"
)

// PassThresholds holds the acceptance floor for each of the three passes.
type PassThresholds struct {
	Pass1 float64 `mapstructure:"pass1" json:"pass1"`
	Pass2 float64 `mapstructure:"pass2" json:"pass2"`
	Pass3 float64 `mapstructure:"pass3" json:"pass3"`
}

// ForPass returns the threshold for a 0-based pass index.
func (p PassThresholds) ForPass(pass int) float64 {
	switch pass {
	case 0:
		return p.Pass1
	case 1:
		return p.Pass2
	default:
		return p.Pass3
	}
}

// Strategy is one immutable configuration bundle. Construct via New (or the
// registry) so invalid combinations are rejected up front.
type Strategy struct {
	Name                  string
	Algorithm             similarity.Algorithm
	MultiPassEnabled      bool
	ColorFiltering        ColorFiltering
	ColorAnalysis         ColorAnalysis
	UseEmptyCellDetection bool
	UseContextBoosting    bool
	UseBorderValidation   bool
	UseFeedbackLoop       bool

	// Thresholds applies when no per-rarity override exists.
	Thresholds PassThresholds
	// PerRarity overrides thresholds for specific tiers.
	PerRarity map[catalog.Rarity]PassThresholds
}

// ThresholdFor returns the acceptance threshold for a pass, honoring a
// per-rarity override when one exists.
func (s Strategy) ThresholdFor(pass int, r catalog.Rarity) float64 {
	if t, ok := s.PerRarity[r]; ok {
		return t.ForPass(pass)
	}
	return s.Thresholds.ForPass(pass)
}

// New validates and returns a strategy.
func New(s Strategy) (Strategy, error) {
	if s.Name == "" {
		return Strategy{}, fmt.Errorf("strategy has no name")
	}
	if _, err := similarity.ParseAlgorithm(string(s.Algorithm)); err != nil {
		return Strategy{}, fmt.Errorf("strategy %q: %w", s.Name, err)
	}
	switch s.ColorFiltering {
	case FilterNone, FilterRarityFirst, FilterColorFirst:
	default:
		return Strategy{}, fmt.Errorf("strategy %q: unknown color filtering %q", s.Name, s.ColorFiltering)
	}
	switch s.ColorAnalysis {
	case AnalysisNone, AnalysisMultiRegion:
	default:
		return Strategy{}, fmt.Errorf("strategy %q: unknown color analysis %q", s.Name, s.ColorAnalysis)
	}

	check := func(t PassThresholds, scope string) error {
		for i, v := range []float64{t.Pass1, t.Pass2, t.Pass3} {
			if v < 0 || v > 1 {
				return fmt.Errorf("strategy %q: %s pass%d threshold %f out of [0,1]", s.Name, scope, i+1, v)
			}
		}
		return nil
	}
	if err := check(s.Thresholds, "default"); err != nil {
		return Strategy{}, err
	}
	for r, t := range s.PerRarity {
		if !r.Valid() {
			return Strategy{}, fmt.Errorf("strategy %q: unknown rarity %q", s.Name, r)
		}
		if err := check(t, string(r)); err != nil {
			return Strategy{}, err
		}
	}

	return s, nil
}

// builtins are the shipped strategy bundles.
func builtins() []Strategy {
	return []Strategy{
		{
			Name:                  "default",
			Algorithm:             similarity.NCC,
			MultiPassEnabled:      true,
			ColorFiltering:        FilterNone,
			ColorAnalysis:         AnalysisNone,
			UseEmptyCellDetection: true,
			Thresholds:            PassThresholds{Pass1: 0.8, Pass2: 0.6, Pass3: 0.45},
		},
		{
			Name:                  "optimized",
			Algorithm:             similarity.NCC,
			MultiPassEnabled:      true,
			ColorFiltering:        FilterRarityFirst,
			ColorAnalysis:         AnalysisMultiRegion,
			UseEmptyCellDetection: true,
			UseContextBoosting:    true,
			UseBorderValidation:   true,
			UseFeedbackLoop:       true,
			Thresholds:            PassThresholds{Pass1: 0.8, Pass2: 0.6, Pass3: 0.45},
		},
		{
			// Latency-sensitive: single pass at the medium threshold.
			Name:                  "fast",
			Algorithm:             similarity.SSD,
			MultiPassEnabled:      false,
			ColorFiltering:        FilterColorFirst,
			ColorAnalysis:         AnalysisNone,
			UseEmptyCellDetection: true,
			Thresholds:            PassThresholds{Pass1: 0.8, Pass2: 0.62, Pass3: 0.45},
		},
		{
			Name:                  "thorough",
			Algorithm:             similarity.SSIM,
			MultiPassEnabled:      true,
			ColorFiltering:        FilterRarityFirst,
			ColorAnalysis:         AnalysisMultiRegion,
			UseEmptyCellDetection: true,
			UseContextBoosting:    true,
			UseBorderValidation:   true,
			Thresholds:            PassThresholds{Pass1: 0.75, Pass2: 0.55, Pass3: 0.4},
		},
	}
}

// Registry resolves strategy names to validated bundles.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns a registry populated with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range builtins() {
		validated, err := New(s)
		if err != nil {
			// Built-ins are fixed at compile time; a failure here is a
			// programming error.
			panic(err)
		}
		r.strategies[validated.Name] = validated
	}
	return r
}

// Get looks up a strategy by name.
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return Strategy{}, fmt.Errorf("unknown strategy %q (have %v)", name, r.Names())
	}
	return s, nil
}

// Register adds or replaces a strategy after validation.
func (r *Registry) Register(s Strategy) error {
	validated, err := New(s)
	if err != nil {
		return err
	}
	r.strategies[validated.Name] = validated
	return nil
}

// Names lists registered strategies in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
