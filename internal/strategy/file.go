package strategy

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/similarity"
)

// fileStrategy is the on-disk shape of one strategy definition.
type fileStrategy struct {
	Algorithm             string                    `mapstructure:"matchingAlgorithm"`
	MultiPassEnabled      bool                      `mapstructure:"multiPassEnabled"`
	ColorFiltering        string                    `mapstructure:"colorFiltering"`
	ColorAnalysis         string                    `mapstructure:"colorAnalysis"`
	UseEmptyCellDetection bool                      `mapstructure:"useEmptyCellDetection"`
	UseContextBoosting    bool                      `mapstructure:"useContextBoosting"`
	UseBorderValidation   bool                      `mapstructure:"useBorderValidation"`
	UseFeedbackLoop       bool                      `mapstructure:"useFeedbackLoop"`
	Thresholds            PassThresholds            `mapstructure:"thresholds"`
	PerRarity             map[string]PassThresholds `mapstructure:"perRarity"`
}

// LoadFile merges strategy definitions from a YAML file into the registry.
// The file maps strategy names to option bundles:
//
//	strategies:
//	  tuned:
//	    matchingAlgorithm: ncc
//	    multiPassEnabled: true
//	    colorFiltering: rarity-first
//	    thresholds: {pass1: 0.82, pass2: 0.6, pass3: 0.45}
//
// Omitted enum fields default to "none"; an omitted algorithm defaults to
// ncc. Invalid definitions reject the whole file.
func (r *Registry) LoadFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read strategy file: %w", err)
	}

	var raw map[string]fileStrategy
	if err := v.UnmarshalKey("strategies", &raw); err != nil {
		return fmt.Errorf("failed to parse strategy file: %w", err)
	}

	for name, fs := range raw {
		s := Strategy{
			Name:                  name,
			Algorithm:             similarity.Algorithm(orDefault(fs.Algorithm, string(similarity.NCC))),
			MultiPassEnabled:      fs.MultiPassEnabled,
			ColorFiltering:        ColorFiltering(orDefault(fs.ColorFiltering, string(FilterNone))),
			ColorAnalysis:         ColorAnalysis(orDefault(fs.ColorAnalysis, string(AnalysisNone))),
			UseEmptyCellDetection: fs.UseEmptyCellDetection,
			UseContextBoosting:    fs.UseContextBoosting,
			UseBorderValidation:   fs.UseBorderValidation,
			UseFeedbackLoop:       fs.UseFeedbackLoop,
			Thresholds:            fs.Thresholds,
		}
		if len(fs.PerRarity) > 0 {
			s.PerRarity = make(map[catalog.Rarity]PassThresholds, len(fs.PerRarity))
			for rarity, t := range fs.PerRarity {
				s.PerRarity[catalog.Rarity(rarity)] = t
			}
		}
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
