// Package match scores grid cells against the template store and resolves
// the best item per cell.
//
// The per-cell pipeline: empty-cell rejection, lazy feature extraction
// (border rarity, color profile), candidate narrowing, similarity scoring
// with contextual adjustments, and a three-pass acceptance ladder that
// widens the threshold on each pass. Aggregation then merges per-cell
// detections into item counts.
//
// Scoring is deterministic for a given (cell, strategy) pair, so per-cell
// best matches are computed once and reused across passes.
package match
