// Package grid locates the inventory row in a screenshot and derives one
// region of interest per item slot, with no prior knowledge of resolution,
// cell size, origin, or spacing.
//
// # Pipeline
//
// Inference runs in four steps:
//
//  1. Hotbar band detection: a sliding-window scan of the bottom portion of
//     the screen scores horizontal strips by rarity-border pixels, color
//     saturation, and luminance variance.
//  2. Icon edge detection: vertical luminance-gradient peaks inside the band
//     mark probable icon boundaries.
//  3. Scale detection: the modal spacing between edges gives the icon size;
//     a resolution-bucket table serves as fallback.
//  4. Grid generation: a centered single-row layout of evenly spaced cells.
//
// Every step degrades gracefully: low-signal inputs produce a heuristic
// fallback with reduced confidence, never an error.
//
// Verification (VerifyPositions) is a separate post-matching check that a
// set of detected positions forms a statistically consistent grid.
package grid
