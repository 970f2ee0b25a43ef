// Package imaging provides the pixel-level primitives shared by the
// detection pipeline: screenshot decoding, icon caching, cropping, resizing,
// luminance statistics, and color-profile extraction.
//
// All coordinates are 0-based with the origin at the top-left corner; X
// increases rightward and Y increases downward. Regions use an inclusive
// origin and explicit width/height.
//
// # Thread Safety
//
// IconCache is safe for concurrent use. All other functions are pure: they
// never mutate their input images, and resizing always allocates a new
// buffer.
//
// # Color Representation
//
// Color profiles summarize a region against a fixed palette of named colors
// (red, orange, yellow, green, blue, purple, white, gray, brown, black).
// Classification runs in HSV space via go-colorful.
package imaging
