// Package aggregate derives presentation views from computed stress fields.
//
// All lookups interpolate linearly between lattice points and never
// extrapolate: a request outside the computed domain fails with a
// *RangeError instead of returning an edge value.
//
// Views:
//   - XZSlice and YZSlice fix one horizontal coordinate.
//   - DepthProfile interpolates bilinearly at (x, y) on every lattice depth.
//   - ValueAt interpolates trilinearly at a single point.
//   - Resample re-evaluates a depth profile at new depths.
//
// WriteProfileCSV and Summarize produce the tabular export and the report
// summary consumed by document renderers.
package aggregate
