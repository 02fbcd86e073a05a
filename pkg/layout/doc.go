// Package layout implements the row layout solver and its geometry cache.
//
// The solver is a pure function: given an ordered slice of image records,
// a policy, and geometry parameters, it partitions the images into rows
// that fill the available width. It performs no I/O, holds no state, and
// is total over its inputs: invalid geometry degrades to a safe layout
// instead of failing, so it can run on every resize tick of a UI thread.
//
// # Policies
//
// PolicyFixedGrid cuts the input into fixed-count runs and sizes each run
// to span the width exactly. Deterministic and O(n).
//
// PolicyJustified searches, per row, over candidate heights around the
// target and candidate image counts, scoring each candidate by fill rate
// (row width / available width) and falling back through progressively
// more permissive tiers when nothing lands in the acceptance band. The
// search is bounded per row, so the whole solve is O(n) amortized.
//
// # Caching
//
// RowCache memoizes solve results keyed by quantized geometry (count,
// width, target height, spacing, policy) with strict LRU eviction. Callers
// clear it wholesale when the image set changes.
package layout
