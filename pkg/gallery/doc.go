// Package gallery defines the shared data model of the layout engine.
//
// The three central types are:
//
//   - ImageRecord: immutable per-image metadata (identity, pixel size,
//     source path). Supplied by a collaborator such as the directory
//     scanner; the engine only reads it.
//   - LayoutRow: one horizontal band of the computed grid, pairing each
//     image with its displayed size.
//   - Layout: the serializable envelope around a row sequence, used for
//     files, the HTTP API, and the cross-run cache.
//
// The package also provides JSON file helpers for galleries and layouts,
// and an SVG contact-sheet export for quick visual inspection.
//
// Aspect ratios are always safe to divide by: records with zero or garbage
// dimensions report 1.0, and the ratio is floored at a positive epsilon.
package gallery
