// Package local discovers images on the local filesystem.
//
// The Scanner walks a gallery root and reads image headers to build
// dimensioned records without decoding pixels. The Watcher layers
// fsnotify on top and raises a debounced invalidation callback when the
// tree changes.
package local
