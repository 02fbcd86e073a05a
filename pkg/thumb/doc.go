// Package thumb provides asynchronous thumbnail decoding behind a
// bounded in-memory cache.
//
// The Cache holds decoded bitmaps under two ceilings, an entry count and
// a total byte cost, evicting least-recently-used entries when either is
// exceeded. The Loader fans decode requests out to a fixed worker pool
// and delivers results through callbacks, coalescing concurrent requests
// for the same image and size into a single decode.
package thumb
