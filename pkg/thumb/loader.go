package thumb

import (
	"context"
	"image"
	"sync"

	"github.com/photogridlab/photogrid/pkg/gallery"
)

// LoadFunc receives the decoded thumbnail, or nil when decoding failed or
// the loader is closed. It runs on the loader's delivery goroutine; keep
// it cheap and hand heavy work elsewhere.
type LoadFunc func(img image.Image)

// DefaultWorkers is the decode pool size when NewLoader is given a
// non-positive count.
const DefaultWorkers = 4

type loadRequest struct {
	ctx context.Context
	rec gallery.ImageRecord
	key CacheKey
}

type completion struct {
	key CacheKey
	img image.Image
}

// Loader decodes thumbnails asynchronously behind a bounded Cache.
//
// Requests fan out to a fixed worker pool; finished bitmaps funnel back
// through a single delivery goroutine, so callbacks fire one at a time in
// completion order, which may differ from request order. Concurrent
// requests for the same key coalesce onto one decode; every registered
// callback still fires exactly once.
//
// Failed decodes deliver nil and cache nothing, so a later request for
// the same key decodes again.
type Loader struct {
	cache *Cache
	dec   Decoder

	mu      sync.Mutex
	waiting map[CacheKey][]LoadFunc
	pending []loadRequest
	closed  bool

	// kick wakes the dispatcher when pending gains a request or the
	// loader closes. Buffered so signaling never blocks.
	kick chan struct{}

	jobs        chan loadRequest
	completions chan completion
	workers     sync.WaitGroup
	delivered   chan struct{}
}

// NewLoader starts workers decode goroutines over cache. Pass nil cache
// or decoder for the defaults (a default-bounded Cache, ImagingDecoder).
func NewLoader(cache *Cache, dec Decoder, workers int) *Loader {
	if cache == nil {
		cache = NewCache(0, 0)
	}
	if dec == nil {
		dec = ImagingDecoder{}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	l := &Loader{
		cache:       cache,
		dec:         dec,
		waiting:     make(map[CacheKey][]LoadFunc),
		kick:        make(chan struct{}, 1),
		jobs:        make(chan loadRequest),
		completions: make(chan completion, workers*4),
		delivered:   make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		l.workers.Add(1)
		go l.work()
	}
	go l.dispatch()
	go l.deliver()
	return l
}

// Cache exposes the underlying thumbnail cache.
func (l *Loader) Cache() *Cache { return l.cache }

// Load requests the thumbnail for rec at the given target size.
//
// On a cache hit the callback fires synchronously before Load returns.
// Otherwise the callback fires later from the delivery goroutine. A
// request for a key already being decoded joins that decode instead of
// queuing another. Load never blocks on the worker pool: requests land
// on an unbounded pending queue and a dispatcher feeds them to workers,
// so any burst of calls is accepted immediately.
func (l *Loader) Load(ctx context.Context, rec gallery.ImageRecord, width, height int, fn LoadFunc) {
	key := CacheKey{ImageID: rec.ID, Width: width, Height: height}

	if img, ok := l.cache.Get(ctx, key); ok {
		fn(img)
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		fn(nil)
		return
	}
	if fns, inflight := l.waiting[key]; inflight {
		l.waiting[key] = append(fns, fn)
		l.mu.Unlock()
		return
	}
	l.waiting[key] = []LoadFunc{fn}
	l.pending = append(l.pending, loadRequest{ctx: ctx, rec: rec, key: key})
	l.mu.Unlock()

	l.wake()
}

// wake nudges the dispatcher. The send is non-blocking; a buffered
// signal already in flight covers any number of queued requests.
func (l *Loader) wake() {
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// Clear drops all cached thumbnails. In-flight decodes finish and deliver
// normally; their results land in the emptied cache.
func (l *Loader) Clear() {
	l.cache.Clear()
}

// Close stops accepting requests, waits for in-flight decodes, and
// returns after every pending callback has fired. Requests arriving after
// Close receive nil synchronously.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.wake()
	l.workers.Wait()
	close(l.completions)
	<-l.delivered
}

// dispatch moves pending requests onto the worker channel. It is the
// only goroutine that sends on or closes jobs, and it never holds the
// mutex across a channel operation, so a full worker pool can never
// wedge callers. On close it drains the queue first; every accepted
// request still decodes and delivers.
func (l *Loader) dispatch() {
	for {
		l.mu.Lock()
		for len(l.pending) == 0 {
			if l.closed {
				l.mu.Unlock()
				close(l.jobs)
				return
			}
			l.mu.Unlock()
			<-l.kick
			l.mu.Lock()
		}
		req := l.pending[0]
		l.pending = l.pending[1:]
		l.mu.Unlock()

		l.jobs <- req
	}
}

func (l *Loader) work() {
	defer l.workers.Done()
	for req := range l.jobs {
		img, err := l.dec.Decode(req.ctx, req.rec, req.key.Width, req.key.Height)
		if err != nil {
			img = nil
		}
		l.completions <- completion{key: req.key, img: img}
	}
}

func (l *Loader) deliver() {
	defer close(l.delivered)
	for c := range l.completions {
		if c.img != nil {
			l.cache.Add(context.Background(), c.key, c.img)
		}
		l.mu.Lock()
		fns := l.waiting[c.key]
		delete(l.waiting, c.key)
		l.mu.Unlock()
		for _, fn := range fns {
			fn(c.img)
		}
	}
}
