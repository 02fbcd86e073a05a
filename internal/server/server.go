// Package server exposes the gallery pipeline over HTTP.
//
// The server owns one scanned gallery and computes layouts and
// thumbnails for it on demand. Routes:
//
//	POST /api/v1/layout        compute a layout for the gallery
//	GET  /api/v1/gallery       the scanned image records
//	GET  /api/v1/thumb/{id}    a JPEG thumbnail (w and h query params)
//	GET  /healthz              liveness
//	GET  /readyz               readiness (gallery scanned)
//	GET  /metrics              Prometheus metrics
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/photogridlab/photogrid/pkg/cache"
	"github.com/photogridlab/photogrid/pkg/errors"
	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/layout"
	"github.com/photogridlab/photogrid/pkg/pipeline"
)

// maxBodyBytes bounds layout request bodies.
const maxBodyBytes int64 = 1 << 20

// Server serves layouts and thumbnails for a single gallery root.
type Server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	mu      sync.RWMutex
	gallery *gallery.Gallery
}

// New creates a server for the gallery described by opts.Root.
// Call Refresh before serving to run the initial scan.
func New(runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, opts: opts, logger: logger}
}

// Refresh rescans the gallery root and drops derived caches. It is also
// the invalidation target for the filesystem watcher.
func (s *Server) Refresh(ctx context.Context) error {
	g, err := s.runner.Scan(ctx, s.opts)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.gallery = g
	s.mu.Unlock()

	s.runner.Invalidate()
	s.logger.Info("gallery refreshed", "root", g.Root, "images", len(g.Images))
	return nil
}

// Gallery returns the current gallery, or nil before the first Refresh.
func (s *Server) Gallery() *gallery.Gallery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gallery
}

// Handler builds the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(Logging(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Get("/gallery", s.handleGallery)
		r.Get("/thumb/{id}", s.handleThumb)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.Gallery() == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("scanning"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// layoutRequest is the JSON body of POST /api/v1/layout. Geometry only;
// the gallery root is fixed at startup.
type layoutRequest struct {
	Policy          string  `json:"policy,omitempty"`
	Width           float64 `json:"width,omitempty"`
	Spacing         float64 `json:"spacing,omitempty"`
	TargetRowHeight float64 `json:"target_row_height,omitempty"`
	MinRowHeight    float64 `json:"min_row_height,omitempty"`
	MaxRowHeight    float64 `json:"max_row_height,omitempty"`
	ImagesPerRow    int     `json:"images_per_row,omitempty"`
	Refresh         bool    `json:"refresh,omitempty"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	g := s.Gallery()
	if g == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "gallery not scanned yet")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	opts := s.opts
	if req.Policy != "" {
		opts.Policy = layout.Policy(req.Policy)
	}
	if req.Width != 0 {
		opts.Width = req.Width
	}
	if req.Spacing != 0 {
		opts.Spacing = req.Spacing
	}
	if req.TargetRowHeight != 0 {
		opts.TargetRowHeight = req.TargetRowHeight
	}
	if req.MinRowHeight != 0 {
		opts.MinRowHeight = req.MinRowHeight
	}
	if req.MaxRowHeight != 0 {
		opts.MaxRowHeight = req.MaxRowHeight
	}
	if req.ImagesPerRow != 0 {
		opts.ImagesPerRow = req.ImagesPerRow
	}
	opts.Refresh = req.Refresh

	l, hit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), g, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if err := json.NewEncoder(w).Encode(l); err != nil {
		s.logger.Error("encode layout", "err", err)
	}
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	g := s.Gallery()
	if g == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "gallery not scanned yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(g); err != nil {
		s.logger.Error("encode gallery", "err", err)
	}
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	g := s.Gallery()
	if g == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "gallery not scanned yet")
		return
	}

	id := chi.URLParam(r, "id")
	if err := errors.ValidateImageID(id); err != nil {
		writeError(w, err)
		return
	}
	width := queryInt(r, "w", pipeline.DefaultThumbWidth)
	height := queryInt(r, "h", pipeline.DefaultThumbHeight)
	if err := errors.ValidateThumbSize(width, height); err != nil {
		writeError(w, err)
		return
	}

	rec, ok := findImage(g, id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeImageNotFound, "unknown image %q", id))
		return
	}

	// Encoded thumbnails persist in the cross-run cache, so a restarted
	// server (or a replica sharing a Redis backend) skips the decode.
	thumbKey := s.runner.Keyer.ThumbKey(id, width, height)
	if data, hit, err := s.runner.Cache.Get(r.Context(), thumbKey); err == nil && hit {
		writeJPEG(w, "HIT", data)
		return
	}

	done := make(chan image.Image, 1)
	s.runner.Thumbs.Load(r.Context(), rec, width, height, func(img image.Image) {
		done <- img
	})

	select {
	case <-r.Context().Done():
		return
	case img := <-done:
		if img == nil {
			writeError(w, errors.New(errors.ErrCodeDecodeFailed, "could not decode %q", id))
			return
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			s.logger.Error("encode thumbnail", "id", id, "err", err)
			writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode %q", id))
			return
		}
		_ = s.runner.Cache.Set(r.Context(), thumbKey, buf.Bytes(), cache.TTLThumb)
		writeJPEG(w, "MISS", buf.Bytes())
	}
}

func writeJPEG(w http.ResponseWriter, cacheState string, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Cache", cacheState)
	_, _ = w.Write(data)
}

func findImage(g *gallery.Gallery, id string) (gallery.ImageRecord, bool) {
	for _, rec := range g.Images {
		if rec.ID == id {
			return rec, true
		}
	}
	return gallery.ImageRecord{}, false
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
