// Package server is the thin HTTP adapter over internal/iqdb: multipart
// image upload for add/query, a JSON ranked-results response, and a minimal
// HTML search form. Structure follows the donor repo's Server type --
// a stdlib ServeMux wrapped in logging/CORS middleware, pprof wired under
// /debug/pprof/, and a context-cancelling graceful Shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/cwbudde/goiqdb/internal/iqdb"
	"github.com/google/uuid"
)

const defaultQueryK = 16
const maxUploadBytes = 32 << 20

// Server is the HTTP frontend for a *iqdb.DB.
type Server struct {
	db     *iqdb.DB
	addr   string
	server *http.Server
}

// New creates a Server listening on addr and serving db.
func New(addr string, db *iqdb.DB) *Server {
	return &Server{db: db, addr: addr}
}

// Start builds the mux and blocks serving HTTP until the server is shut
// down or ListenAndServe fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/images", s.handleImages)
	mux.HandleFunc("/images/", s.handleImageByID)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/stats", s.handleStats)

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	handler := s.loggingMiddleware(s.corsMiddleware(mux))

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	slog.Info("starting HTTP server", "addr", s.addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddImage(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAddImage(w http.ResponseWriter, r *http.Request) {
	img, postID, err := decodeUploadedImage(r, "postId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.db.AddImage(img, postID)
	if err != nil {
		slog.Error("add image failed", "error", err)
		http.Error(w, fmt.Sprintf("add failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"id":     id,
		"postId": postID,
	})
}

func (s *Server) handleImageByID(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDFromPath(r.URL.Path, "/images/")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sig, err := s.db.GetSignature(postID)
		if err != nil {
			writeNotFoundOr500(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"postId": postID,
			"avglf":  sig.Avglf,
			"sig0":   sig.Coefs[0],
			"sig1":   sig.Coefs[1],
			"sig2":   sig.Coefs[2],
		})
	case http.MethodDelete:
		if err := s.db.RemoveImage(postID); err != nil {
			writeNotFoundOr500(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	k := defaultQueryK
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "k must be a positive integer", http.StatusBadRequest)
			return
		}
		k = parsed
	}

	img, _, err := decodeUploadedImage(r, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := s.db.Query(img, k)
	if err != nil {
		slog.Error("query failed", "error", err)
		http.Error(w, fmt.Sprintf("query failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"requestId": uuid.NewString(),
		"results":   results,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.db.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage.Execute(w, nil); err != nil {
		slog.Error("failed to render index page", "error", err)
	}
}

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>goiqdb</title></head>
<body>
<h1>Reverse image search</h1>
<form method="POST" action="/query" enctype="multipart/form-data">
  <input type="file" name="image" accept="image/*" required>
  <button type="submit">Search</button>
</form>
</body></html>`))

func decodeUploadedImage(r *http.Request, postIDField string) (image.Image, uint32, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, 0, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, 0, fmt.Errorf("missing image field: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, 0, fmt.Errorf("unsupported or corrupt image: %w", err)
	}

	var postID uint32
	if postIDField != "" {
		raw := r.FormValue(postIDField)
		if raw == "" {
			return nil, 0, fmt.Errorf("missing %s field", postIDField)
		}
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid %s: %w", postIDField, err)
		}
		postID = uint32(parsed)
	}

	return img, postID, nil
}

func parseIDFromPath(path, prefix string) (uint32, error) {
	raw := path[len(prefix):]
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id in path: %w", err)
	}
	return uint32(parsed), nil
}

func writeNotFoundOr500(w http.ResponseWriter, err error) {
	var notFound *iqdb.PostNotFoundError
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
