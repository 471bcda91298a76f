package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m4n1nh0/campus-map-app/logger"
	"github.com/m4n1nh0/campus-map-app/navgraph"
	"github.com/m4n1nh0/campus-map-app/store"
)

var errNoSource = errors.New("no graph source configured")

// snapshot pairs a graph with its spatial index; both are read-only.
type snapshot struct {
	graph *navgraph.Graph
	index *navgraph.SpatialIndex
}

func newSnapshot(g *navgraph.Graph) *snapshot {
	if g == nil {
		g = navgraph.NewGraph(navgraph.GraphData{})
	}
	return &snapshot{graph: g, index: navgraph.NewSpatialIndex(g)}
}

// server holds the current graph snapshot and the collaborators used to serve it.
type server struct {
	cfg    ServerConfig
	source store.Source
	cache  store.RouteCache // nil disables caching

	mu   sync.RWMutex
	snap *snapshot
}

func newServer(cfg ServerConfig, source store.Source, cache store.RouteCache) *server {
	return &server{
		cfg:    cfg,
		source: source,
		cache:  cache,
		snap:   newSnapshot(nil),
	}
}

func (s *server) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *server) swap(g *navgraph.Graph) *snapshot {
	next := newSnapshot(g)
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	graphWaypoints.Set(float64(next.graph.Len()))
	return next
}

// load reads a graph from the source. A source that yields no waypoints
// leaves an empty graph in place, so queries answer "no route" instead of
// failing; with keepOnFailure the current snapshot is kept instead.
func (s *server) load(ctx context.Context, keepOnFailure bool) (*snapshot, error) {
	if s.source == nil {
		return s.current(), errNoSource
	}

	g, err := s.source.Load(ctx)
	if g.Len() == 0 {
		if err == nil {
			err = navgraph.ErrNoGraphData
		}
		logger.Error().Err(err).Msg("Failed to load navigation graph")
		if keepOnFailure {
			return s.current(), err
		}
		return s.swap(nil), err
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Navigation graph loaded with problems")
	}

	snap := s.swap(g)
	stats := g.Stats()
	logger.Info().
		Str("version", g.Version()).
		Int("waypoints", stats.Waypoints).
		Int("connections", stats.Connections).
		Int("dangling", stats.Dangling).
		Int("duplicateIds", stats.DuplicateIDs).
		Int("areas", len(g.Areas())).
		Msg("Navigation graph loaded")
	return snap, err
}

// findRoute answers a query against the current snapshot, consulting the
// route cache when one is configured.
func (s *server) findRoute(ctx context.Context, start, end string) (*snapshot, navgraph.Path, bool) {
	began := time.Now()
	defer func() { routeQueryDuration.Observe(time.Since(began).Seconds()) }()

	snap := s.current()
	g := snap.graph

	if !g.Has(start) || !g.Has(end) {
		routeQueriesTotal.WithLabelValues("unknown").Inc()
		return snap, navgraph.Path{}, false
	}

	if s.cache != nil {
		path, ok, err := s.cache.Get(ctx, g.Version(), start, end)
		switch {
		case err != nil:
			routeCacheTotal.WithLabelValues("error").Inc()
			logger.Warn().Err(err).Msg("Route cache lookup failed")
		case ok:
			routeCacheTotal.WithLabelValues("hit").Inc()
			countRoute(path)
			return snap, path, true
		default:
			routeCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	path := navgraph.FindRoute(g, start, end)
	countRoute(path)

	if s.cache != nil {
		if err := s.cache.Set(ctx, g.Version(), start, end, path); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache route")
		}
	}
	return snap, path, false
}

func countRoute(path navgraph.Path) {
	if path.Empty() {
		routeQueriesTotal.WithLabelValues("not_found").Inc()
		return
	}
	routeQueriesTotal.WithLabelValues("found").Inc()
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// corsMiddleware adds CORS headers and a request ID to every response.
func (s *server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		next(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn().Err(err).Msg("Failed to write response")
	}
}

type routeRequest struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	GeoJSON bool   `json:"geojson,omitempty"`
	Floor   string `json:"floor,omitempty"` // restricts the overlay
}

type routeResponse struct {
	Start        string                     `json:"start"`
	End          string                     `json:"end"`
	Success      bool                       `json:"success"`
	Message      string                     `json:"message,omitempty"`
	Path         navgraph.Path              `json:"path"`
	Hops         int                        `json:"hops"`
	Steps        []navgraph.Step            `json:"steps"`
	PlanarLength float64                    `json:"planarLength,omitempty"`
	GraphVersion string                     `json:"graphVersion"`
	Cached       bool                       `json:"cached"`
	Overlay      *geojson.FeatureCollection `json:"overlay,omitempty"`
}

// POST /route - Compute the fewest-hops route between two waypoints
func (s *server) routeHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.Logger.With().Str("requestId", requestID(r.Context())).Logger()

	if r.Method != http.MethodPost {
		log.Warn().Str("method", r.Method).Msg("Method not allowed")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	began := time.Now()
	snap, path, cached := s.findRoute(r.Context(), req.Start, req.End)
	g := snap.graph

	resp := routeResponse{
		Start:        req.Start,
		End:          req.End,
		Success:      !path.Empty(),
		Path:         path,
		Hops:         path.Hops(),
		Steps:        navgraph.Describe(g, path),
		PlanarLength: navgraph.PlanarLength(g, path),
		GraphVersion: g.Version(),
		Cached:       cached,
	}
	switch {
	case !g.Has(req.Start):
		resp.Message = "unknown waypoint: " + req.Start
	case !g.Has(req.End):
		resp.Message = "unknown waypoint: " + req.End
	case path.Empty():
		resp.Message = "no route found"
	}
	if req.GeoJSON {
		resp.Overlay = navgraph.RouteOverlay(g, path, req.Floor, snap.index)
	}

	log.Info().
		Str("start", req.Start).
		Str("end", req.End).
		Bool("success", resp.Success).
		Int("hops", resp.Hops).
		Bool("cached", cached).
		Dur("took", time.Since(began)).
		Msg("Route request")

	writeJSON(w, http.StatusOK, resp)
}

// GET /waypoints - Picker entries, optionally for one floor
func (s *server) waypointsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	g := s.current().graph
	writeJSON(w, http.StatusOK, map[string]any{
		"waypoints":    navgraph.Options(g, r.URL.Query().Get("floor")),
		"graphVersion": g.Version(),
	})
}

// GET /waypoints/nearest - Waypoint closest to a point on a floor image
func (s *server) nearestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	floor := q.Get("floor")
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if floor == "" || errX != nil || errY != nil {
		http.Error(w, "floor, x and y are required", http.StatusBadRequest)
		return
	}

	snap := s.current()
	wp, ok := snap.index.Nearest(floor, x, y)
	if !ok {
		http.Error(w, "No waypoint on floor "+floor, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       wp.ID,
		"name":     wp.Name,
		"floor":    wp.Floor,
		"category": wp.Category,
		"x":        wp.X,
		"y":        wp.Y,
		"areas":    areaNames(snap.index.AreasAt(wp.Floor, wp.X, wp.Y)),
	})
}

func areaNames(areas []navgraph.Area) []string {
	names := make([]string, 0, len(areas))
	for _, a := range areas {
		names = append(names, a.Name)
	}
	return names
}

type floorJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Level int    `json:"level"`
}

// GET /floors - Floors of the building
func (s *server) floorsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	floors := s.current().graph.Floors()
	out := make([]floorJSON, 0, len(floors))
	for _, f := range floors {
		out = append(out, floorJSON{ID: f.ID, Name: f.Name, Image: f.Image, Level: f.Level})
	}
	writeJSON(w, http.StatusOK, map[string]any{"floors": out})
}

// GET /graph/lines - Connections as GeoJSON line strings for visualization
func (s *server) graphLinesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fc := navgraph.ConnectionLines(s.current().graph, r.URL.Query().Get("floor"))
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		logger.Warn().Err(err).Msg("Failed to write graph lines")
	}
}

// POST /reload - Reload the graph from its source and swap it in
func (s *server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := s.load(r.Context(), true)
	resp := map[string]any{
		"success":      err == nil,
		"graphVersion": snap.graph.Version(),
		"stats":        snap.graph.Stats(),
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /health - Health check endpoint
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	g := s.current().graph

	status := "ready"
	if g.Len() == 0 {
		status = "no navigation data"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"numWaypoints": g.Len(),
		"graphVersion": g.Version(),
	})
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/route", s.corsMiddleware(s.routeHandler))
	mux.HandleFunc("/waypoints", s.corsMiddleware(s.waypointsHandler))
	mux.HandleFunc("/waypoints/nearest", s.corsMiddleware(s.nearestHandler))
	mux.HandleFunc("/floors", s.corsMiddleware(s.floorsHandler))
	mux.HandleFunc("/graph/lines", s.corsMiddleware(s.graphLinesHandler))
	mux.HandleFunc("/reload", s.corsMiddleware(s.reloadHandler))
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
