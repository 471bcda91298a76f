package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m4n1nh0/campus-map-app/logger"
	"github.com/m4n1nh0/campus-map-app/navgraph"
	"github.com/m4n1nh0/campus-map-app/store"
)

const usage = `Usage: campus-map-app [serve|mcp|import] [-config config.yaml]

  serve   HTTP API for route queries (default)
  mcp     MCP tools on stdio
  import  copy the graph file into Neo4j
`

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(args)

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg)
	case "mcp":
		err = runMCP(ctx, cfg)
	case "import":
		err = runImport(ctx, cfg)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error().Err(err).Str("command", cmd).Msg("Command failed")
		os.Exit(1)
	}
}

// openSource returns the configured graph source, whether it is worth loading
// from now, and a cleanup function. A Neo4j database that cannot be reached is
// kept as the source so a later reload can pick the graph up.
func openSource(ctx context.Context, cfg Config) (store.Source, bool, func()) {
	if cfg.Graph.Source != "neo4j" {
		return store.FileSource{Path: cfg.Graph.Path, AreasDir: cfg.Graph.AreasDir}, true, func() {}
	}

	src, err := store.NewNeo4jSource(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
	if err != nil {
		logger.Error().Err(err).Str("uri", cfg.Neo4j.URI).Msg("Neo4j source unavailable")
		return nil, false, func() {}
	}
	closeSrc := func() { _ = src.Close(context.Background()) }

	var source store.Source = src
	if cfg.Graph.AreasDir != "" {
		source = store.AreaSource{Source: src, Dir: cfg.Graph.AreasDir}
	}

	if err := src.VerifyConnectivity(ctx); err != nil {
		logger.Error().Err(err).Str("uri", cfg.Neo4j.URI).Msg("Neo4j unreachable, serving an empty graph until reload")
		return source, false, closeSrc
	}
	return source, true, closeSrc
}

// openCache connects to Redis when enabled. A failed connection disables
// caching instead of aborting startup.
func openCache(ctx context.Context, cfg RedisConfig) (store.RouteCache, func()) {
	if !cfg.Enabled {
		return nil, func() {}
	}
	cache, err := store.NewRedisCache(ctx, cfg.URL, cfg.TTL)
	if err != nil {
		logger.Warn().Err(err).Msg("Route cache disabled")
		return nil, func() {}
	}
	logger.Info().Str("url", cfg.URL).Dur("ttl", cfg.TTL).Msg("Route cache enabled")
	return cache, func() { _ = cache.Close() }
}

// newLoadedServer never fails: whatever goes wrong with the source leaves the
// server answering from an empty graph.
func newLoadedServer(ctx context.Context, cfg Config) (*server, func()) {
	source, reachable, closeSource := openSource(ctx, cfg)
	cache, closeCache := openCache(ctx, cfg.Redis)

	s := newServer(cfg.Server, source, cache)
	if !reachable {
		s.swap(nil)
	} else if _, err := s.load(ctx, false); err != nil {
		logger.Warn().Msg("Serving with an incomplete navigation graph")
	}
	return s, func() { closeCache(); closeSource() }
}

func runServe(ctx context.Context, cfg Config) error {
	s, cleanup := newLoadedServer(ctx, cfg)
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("source", cfg.Graph.Source).
		Str("corsOrigin", cfg.Server.CORSOrigin).
		Msg("Campus map server starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info().Msg("Campus map server stopped")
	return nil
}

func runMCP(ctx context.Context, cfg Config) error {
	s, cleanup := newLoadedServer(ctx, cfg)
	defer cleanup()

	return newMCPServer(cfg.MCP, s).Start(ctx)
}

func runImport(ctx context.Context, cfg Config) error {
	g, err := store.FileSource{Path: cfg.Graph.Path, AreasDir: cfg.Graph.AreasDir}.Load(ctx)
	if g == nil {
		return err
	}
	if errors.Is(err, navgraph.ErrNoGraphData) {
		return err
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Importing a graph loaded with problems")
	}

	target, err := store.NewNeo4jSource(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
	if err != nil {
		return err
	}
	defer target.Close(context.Background())

	if err := target.VerifyConnectivity(ctx); err != nil {
		return err
	}
	if err := target.Import(ctx, g); err != nil {
		return err
	}
	logger.Info().
		Str("path", cfg.Graph.Path).
		Int("waypoints", g.Len()).
		Int("connections", g.Stats().Connections).
		Msg("Navigation graph imported into Neo4j")
	return nil
}
