package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m4n1nh0/campus-map-app/store"
)

func TestNewLoadedServer_Neo4jUnreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Graph.Source = "neo4j"
	cfg.Graph.AreasDir = t.TempDir()
	cfg.Neo4j.URI = "bolt://127.0.0.1:1"

	s, cleanup := newLoadedServer(context.Background(), cfg)
	defer cleanup()

	require.NotNil(t, s)
	assert.Equal(t, 0, s.current().graph.Len())
	// the source is kept so a reload can recover once the database is up
	require.IsType(t, store.AreaSource{}, s.source)
	assert.IsType(t, &store.Neo4jSource{}, s.source.(store.AreaSource).Source)

	resp := postRoute(t, s, `{"start":"A","end":"B"}`)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.Path)
}

func TestNewLoadedServer_InvalidNeo4jURI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Graph.Source = "neo4j"
	cfg.Neo4j.URI = "ftp://127.0.0.1:1"

	s, cleanup := newLoadedServer(context.Background(), cfg)
	defer cleanup()

	require.NotNil(t, s)
	assert.Nil(t, s.source)
	assert.Equal(t, 0, s.current().graph.Len())
}

func TestNewLoadedServer_File(t *testing.T) {
	s, cleanup := newLoadedServer(context.Background(), DefaultConfig())
	defer cleanup()
	assert.Greater(t, s.current().graph.Len(), 0)

	missing := DefaultConfig().WithGraphPath(filepath.Join(t.TempDir(), "missing.json"))
	s, cleanup = newLoadedServer(context.Background(), missing)
	defer cleanup()
	assert.Equal(t, 0, s.current().graph.Len())
	assert.IsType(t, store.FileSource{}, s.source)
}
