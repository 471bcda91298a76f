package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/m4n1nh0/campus-map-app/navgraph"
)

// Source supplies a navigation graph snapshot.
type Source interface {
	Load(ctx context.Context) (*navgraph.Graph, error)
}

// FileSource reads the graph from a JSON file, optionally merging GeoJSON areas
// from a directory.
type FileSource struct {
	Path     string
	AreasDir string
}

// Load implements Source. A graph is returned whenever the file decoded, even
// if some area files failed; the error then describes what was skipped.
func (s FileSource) Load(ctx context.Context) (*navgraph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := navgraph.LoadFile(s.Path)
	if g == nil {
		return nil, fmt.Errorf("failed to load graph from %s: %w", s.Path, err)
	}
	return mergeAreas(g, err, s.AreasDir)
}

// AreaSource adds the GeoJSON areas found in Dir to every graph Source loads.
type AreaSource struct {
	Source Source
	Dir    string
}

// Load implements Source.
func (s AreaSource) Load(ctx context.Context) (*navgraph.Graph, error) {
	g, err := s.Source.Load(ctx)
	if g == nil {
		return nil, err
	}
	return mergeAreas(g, err, s.Dir)
}

func mergeAreas(g *navgraph.Graph, err error, dir string) (*navgraph.Graph, error) {
	if dir == "" {
		return g, err
	}
	areas, areaErr := navgraph.LoadAreas(dir)
	if len(areas) > 0 {
		g = navgraph.WithAreas(g, areas)
	}
	return g, errors.Join(err, areaErr)
}
