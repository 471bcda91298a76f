package navgraph

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadAreas reads every *.geojson FeatureCollection in dir. Polygon and
// MultiPolygon outer rings become areas; the feature properties "id", "name"
// and "floor" describe them. Files that cannot be read or parsed are skipped
// and reported in the returned error, alongside whatever areas did load.
func LoadAreas(dir string) ([]Area, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var (
		areas []Area
		errs  []error
	)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", file, err))
			continue
		}

		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse %s: %w", file, err))
			continue
		}

		base := filepath.Base(file)
		for i, feature := range fc.Features {
			areas = append(areas, featureAreas(feature, fmt.Sprintf("%s#%d", base, i))...)
		}
	}

	return areas, errors.Join(errs...)
}

// featureAreas converts one feature into areas, numbering MultiPolygon parts.
func featureAreas(f *geojson.Feature, fallbackID string) []Area {
	id := stringProp(f.Properties, "id", fallbackID)
	name := stringProp(f.Properties, "name", id)
	floor := stringProp(f.Properties, "floor", "")

	switch geom := f.Geometry.(type) {
	case orb.Polygon:
		if len(geom) == 0 {
			return nil
		}
		return []Area{{ID: id, Name: name, Floor: floor, Polygon: geom[0]}}
	case orb.MultiPolygon:
		areas := make([]Area, 0, len(geom))
		for i, poly := range geom {
			if len(poly) == 0 {
				continue
			}
			areas = append(areas, Area{
				ID:      fmt.Sprintf("%s-%d", id, i),
				Name:    name,
				Floor:   floor,
				Polygon: poly[0],
			})
		}
		return areas
	}
	return nil
}

func stringProp(props geojson.Properties, key, def string) string {
	if v, ok := props[key].(string); ok && v != "" {
		return v
	}
	return def
}

// WithAreas returns a new snapshot of g with extra areas appended.
func WithAreas(g *Graph, areas []Area) *Graph {
	data := g.Data()
	data.Areas = append(data.Areas, areas...)
	return NewGraph(data)
}
