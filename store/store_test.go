package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m4n1nh0/campus-map-app/navgraph"
)

const graphFile = `{
  "nodes": [
    {"id": "A", "name": "Bloco A", "floor": "terreo", "type": "block", "x": 10, "y": 10, "connections": ["B", "D"]},
    {"id": "B", "name": "Bloco B", "floor": "terreo", "type": "block", "connections": ["C"]},
    {"id": "C", "name": "Bloco C", "floor": "terreo", "type": "block"},
    {"id": "D", "name": "Bloco D", "floor": "terreo", "type": "block", "connections": ["C"]}
  ]
}`

const areaFile = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"id": "bloco_a", "floor": "terreo"},
   "geometry": {"type": "Polygon", "coordinates": [[[0,0],[20,0],[20,20],[0,20],[0,0]]]}}
]}`

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "navigation_graph.json")
	require.NoError(t, os.WriteFile(path, []byte(graphFile), 0644))
	areasDir := filepath.Join(dir, "areas")
	require.NoError(t, os.Mkdir(areasDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(areasDir, "terreo.geojson"), []byte(areaFile), 0644))

	g, err := FileSource{Path: path, AreasDir: areasDir}.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	assert.Len(t, g.Areas(), 1)
	assert.Equal(t, navgraph.Path{"A", "B", "C"}, g.FindRoute("A", "C"))
}

func TestFileSource_Errors(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Load(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FileSource{Path: "whatever.json"}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"nodes": []}`), 0644))
	g, err := FileSource{Path: empty}.Load(context.Background())
	assert.ErrorIs(t, err, navgraph.ErrNoGraphData)
	require.NotNil(t, g)
	assert.Zero(t, g.Len())
}

func TestGraphDataFromRows(t *testing.T) {
	floors := []map[string]any{
		{"id": "terreo", "name": "Térreo", "image": "t.png", "level": int64(0)},
	}
	waypoints := []map[string]any{
		{"id": "A", "name": "Bloco A", "floor": "terreo", "category": "room", "x": 10.5, "y": int64(20)},
		{"id": "B", "name": "Escada", "floor": "terreo", "category": "stair", "x": nil, "y": nil},
	}
	connections := []map[string]any{
		{"source": "A", "target": "B"},
		{"source": "B", "target": "A"},
		{"source": "ghost", "target": "A"},
	}

	data := graphDataFromRows(floors, waypoints, connections)

	require.Len(t, data.Floors, 1)
	assert.Equal(t, "Térreo", data.Floors[0].Name)
	require.Len(t, data.Waypoints, 2)
	assert.True(t, data.Waypoints[0].HasCoords)
	assert.Equal(t, 20.0, data.Waypoints[0].Y)
	assert.False(t, data.Waypoints[1].HasCoords)
	assert.Equal(t, navgraph.CategoryStair, data.Waypoints[1].Category)
	assert.Equal(t, []string{"B"}, data.Waypoints[0].Connections)
	assert.Equal(t, []navgraph.Connection{{A: "ghost", B: "A"}}, data.Edges)

	g := navgraph.NewGraph(data)
	assert.Equal(t, 1, g.Stats().Dangling)
}

// Writing rows then reading them back must keep every neighbour list, so the
// tie-break between equal-length routes survives the round trip.
func TestRowsRoundTripPreservesNeighbourOrder(t *testing.T) {
	original := navgraph.NewGraph(navgraph.GraphData{Waypoints: []navgraph.Waypoint{
		{ID: "A", Connections: []string{"B"}},
		{ID: "B", Connections: []string{"C", "A"}},
		{ID: "C", Connections: []string{"D"}},
		{ID: "D", Connections: []string{"A"}},
	}})

	floors, waypoints, connections := rowsFromGraph(original)
	data := graphDataFromRows(toRows(floors), toRows(waypoints), toRows(connections))
	reloaded := navgraph.NewGraph(data)

	for _, w := range original.Waypoints() {
		assert.Equal(t, original.Neighbors(w.ID), reloaded.Neighbors(w.ID), w.ID)
	}
	assert.Equal(t, original.FindRoute("B", "D"), reloaded.FindRoute("B", "D"))
}

func toRows(in []any) []map[string]any {
	rows := make([]map[string]any, 0, len(in))
	for _, r := range in {
		rows = append(rows, r.(map[string]any))
	}
	return rows
}

func TestRouteKey(t *testing.T) {
	assert.Equal(t, `route:v1:"a":"b"`, routeKey("v1", "a", "b"))
	assert.NotEqual(t, routeKey("v1", "a:b", "c"), routeKey("v1", "a", "b:c"))
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "", 0)
	assert.Error(t, err)

	_, err = NewRedisCache(context.Background(), "http://not-redis", 0)
	assert.Error(t, err)
}

func TestAreaSource_MergesAreas(t *testing.T) {
	areasDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(areasDir, "terreo.geojson"), []byte(areaFile), 0644))
	inner := navgraph.NewGraph(navgraph.GraphData{Waypoints: []navgraph.Waypoint{
		{ID: "A", Floor: "terreo", X: 10, Y: 10, HasCoords: true},
	}})

	g, err := AreaSource{Source: staticSource{g: inner}, Dir: areasDir}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, g.Areas(), 1)
	assert.Equal(t, "bloco_a", g.Areas()[0].ID)
	assert.Equal(t, 1, g.Len())

	_, err = AreaSource{Source: staticSource{err: context.Canceled}, Dir: areasDir}.Load(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

type staticSource struct {
	g   *navgraph.Graph
	err error
}

func (s staticSource) Load(ctx context.Context) (*navgraph.Graph, error) {
	return s.g, s.err
}

func TestRowIDs(t *testing.T) {
	g := navgraph.NewGraph(navgraph.GraphData{
		Floors:    []navgraph.Floor{{ID: "terreo"}, {ID: "primeiro_andar"}},
		Waypoints: []navgraph.Waypoint{{ID: "A", Connections: []string{"B"}}, {ID: "B"}},
	})
	floors, waypoints, _ := rowsFromGraph(g)

	assert.Equal(t, []any{"terreo", "primeiro_andar"}, rowIDs(floors))
	assert.Equal(t, []any{"A", "B"}, rowIDs(waypoints))
	assert.Empty(t, rowIDs(nil))
}
