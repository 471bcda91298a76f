package navgraph

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Overlay is a Highlighter that renders the highlighted waypoints as GeoJSON:
// one Point per waypoint with coordinates, one LineString per run of
// consecutive waypoints on the same floor, and the areas they fall in.
type Overlay struct {
	floor string
	index *SpatialIndex

	points []*geojson.Feature
	lines  []*geojson.Feature
	areas  []*geojson.Feature

	run      orb.LineString
	runFloor string
	seenArea map[string]bool
	order    int
}

// NewOverlay returns an Overlay. A non-empty floor keeps only features on that
// floor; index may be nil, in which case areas are not resolved.
func NewOverlay(floor string, index *SpatialIndex) *Overlay {
	o := &Overlay{floor: floor, index: index}
	o.Clear()
	return o
}

// Clear implements Highlighter.
func (o *Overlay) Clear() {
	o.points = nil
	o.lines = nil
	o.areas = nil
	o.run = nil
	o.runFloor = ""
	o.seenArea = make(map[string]bool)
	o.order = 0
}

// Highlight implements Highlighter.
func (o *Overlay) Highlight(w Waypoint) {
	order := o.order
	o.order++

	if !w.HasCoords {
		o.flushRun()
		return
	}
	if w.Floor != o.runFloor {
		o.flushRun()
		o.runFloor = w.Floor
	}
	o.run = append(o.run, w.Point())

	if o.floor != "" && w.Floor != o.floor {
		return
	}

	f := geojson.NewFeature(w.Point())
	f.Properties["id"] = w.ID
	f.Properties["name"] = w.Name
	f.Properties["floor"] = w.Floor
	f.Properties["category"] = string(w.Category)
	f.Properties["order"] = order
	o.points = append(o.points, f)

	if o.index == nil {
		return
	}
	for _, a := range o.index.AreasAt(w.Floor, w.X, w.Y) {
		if o.seenArea[a.ID] {
			continue
		}
		o.seenArea[a.ID] = true
		af := geojson.NewFeature(orb.Polygon{a.Polygon})
		af.Properties["id"] = a.ID
		af.Properties["name"] = a.Name
		af.Properties["floor"] = a.Floor
		af.Properties["kind"] = "area"
		o.areas = append(o.areas, af)
	}
}

func (o *Overlay) flushRun() {
	if len(o.run) >= 2 && (o.floor == "" || o.runFloor == o.floor) {
		f := geojson.NewFeature(o.run)
		f.Properties["floor"] = o.runFloor
		f.Properties["kind"] = "route"
		o.lines = append(o.lines, f)
	}
	o.run = nil
}

// FeatureCollection returns the collected features: areas first, then route
// lines, then waypoint points, so points draw on top.
func (o *Overlay) FeatureCollection() *geojson.FeatureCollection {
	o.flushRun()
	fc := geojson.NewFeatureCollection()
	for _, f := range o.areas {
		fc.Append(f)
	}
	for _, f := range o.lines {
		fc.Append(f)
	}
	for _, f := range o.points {
		fc.Append(f)
	}
	return fc
}

// RouteOverlay highlights path onto a fresh Overlay and returns its features.
func RouteOverlay(g *Graph, path Path, floor string, index *SpatialIndex) *geojson.FeatureCollection {
	o := NewOverlay(floor, index)
	HighlightRoute(g, path, o)
	return o.FeatureCollection()
}

// ConnectionLines returns one LineString per connection whose ends both carry
// coordinates and share a floor. A non-empty floor restricts the output to it.
func ConnectionLines(g *Graph, floor string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range g.Connections() {
		a, _ := g.Waypoint(c.A)
		b, _ := g.Waypoint(c.B)
		if !a.HasCoords || !b.HasCoords || a.Floor != b.Floor {
			continue
		}
		if floor != "" && a.Floor != floor {
			continue
		}
		f := geojson.NewFeature(orb.LineString{a.Point(), b.Point()})
		f.Properties["from"] = a.ID
		f.Properties["to"] = b.ID
		f.Properties["floor"] = a.Floor
		fc.Append(f)
	}
	return fc
}
