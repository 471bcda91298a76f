package navgraph

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// pointTolerance is the half-size of the box a waypoint occupies in the tree.
const pointTolerance = 1e-6

type waypointEntry struct {
	order    int
	waypoint Waypoint
	bbox     rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *waypointEntry) Bounds() rtreego.Rect {
	return e.bbox
}

type areaEntry struct {
	area Area
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *areaEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// SpatialIndex answers planar queries over waypoints and areas, one R-tree per floor.
type SpatialIndex struct {
	waypoints map[string]*rtreego.Rtree
	areas     map[string]*rtreego.Rtree
}

// NewSpatialIndex indexes every waypoint that carries coordinates and every area
// with a usable polygon.
func NewSpatialIndex(g *Graph) *SpatialIndex {
	si := &SpatialIndex{
		waypoints: make(map[string]*rtreego.Rtree),
		areas:     make(map[string]*rtreego.Rtree),
	}

	for i, w := range g.Waypoints() {
		if !w.HasCoords {
			continue
		}
		tree, ok := si.waypoints[w.Floor]
		if !ok {
			tree = rtreego.NewTree(2, 25, 50)
			si.waypoints[w.Floor] = tree
		}
		tree.Insert(&waypointEntry{
			order:    i,
			waypoint: w,
			bbox:     rtreego.Point{w.X, w.Y}.ToRect(pointTolerance),
		})
	}

	for _, a := range g.Areas() {
		bbox, err := ringBoundingBox(a.Polygon)
		if err != nil {
			continue
		}
		tree, ok := si.areas[a.Floor]
		if !ok {
			tree = rtreego.NewTree(2, 25, 50)
			si.areas[a.Floor] = tree
		}
		tree.Insert(&areaEntry{area: a, bbox: bbox})
	}

	return si
}

// Nearest returns the waypoint on floor closest to (x, y).
func (si *SpatialIndex) Nearest(floor string, x, y float64) (Waypoint, bool) {
	tree, ok := si.waypoints[floor]
	if !ok || tree.Size() == 0 {
		return Waypoint{}, false
	}
	nearest := tree.NearestNeighbor(rtreego.Point{x, y})
	if nearest == nil {
		return Waypoint{}, false
	}
	return nearest.(*waypointEntry).waypoint, true
}

// Within returns the waypoints on floor inside the given box, in declared order.
func (si *SpatialIndex) Within(floor string, minX, minY, maxX, maxY float64) []Waypoint {
	tree, ok := si.waypoints[floor]
	if !ok {
		return []Waypoint{}
	}
	bbox, err := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
	if err != nil {
		return []Waypoint{}
	}

	results := tree.SearchIntersect(bbox)
	entries := make([]*waypointEntry, 0, len(results))
	for _, item := range results {
		entries = append(entries, item.(*waypointEntry))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })

	waypoints := make([]Waypoint, 0, len(entries))
	for _, e := range entries {
		waypoints = append(waypoints, e.waypoint)
	}
	return waypoints
}

// AreasAt returns the areas on floor whose polygon contains (x, y).
func (si *SpatialIndex) AreasAt(floor string, x, y float64) []Area {
	tree, ok := si.areas[floor]
	if !ok {
		return []Area{}
	}
	point := orb.Point{x, y}
	results := tree.SearchIntersect(rtreego.Point{x, y}.ToRect(pointTolerance))

	areas := make([]Area, 0, len(results))
	for _, item := range results {
		entry := item.(*areaEntry)
		if planar.RingContains(entry.area.Polygon, point) {
			areas = append(areas, entry.area)
		}
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].ID < areas[j].ID })
	return areas
}

// ringBoundingBox computes the axis-aligned bounding box of a ring.
func ringBoundingBox(ring orb.Ring) (rtreego.Rect, error) {
	if len(ring) < 3 {
		return rtreego.Rect{}, errDegenerateRing
	}
	b := ring.Bound()
	width := b.Max.X() - b.Min.X()
	height := b.Max.Y() - b.Min.Y()
	if width <= 0 || height <= 0 {
		return rtreego.Rect{}, errDegenerateRing
	}
	return rtreego.NewRect(rtreego.Point{b.Min.X(), b.Min.Y()}, []float64{width, height})
}
