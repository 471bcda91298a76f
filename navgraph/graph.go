package navgraph

import (
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Category classifies a waypoint for presentation and filtering.
type Category string

const (
	CategoryRoom     Category = "room"
	CategoryStair    Category = "stair"
	CategoryEntrance Category = "entrance"
	CategoryOther    Category = "other"
)

// ParseCategory maps the loose type names found in floor-plan data onto a Category.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "room", "block":
		return CategoryRoom
	case "stair", "stairs":
		return CategoryStair
	case "entrance", "entry":
		return CategoryEntrance
	default:
		return CategoryOther
	}
}

// Waypoint is a named point of interest in the navigation graph
type Waypoint struct {
	ID          string
	Name        string
	Floor       string
	Category    Category
	X, Y        float64
	HasCoords   bool
	Connections []string // neighbour IDs in declared order
}

// Point returns the waypoint's planar position on its floor image.
func (w Waypoint) Point() orb.Point {
	return orb.Point{w.X, w.Y}
}

// Connection is an unordered link between two waypoints.
type Connection struct {
	A string
	B string
}

// Floor describes one floor of the building.
type Floor struct {
	ID    string
	Name  string
	Image string
	Level int
}

// Area is a named region on a floor, such as a block or an auditorium.
type Area struct {
	ID      string
	Name    string
	Floor   string
	Polygon orb.Ring
}

// GraphData is the raw feed a Graph is built from.
type GraphData struct {
	Floors    []Floor
	Waypoints []Waypoint
	Edges     []Connection
	Areas     []Area
}

// Stats reports integrity counters gathered while building a Graph.
type Stats struct {
	Waypoints    int `json:"waypoints"`
	Connections  int `json:"connections"`
	Dangling     int `json:"dangling"`
	DuplicateIDs int `json:"duplicateIds"`
}

// Graph is an immutable navigation graph snapshot. It is safe for concurrent reads.
type Graph struct {
	version   string
	waypoints []Waypoint
	index     map[string]int
	adjacency map[string][]string
	edges     []Connection
	floors    []Floor
	areas     []Area
	stats     Stats
}

// NewGraph builds a snapshot from data. Neighbour order is deterministic:
// a waypoint's own connections first, then reverse links in waypoint order,
// then the flat edge list. Duplicate links are dropped; self-loops and links
// to unknown waypoints are dropped and counted in Stats.Dangling.
func NewGraph(data GraphData) *Graph {
	g := &Graph{
		version:   uuid.NewString(),
		waypoints: make([]Waypoint, 0, len(data.Waypoints)),
		index:     make(map[string]int, len(data.Waypoints)),
		adjacency: make(map[string][]string, len(data.Waypoints)),
	}

	for _, w := range data.Waypoints {
		if _, exists := g.index[w.ID]; exists {
			g.stats.DuplicateIDs++
			continue
		}
		g.index[w.ID] = len(g.waypoints)
		g.waypoints = append(g.waypoints, copyWaypoint(w))
	}

	seen := make(map[Connection]bool)
	link := func(a, b string) {
		if a == b {
			g.stats.Dangling++
			return
		}
		if _, ok := g.index[a]; !ok {
			g.stats.Dangling++
			return
		}
		if _, ok := g.index[b]; !ok {
			g.stats.Dangling++
			return
		}
		if seen[Connection{A: a, B: b}] {
			return
		}
		seen[Connection{A: a, B: b}] = true
		g.adjacency[a] = append(g.adjacency[a], b)
		if !seen[Connection{A: b, B: a}] {
			g.stats.Connections++
		}
	}

	// Own connections in declared order.
	for _, w := range g.waypoints {
		for _, to := range w.Connections {
			link(w.ID, to)
		}
	}
	// Reverse links, so a connection declared on one side is walkable both ways.
	for _, w := range g.waypoints {
		for _, to := range w.Connections {
			if _, ok := g.index[to]; ok && to != w.ID {
				link(to, w.ID)
			}
		}
	}
	for _, e := range data.Edges {
		link(e.A, e.B)
		if _, ok := g.index[e.A]; ok && e.A != e.B {
			if _, ok := g.index[e.B]; ok {
				link(e.B, e.A)
			}
		}
	}

	g.floors = buildFloors(data.Floors, g.waypoints)
	g.edges = append([]Connection(nil), data.Edges...)
	g.areas = make([]Area, 0, len(data.Areas))
	for _, a := range data.Areas {
		g.areas = append(g.areas, copyArea(a))
	}
	g.stats.Waypoints = len(g.waypoints)

	return g
}

func copyWaypoint(w Waypoint) Waypoint {
	w.Connections = append([]string(nil), w.Connections...)
	return w
}

func copyArea(a Area) Area {
	a.Polygon = append(orb.Ring(nil), a.Polygon...)
	return a
}

// buildFloors keeps the declared floors, or derives them from waypoint floors in
// first-seen order when none were declared.
func buildFloors(declared []Floor, waypoints []Waypoint) []Floor {
	if len(declared) > 0 {
		return append([]Floor(nil), declared...)
	}
	floors := make([]Floor, 0)
	seen := make(map[string]bool)
	for _, w := range waypoints {
		if w.Floor == "" || seen[w.Floor] {
			continue
		}
		seen[w.Floor] = true
		floors = append(floors, Floor{ID: w.Floor, Name: w.Floor, Level: len(floors)})
	}
	return floors
}

// Version identifies this snapshot.
func (g *Graph) Version() string {
	if g == nil {
		return ""
	}
	return g.version
}

// Len returns the number of waypoints.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.waypoints)
}

// Stats returns the integrity counters collected at build time.
func (g *Graph) Stats() Stats {
	if g == nil {
		return Stats{}
	}
	return g.stats
}

// Waypoint looks up a waypoint by ID.
func (g *Graph) Waypoint(id string) (Waypoint, bool) {
	if g == nil {
		return Waypoint{}, false
	}
	i, ok := g.index[id]
	if !ok {
		return Waypoint{}, false
	}
	return copyWaypoint(g.waypoints[i]), true
}

// Has reports whether id is a known waypoint.
func (g *Graph) Has(id string) bool {
	if g == nil {
		return false
	}
	_, ok := g.index[id]
	return ok
}

// Waypoints returns all waypoints in declared order.
func (g *Graph) Waypoints() []Waypoint {
	if g == nil {
		return nil
	}
	out := make([]Waypoint, 0, len(g.waypoints))
	for _, w := range g.waypoints {
		out = append(out, copyWaypoint(w))
	}
	return out
}

// Neighbors returns the IDs directly connected to id, in traversal order.
func (g *Graph) Neighbors(id string) []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.adjacency[id]...)
}

// Connections returns every connection once, ordered by first appearance.
func (g *Graph) Connections() []Connection {
	if g == nil {
		return nil
	}
	conns := make([]Connection, 0, g.stats.Connections)
	seen := make(map[Connection]bool)
	for _, w := range g.waypoints {
		for _, to := range g.adjacency[w.ID] {
			if seen[Connection{A: to, B: w.ID}] {
				continue
			}
			seen[Connection{A: w.ID, B: to}] = true
			conns = append(conns, Connection{A: w.ID, B: to})
		}
	}
	return conns
}

// Floors returns the building's floors.
func (g *Graph) Floors() []Floor {
	if g == nil {
		return nil
	}
	return append([]Floor(nil), g.floors...)
}

// Floor looks up a floor by ID.
func (g *Graph) Floor(id string) (Floor, bool) {
	if g == nil {
		return Floor{}, false
	}
	for _, f := range g.floors {
		if f.ID == id {
			return f, true
		}
	}
	return Floor{}, false
}

// FloorName returns the display name of a floor, falling back to its ID.
func (g *Graph) FloorName(id string) string {
	if f, ok := g.Floor(id); ok && f.Name != "" {
		return f.Name
	}
	return id
}

// Areas returns the named regions of every floor.
func (g *Graph) Areas() []Area {
	if g == nil {
		return nil
	}
	out := make([]Area, 0, len(g.areas))
	for _, a := range g.areas {
		out = append(out, copyArea(a))
	}
	return out
}

// Data returns a copy of the feed this graph can be rebuilt from.
func (g *Graph) Data() GraphData {
	if g == nil {
		return GraphData{}
	}
	return GraphData{
		Floors:    g.Floors(),
		Waypoints: g.Waypoints(),
		Edges:     append([]Connection(nil), g.edges...),
		Areas:     g.Areas(),
	}
}
