package navgraph

import (
	"github.com/paulmach/orb/planar"
)

// Path is an ordered sequence of waypoint IDs from start to end. An empty Path
// means no route exists.
type Path []string

// Len returns the number of waypoints in the path.
func (p Path) Len() int { return len(p) }

// Hops returns the number of connections walked.
func (p Path) Hops() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Empty reports whether the path denotes "no route".
func (p Path) Empty() bool { return len(p) == 0 }

// RouteFinder answers shortest-path queries between two waypoint IDs.
type RouteFinder interface {
	FindRoute(startID, endID string) Path
}

// Finder is a RouteFinder bound to one graph snapshot.
type Finder struct {
	Graph *Graph
}

// NewFinder returns a Finder over g.
func NewFinder(g *Graph) Finder {
	return Finder{Graph: g}
}

// FindRoute implements RouteFinder.
func (f Finder) FindRoute(startID, endID string) Path {
	return FindRoute(f.Graph, startID, endID)
}

// FindRoute is the method form of the package-level FindRoute.
func (g *Graph) FindRoute(startID, endID string) Path {
	return FindRoute(g, startID, endID)
}

// FindRoute computes the fewest-hops path from startID to endID with a
// breadth-first search. Neighbours are visited in the graph's stored order, so
// among equal-length paths the first one discovered is always returned.
// Unknown IDs, a nil or empty graph, and unreachable pairs yield an empty Path.
func FindRoute(g *Graph, startID, endID string) Path {
	if g == nil || !g.Has(startID) || !g.Has(endID) {
		return Path{}
	}
	if startID == endID {
		return Path{startID}
	}

	parent := map[string]string{}
	visited := map[string]bool{startID: true}
	queue := []string{startID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == endID {
			return reconstruct(parent, startID, endID)
		}

		for _, neighbor := range g.adjacency[current] {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			parent[neighbor] = current
			queue = append(queue, neighbor)
		}
	}

	return Path{}
}

// reconstruct walks predecessor links back from end and reverses them.
func reconstruct(parent map[string]string, start, end string) Path {
	path := Path{end}
	for node := end; node != start; {
		node = parent[node]
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Step is one entry of a human-readable route description.
type Step struct {
	Index       int      `json:"index"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Floor       string   `json:"floor"`
	FloorName   string   `json:"floorName"`
	Category    Category `json:"category"`
	Label       string   `json:"label"`
	FloorChange bool     `json:"floorChange"`
}

// Describe turns a path into labelled steps. IDs not in g are skipped.
func Describe(g *Graph, path Path) []Step {
	steps := make([]Step, 0, len(path))
	prevFloor := ""
	for _, id := range path {
		w, ok := g.Waypoint(id)
		if !ok {
			continue
		}
		floorName := g.FloorName(w.Floor)
		steps = append(steps, Step{
			Index:       len(steps),
			ID:          w.ID,
			Name:        w.Name,
			Floor:       w.Floor,
			FloorName:   floorName,
			Category:    w.Category,
			Label:       label(w.Name, floorName),
			FloorChange: len(steps) > 0 && w.Floor != prevFloor,
		})
		prevFloor = w.Floor
	}
	return steps
}

func label(name, floorName string) string {
	return name + " (" + floorName + ")"
}

// PlanarLength sums the straight-line distances between consecutive waypoints
// that share a floor and both carry coordinates. Floor changes add nothing.
func PlanarLength(g *Graph, path Path) float64 {
	var length float64
	for i := 0; i+1 < len(path); i++ {
		a, okA := g.Waypoint(path[i])
		b, okB := g.Waypoint(path[i+1])
		if !okA || !okB || !a.HasCoords || !b.HasCoords || a.Floor != b.Floor {
			continue
		}
		length += planar.Distance(a.Point(), b.Point())
	}
	return length
}
