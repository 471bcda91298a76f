package navgraph

// Highlighter is the rendering side of a route: it is cleared, then told about
// every waypoint on the route in order.
type Highlighter interface {
	Clear()
	Highlight(w Waypoint)
}

// HighlightRoute clears h and highlights each waypoint of path. IDs not in g
// are skipped.
func HighlightRoute(g *Graph, path Path, h Highlighter) {
	h.Clear()
	for _, id := range path {
		if w, ok := g.Waypoint(id); ok {
			h.Highlight(w)
		}
	}
}

// Option is one entry of a start/destination picker.
type Option struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Floor    string   `json:"floor"`
	Category Category `json:"category"`
}

// Options lists picker entries in declared order. A non-empty floor restricts
// the list to that floor.
func Options(g *Graph, floor string) []Option {
	opts := make([]Option, 0, g.Len())
	for _, w := range g.Waypoints() {
		if floor != "" && w.Floor != floor {
			continue
		}
		opts = append(opts, Option{
			ID:       w.ID,
			Label:    label(w.Name, g.FloorName(w.Floor)),
			Floor:    w.Floor,
			Category: w.Category,
		})
	}
	return opts
}
