package navgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
)

// fileGraph is the on-disk navigation graph format.
type fileGraph struct {
	Floors []fileFloor `json:"floors,omitempty"`
	Nodes  []fileNode  `json:"nodes"`
	Edges  []fileEdge  `json:"edges,omitempty"`
	Areas  []fileArea  `json:"areas,omitempty"`
}

type fileFloor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Level int    `json:"level"`
}

type fileNode struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Floor       string   `json:"floor"`
	Type        string   `json:"type"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Connections []string `json:"connections,omitempty"`
}

type fileEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type fileArea struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Floor   string       `json:"floor"`
	Polygon [][2]float64 `json:"polygon"`
}

// Decode reads a navigation graph in the JSON file format. A feed without
// waypoints still yields a usable (empty) graph alongside ErrNoGraphData.
func Decode(r io.Reader) (*Graph, error) {
	var fg fileGraph
	if err := json.NewDecoder(r).Decode(&fg); err != nil {
		return nil, fmt.Errorf("failed to decode navigation graph: %w", err)
	}

	data := GraphData{
		Floors:    make([]Floor, 0, len(fg.Floors)),
		Waypoints: make([]Waypoint, 0, len(fg.Nodes)),
		Edges:     make([]Connection, 0, len(fg.Edges)),
		Areas:     make([]Area, 0, len(fg.Areas)),
	}
	for _, f := range fg.Floors {
		data.Floors = append(data.Floors, Floor{ID: f.ID, Name: f.Name, Image: f.Image, Level: f.Level})
	}
	for _, n := range fg.Nodes {
		w := Waypoint{
			ID:          n.ID,
			Name:        n.Name,
			Floor:       n.Floor,
			Category:    ParseCategory(n.Type),
			Connections: n.Connections,
		}
		if n.X != nil && n.Y != nil {
			w.X, w.Y, w.HasCoords = *n.X, *n.Y, true
		}
		data.Waypoints = append(data.Waypoints, w)
	}
	for _, e := range fg.Edges {
		data.Edges = append(data.Edges, Connection{A: e.Source, B: e.Target})
	}
	for _, a := range fg.Areas {
		area := Area{ID: a.ID, Name: a.Name, Floor: a.Floor}
		for _, p := range a.Polygon {
			area.Polygon = append(area.Polygon, orb.Point{p[0], p[1]})
		}
		data.Areas = append(data.Areas, area)
	}

	g := NewGraph(data)
	if g.Len() == 0 {
		return g, ErrNoGraphData
	}
	return g, nil
}

// Encode writes g in the JSON file format.
func Encode(w io.Writer, g *Graph) error {
	data := g.Data()
	fg := fileGraph{
		Floors: make([]fileFloor, 0, len(data.Floors)),
		Nodes:  make([]fileNode, 0, len(data.Waypoints)),
		Edges:  make([]fileEdge, 0, len(data.Edges)),
		Areas:  make([]fileArea, 0, len(data.Areas)),
	}
	for _, f := range data.Floors {
		fg.Floors = append(fg.Floors, fileFloor{ID: f.ID, Name: f.Name, Image: f.Image, Level: f.Level})
	}
	for _, wp := range data.Waypoints {
		n := fileNode{
			ID:          wp.ID,
			Name:        wp.Name,
			Floor:       wp.Floor,
			Type:        string(wp.Category),
			Connections: wp.Connections,
		}
		if wp.HasCoords {
			x, y := wp.X, wp.Y
			n.X, n.Y = &x, &y
		}
		fg.Nodes = append(fg.Nodes, n)
	}
	for _, e := range data.Edges {
		fg.Edges = append(fg.Edges, fileEdge{Source: e.A, Target: e.B})
	}
	for _, a := range data.Areas {
		fa := fileArea{ID: a.ID, Name: a.Name, Floor: a.Floor, Polygon: make([][2]float64, 0, len(a.Polygon))}
		for _, p := range a.Polygon {
			fa.Polygon = append(fa.Polygon, [2]float64{p[0], p[1]})
		}
		fg.Areas = append(fg.Areas, fa)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fg); err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	return nil
}

// LoadFile reads a navigation graph from a JSON file.
func LoadFile(filename string) (*Graph, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// SaveFile writes g to filename as indented JSON.
func SaveFile(g *Graph, filename string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
