package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/m4n1nh0/campus-map-app/navgraph"
)

const (
	floorsQuery = `
		MATCH (f:Floor)
		RETURN f.id AS id, f.name AS name, f.image AS image, f.level AS level
		ORDER BY f.level, f.id
	`
	waypointsQuery = `
		MATCH (w:Waypoint)
		RETURN w.id AS id, w.name AS name, w.floor AS floor, w.category AS category, w.x AS x, w.y AS y
		ORDER BY w.seq, w.id
	`
	connectionsQuery = `
		MATCH (a:Waypoint)-[c:CONNECTS]->(b:Waypoint)
		RETURN a.id AS source, b.id AS target
		ORDER BY a.seq, c.seq
	`

	mergeFloorsQuery = `
		UNWIND $rows AS row
		MERGE (f:Floor {id: row.id})
		SET f.name = row.name, f.image = row.image, f.level = row.level
	`
	mergeWaypointsQuery = `
		UNWIND $rows AS row
		MERGE (w:Waypoint {id: row.id})
		SET w.name = row.name, w.floor = row.floor, w.category = row.category,
			w.x = row.x, w.y = row.y, w.seq = row.seq
	`
	dropStaleWaypointsQuery = `
		MATCH (w:Waypoint)
		WHERE NOT w.id IN $ids
		DETACH DELETE w
	`
	dropStaleFloorsQuery = `
		MATCH (f:Floor)
		WHERE NOT f.id IN $ids
		DETACH DELETE f
	`
	dropConnectionsQuery = `
		MATCH (:Waypoint)-[c:CONNECTS]->(:Waypoint)
		DELETE c
	`
	createConnectionsQuery = `
		UNWIND $rows AS row
		MATCH (a:Waypoint {id: row.source})
		MATCH (b:Waypoint {id: row.target})
		CREATE (a)-[:CONNECTS {seq: row.seq}]->(b)
	`
)

// Neo4jSource loads and stores navigation graphs in Neo4j as
// (:Floor), (:Waypoint) and ordered (:Waypoint)-[:CONNECTS]->(:Waypoint).
type Neo4jSource struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewNeo4jSource creates a driver for uri. No connection is made until the
// first Load, Import or VerifyConnectivity, so a database that is down at
// startup can still be loaded from later.
func NewNeo4jSource(uri, username, password, dbName string) (*Neo4jSource, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return &Neo4jSource{driver: driver, dbName: dbName}, nil
}

// VerifyConnectivity checks that the database answers within 5 seconds.
func (s *Neo4jSource) VerifyConnectivity(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to connect to neo4j: %w", err)
	}
	return nil
}

// Close releases the driver.
func (s *Neo4jSource) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Load implements Source.
func (s *Neo4jSource) Load(ctx context.Context) (*navgraph.Graph, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.dbName,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		floors, err := collectRows(ctx, tx, floorsQuery)
		if err != nil {
			return nil, err
		}
		waypoints, err := collectRows(ctx, tx, waypointsQuery)
		if err != nil {
			return nil, err
		}
		connections, err := collectRows(ctx, tx, connectionsQuery)
		if err != nil {
			return nil, err
		}
		return graphDataFromRows(floors, waypoints, connections), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read graph from neo4j: %w", err)
	}

	g := navgraph.NewGraph(result.(navgraph.GraphData))
	if g.Len() == 0 {
		return g, navgraph.ErrNoGraphData
	}
	return g, nil
}

// Import replaces the stored graph with g: waypoints and floors missing from g
// are deleted along with every connection. Every waypoint's neighbours are
// written in traversal order so a later Load routes identically. Areas are not
// stored.
func (s *Neo4jSource) Import(ctx context.Context, g *navgraph.Graph) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.dbName})
	defer session.Close(ctx)

	floors, waypoints, connections := rowsFromGraph(g)
	floorIDs, waypointIDs := rowIDs(floors), rowIDs(waypoints)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, dropStaleWaypointsQuery, map[string]any{"ids": waypointIDs}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, dropStaleFloorsQuery, map[string]any{"ids": floorIDs}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, mergeFloorsQuery, map[string]any{"rows": floors}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, mergeWaypointsQuery, map[string]any{"rows": waypoints}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, dropConnectionsQuery, nil); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, createConnectionsQuery, map[string]any{"rows": connections}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to import graph into neo4j: %w", err)
	}
	return nil
}

func collectRows(ctx context.Context, tx neo4j.ManagedTransaction, query string) ([]map[string]any, error) {
	res, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = record.Values[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// graphDataFromRows assembles a feed from query rows. Connection rows become
// the source waypoint's own neighbour list, in row order.
func graphDataFromRows(floors, waypoints, connections []map[string]any) navgraph.GraphData {
	data := navgraph.GraphData{
		Floors:    make([]navgraph.Floor, 0, len(floors)),
		Waypoints: make([]navgraph.Waypoint, 0, len(waypoints)),
	}

	for _, row := range floors {
		data.Floors = append(data.Floors, navgraph.Floor{
			ID:    asString(row["id"]),
			Name:  asString(row["name"]),
			Image: asString(row["image"]),
			Level: int(asInt(row["level"])),
		})
	}

	index := make(map[string]int, len(waypoints))
	for _, row := range waypoints {
		w := navgraph.Waypoint{
			ID:       asString(row["id"]),
			Name:     asString(row["name"]),
			Floor:    asString(row["floor"]),
			Category: navgraph.ParseCategory(asString(row["category"])),
		}
		x, okX := asFloat(row["x"])
		y, okY := asFloat(row["y"])
		if okX && okY {
			w.X, w.Y, w.HasCoords = x, y, true
		}
		if _, dup := index[w.ID]; !dup {
			index[w.ID] = len(data.Waypoints)
		}
		data.Waypoints = append(data.Waypoints, w)
	}

	for _, row := range connections {
		source, target := asString(row["source"]), asString(row["target"])
		i, ok := index[source]
		if !ok {
			data.Edges = append(data.Edges, navgraph.Connection{A: source, B: target})
			continue
		}
		data.Waypoints[i].Connections = append(data.Waypoints[i].Connections, target)
	}

	return data
}

// rowsFromGraph flattens g into UNWIND parameter rows.
func rowsFromGraph(g *navgraph.Graph) (floors, waypoints, connections []any) {
	for _, f := range g.Floors() {
		floors = append(floors, map[string]any{
			"id":    f.ID,
			"name":  f.Name,
			"image": f.Image,
			"level": int64(f.Level),
		})
	}

	for seq, w := range g.Waypoints() {
		row := map[string]any{
			"id":       w.ID,
			"name":     w.Name,
			"floor":    w.Floor,
			"category": string(w.Category),
			"x":        nil,
			"y":        nil,
			"seq":      int64(seq),
		}
		if w.HasCoords {
			row["x"], row["y"] = w.X, w.Y
		}
		waypoints = append(waypoints, row)

		for i, to := range g.Neighbors(w.ID) {
			connections = append(connections, map[string]any{
				"source": w.ID,
				"target": to,
				"seq":    int64(i),
			})
		}
	}
	return floors, waypoints, connections
}

func rowIDs(rows []any) []any {
	ids := make([]any, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.(map[string]any)["id"])
	}
	return ids
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}
