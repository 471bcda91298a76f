package main

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/m4n1nh0/campus-map-app/logger"
	"github.com/m4n1nh0/campus-map-app/navgraph"
)

// mcpServer exposes route queries as MCP tools over the same graph snapshot
// the HTTP server uses.
type mcpServer struct {
	mcpServer *mcp.Server
	routes    *server
}

func newMCPServer(cfg MCPConfig, routes *server) *mcpServer {
	impl := &mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}
	s := &mcpServer{
		mcpServer: mcp.NewServer(impl, nil),
		routes:    routes,
	}
	s.registerTools()
	return s
}

// FindRouteArgs defines the input for the find_route tool.
type FindRouteArgs struct {
	Start string `json:"start" jsonschema:"identifier of the starting waypoint"`
	End   string `json:"end" jsonschema:"identifier of the destination waypoint"`
}

// FindRouteResult defines the output for the find_route tool.
type FindRouteResult struct {
	Found        bool            `json:"found" jsonschema:"whether a route exists"`
	Message      string          `json:"message,omitempty" jsonschema:"why no route was returned"`
	Path         []string        `json:"path" jsonschema:"waypoint identifiers from start to end"`
	Hops         int             `json:"hops" jsonschema:"number of connections traversed"`
	Steps        []navgraph.Step `json:"steps" jsonschema:"labelled steps of the route"`
	GraphVersion string          `json:"graph_version" jsonschema:"version of the graph that answered"`
}

// ListWaypointsArgs defines the input for the list_waypoints tool.
type ListWaypointsArgs struct {
	Floor string `json:"floor,omitempty" jsonschema:"optional floor identifier filter"`
}

// ListWaypointsResult defines the output for the list_waypoints tool.
type ListWaypointsResult struct {
	Waypoints []navgraph.Option `json:"waypoints" jsonschema:"selectable waypoints"`
}

// NearestWaypointArgs defines the input for the nearest_waypoint tool.
type NearestWaypointArgs struct {
	Floor string  `json:"floor" jsonschema:"floor identifier"`
	X     float64 `json:"x" jsonschema:"x coordinate on the floor image"`
	Y     float64 `json:"y" jsonschema:"y coordinate on the floor image"`
}

// NearestWaypointResult defines the output for the nearest_waypoint tool.
type NearestWaypointResult struct {
	Found    bool     `json:"found"`
	ID       string   `json:"id,omitempty"`
	Label    string   `json:"label,omitempty"`
	Category string   `json:"category,omitempty"`
	Areas    []string `json:"areas,omitempty"`
}

func (s *mcpServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_route",
		Description: "Find the route with the fewest hops between two campus waypoints. Returns the ordered waypoint identifiers and a labelled step for each, including floor changes.",
	}, s.handleFindRoute)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_waypoints",
		Description: "List selectable campus waypoints (rooms, stairs, entrances) with their display labels, optionally for a single floor.",
	}, s.handleListWaypoints)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "nearest_waypoint",
		Description: "Find the waypoint closest to a point on a floor image and the campus areas containing it.",
	}, s.handleNearestWaypoint)
}

func (s *mcpServer) handleFindRoute(ctx context.Context, _ *mcp.CallToolRequest, args FindRouteArgs) (*mcp.CallToolResult, FindRouteResult, error) {
	snap, path, _ := s.routes.findRoute(ctx, args.Start, args.End)
	g := snap.graph

	var message string
	switch {
	case !g.Has(args.Start):
		message = "unknown waypoint: " + args.Start
	case !g.Has(args.End):
		message = "unknown waypoint: " + args.End
	case path.Empty():
		message = "no route found"
	}

	logger.Debug().
		Str("start", args.Start).
		Str("end", args.End).
		Int("hops", path.Hops()).
		Msg("MCP route request")

	return nil, FindRouteResult{
		Found:        !path.Empty(),
		Message:      message,
		Path:         path,
		Hops:         path.Hops(),
		Steps:        navgraph.Describe(g, path),
		GraphVersion: g.Version(),
	}, nil
}

func (s *mcpServer) handleListWaypoints(ctx context.Context, _ *mcp.CallToolRequest, args ListWaypointsArgs) (*mcp.CallToolResult, ListWaypointsResult, error) {
	return nil, ListWaypointsResult{
		Waypoints: navgraph.Options(s.routes.current().graph, args.Floor),
	}, nil
}

func (s *mcpServer) handleNearestWaypoint(ctx context.Context, _ *mcp.CallToolRequest, args NearestWaypointArgs) (*mcp.CallToolResult, NearestWaypointResult, error) {
	if args.Floor == "" {
		return nil, NearestWaypointResult{}, fmt.Errorf("floor is required")
	}

	snap := s.routes.current()
	wp, ok := snap.index.Nearest(args.Floor, args.X, args.Y)
	if !ok {
		return nil, NearestWaypointResult{}, nil
	}

	return nil, NearestWaypointResult{
		Found:    true,
		ID:       wp.ID,
		Label:    wp.Name + " (" + snap.graph.FloorName(wp.Floor) + ")",
		Category: string(wp.Category),
		Areas:    areaNames(snap.index.AreasAt(wp.Floor, wp.X, wp.Y)),
	}, nil
}

// Start runs the MCP server on stdio until ctx is done or the client disconnects.
func (s *mcpServer) Start(ctx context.Context) error {
	logger.Info().Msg("Starting campus map MCP server on stdio")
	transport := &mcp.StdioTransport{}
	return s.mcpServer.Run(ctx, transport)
}
