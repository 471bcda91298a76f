package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m4n1nh0/campus-map-app/navgraph"
)

func newTestMCPServer(t *testing.T) *mcpServer {
	t.Helper()
	return newMCPServer(DefaultConfig().MCP, newTestServer(t, campus(), nil))
}

func TestHandleFindRoute(t *testing.T) {
	s := newTestMCPServer(t)

	_, result, err := s.handleFindRoute(context.Background(), nil, FindRouteArgs{Start: "A", End: "C"})
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, []string{"A", "B", "C"}, result.Path)
	assert.Equal(t, 2, result.Hops)
	require.Len(t, result.Steps, 3)
	assert.Equal(t, "Sala A (Térreo)", result.Steps[0].Label)
	assert.NotEmpty(t, result.GraphVersion)
}

func TestHandleFindRoute_NoRoute(t *testing.T) {
	s := newTestMCPServer(t)

	_, result, err := s.handleFindRoute(context.Background(), nil, FindRouteArgs{Start: "E", End: "A"})
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Path)
	assert.Equal(t, 0, result.Hops)
	assert.Equal(t, "no route found", result.Message)
}

func TestHandleFindRoute_UnknownWaypoint(t *testing.T) {
	s := newTestMCPServer(t)

	_, result, err := s.handleFindRoute(context.Background(), nil, FindRouteArgs{Start: "A", End: "Z"})
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Path)
	assert.Equal(t, "unknown waypoint: Z", result.Message)

	_, result, err = s.handleFindRoute(context.Background(), nil, FindRouteArgs{Start: "Z", End: "A"})
	require.NoError(t, err)
	assert.Equal(t, "unknown waypoint: Z", result.Message)
}

func TestHandleListWaypoints(t *testing.T) {
	s := newTestMCPServer(t)

	_, all, err := s.handleListWaypoints(context.Background(), nil, ListWaypointsArgs{})
	require.NoError(t, err)
	assert.Len(t, all.Waypoints, 7)

	_, upstairs, err := s.handleListWaypoints(context.Background(), nil, ListWaypointsArgs{Floor: "primeiro_andar"})
	require.NoError(t, err)
	require.Len(t, upstairs.Waypoints, 1)
	assert.Equal(t, navgraph.CategoryRoom, upstairs.Waypoints[0].Category)
}

func TestHandleNearestWaypoint(t *testing.T) {
	s := newTestMCPServer(t)

	_, result, err := s.handleNearestWaypoint(context.Background(), nil, NearestWaypointArgs{Floor: "terreo", X: 19, Y: 11})
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "S", result.ID)
	assert.Equal(t, "Escada (Térreo)", result.Label)
	assert.Equal(t, "stair", result.Category)

	_, result, err = s.handleNearestWaypoint(context.Background(), nil, NearestWaypointArgs{Floor: "terceiro_andar"})
	require.NoError(t, err)
	assert.False(t, result.Found)

	_, _, err = s.handleNearestWaypoint(context.Background(), nil, NearestWaypointArgs{})
	assert.Error(t, err)
}
