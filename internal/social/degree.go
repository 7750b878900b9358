// Package social answers questions about how users are connected through
// shared groups.
package social

import "github.com/mmynk/splitledger/internal/models"

// MaxDegree is the deepest connection DegreeOfConnection looks for.
const MaxDegree = 3

// DegreeOfConnection returns how many hops separate a and b, where two users
// sharing any group are one hop apart. It returns 0 when a and b are the same
// user and -1 when they are not connected within MaxDegree hops.
func DegreeOfConnection(groups []*models.Group, a, b models.UserID) int {
	if a == "" || b == "" {
		return -1
	}
	if a == b {
		return 0
	}

	graph := adjacency(groups)
	visited := map[models.UserID]bool{a: true}
	frontier := []models.UserID{a}

	for depth := 1; depth <= MaxDegree && len(frontier) > 0; depth++ {
		var next []models.UserID
		for _, u := range frontier {
			for v := range graph[u] {
				if visited[v] {
					continue
				}
				if v == b {
					return depth
				}
				visited[v] = true
				next = append(next, v)
			}
		}
		frontier = next
	}
	return -1
}

func adjacency(groups []*models.Group) map[models.UserID]map[models.UserID]struct{} {
	graph := make(map[models.UserID]map[models.UserID]struct{})
	for _, g := range groups {
		for _, u := range g.Members {
			for _, v := range g.Members {
				if u == v {
					continue
				}
				if graph[u] == nil {
					graph[u] = make(map[models.UserID]struct{})
				}
				graph[u][v] = struct{}{}
			}
		}
	}
	return graph
}
