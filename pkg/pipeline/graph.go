package pipeline

import (
	"fmt"

	"github.com/aic-platform/orchestrator/pkg/models"
)

// ExecutionOrder computes a topological order of the pipeline graph with
// Kahn's algorithm. The ready queue is seeded in node declaration order and
// consumed FIFO, so independent nodes keep their authored position.
func ExecutionOrder(graph models.Graph) ([]string, error) {
	known := make(map[string]bool, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if node.ID == "" {
			return nil, fmt.Errorf("%w: node with empty id", ErrPipelineMalformed)
		}
		if known[node.ID] {
			return nil, fmt.Errorf("%w: duplicate node id %q", ErrPipelineMalformed, node.ID)
		}
		known[node.ID] = true
	}

	dependents := make(map[string][]string, len(graph.Nodes))
	inDegree := make(map[string]int, len(graph.Nodes))
	for _, node := range graph.Nodes {
		inDegree[node.ID] = 0
	}
	for _, edge := range graph.Edges {
		if !known[edge.From] {
			return nil, fmt.Errorf("%w: edge references unknown node %q", ErrPipelineMalformed, edge.From)
		}
		if !known[edge.To] {
			return nil, fmt.Errorf("%w: edge references unknown node %q", ErrPipelineMalformed, edge.To)
		}
		dependents[edge.From] = append(dependents[edge.From], edge.To)
		inDegree[edge.To]++
	}

	queue := make([]string, 0, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	order := make([]string, 0, len(graph.Nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(graph.Nodes) {
		var stuck []string
		for _, node := range graph.Nodes {
			if inDegree[node.ID] > 0 {
				stuck = append(stuck, node.ID)
			}
		}
		return nil, fmt.Errorf("%w involving: %v", ErrPipelineCyclic, stuck)
	}
	return order, nil
}
