package graph

import (
	"fmt"
	"sync"
)

// DependencyGraph manages the dependency relationships between bindings.
// It provides cycle detection, topological sorting and dependency queries.
//
// Nodes keep their insertion order so every traversal is deterministic.
type DependencyGraph[K comparable] struct {
	mu    sync.RWMutex
	nodes map[K]*Node[K]
	order []K
}

// Node represents a key in the dependency graph
type Node[K comparable] struct {
	Key K

	// Declared is false for nodes that are only referenced as a dependency
	Declared bool

	// Dependency information
	Dependencies []K // keys this node depends on
	Dependents   []K // keys that depend on this node

	Depth int // depth in dependency tree
}

// New creates a new dependency graph
func New[K comparable]() *DependencyGraph[K] {
	return &DependencyGraph[K]{
		nodes: make(map[K]*Node[K]),
	}
}

// AddNode declares key with the given dependencies. Declaring an existing key
// replaces its edges.
func (g *DependencyGraph[K]) AddNode(key K, deps ...K) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.ensure(key)
	node.Declared = true

	// Clear existing edges for this node (in case of replacement)
	for _, old := range node.Dependencies {
		if depNode, ok := g.nodes[old]; ok {
			depNode.Dependents = remove(depNode.Dependents, key)
		}
	}

	node.Dependencies = make([]K, 0, len(deps))
	for _, dep := range deps {
		node.Dependencies = append(node.Dependencies, dep)
		depNode := g.ensure(dep)
		depNode.Dependents = append(depNode.Dependents, key)
	}
}

func (g *DependencyGraph[K]) ensure(key K) *Node[K] {
	node, exists := g.nodes[key]
	if !exists {
		node = &Node[K]{Key: key, Depth: -1}
		g.nodes[key] = node
		g.order = append(g.order, key)
	}

	return node
}

// DetectCycles checks every declared node for a cycle. The returned error is a
// *CycleError whose path starts and ends with the repeated key.
func (g *DependencyGraph[K]) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	done := make(map[K]bool, len(g.nodes))
	for _, key := range g.order {
		if !g.nodes[key].Declared || done[key] {
			continue
		}

		if path := g.walk(key, nil, make(map[K]bool), done); path != nil {
			return &CycleError[K]{Path: path}
		}
	}

	return nil
}

// walk is a depth-first search that keeps the current key stack. Keys in done
// were fully explored earlier and cannot be part of a new cycle.
func (g *DependencyGraph[K]) walk(key K, stack []K, onStack, done map[K]bool) []K {
	if onStack[key] {
		for i, k := range stack {
			if k == key {
				path := make([]K, 0, len(stack)-i+1)
				path = append(path, stack[i:]...)
				return append(path, key)
			}
		}
	}

	if done[key] {
		return nil
	}

	stack = append(stack, key)
	onStack[key] = true

	if node := g.nodes[key]; node != nil {
		for _, dep := range node.Dependencies {
			if path := g.walk(dep, stack, onStack, done); path != nil {
				return path
			}
		}
	}

	delete(onStack, key)
	done[key] = true
	return nil
}

// TopologicalSort returns the declared keys in dependency order (dependencies
// first). Ties keep insertion order.
func (g *DependencyGraph[K]) TopologicalSort() ([]K, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Kahn's algorithm over remaining dependency counts
	remaining := make(map[K]int, len(g.nodes))
	queue := make([]K, 0, len(g.nodes))
	for _, key := range g.order {
		remaining[key] = len(g.nodes[key].Dependencies)
		if remaining[key] == 0 {
			queue = append(queue, key)
		}
	}

	result := make([]K, 0, len(g.nodes))
	processed := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		processed++

		node := g.nodes[current]
		if node.Declared {
			result = append(result, current)
		}

		for _, dependent := range node.Dependents {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if processed != len(g.nodes) {
		return nil, fmt.Errorf("circular dependency detected: graph contains %d nodes but only %d could be sorted",
			len(g.nodes), processed)
	}

	return result, nil
}

// GetDependencies returns the direct dependencies of a key
func (g *DependencyGraph[K]) GetDependencies(key K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, exists := g.nodes[key]; exists {
		return append([]K(nil), node.Dependencies...)
	}

	return nil
}

// GetDependents returns the keys that depend on the given key
func (g *DependencyGraph[K]) GetDependents(key K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, exists := g.nodes[key]; exists {
		return append([]K(nil), node.Dependents...)
	}

	return nil
}

// GetTransitiveDependencies returns all dependencies (direct and indirect)
func (g *DependencyGraph[K]) GetTransitiveDependencies(key K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[K]bool{key: true}
	result := make([]K, 0)

	var collect func(current K)
	collect = func(current K) {
		node, exists := g.nodes[current]
		if !exists {
			return
		}

		for _, dep := range node.Dependencies {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				collect(dep)
			}
		}
	}

	collect(key)
	return result
}

// HasNode checks if a node exists in the graph
func (g *DependencyGraph[K]) HasNode(key K) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[key]
	return exists
}

// calculateDepths assigns depth levels to nodes based on their dependencies.
// Nodes without dependencies have depth 0; nodes on a cycle keep depth -1.
func (g *DependencyGraph[K]) calculateDepths() {
	for _, node := range g.nodes {
		node.Depth = -1
	}

	queue := make([]*Node[K], 0)
	for _, key := range g.order {
		node := g.nodes[key]
		if len(node.Dependencies) == 0 {
			node.Depth = 0
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, depKey := range current.Dependents {
			dep := g.nodes[depKey]
			if dep.Depth < current.Depth+1 && current.Depth+1 <= len(g.nodes) {
				dep.Depth = current.Depth + 1
				queue = append(queue, dep)
			}
		}
	}
}

func remove[K comparable](keys []K, key K) []K {
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
