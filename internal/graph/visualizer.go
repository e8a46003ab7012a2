package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer[K comparable] struct {
	graph *DependencyGraph[K]
	label func(K) string
	color func(*Node[K]) string
}

// NewVisualizer creates a new graph visualizer. label formats a key; color picks
// a DOT fill color for a node and may be nil.
func NewVisualizer[K comparable](graph *DependencyGraph[K], label func(K) string, color func(*Node[K]) string) *Visualizer[K] {
	if label == nil {
		label = func(k K) string { return fmt.Sprint(k) }
	}
	if color == nil {
		color = func(n *Node[K]) string {
			if !n.Declared {
				return "lightgray"
			}
			return "white"
		}
	}

	return &Visualizer[K]{graph: graph, label: label, color: color}
}

// WriteDOT writes the graph in Graphviz DOT format
func (v *Visualizer[K]) WriteDOT(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	nodeIDs := make(map[K]string, len(v.graph.order))
	for i, key := range v.graph.order {
		nodeID := fmt.Sprintf("n%d", i)
		nodeIDs[key] = nodeID

		node := v.graph.nodes[key]
		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q, style=filled];\n",
			nodeID, v.label(key), v.color(node))
	}

	for _, from := range v.graph.order {
		for _, to := range v.graph.nodes[from].Dependencies {
			fmt.Fprintf(&b, "  %s -> %s;\n", nodeIDs[from], nodeIDs[to])
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes a text representation of the graph grouped by depth
func (v *Visualizer[K]) WriteText(w io.Writer) error {
	v.graph.mu.Lock()
	defer v.graph.mu.Unlock()

	v.graph.calculateDepths()

	var b strings.Builder
	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	levels := make(map[int][]*Node[K])
	maxDepth := 0
	var cyclic []*Node[K]
	for _, key := range v.graph.order {
		node := v.graph.nodes[key]
		if node.Depth < 0 {
			cyclic = append(cyclic, node)
			continue
		}
		levels[node.Depth] = append(levels[node.Depth], node)
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	}

	for depth := 0; depth <= maxDepth; depth++ {
		nodes, exists := levels[depth]
		if !exists {
			continue
		}

		fmt.Fprintf(&b, "Level %d:\n", depth)
		b.WriteString("--------\n")
		for _, node := range nodes {
			v.writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	if len(cyclic) > 0 {
		b.WriteString("Nodes in Cycles:\n")
		b.WriteString("----------------\n")
		for _, node := range cyclic {
			v.writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total nodes: %d\n", len(v.graph.nodes))

	_, err := io.WriteString(w, b.String())
	return err
}

// writeNodeDetails writes detailed information about a node
func (v *Visualizer[K]) writeNodeDetails(b *strings.Builder, node *Node[K], indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, v.label(node.Key))

	if !node.Declared {
		fmt.Fprintf(b, "%s  (external)\n", indent)
	}

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, v.join(node.Dependencies))
	}

	if len(node.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, v.join(node.Dependents))
	}
}

func (v *Visualizer[K]) join(keys []K) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = v.label(k)
	}
	return strings.Join(parts, ", ")
}
