package inject

import (
	"io"

	"github.com/junioryono/inject/internal/graph"
)

// WriteDOT writes the injector's dependency graph in Graphviz DOT format.
// Keys declared by an ancestor appear grey.
//
//	inj.WriteDOT(os.Stdout) // pipe into `dot -Tsvg`
func (i *Injector) WriteDOT(w io.Writer) error {
	return i.visualizer().WriteDOT(w)
}

// WriteText writes a plain text rendering of the dependency graph, grouped by
// depth.
func (i *Injector) WriteText(w io.Writer) error {
	return i.visualizer().WriteText(w)
}

// DependenciesOf returns the keys key depends on directly, as resolved from
// this injector. It returns nil for keys outside the graph and for ancestor
// singletons, which are built by their owner.
func (i *Injector) DependenciesOf(key Key) []Key {
	if i == nil || !i.graph.HasNode(key) {
		return nil
	}
	return i.graph.GetDependencies(key)
}

// DependentsOf returns the keys that depend directly on key.
func (i *Injector) DependentsOf(key Key) []Key {
	if i == nil || !i.graph.HasNode(key) {
		return nil
	}
	return i.graph.GetDependents(key)
}

// TransitiveDependenciesOf returns every key that resolving key reaches, in
// depth-first order.
func (i *Injector) TransitiveDependenciesOf(key Key) []Key {
	if i == nil || !i.graph.HasNode(key) {
		return nil
	}
	return i.graph.GetTransitiveDependencies(key)
}

func (i *Injector) visualizer() *graph.Visualizer[Key] {
	return graph.NewVisualizer(i.graph, Key.String, i.nodeColor)
}

func (i *Injector) nodeColor(node *graph.Node[Key]) string {
	b, ok := i.bindings[node.Key]
	switch {
	case !ok:
		return "lightgray"
	case b.Kind() == KindInstance:
		return "lightyellow"
	case b.Singleton():
		return "lightblue"
	default:
		return "white"
	}
}
