package inject

import (
	"errors"

	"go.uber.org/zap"

	"github.com/junioryono/inject/internal/graph"
)

// verify builds the dependency graph seen from this injector and rejects
// cycles.
//
// Local bindings are nodes, and so is every ancestor binding they reach that
// is not a singleton, because it is built here and sees this injector's keys.
// An ancestor singleton is a leaf: its owner builds it and was verified when it
// was created. An optional dependency bound nowhere in the chain is never
// resolved, so it adds no edge.
func (i *Injector) verify() error {
	g := graph.New[Key]()
	declared := make(map[Key]bool, len(i.order))

	var declare func(key Key)
	declare = func(key Key) {
		if declared[key] {
			return
		}

		b, owner := i.lookup(key)
		if b == nil || (owner != i && b.Singleton()) {
			return
		}
		declared[key] = true

		deps := make([]Key, 0, len(b.Dependencies()))
		for _, dep := range b.Dependencies() {
			if dep.Nullable && !i.Has(dep.Key) {
				continue
			}
			deps = append(deps, dep.Key)
		}

		g.AddNode(key, deps...)
		for _, dep := range deps {
			declare(dep)
		}
	}

	for _, key := range i.order {
		declare(key)
	}

	if err := g.DetectCycles(); err != nil {
		var cycle *graph.CycleError[Key]
		if errors.As(err, &cycle) {
			return CircularDependencyError{Chain: cycle.Path}
		}
		return err
	}

	i.graph = g
	return nil
}

// instantiateSingletons builds every local singleton, dependencies first.
func (i *Injector) instantiateSingletons() error {
	order, err := i.graph.TopologicalSort()
	if err != nil {
		return err
	}

	built := 0
	for _, key := range order {
		b, ok := i.bindings[key]
		if !ok || !b.Singleton() || b.Kind() == KindInstance {
			continue
		}

		if _, err := i.singleton(b); err != nil {
			return err
		}
		built++
	}

	i.logger.Debug("eager singletons built", zap.Int("count", built))
	return nil
}
