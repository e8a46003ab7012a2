package graph

import (
	"fmt"
	"strings"
)

// CycleError reports a cycle in the graph. Path starts and ends with the
// repeated key.
type CycleError[K comparable] struct {
	Path []K
}

func (e *CycleError[K]) Error() string {
	parts := make([]string, len(e.Path))
	for i, k := range e.Path {
		parts[i] = fmt.Sprint(k)
	}
	return "cycle: " + strings.Join(parts, " -> ")
}
