package inject

// Resolution maps each dependency of one binding to its resolved instance.
// It is keyed by the *Dependency returned from Binding.Dependencies, so two
// dependencies on the same key resolve independently.
//
// A Resolution is created for a single build and is not safe for concurrent use.
type Resolution struct {
	values map[*Dependency]any
}

// NewResolution returns an empty Resolution.
func NewResolution() *Resolution {
	return &Resolution{values: make(map[*Dependency]any)}
}

// Set records the instance resolved for dep.
func (r *Resolution) Set(dep *Dependency, value any) {
	r.values[dep] = value
}

// Lookup returns the instance resolved for dep.
func (r *Resolution) Lookup(dep *Dependency) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[dep]
	return v, ok
}

// Len returns the number of resolved dependencies.
func (r *Resolution) Len() int {
	if r == nil {
		return 0
	}
	return len(r.values)
}
