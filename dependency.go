package inject

import (
	"fmt"
	"sort"
)

// Dependency describes one input of a binding's provider or constructor.
//
// Positional dependencies are passed in Position order; named dependencies are
// passed by Name. A Nullable dependency whose key is bound nowhere in the
// injector chain is omitted instead of failing resolution.
type Dependency struct {
	// Name is used for named arguments and diagnostics.
	Name string

	Key Key

	Nullable bool

	Positional bool

	// Position is only meaningful when Positional is true.
	Position int
}

// Arg declares the positional dependency at position.
func Arg(position int, key Key) Dependency {
	return Dependency{
		Name:       fmt.Sprintf("arg%d", position),
		Key:        key,
		Positional: true,
		Position:   position,
	}
}

// NamedArg declares a dependency passed by name.
func NamedArg(name string, key Key) Dependency {
	return Dependency{
		Name: name,
		Key:  key,
	}
}

// Optional returns a nullable copy of d.
func (d Dependency) Optional() Dependency {
	d.Nullable = true
	return d
}

func (d Dependency) String() string {
	s := d.Name + " " + d.Key.String()
	if d.Positional {
		s = fmt.Sprintf("#%d %s", d.Position, s)
	}
	if d.Nullable {
		s += " (optional)"
	}
	return s
}

// Args are the assembled arguments handed to a provider or constructor.
// Positional holds only the positional values actually passed; an omitted
// optional argument shrinks the list. Named never contains omitted names.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Len returns the number of positional arguments.
func (a Args) Len() int {
	return len(a.Positional)
}

// At returns the positional argument i, or nil when fewer were passed.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i]
}

// Lookup returns the named argument and whether it was passed.
func (a Args) Lookup(name string) (any, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// ArgAt returns positional argument i as T. ok is false when the argument was
// not passed or has a different type.
func ArgAt[T any](args Args, i int) (value T, ok bool) {
	value, ok = args.At(i).(T)
	return value, ok
}

// NamedAs returns the named argument as T. ok is false when the argument was
// not passed or has a different type.
func NamedAs[T any](args Args, name string) (value T, ok bool) {
	raw, found := args.Lookup(name)
	if !found {
		return value, false
	}
	value, ok = raw.(T)
	return value, ok
}

// newDependencies copies deps into stable pointers and checks that positions
// are unique and contiguous from 0 and that names are unique.
func newDependencies(deps []Dependency) ([]*Dependency, error) {
	out := make([]*Dependency, len(deps))
	positions := make(map[int]bool)
	names := make(map[string]bool)

	for i := range deps {
		dep := deps[i]
		if err := dep.Key.validate(); err != nil {
			return nil, InvalidDependencyError{Dependency: dep, Cause: err}
		}

		if dep.Positional {
			if dep.Position < 0 || positions[dep.Position] {
				return nil, InvalidDependencyError{Dependency: dep, Cause: ErrPositionConflict}
			}
			positions[dep.Position] = true
		} else {
			if dep.Name == "" || names[dep.Name] {
				return nil, InvalidDependencyError{Dependency: dep, Cause: ErrNameConflict}
			}
			names[dep.Name] = true
		}

		out[i] = &dep
	}

	for p := 0; p < len(positions); p++ {
		if !positions[p] {
			return nil, InvalidDependencyError{
				Dependency: Dependency{Positional: true, Position: p},
				Cause:      ErrPositionGap,
			}
		}
	}

	return out, nil
}

// assembleArgs builds the argument list for deps from res.
func assembleArgs(key Key, deps []*Dependency, res *Resolution) (Args, error) {
	positional := make([]*Dependency, 0, len(deps))
	args := Args{Named: make(map[string]any)}

	for _, dep := range deps {
		if dep.Positional {
			positional = append(positional, dep)
			continue
		}

		value, ok := res.Lookup(dep)
		if !ok {
			if dep.Nullable {
				continue
			}
			return Args{}, MissingDependencyError{Key: key, Dependency: *dep}
		}
		args.Named[dep.Name] = value
	}

	sort.Slice(positional, func(i, j int) bool {
		return positional[i].Position < positional[j].Position
	})

	args.Positional = make([]any, 0, len(positional))
	for _, dep := range positional {
		value, ok := res.Lookup(dep)
		if !ok {
			if dep.Nullable {
				continue
			}
			return Args{}, MissingDependencyError{Key: key, Dependency: *dep}
		}
		args.Positional = append(args.Positional, value)
	}

	return args, nil
}
