package inject

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Kind identifies the strategy a Binding uses to produce its instance.
type Kind int

const (
	// KindInstance bindings hold an already built value.
	KindInstance Kind = iota

	// KindProvider bindings call a factory function.
	KindProvider

	// KindConstructor bindings call a selected constructor of an implementation type.
	KindConstructor
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindInstance:
		return "Instance"
	case KindProvider:
		return "Provider"
	case KindConstructor:
		return "Constructor"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Binding is a strategy for producing the instance of one Key.
//
// Bindings are immutable once constructed. Dependencies returns the same
// pointers on every call; the injector resolves each of them into a
// Resolution and passes it to BuildInstance.
type Binding interface {
	Key() Key
	Kind() Kind

	// Singleton reports whether the owning injector caches the instance.
	Singleton() bool

	Dependencies() []*Dependency

	// BuildInstance produces an instance from already resolved dependencies.
	BuildInstance(res *Resolution) (any, error)
}

var (
	_ Binding = (*InstanceBinding)(nil)
	_ Binding = (*ProviderBinding)(nil)
	_ Binding = (*ConstructorBinding)(nil)
)

// ========================================
// Instance
// ========================================

// InstanceBinding wraps an existing value. It has no dependencies and is
// always a singleton.
type InstanceBinding struct {
	key   Key
	value any
}

// NewInstanceBinding binds key to value.
func NewInstanceBinding(key Key, value any) (*InstanceBinding, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	if value != nil && !reflect.TypeOf(value).AssignableTo(key.Type) {
		return nil, TypeMismatchError{
			Expected: key.Type,
			Actual:   reflect.TypeOf(value),
			Context:  "instance binding",
		}
	}

	return &InstanceBinding{key: key, value: value}, nil
}

func (b *InstanceBinding) Key() Key { return b.key }
func (b *InstanceBinding) Kind() Kind { return KindInstance }
func (b *InstanceBinding) Singleton() bool { return true }
func (b *InstanceBinding) Dependencies() []*Dependency { return nil }
func (b *InstanceBinding) BuildInstance(*Resolution) (any, error) { return b.value, nil }

// Value returns the bound value.
func (b *InstanceBinding) Value() any {
	return b.value
}

// ========================================
// Provider
// ========================================

// ProviderBinding builds its instance by calling a factory with the resolved
// dependencies.
type ProviderBinding struct {
	key       Key
	singleton bool
	deps      []*Dependency
	invoke    func(Args) (any, error)
	getter    bool
}

// NewProviderBinding binds key to a factory. deps must match the arguments
// invoke reads, in order. The binding is transient unless Singleton() is passed.
//
// Example:
//
//	b, err := inject.NewProviderBinding(inject.KeyOf[*Service](),
//	    []inject.Dependency{inject.Arg(0, inject.KeyOf[*sql.DB]())},
//	    func(args inject.Args) (any, error) {
//	        db, _ := inject.ArgAt[*sql.DB](args, 0)
//	        return NewService(db), nil
//	    },
//	    inject.Singleton(),
//	)
func NewProviderBinding(key Key, deps []Dependency, invoke func(Args) (any, error), opts ...BindingOption) (*ProviderBinding, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	if invoke == nil {
		return nil, BindingError{Key: key, Cause: ErrProviderNil}
	}

	dependencies, err := newDependencies(deps)
	if err != nil {
		return nil, BindingError{Key: key, Cause: err}
	}

	options := newBindingOptions(opts)

	return &ProviderBinding{
		key:       key,
		singleton: options.singleton,
		deps:      dependencies,
		invoke:    invoke,
	}, nil
}

// NewGetterBinding binds key to a getter with no dependencies. The getter is
// called on every build, so pass Singleton() to read it once.
func NewGetterBinding(key Key, get func() any, opts ...BindingOption) (*ProviderBinding, error) {
	if get == nil {
		return nil, BindingError{Key: key, Cause: ErrProviderNil}
	}

	b, err := NewProviderBinding(key, nil, func(Args) (any, error) { return get(), nil }, opts...)
	if err != nil {
		return nil, err
	}

	b.getter = true
	return b, nil
}

func (b *ProviderBinding) Key() Key { return b.key }
func (b *ProviderBinding) Kind() Kind { return KindProvider }
func (b *ProviderBinding) Singleton() bool { return b.singleton }
func (b *ProviderBinding) Dependencies() []*Dependency { return b.deps }

// IsGetter reports whether the binding was created by NewGetterBinding.
func (b *ProviderBinding) IsGetter() bool {
	return b.getter
}

// BuildInstance assembles the arguments from res and calls the factory.
// A missing required dependency fails with MissingDependencyError; a missing
// optional one is left out of the arguments.
func (b *ProviderBinding) BuildInstance(res *Resolution) (any, error) {
	args, err := assembleArgs(b.key, b.deps, res)
	if err != nil {
		return nil, err
	}

	return call(b.key, b.invoke, args)
}

// call invokes fn, converting panics to ConstructorPanicError.
func call(key Key, fn func(Args) (any, error), args Args) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = ConstructorPanicError{Key: key, Panic: r, Stack: debug.Stack()}
		}
	}()

	instance, err = fn(args)
	if err != nil {
		return nil, ConstructorInvocationError{Key: key, Cause: err}
	}

	return instance, nil
}

// ========================================
// Constructor
// ========================================

// Constructor is one constructor signature of an implementation type.
type Constructor struct {
	// Name is used in diagnostics.
	Name string

	// Inject designates this constructor explicitly.
	Inject bool

	Dependencies []Dependency
	Construct    func(Args) (any, error)
}

// requiredPositional counts positional parameters that must be supplied.
func (c Constructor) requiredPositional() int {
	n := 0
	for _, dep := range c.Dependencies {
		if dep.Positional && !dep.Nullable {
			n++
		}
	}
	return n
}

// ConstructorBinding is a ProviderBinding whose factory is one constructor
// chosen from the implementation type's constructors when the binding is
// created:
//
//  1. the constructor marked Inject;
//  2. otherwise the only constructor;
//  3. otherwise the only constructor without required positional parameters.
//
// Anything else fails with AmbiguousConstructorError.
type ConstructorBinding struct {
	ProviderBinding

	constructors []Constructor
	selected     int
}

// NewConstructorBinding selects a constructor for key from ctors.
func NewConstructorBinding(key Key, ctors []Constructor, opts ...BindingOption) (*ConstructorBinding, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	for _, ctor := range ctors {
		if ctor.Construct == nil {
			return nil, BindingError{Key: key, Cause: fmt.Errorf("constructor %q: %w", ctor.Name, ErrProviderNil)}
		}
	}

	selected, err := selectConstructor(key, ctors)
	if err != nil {
		return nil, err
	}

	ctor := ctors[selected]
	dependencies, err := newDependencies(ctor.Dependencies)
	if err != nil {
		return nil, BindingError{Key: key, Cause: fmt.Errorf("constructor %q: %w", ctor.Name, err)}
	}

	options := newBindingOptions(opts)

	return &ConstructorBinding{
		ProviderBinding: ProviderBinding{
			key:       key,
			singleton: options.singleton,
			deps:      dependencies,
			invoke:    ctor.Construct,
		},
		constructors: append([]Constructor(nil), ctors...),
		selected:     selected,
	}, nil
}

func (b *ConstructorBinding) Kind() Kind { return KindConstructor }

// Constructor returns the selected constructor.
func (b *ConstructorBinding) Constructor() Constructor {
	return b.constructors[b.selected]
}

func selectConstructor(key Key, ctors []Constructor) (int, error) {
	if len(ctors) == 0 {
		return -1, AmbiguousConstructorError{Key: key, Reason: "no constructors declared"}
	}

	marked := -1
	for i, ctor := range ctors {
		if !ctor.Inject {
			continue
		}
		if marked >= 0 {
			return -1, AmbiguousConstructorError{
				Key:        key,
				Candidates: constructorNames(ctors),
				Reason:     "more than one constructor is marked for injection",
			}
		}
		marked = i
	}

	if marked >= 0 {
		return marked, nil
	}

	if len(ctors) == 1 {
		return 0, nil
	}

	noArg := -1
	for i, ctor := range ctors {
		if ctor.requiredPositional() != 0 {
			continue
		}
		if noArg >= 0 {
			return -1, AmbiguousConstructorError{
				Key:        key,
				Candidates: constructorNames(ctors),
				Reason:     "more than one constructor has no required positional parameters",
			}
		}
		noArg = i
	}

	if noArg < 0 {
		return -1, AmbiguousConstructorError{
			Key:        key,
			Candidates: constructorNames(ctors),
			Reason:     "no constructor is marked for injection or callable without arguments",
		}
	}

	return noArg, nil
}

func constructorNames(ctors []Constructor) []string {
	names := make([]string, len(ctors))
	for i, ctor := range ctors {
		names[i] = ctor.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("#%d", i)
		}
	}
	return names
}
