package inject

import (
	"sync"
)

// Module is a named, ordered set of bindings.
//
// A module is mutable only until an injector consumes it: Rebind may replace
// a declared binding beforehand, after which the module is frozen and Rebind
// returns ErrModuleFrozen. Injectors work from the snapshot taken at that point.
type Module struct {
	name string

	mu       sync.Mutex
	bindings []Binding
	index    map[Key]int
	frozen   bool
}

// Declaration represents a registration action within a module.
type Declaration func(*Module) error

// NewModule creates a module with the given name and declarations.
// Declarations run in order; nil declarations are skipped.
//
// Example:
//
//	var DatabaseModule, _ = inject.NewModule("database",
//	    inject.Instance(inject.KeyOf[string]().Annotated("dsn"), "postgres://"),
//	    inject.ProvideFunc(NewDatabaseConnection, inject.Singleton()),
//	    inject.ProvideFunc(NewUserRepository),
//	)
func NewModule(name string, decls ...Declaration) (*Module, error) {
	m := &Module{
		name:  name,
		index: make(map[Key]int),
	}

	for _, decl := range decls {
		if decl == nil {
			continue
		}

		if err := decl(m); err != nil {
			return nil, ModuleError{Module: name, Cause: err}
		}
	}

	return m, nil
}

// MustModule is like NewModule but panics on a declaration error. It is
// intended for package-level module variables.
func MustModule(name string, decls ...Declaration) *Module {
	m, err := NewModule(name, decls...)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Bindings returns a copy of the module's bindings in declaration order.
func (m *Module) Bindings() []Binding {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Binding(nil), m.bindings...)
}

// Len returns the number of bindings.
func (m *Module) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.bindings)
}

// Lookup returns the binding declared for key.
func (m *Module) Lookup(key Key) (Binding, bool) {
	if key.validate() != nil {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.bindings[i], true
}

// Frozen reports whether an injector has consumed the module.
func (m *Module) Frozen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.frozen
}

// Rebind replaces the binding declared for b's key, or adds it if the key is
// not declared yet. It fails with ErrModuleFrozen once an injector consumed
// the module; already built instances are never affected.
func (m *Module) Rebind(b Binding) error {
	if b == nil {
		return ModuleError{Module: m.name, Cause: ErrProviderNil}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return ModuleError{Module: m.name, Cause: ErrModuleFrozen}
	}

	if i, ok := m.index[b.Key()]; ok {
		m.bindings[i] = b
		return nil
	}

	return m.add(b)
}

// freeze marks the module consumed and returns its snapshot.
func (m *Module) freeze() []Binding {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frozen = true
	return append([]Binding(nil), m.bindings...)
}

// declare adds b, rejecting a key the module already declares.
func (m *Module) declare(b Binding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return ErrModuleFrozen
	}

	if _, ok := m.index[b.Key()]; ok {
		return DuplicateBindingError{Key: b.Key(), Module: m.name}
	}

	return m.add(b)
}

func (m *Module) add(b Binding) error {
	if err := b.Key().validate(); err != nil {
		return err
	}

	m.index[b.Key()] = len(m.bindings)
	m.bindings = append(m.bindings, b)
	return nil
}

// ========================================
// Declarations
// ========================================

// Bind declares a pre-built binding.
func Bind(b Binding) Declaration {
	return func(m *Module) error {
		if b == nil {
			return ErrProviderNil
		}
		return m.declare(b)
	}
}

// Instance declares key bound to value.
func Instance(key Key, value any) Declaration {
	return func(m *Module) error {
		b, err := NewInstanceBinding(key, value)
		if err != nil {
			return err
		}
		return m.declare(b)
	}
}

// Provide declares key bound to a factory. See NewProviderBinding.
func Provide(key Key, deps []Dependency, invoke func(Args) (any, error), opts ...BindingOption) Declaration {
	return func(m *Module) error {
		b, err := NewProviderBinding(key, deps, invoke, opts...)
		if err != nil {
			return err
		}
		return m.declare(b)
	}
}

// Getter declares key bound to a getter. See NewGetterBinding.
func Getter(key Key, get func() any, opts ...BindingOption) Declaration {
	return func(m *Module) error {
		b, err := NewGetterBinding(key, get, opts...)
		if err != nil {
			return err
		}
		return m.declare(b)
	}
}

// Construct declares key bound to one of ctors. See NewConstructorBinding.
func Construct(key Key, ctors []Constructor, opts ...BindingOption) Declaration {
	return func(m *Module) error {
		b, err := NewConstructorBinding(key, ctors, opts...)
		if err != nil {
			return err
		}
		return m.declare(b)
	}
}

// Include declares every binding of other. A key declared by both modules is
// a DuplicateBindingError.
func Include(other *Module) Declaration {
	return func(m *Module) error {
		if other == nil {
			return nil
		}

		for _, b := range other.Bindings() {
			if err := m.declare(b); err != nil {
				return ModuleError{Module: other.name, Cause: err}
			}
		}

		return nil
	}
}
