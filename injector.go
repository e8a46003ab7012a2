package inject

import (
	"errors"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junioryono/inject/internal/graph"
)

// injectorKey is bound by every injector to itself.
var injectorKey = KeyOf[*Injector]()

// selfModule is the module name reported for the injector's own binding.
const selfModule = "inject"

// Injector resolves keys to instances.
//
// An injector owns an immutable binding table built from its modules, a
// singleton cache, and an optional parent. Lookups that miss locally continue
// in the parent. A child may only add keys; redeclaring a key an ancestor
// binds is a ParentBindingConflictError.
//
// Singletons are cached by the injector that owns the binding, so a singleton
// declared in a parent is shared by every child while a singleton declared in
// a child is private to that child and its descendants. The owning injector
// also resolves a singleton's dependencies. Every other binding is built by
// the injector that was asked for it, so a transient parent binding sees the
// requesting child's keys.
//
// Injectors are safe for concurrent use.
type Injector struct {
	id     string
	parent *Injector

	// immutable after New
	bindings map[Key]Binding
	order    []Key
	sources  map[Key]string
	graph    *graph.DependencyGraph[Key]

	singletons *singletonCache

	options Options
	logger  *zap.Logger
}

// New creates a root injector from modules. Modules are registered in order;
// when two modules declare the same key the later one wins unless
// WithStrictModules is set. Every module is frozen by the call.
//
// New fails, returning no injector, on a ParentBindingConflictError,
// CircularDependencyError or DuplicateModuleBindingError.
//
// Example:
//
//	inj, err := inject.New([]*inject.Module{DatabaseModule, ServiceModule})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	svc, err := inject.Resolve[*UserService](inj)
func New(modules []*Module, opts ...Option) (*Injector, error) {
	return newInjector(nil, modules, opts)
}

// CreateChild creates an injector whose lookups fall back to i. The child
// inherits i's options unless opts override them.
//
// The parent must stay reachable for as long as the child is used; the child
// holds a plain back-reference and never modifies the parent.
func (i *Injector) CreateChild(modules []*Module, opts ...Option) (*Injector, error) {
	if i == nil {
		return nil, ErrInjectorNil
	}
	return newInjector(i, modules, opts)
}

func newInjector(parent *Injector, modules []*Module, opts []Option) (*Injector, error) {
	options := Options{Logger: zap.NewNop()}
	if parent != nil {
		options = parent.options
	}

	for _, opt := range opts {
		if opt != nil {
			opt.applyOption(&options)
		}
	}

	inj := &Injector{
		id:         uuid.NewString(),
		parent:     parent,
		bindings:   make(map[Key]Binding),
		sources:    make(map[Key]string),
		singletons: newSingletonCache(),
		options:    options,
	}

	inj.logger = options.Logger.With(zap.String("injector", inj.id))
	if parent != nil {
		inj.logger = inj.logger.With(zap.String("parent", parent.id))
	}

	self, err := NewInstanceBinding(injectorKey, inj)
	if err != nil {
		return nil, err
	}
	inj.bindings[injectorKey] = self
	inj.sources[injectorKey] = selfModule
	inj.order = append(inj.order, injectorKey)

	snapshots := make([][]Binding, len(modules))
	for idx, m := range modules {
		if m != nil {
			snapshots[idx] = m.freeze()
		}
	}

	for idx, m := range modules {
		for _, b := range snapshots[idx] {
			if err := inj.register(m.Name(), b); err != nil {
				return nil, err
			}
		}
	}

	if err := inj.verify(); err != nil {
		return nil, err
	}

	inj.logger.Debug("injector created",
		zap.Int("modules", len(modules)),
		zap.Int("bindings", len(inj.bindings)))

	if options.EagerSingletons {
		if err := inj.instantiateSingletons(); err != nil {
			return nil, err
		}
	}

	return inj, nil
}

// register adds b from module to the local table.
func (i *Injector) register(module string, b Binding) error {
	key := b.Key()

	if key == injectorKey {
		return RegistrationError{Key: key, Module: module, Cause: ErrReservedKey}
	}

	if i.parent != nil {
		if _, owner := i.parent.lookup(key); owner != nil {
			return ParentBindingConflictError{Key: key, Module: module, AncestorID: owner.id}
		}
	}

	if _, exists := i.bindings[key]; exists {
		if i.options.StrictModules {
			return DuplicateModuleBindingError{Key: key, First: i.sources[key], Second: module}
		}

		i.logger.Warn("binding overridden by later module",
			zap.Stringer("key", key),
			zap.String("previous", i.sources[key]),
			zap.String("module", module))
	} else {
		i.order = append(i.order, key)
	}

	i.bindings[key] = b
	i.sources[key] = module

	i.logger.Debug("binding registered",
		zap.Stringer("key", key),
		zap.Stringer("kind", b.Kind()),
		zap.Bool("singleton", b.Singleton()),
		zap.String("module", module))

	return nil
}

// ID returns the unique identifier of the injector.
func (i *Injector) ID() string {
	return i.id
}

// Parent returns the parent injector, or nil for a root injector.
func (i *Injector) Parent() *Injector {
	return i.parent
}

// Root returns the topmost ancestor.
func (i *Injector) Root() *Injector {
	cur := i
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Options returns the options the injector was built with.
func (i *Injector) Options() Options {
	return i.options
}

// GetInstance returns the instance for key, building it and its dependencies
// as needed. It fails with UnboundKeyError when no injector in the chain binds
// key, and never returns a partially built instance.
func (i *Injector) GetInstance(key Key) (any, error) {
	if i == nil {
		return nil, ErrInjectorNil
	}

	if err := key.validate(); err != nil {
		return nil, err
	}

	return i.resolve(key)
}

// Get returns the instance for the unannotated key of serviceType.
func (i *Injector) Get(serviceType reflect.Type) (any, error) {
	return i.GetInstance(ForType(serviceType))
}

// Has reports whether key is bound anywhere in the chain.
func (i *Injector) Has(key Key) bool {
	if key.validate() != nil {
		return false
	}

	b, _ := i.lookup(key)
	return b != nil
}

// Binding returns the binding for key and whether it is declared locally.
func (i *Injector) Binding(key Key) (b Binding, local bool) {
	if key.validate() != nil {
		return nil, false
	}

	b, owner := i.lookup(key)
	return b, owner == i
}

// LocalKeys returns the keys bound by this injector in registration order,
// starting with its own key.
func (i *Injector) LocalKeys() []Key {
	return append([]Key(nil), i.order...)
}

// Keys returns every key visible from this injector, nearest first.
func (i *Injector) Keys() []Key {
	keys := make([]Key, 0, len(i.order))
	seen := make(map[Key]bool)
	for cur := i; cur != nil; cur = cur.parent {
		for _, k := range cur.order {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// Validate reports every required dependency of a local binding that no
// injector in the chain binds. Such bindings would fail at resolution.
func (i *Injector) Validate() error {
	var errs []error
	for _, key := range i.order {
		for _, dep := range i.bindings[key].Dependencies() {
			if dep.Nullable || i.Has(dep.Key) {
				continue
			}
			errs = append(errs, ResolutionError{
				Key:        key,
				Dependency: dep.Name,
				Cause:      UnboundKeyError{Key: dep.Key},
			})
		}
	}
	return errors.Join(errs...)
}

// lookup finds the binding for key and the injector that declares it.
func (i *Injector) lookup(key Key) (Binding, *Injector) {
	for cur := i; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[key]; ok {
			return b, cur
		}
	}
	return nil, nil
}

// resolve builds key on this injector. A singleton is built and cached by the
// injector that declares it; any other binding is built here, so its
// dependencies see this injector's keys.
func (i *Injector) resolve(key Key) (any, error) {
	b, owner := i.lookup(key)
	if b == nil {
		return nil, UnboundKeyError{Key: key, Available: i.Keys()}
	}

	if !b.Singleton() {
		return i.buildInstanceOfBinding(b)
	}

	return owner.singleton(b)
}

// singleton returns the cached instance of b, building it on first use. It is
// called on the injector that declares b.
func (i *Injector) singleton(b Binding) (any, error) {
	value, created, err := i.singletons.getOrCreate(b.Key(), func() (any, error) {
		return i.buildInstanceOfBinding(b)
	})
	if err != nil {
		return nil, err
	}

	if created && b.Kind() != KindInstance {
		i.logger.Debug("singleton created", zap.Stringer("key", b.Key()))
	}

	return value, nil
}

// buildInstanceOfBinding resolves the dependencies of b and builds it.
func (i *Injector) buildInstanceOfBinding(b Binding) (any, error) {
	res, err := i.resolveDependencies(b)
	if err != nil {
		return nil, err
	}

	return b.BuildInstance(res)
}

// resolveDependencies resolves every dependency of b in declaration order.
// Optional dependencies bound nowhere in the chain are left out.
func (i *Injector) resolveDependencies(b Binding) (*Resolution, error) {
	res := NewResolution()

	for _, dep := range b.Dependencies() {
		if dep.Nullable && !i.Has(dep.Key) {
			continue
		}

		value, err := i.resolve(dep.Key)
		if err != nil {
			return nil, ResolutionError{Key: b.Key(), Dependency: dep.Name, Cause: err}
		}

		res.Set(dep, value)
	}

	return res, nil
}
