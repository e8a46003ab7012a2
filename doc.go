// Package inject provides a hierarchical dependency injection container for Go.
//
// Bindings map a Key to a strategy for producing an instance. Modules group
// bindings; an Injector consumes modules, verifies the dependency graph, and
// resolves keys on demand. Injectors form parent/child chains where a child
// adds new keys and falls back to its parent for everything else.
//
// # Overview
//
// The library provides:
//   - Keys made of a type plus an optional comparable annotation
//   - Instance, provider and constructor bindings
//   - Singleton and transient bindings
//   - Parent/child injectors with per-injector singleton caches
//   - Cycle detection when an injector is created
//   - Optional dependencies that are omitted when unbound
//   - A reflection front end for plain Go functions
//
// # Basic Usage
//
// Declare modules, create an injector, resolve:
//
//	var AppModule = inject.MustModule("app",
//	    inject.Instance(inject.KeyOf[string]().Annotated("dsn"), "postgres://localhost"),
//	    inject.ProvideFunc(NewDatabase, inject.Singleton()),
//	    inject.ProvideFunc(NewUserService),
//	)
//
//	inj, err := inject.New([]*inject.Module{AppModule})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	users, err := inject.Resolve[*UserService](inj)
//
// # Keys and Annotations
//
// A Key is a reflect.Type plus an annotation. Two keys with the same type and
// different annotations are unrelated bindings:
//
//	primary := inject.KeyOf[*sql.DB]().Annotated("primary")
//	replica := inject.KeyOf[*sql.DB]().Annotated("replica")
//
// Annotations must be comparable.
//
// # Bindings
//
// Three binding kinds exist:
//
//   - InstanceBinding wraps an existing value and is always a singleton
//   - ProviderBinding calls a factory with resolved dependencies
//   - ConstructorBinding picks one of several constructors of a type
//
// Providers and constructors are transient unless Singleton() is passed.
// Bindings can be built by hand with explicit Dependency lists:
//
//	inject.Provide(inject.KeyOf[*Service](),
//	    []inject.Dependency{
//	        inject.Arg(0, inject.KeyOf[*sql.DB]()),
//	        inject.NamedArg("cache", inject.KeyOf[Cache]()).Optional(),
//	    },
//	    func(args inject.Args) (any, error) {
//	        db, _ := inject.ArgAt[*sql.DB](args, 0)
//	        cache, _ := inject.NamedAs[Cache](args, "cache")
//	        return NewService(db, cache), nil
//	    },
//	)
//
// or from Go functions with Func, ProvideFunc and ConstructorsFor.
//
// # Parameter Objects (In)
//
// A function taking a single struct that embeds inject.In receives named
// dependencies:
//
//	type ServiceParams struct {
//	    inject.In
//
//	    DB     *sql.DB `name:"primary"`
//	    Cache  Cache   `optional:"true"`
//	    Logger Logger
//	}
//
//	func NewService(p ServiceParams) *Service
//
// # Child Injectors
//
// CreateChild builds an injector that sees every key of its ancestors:
//
//	reqInj, err := inj.CreateChild([]*inject.Module{RequestModule})
//
// A child may not redeclare an ancestor's key; doing so fails with
// ParentBindingConflictError. Singletons live in the injector that declares
// them, so a parent singleton is shared by every child and a child singleton
// is private to that child. A transient binding is built by the injector it
// was requested from, so a parent transient can depend on keys a child adds:
//
//	// declared in the root, *http.Request bound per request
//	handler, err := inject.Resolve[*Handler](reqInj)
//
// # Modules
//
// Within one injector, when two modules declare the same key the later module
// wins. WithStrictModules turns that into DuplicateModuleBindingError. A module
// can replace its own bindings with Rebind until an injector consumes it.
//
// # Error Handling
//
// Errors are typed and match sentinel values with errors.Is:
//
//	_, err := inject.Resolve[*Service](inj)
//	if errors.Is(err, inject.ErrUnbound) {
//	    // no binding in the chain
//	}
//
//	var cycle inject.CircularDependencyError
//	if errors.As(err, &cycle) {
//	    fmt.Println(cycle.Chain)
//	}
//
// # Logging
//
// Pass a *zap.Logger with WithLogger to observe registration, overrides and
// singleton creation. Children inherit their parent's logger.
//
// # Thread Safety
//
// Injectors are safe for concurrent use. Each singleton is built at most once
// even when requested from many goroutines.
package inject
