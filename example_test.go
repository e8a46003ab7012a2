package inject_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/junioryono/inject"
)

type Logger struct {
	prefix string
}

func (l *Logger) Log(msg string) string { return l.prefix + msg }

type Database struct {
	DSN string
}

type UserRepository struct {
	db *Database
}

type User struct {
	ID   int
	Name string
}

func (r *UserRepository) Find(id int) User {
	return User{ID: id, Name: "John Doe"}
}

type RequestContext struct {
	RequestID string
}

func NewLogger() *Logger { return &Logger{prefix: "[APP] "} }

func NewDatabase(dsn string) *Database { return &Database{DSN: dsn} }

type RepositoryParams struct {
	inject.In

	DB     *Database
	Logger *Logger `optional:"true"`
}

func NewUserRepository(p RepositoryParams) *UserRepository {
	return &UserRepository{db: p.DB}
}

var AppModule = inject.MustModule("app",
	inject.Instance(inject.KeyOf[string](), "postgres://localhost/app"),
	inject.ProvideFunc(NewLogger, inject.Singleton()),
	inject.ProvideFunc(NewDatabase, inject.Singleton()),
	inject.ProvideFunc(NewUserRepository),
)

// Example demonstrates declaring a module and resolving from an injector.
func Example() {
	inj, err := inject.New([]*inject.Module{AppModule})
	if err != nil {
		log.Fatal(err)
	}

	repo, err := inject.Resolve[*UserRepository](inj)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(repo.Find(1).Name)
	fmt.Println(repo.db.DSN)
	// Output:
	// John Doe
	// postgres://localhost/app
}

// ExampleSingleton demonstrates that singletons are built once per injector.
func ExampleSingleton() {
	m := inject.MustModule("m",
		inject.ProvideFunc(NewLogger, inject.Singleton()),
	)

	inj, _ := inject.New([]*inject.Module{m})

	logger1, _ := inject.Resolve[*Logger](inj)
	logger2, _ := inject.Resolve[*Logger](inj)

	fmt.Println(logger1 == logger2)
	// Output: true
}

// ExampleInjector_CreateChild demonstrates per-request child injectors.
func ExampleInjector_CreateChild() {
	root, _ := inject.New([]*inject.Module{
		inject.MustModule("root", inject.ProvideFunc(NewLogger, inject.Singleton())),
	})

	newRequest := func(id string) *inject.Injector {
		child, err := root.CreateChild([]*inject.Module{
			inject.MustModule("request",
				inject.Instance(inject.KeyOf[*RequestContext](), &RequestContext{RequestID: id}),
			),
		})
		if err != nil {
			log.Fatal(err)
		}
		return child
	}

	req1 := newRequest("req-1")
	req2 := newRequest("req-2")

	ctx1, _ := inject.Resolve[*RequestContext](req1)
	ctx2, _ := inject.Resolve[*RequestContext](req2)
	fmt.Println(ctx1.RequestID, ctx2.RequestID)

	// Singletons declared in the root are shared
	l1, _ := inject.Resolve[*Logger](req1)
	l2, _ := inject.Resolve[*Logger](req2)
	fmt.Println(l1 == l2)
	// Output:
	// req-1 req-2
	// true
}

// ExampleParentBindingConflictError shows that children cannot redeclare keys.
func ExampleParentBindingConflictError() {
	root, _ := inject.New([]*inject.Module{
		inject.MustModule("root", inject.ProvideFunc(NewLogger)),
	})

	_, err := root.CreateChild([]*inject.Module{
		inject.MustModule("child", inject.ProvideFunc(NewLogger)),
	})

	fmt.Println(errors.Is(err, inject.ErrParentConflict))
	// Output: true
}

// ExampleKey_Annotated demonstrates qualified bindings of the same type.
func ExampleKey_Annotated() {
	primary := inject.KeyOf[*Database]().Annotated("primary")
	replica := inject.KeyOf[*Database]().Annotated("replica")

	inj, _ := inject.New([]*inject.Module{
		inject.MustModule("db",
			inject.Instance(primary, &Database{DSN: "primary-dsn"}),
			inject.Instance(replica, &Database{DSN: "replica-dsn"}),
		),
	})

	db, _ := inject.ResolveAnnotated[*Database](inj, "replica")
	fmt.Println(db.DSN)
	fmt.Println(replica)
	// Output:
	// replica-dsn
	// *Database[replica]
}

// ExampleProvide demonstrates a provider with explicit dependencies.
func ExampleProvide() {
	m := inject.MustModule("m",
		inject.Instance(inject.KeyOf[*Logger](), &Logger{prefix: "> "}),
		inject.Provide(inject.KeyOf[string]().Annotated("greeting"),
			[]inject.Dependency{
				inject.Arg(0, inject.KeyOf[*Logger]()),
				inject.NamedArg("name", inject.KeyOf[string]().Annotated("name")).Optional(),
			},
			func(args inject.Args) (any, error) {
				logger, _ := inject.ArgAt[*Logger](args, 0)
				name, ok := inject.NamedAs[string](args, "name")
				if !ok {
					name = "world"
				}
				return logger.Log("hello " + name), nil
			},
		),
	)

	inj, _ := inject.New([]*inject.Module{m})

	greeting, _ := inject.ResolveAnnotated[string](inj, "greeting")
	fmt.Println(greeting)
	// Output: > hello world
}

// ExampleCircularDependencyError demonstrates cycle detection at creation.
func ExampleCircularDependencyError() {
	a := inject.KeyOf[string]().Annotated("a")
	b := inject.KeyOf[string]().Annotated("b")

	noop := func(inject.Args) (any, error) { return "", nil }
	m := inject.MustModule("cyclic",
		inject.Provide(a, []inject.Dependency{inject.Arg(0, b)}, noop),
		inject.Provide(b, []inject.Dependency{inject.Arg(0, a)}, noop),
	)

	_, err := inject.New([]*inject.Module{m})

	var cycle inject.CircularDependencyError
	if errors.As(err, &cycle) {
		fmt.Println(cycle.Chain)
	}
	// Output: [string[a] string[b] string[a]]
}
