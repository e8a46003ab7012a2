package inject

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// Shared Test Types
// ============================================================================

// TService is a basic service for testing.
type TService struct {
	ID    string
	Value int
}

// TDependency is a basic dependency for testing.
type TDependency struct {
	Name string
}

// TServiceWithDeps demonstrates dependency injection.
type TServiceWithDeps struct {
	Svc *TService
	Dep *TDependency
}

// TInterface is a basic interface for testing.
type TInterface interface {
	GetID() string
}

func (s *TService) GetID() string { return s.ID }

// Foo and Bar model a singleton and a transient that depends on it.
type Foo struct {
	Greeting string
}

type Bar struct {
	Foo *Foo
}

// Cycle participants.
type (
	TCycleA struct{ B *TCycleB }
	TCycleB struct{ C *TCycleC }
	TCycleC struct{ A *TCycleA }
)

var errTest = errors.New("test error")

// ============================================================================
// Keys
// ============================================================================

var (
	keyService     = KeyOf[*TService]()
	keyDependency  = KeyOf[*TDependency]()
	keyServiceDeps = KeyOf[*TServiceWithDeps]()
	keyString      = KeyOf[string]()
	keyFoo         = KeyOf[*Foo]()
	keyBar         = KeyOf[*Bar]()
)

// ============================================================================
// Helpers
// ============================================================================

// counter counts provider invocations.
type counter struct {
	n atomic.Int32
}

func (c *counter) Load() int32 { return c.n.Load() }

// serviceProvider returns a provider producing a fresh TService per call.
func (c *counter) serviceProvider(id string) func(Args) (any, error) {
	return func(Args) (any, error) {
		n := c.n.Add(1)
		return &TService{ID: id, Value: int(n)}, nil
	}
}

func newTestModule(t *testing.T, name string, decls ...Declaration) *Module {
	t.Helper()
	m, err := NewModule(name, decls...)
	require.NoError(t, err)
	return m
}

func newTestInjector(t *testing.T, modules ...*Module) *Injector {
	t.Helper()
	inj, err := New(modules)
	require.NoError(t, err)
	require.NotNil(t, inj)
	return inj
}

func newTestChild(t *testing.T, parent *Injector, modules ...*Module) *Injector {
	t.Helper()
	child, err := parent.CreateChild(modules)
	require.NoError(t, err)
	require.NotNil(t, child)
	return child
}

// fooBarModule declares String, a singleton Foo and a transient Bar requiring Foo.
func fooBarModule(t *testing.T) *Module {
	t.Helper()
	return newTestModule(t, "foobar",
		Instance(keyString, "a"),
		Provide(keyFoo, nil, func(Args) (any, error) {
			return &Foo{Greeting: "hello"}, nil
		}, Singleton()),
		Provide(keyBar, []Dependency{Arg(0, keyFoo)}, func(args Args) (any, error) {
			foo, _ := ArgAt[*Foo](args, 0)
			return &Bar{Foo: foo}, nil
		}),
	)
}
