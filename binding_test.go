package inject

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceBinding(t *testing.T) {
	t.Run("returns the value", func(t *testing.T) {
		t.Parallel()

		svc := &TService{ID: "a"}
		b, err := NewInstanceBinding(keyService, svc)
		require.NoError(t, err)

		assert.Equal(t, KindInstance, b.Kind())
		assert.True(t, b.Singleton())
		assert.Empty(t, b.Dependencies())
		assert.Same(t, svc, b.Value())

		v, err := b.BuildInstance(nil)
		require.NoError(t, err)
		assert.Same(t, svc, v)
	})

	t.Run("interface key", func(t *testing.T) {
		t.Parallel()

		_, err := NewInstanceBinding(KeyOf[TInterface](), &TService{})
		assert.NoError(t, err)
	})

	t.Run("nil value", func(t *testing.T) {
		t.Parallel()

		b, err := NewInstanceBinding(keyService, nil)
		require.NoError(t, err)
		assert.Nil(t, b.Value())
	})

	t.Run("type mismatch", func(t *testing.T) {
		t.Parallel()

		_, err := NewInstanceBinding(keyService, "not a service")

		var mismatch TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "instance binding", mismatch.Context)
	})

	t.Run("invalid key", func(t *testing.T) {
		t.Parallel()

		_, err := NewInstanceBinding(Key{}, 1)
		assert.ErrorIs(t, err, ErrKeyTypeNil)
	})
}

func TestProviderBinding(t *testing.T) {
	t.Run("transient by default", func(t *testing.T) {
		t.Parallel()

		var c counter
		b, err := NewProviderBinding(keyService, nil, c.serviceProvider("a"))
		require.NoError(t, err)

		assert.Equal(t, KindProvider, b.Kind())
		assert.False(t, b.Singleton())
		assert.False(t, b.IsGetter())

		first, err := b.BuildInstance(NewResolution())
		require.NoError(t, err)
		second, err := b.BuildInstance(NewResolution())
		require.NoError(t, err)
		assert.NotSame(t, first, second)
		assert.Equal(t, int32(2), c.Load())
	})

	t.Run("singleton option", func(t *testing.T) {
		t.Parallel()

		b, err := NewProviderBinding(keyService, nil, (&counter{}).serviceProvider("a"), Singleton())
		require.NoError(t, err)
		assert.True(t, b.Singleton())

		b, err = NewProviderBinding(keyService, nil, (&counter{}).serviceProvider("a"), Singleton(), Transient())
		require.NoError(t, err)
		assert.False(t, b.Singleton())
	})

	t.Run("dependencies are stable", func(t *testing.T) {
		t.Parallel()

		b, err := NewProviderBinding(keyServiceDeps,
			[]Dependency{Arg(0, keyService), Arg(1, keyDependency)},
			func(args Args) (any, error) {
				svc, _ := ArgAt[*TService](args, 0)
				dep, _ := ArgAt[*TDependency](args, 1)
				return &TServiceWithDeps{Svc: svc, Dep: dep}, nil
			})
		require.NoError(t, err)

		deps := b.Dependencies()
		require.Len(t, deps, 2)
		assert.Same(t, deps[0], b.Dependencies()[0])

		svc := &TService{ID: "s"}
		dep := &TDependency{Name: "d"}
		res := NewResolution()
		res.Set(deps[0], svc)
		res.Set(deps[1], dep)

		v, err := b.BuildInstance(res)
		require.NoError(t, err)
		assert.Same(t, svc, v.(*TServiceWithDeps).Svc)
		assert.Same(t, dep, v.(*TServiceWithDeps).Dep)
	})

	t.Run("missing dependency", func(t *testing.T) {
		t.Parallel()

		b, err := NewProviderBinding(keyServiceDeps, []Dependency{Arg(0, keyService)},
			func(Args) (any, error) {
				t.Fatal("provider must not run")
				return nil, nil
			})
		require.NoError(t, err)

		_, err = b.BuildInstance(NewResolution())
		assert.ErrorIs(t, err, ErrMissingDependency)
	})

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()

		_, err := NewProviderBinding(keyService, nil, nil)
		assert.ErrorIs(t, err, ErrProviderNil)

		var bindingErr BindingError
		assert.ErrorAs(t, err, &bindingErr)
	})

	t.Run("invalid dependencies", func(t *testing.T) {
		t.Parallel()

		_, err := NewProviderBinding(keyService, []Dependency{Arg(1, keyString)}, (&counter{}).serviceProvider("a"))
		assert.ErrorIs(t, err, ErrPositionGap)
	})

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()

		b, err := NewProviderBinding(keyService, nil, func(Args) (any, error) {
			return nil, errTest
		})
		require.NoError(t, err)

		_, err = b.BuildInstance(NewResolution())
		assert.ErrorIs(t, err, errTest)

		var invocation ConstructorInvocationError
		require.ErrorAs(t, err, &invocation)
		assert.Equal(t, keyService, invocation.Key)
	})

	t.Run("provider panic", func(t *testing.T) {
		t.Parallel()

		b, err := NewProviderBinding(keyService, nil, func(Args) (any, error) {
			panic("boom")
		})
		require.NoError(t, err)

		v, err := b.BuildInstance(NewResolution())
		assert.Nil(t, v)

		var panicErr ConstructorPanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "boom", panicErr.Panic)
		assert.NotEmpty(t, panicErr.Stack)
	})
}

func TestGetterBinding(t *testing.T) {
	calls := 0
	b, err := NewGetterBinding(keyString, func() any {
		calls++
		return "value"
	})
	require.NoError(t, err)

	assert.True(t, b.IsGetter())
	assert.Empty(t, b.Dependencies())

	v, err := b.BuildInstance(nil)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, calls)

	_, err = NewGetterBinding(keyString, nil)
	assert.ErrorIs(t, err, ErrProviderNil)
}

func TestConstructorBinding(t *testing.T) {
	noArgs := Constructor{
		Name: "NewDefault",
		Construct: func(Args) (any, error) {
			return &TService{ID: "default"}, nil
		},
	}
	withDep := Constructor{
		Name:         "NewWithDep",
		Dependencies: []Dependency{Arg(0, keyDependency)},
		Construct: func(args Args) (any, error) {
			dep, _ := ArgAt[*TDependency](args, 0)
			return &TService{ID: dep.Name}, nil
		},
	}
	optionalOnly := Constructor{
		Name:         "NewOptional",
		Dependencies: []Dependency{Arg(0, keyDependency).Optional()},
		Construct: func(args Args) (any, error) {
			return &TService{ID: "optional"}, nil
		},
	}
	marked := func(c Constructor) Constructor {
		c.Inject = true
		return c
	}

	tests := []struct {
		name     string
		ctors    []Constructor
		expected string
		reason   string
	}{
		{name: "single constructor", ctors: []Constructor{withDep}, expected: "NewWithDep"},
		{name: "marked wins", ctors: []Constructor{noArgs, marked(withDep)}, expected: "NewWithDep"},
		{name: "unique no-arg", ctors: []Constructor{withDep, noArgs}, expected: "NewDefault"},
		{name: "optional params count as no-arg", ctors: []Constructor{withDep, optionalOnly}, expected: "NewOptional"},
		{name: "no constructors", ctors: nil, reason: "no constructors declared"},
		{name: "two marked", ctors: []Constructor{marked(noArgs), marked(withDep)}, reason: "more than one constructor is marked for injection"},
		{name: "two no-arg", ctors: []Constructor{noArgs, optionalOnly}, reason: "more than one constructor has no required positional parameters"},
		{name: "none callable", ctors: []Constructor{withDep, withDep}, reason: "no constructor is marked for injection or callable without arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewConstructorBinding(keyService, tt.ctors)

			if tt.reason != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrAmbiguousConstructor)

				var ambiguous AmbiguousConstructorError
				require.True(t, errors.As(err, &ambiguous))
				assert.Equal(t, tt.reason, ambiguous.Reason)
				assert.Equal(t, keyService, ambiguous.Key)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, KindConstructor, b.Kind())
			assert.Equal(t, tt.expected, b.Constructor().Name)
		})
	}

	t.Run("builds with the selected constructor", func(t *testing.T) {
		b, err := NewConstructorBinding(keyService, []Constructor{noArgs, marked(withDep)}, Singleton())
		require.NoError(t, err)
		assert.True(t, b.Singleton())

		deps := b.Dependencies()
		require.Len(t, deps, 1)

		res := NewResolution()
		res.Set(deps[0], &TDependency{Name: "from-dep"})

		v, err := b.BuildInstance(res)
		require.NoError(t, err)
		assert.Equal(t, "from-dep", v.(*TService).ID)
	})

	t.Run("nil construct", func(t *testing.T) {
		_, err := NewConstructorBinding(keyService, []Constructor{{Name: "broken"}})
		assert.ErrorIs(t, err, ErrProviderNil)
	})
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Instance", KindInstance.String())
	assert.Equal(t, "Provider", KindProvider.String())
	assert.Equal(t, "Constructor", KindConstructor.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
