// Package digbridge connects inject injectors with go.uber.org/dig containers.
//
// Export publishes injector keys to a dig container so dig constructors can
// depend on them. Import goes the other way and returns a module whose
// bindings resolve their keys from a dig container. Annotated keys map to dig
// names: the annotation is formatted with fmt.Sprint.
package digbridge

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"go.uber.org/dig"

	"github.com/junioryono/inject"
)

var errorType = reflect.TypeFor[error]()

// ErrContainerNil is returned by Import for a nil container.
var ErrContainerNil = errors.New("dig container cannot be nil")

// Error reports a failure to bridge one key.
type Error struct {
	Op    string // "export" or "import"
	Key   inject.Key
	Cause error
}

func (e Error) Error() string {
	return fmt.Sprintf("digbridge: %s %s: %v", e.Op, e.Key, e.Cause)
}

func (e Error) Unwrap() error {
	return e.Cause
}

// Name returns the dig name used for key, or "" when key is not annotated.
func Name(key inject.Key) string {
	if key.Annotation == nil {
		return ""
	}
	return fmt.Sprint(key.Annotation)
}

// Export provides every key to c. The dig constructor for a key resolves it
// from inj on first use; dig then caches the value, so a transient binding
// is built once per container.
//
// Example:
//
//	c := dig.New()
//	if err := digbridge.Export(c, inj, inject.KeyOf[*sql.DB]()); err != nil {
//	    return err
//	}
//	err := c.Invoke(func(db *sql.DB) { ... })
func Export(c *dig.Container, inj *inject.Injector, keys ...inject.Key) error {
	if inj == nil {
		return inject.ErrInjectorNil
	}

	for _, key := range keys {
		if err := export(c, inj, key); err != nil {
			return Error{Op: "export", Key: key, Cause: err}
		}
	}

	return nil
}

// ExportAll exports every key visible from inj.
func ExportAll(c *dig.Container, inj *inject.Injector) error {
	if inj == nil {
		return inject.ErrInjectorNil
	}
	return Export(c, inj, inj.Keys()...)
}

func export(c *dig.Container, inj *inject.Injector, key inject.Key) error {
	if key.IsZero() {
		return inject.ErrKeyTypeNil
	}

	fnType := reflect.FuncOf(nil, []reflect.Type{key.Type, errorType}, false)
	fn := reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		out := reflect.New(key.Type).Elem()
		errOut := reflect.New(errorType).Elem()

		instance, err := inj.GetInstance(key)
		switch {
		case err != nil:
			errOut.Set(reflect.ValueOf(err))
		case instance != nil:
			out.Set(reflect.ValueOf(instance))
		}

		return []reflect.Value{out, errOut}
	})

	var opts []dig.ProvideOption
	if name := Name(key); name != "" {
		opts = append(opts, dig.Name(name))
	}

	return c.Provide(fn.Interface(), opts...)
}

// Import returns a module that binds each key to the value c provides for it.
// Bindings are transient unless opts say otherwise; dig still returns the
// same value on every invocation.
//
// Example:
//
//	m, err := digbridge.Import("legacy", c, []inject.Key{
//	    inject.KeyOf[*Config](),
//	    inject.KeyOf[*sql.DB]().Annotated("primary"),
//	})
func Import(name string, c *dig.Container, keys []inject.Key, opts ...inject.BindingOption) (*inject.Module, error) {
	if c == nil {
		return nil, Error{Op: "import", Cause: ErrContainerNil}
	}

	// dig containers are not safe for concurrent Invoke
	var mu sync.Mutex

	decls := make([]inject.Declaration, 0, len(keys))
	for _, key := range keys {
		if key.IsZero() {
			return nil, Error{Op: "import", Key: key, Cause: inject.ErrKeyTypeNil}
		}

		b, err := inject.NewProviderBinding(key, nil, resolver(c, &mu, key), opts...)
		if err != nil {
			return nil, Error{Op: "import", Key: key, Cause: err}
		}
		decls = append(decls, inject.Bind(b))
	}

	return inject.NewModule(name, decls...)
}

// resolver returns a provider that invokes c with a function taking key's
// value, either directly or through a dig.In struct for named values.
func resolver(c *dig.Container, mu *sync.Mutex, key inject.Key) func(inject.Args) (any, error) {
	paramType := key.Type
	extract := func(v reflect.Value) any { return v.Interface() }

	if name := Name(key); name != "" {
		paramType = reflect.StructOf([]reflect.StructField{
			{
				Name:      "In",
				Type:      reflect.TypeFor[dig.In](),
				Anonymous: true,
			},
			{
				Name: "Value",
				Type: key.Type,
				Tag:  reflect.StructTag("name:" + strconv.Quote(name)),
			},
		})
		extract = func(v reflect.Value) any { return v.Field(1).Interface() }
	}

	fnType := reflect.FuncOf([]reflect.Type{paramType}, nil, false)

	return func(inject.Args) (any, error) {
		var result any
		fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
			result = extract(args[0])
			return nil
		})

		mu.Lock()
		defer mu.Unlock()

		if err := c.Invoke(fn.Interface()); err != nil {
			return nil, err
		}

		return result, nil
	}
}
