package inject

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/junioryono/inject/internal/reflection"
)

// In can be embedded in a struct to mark it as a parameter object for Func
// and ConstructorsFor. Exported fields become named dependencies:
//
//	type ServiceParams struct {
//	    inject.In
//
//	    DB      *sql.DB `name:"primary"`
//	    Cache   Cache   `optional:"true"`
//	    Logger  Logger
//	    Ignored string  `inject:"-"`
//	}
//
// A name tag selects the annotated key; an optional field is left at its zero
// value when nothing in the injector chain binds it.
type In = reflection.In

var analyzer = reflection.New()

// Func builds a ProviderBinding from a Go function. The function returns T or
// (T, error) and the binding key is T, adjusted by the As and Annotated
// options. Ordinary parameters become required positional dependencies; a
// single In struct parameter yields named dependencies instead.
//
// Example:
//
//	b, err := inject.Func(NewUserService, inject.Singleton())
func Func(fn any, opts ...BindingOption) (*ProviderBinding, error) {
	info, err := analyzer.Analyze(fn)
	if err != nil {
		return nil, BindingError{Cause: err}
	}

	options := newBindingOptions(opts)

	resultType := info.Result
	if options.as != nil {
		if !resultType.AssignableTo(options.as) {
			return nil, BindingError{
				Key: ForType(options.as),
				Cause: TypeMismatchError{
					Expected: options.as,
					Actual:   resultType,
					Context:  "As option",
				},
			}
		}
		resultType = options.as
	}

	key := ForType(resultType).Annotated(options.annotation)
	return NewProviderBinding(key, funcDependencies(info), invoker(info), opts...)
}

// ProvideFunc declares the binding built by Func.
func ProvideFunc(fn any, opts ...BindingOption) Declaration {
	return func(m *Module) error {
		b, err := Func(fn, opts...)
		if err != nil {
			return err
		}
		return m.declare(b)
	}
}

// InjectConstructor marks fn as the designated constructor in a
// ConstructorsFor list.
func InjectConstructor(fn any) any {
	return injectMarker{fn: fn}
}

type injectMarker struct {
	fn any
}

// ConstructorsFor builds a ConstructorBinding for T from Go constructor
// functions. Each constructor must return a type assignable to T, optionally
// with an error. Wrap one of them in InjectConstructor to designate it.
//
// Example:
//
//	b, err := inject.ConstructorsFor[*Client]([]any{
//	    NewDefaultClient,
//	    inject.InjectConstructor(NewClient),
//	}, inject.Singleton())
func ConstructorsFor[T any](ctors []any, opts ...BindingOption) (*ConstructorBinding, error) {
	options := newBindingOptions(opts)
	key := KeyOf[T]().Annotated(options.annotation)

	constructors := make([]Constructor, 0, len(ctors))
	for i, ctor := range ctors {
		marked := false
		if m, ok := ctor.(injectMarker); ok {
			ctor = m.fn
			marked = true
		}

		info, err := analyzer.Analyze(ctor)
		if err != nil {
			return nil, BindingError{Key: key, Cause: fmt.Errorf("constructor #%d: %w", i, err)}
		}

		if !info.Result.AssignableTo(key.Type) {
			return nil, BindingError{
				Key: key,
				Cause: TypeMismatchError{
					Expected: key.Type,
					Actual:   info.Result,
					Context:  fmt.Sprintf("constructor #%d", i),
				},
			}
		}

		constructors = append(constructors, Constructor{
			Name:         funcName(info.Value),
			Inject:       marked,
			Dependencies: funcDependencies(info),
			Construct:    invoker(info),
		})
	}

	return NewConstructorBinding(key, constructors, opts...)
}

// ConstructFuncs declares the binding built by ConstructorsFor.
func ConstructFuncs[T any](ctors []any, opts ...BindingOption) Declaration {
	return func(m *Module) error {
		b, err := ConstructorsFor[T](ctors, opts...)
		if err != nil {
			return err
		}
		return m.declare(b)
	}
}

// funcDependencies maps analyzed parameters to dependencies.
func funcDependencies(info *reflection.FuncInfo) []Dependency {
	deps := make([]Dependency, 0, len(info.Params))

	for _, param := range info.Params {
		key := ForType(param.Type)
		if param.Key != nil {
			key = key.Annotated(param.Key)
		}

		if param.Positional() {
			deps = append(deps, Arg(param.Index, key))
			continue
		}

		dep := NamedArg(param.Name, key)
		dep.Nullable = param.Optional
		deps = append(deps, dep)
	}

	return deps
}

func invoker(info *reflection.FuncInfo) func(Args) (any, error) {
	return func(args Args) (any, error) {
		return info.Call(args.Positional, args.Named)
	}
}

func funcName(fn reflect.Value) string {
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		return f.Name()
	}
	return fn.Type().String()
}
