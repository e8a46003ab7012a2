package inject

import (
	"reflect"
)

// Resolve returns the instance bound to the unannotated key of T.
//
// Example:
//
//	logger, err := inject.Resolve[Logger](inj)
//	if err != nil {
//	    return err
//	}
func Resolve[T any](inj *Injector) (T, error) {
	return resolveAs[T](inj, KeyOf[T]())
}

// ResolveAnnotated returns the instance bound to T qualified by annotation.
//
//	primary, err := inject.ResolveAnnotated[*sql.DB](inj, "primary")
func ResolveAnnotated[T any](inj *Injector, annotation any) (T, error) {
	return resolveAs[T](inj, KeyOf[T]().Annotated(annotation))
}

// MustResolve is like Resolve but panics if resolution fails.
// Use sparingly, typically only in initialization code.
func MustResolve[T any](inj *Injector) T {
	v, err := Resolve[T](inj)
	if err != nil {
		panic(err)
	}
	return v
}

func resolveAs[T any](inj *Injector, key Key) (T, error) {
	var zero T

	if inj == nil {
		return zero, ErrInjectorNil
	}

	instance, err := inj.GetInstance(key)
	if err != nil {
		return zero, err
	}

	if instance == nil {
		return zero, nil
	}

	v, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{
			Expected: key.Type,
			Actual:   reflect.TypeOf(instance),
			Context:  "type assertion",
		}
	}

	return v, nil
}
