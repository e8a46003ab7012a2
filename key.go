package inject

import (
	"fmt"
	"reflect"
)

// Key identifies a binding: a type plus an optional annotation (qualifier).
//
// Keys are compared by value, so two keys built independently for the same
// type and annotation are equal. A nil annotation is a valid qualifier of its
// own; KeyOf[*DB]() and KeyOf[*DB]().Annotated("replica") name different
// bindings.
type Key struct {
	Type       reflect.Type
	Annotation any
}

// ForType returns the unannotated key for t.
func ForType(t reflect.Type) Key {
	return Key{Type: t}
}

// KeyOf returns the unannotated key for T.
//
// Example:
//
//	inject.KeyOf[*sql.DB]()
//	inject.KeyOf[Cache]().Annotated("redis")
func KeyOf[T any]() Key {
	return Key{Type: reflect.TypeFor[T]()}
}

// Annotated returns a copy of k qualified by annotation.
func (k Key) Annotated(annotation any) Key {
	k.Annotation = annotation
	return k
}

// IsZero reports whether k has no type.
func (k Key) IsZero() bool {
	return k.Type == nil
}

// String formats the key as Type or Type[annotation].
func (k Key) String() string {
	if k.Annotation != nil {
		return fmt.Sprintf("%s[%v]", formatType(k.Type), k.Annotation)
	}
	return formatType(k.Type)
}

// validate rejects keys that cannot be used as map keys.
func (k Key) validate() error {
	if k.Type == nil {
		return InvalidKeyError{Key: k, Cause: ErrKeyTypeNil}
	}

	if k.Annotation != nil && !reflect.ValueOf(k.Annotation).Comparable() {
		return InvalidKeyError{Key: k, Cause: ErrAnnotationNotComparable}
	}

	return nil
}
