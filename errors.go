package inject

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Typed errors below match these with errors.Is.

var (
	// Key errors.
	ErrKeyTypeNil              = errors.New("key type cannot be nil")
	ErrAnnotationNotComparable = errors.New("key annotation must be comparable")

	// Dependency declaration errors.
	ErrPositionConflict = errors.New("positional dependency has a negative or duplicate position")
	ErrPositionGap      = errors.New("positional dependencies must be contiguous from 0")
	ErrNameConflict     = errors.New("named dependency has an empty or duplicate name")

	// Binding errors.
	ErrProviderNil          = errors.New("provider function cannot be nil")
	ErrAmbiguousConstructor = errors.New("ambiguous constructor")
	ErrMissingDependency    = errors.New("missing dependency")

	// Module errors.
	ErrDuplicateBinding = errors.New("duplicate binding")
	ErrModuleFrozen     = errors.New("module has been consumed by an injector")

	// Injector errors.
	ErrUnbound              = errors.New("no binding for key")
	ErrParentConflict       = errors.New("key is already bound by an ancestor injector")
	ErrCircularDependency   = errors.New("circular dependency")
	ErrReservedKey          = errors.New("key is reserved by the injector")
	ErrInjectorNil          = errors.New("injector cannot be nil")
	ErrInjectorNotInContext = errors.New("no injector in context")
)

var (
	_ error = InvalidKeyError{}
	_ error = InvalidDependencyError{}
	_ error = BindingError{}
	_ error = UnboundKeyError{}
	_ error = ParentBindingConflictError{}
	_ error = CircularDependencyError{}
	_ error = AmbiguousConstructorError{}
	_ error = DuplicateBindingError{}
	_ error = DuplicateModuleBindingError{}
	_ error = MissingDependencyError{}
	_ error = ConstructorInvocationError{}
	_ error = ConstructorPanicError{}
	_ error = ResolutionError{}
	_ error = RegistrationError{}
	_ error = TypeMismatchError{}
	_ error = ModuleError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// InvalidKeyError indicates a key that cannot identify a binding.
type InvalidKeyError struct {
	Key   Key
	Cause error
}

func (e InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %s: %v", e.Key, e.Cause)
}

func (e InvalidKeyError) Unwrap() error {
	return e.Cause
}

// InvalidDependencyError indicates a malformed dependency list.
type InvalidDependencyError struct {
	Dependency Dependency
	Cause      error
}

func (e InvalidDependencyError) Error() string {
	return fmt.Sprintf("invalid dependency %s: %v", e.Dependency, e.Cause)
}

func (e InvalidDependencyError) Unwrap() error {
	return e.Cause
}

// BindingError wraps an invalid binding declaration.
type BindingError struct {
	Key   Key
	Cause error
}

func (e BindingError) Error() string {
	return fmt.Sprintf("invalid binding for %s: %v", e.Key, e.Cause)
}

func (e BindingError) Unwrap() error {
	return e.Cause
}

// UnboundKeyError indicates that no injector in the chain binds the key.
type UnboundKeyError struct {
	Key Key

	// Available are keys that ARE bound (for suggestions).
	Available []Key
}

func (e UnboundKeyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no binding for %s", e.Key)

	if similar := findSimilarKeys(e.Key, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, k := range similar {
			fmt.Fprintf(&b, "  • %s\n", k)
		}
	}

	return b.String()
}

func (e UnboundKeyError) Is(target error) bool {
	return target == ErrUnbound
}

// findSimilarKeys finds keys with the same type or a similar type name.
func findSimilarKeys(target Key, available []Key) []Key {
	if target.Type == nil || len(available) == 0 {
		return nil
	}

	targetName := strings.ToLower(typeName(target.Type))

	var similar []Key
	for _, k := range available {
		if k == target || k.Type == nil {
			continue
		}

		name := strings.ToLower(typeName(k.Type))
		if k.Type == target.Type ||
			strings.Contains(name, targetName) ||
			strings.Contains(targetName, name) {
			similar = append(similar, k)
		}

		// Limit suggestions
		if len(similar) >= 5 {
			break
		}
	}

	return similar
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// ParentBindingConflictError indicates that a child injector declares a key
// an ancestor already binds. Children may only add keys.
type ParentBindingConflictError struct {
	Key        Key
	Module     string
	AncestorID string
}

func (e ParentBindingConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %q redeclares %s, which is already bound by ancestor injector %s\n\n",
		e.Module, e.Key, e.AncestorID)
	b.WriteString("Child injectors may only add new keys.\n\n")
	b.WriteString("To resolve this:\n")
	b.WriteString("  • Remove the binding from the child module\n")
	fmt.Fprintf(&b, "  • Bind the child's value under an annotated key, e.g. %s\n",
		e.Key.Annotated("child"))

	return b.String()
}

func (e ParentBindingConflictError) Is(target error) bool {
	return target == ErrParentConflict
}

// CircularDependencyError reports a dependency cycle. Chain starts and ends
// with the repeated key.
type CircularDependencyError struct {
	Chain []Key
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	for i, k := range e.Chain {
		if i == len(e.Chain)-1 && i > 0 {
			fmt.Fprintf(&b, "    %s (cycle)\n", k)
			break
		}
		fmt.Fprintf(&b, "    %s\n", k)
		b.WriteString("      ↓\n")
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Use an interface to break the dependency\n")
	b.WriteString("  • Mark one of the dependencies optional\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

func (e CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

// AmbiguousConstructorError indicates that no single constructor could be
// selected for a constructor binding.
type AmbiguousConstructorError struct {
	Key        Key
	Candidates []string
	Reason     string
}

func (e AmbiguousConstructorError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot select a constructor for %s: %s", e.Key, e.Reason)
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, " (candidates: %s)", strings.Join(e.Candidates, ", "))
	}
	b.WriteString("\n\nMark exactly one constructor for injection or declare a single constructor.")
	return b.String()
}

func (e AmbiguousConstructorError) Is(target error) bool {
	return target == ErrAmbiguousConstructor
}

// DuplicateBindingError indicates that one module declares a key twice.
type DuplicateBindingError struct {
	Key    Key
	Module string
}

func (e DuplicateBindingError) Error() string {
	return fmt.Sprintf("module %q declares %s more than once (use Rebind to override)", e.Module, e.Key)
}

func (e DuplicateBindingError) Is(target error) bool {
	return target == ErrDuplicateBinding
}

// DuplicateModuleBindingError indicates that two modules of one injector
// declare the same key while StrictModules is set.
type DuplicateModuleBindingError struct {
	Key    Key
	First  string
	Second string
}

func (e DuplicateModuleBindingError) Error() string {
	return fmt.Sprintf("%s is declared by module %q and module %q", e.Key, e.First, e.Second)
}

func (e DuplicateModuleBindingError) Is(target error) bool {
	return target == ErrDuplicateBinding
}

// MissingDependencyError indicates that BuildInstance was called without a
// required dependency in the Resolution.
type MissingDependencyError struct {
	Key        Key
	Dependency Dependency
}

func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("building %s: required dependency %s was not resolved", e.Key, e.Dependency)
}

func (e MissingDependencyError) Is(target error) bool {
	return target == ErrMissingDependency
}

// ConstructorInvocationError wraps an error returned by a provider or constructor.
type ConstructorInvocationError struct {
	Key   Key
	Cause error
}

func (e ConstructorInvocationError) Error() string {
	return fmt.Sprintf("failed to build %s: %v", e.Key, e.Cause)
}

func (e ConstructorInvocationError) Unwrap() error {
	return e.Cause
}

// ConstructorPanicError indicates a provider or constructor panicked.
// It captures the panic value and stack trace for debugging.
type ConstructorPanicError struct {
	Key   Key
	Panic any
	Stack []byte
}

func (e ConstructorPanicError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "provider for %s panicked: %v\n", e.Key, e.Panic)

	b.WriteString("\nProviders should be pure dependency wiring - avoid operations that can panic.\n")

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// ResolutionError wraps a failure to resolve one dependency of Key.
type ResolutionError struct {
	Key        Key
	Dependency string
	Cause      error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s (dependency %s): %v", e.Key, e.Dependency, e.Cause)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// RegistrationError wraps errors while an injector registers module bindings.
type RegistrationError struct {
	Key    Key
	Module string
	Cause  error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to register %s from module %q: %v", e.Key, e.Module, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a type assertion or conversion failed.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string // "instance binding", "type assertion", etc.
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// ModuleError wraps errors from module declarations.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		// Format pointers as *Type instead of *package.Type
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
