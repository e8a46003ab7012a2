package inject

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// ========================================
// Binding options
// ========================================

// A BindingOption modifies the default behavior of NewProviderBinding,
// NewConstructorBinding, Func and the module helpers built on them.
type BindingOption interface {
	applyBindingOption(*bindingOptions)
}

type bindingOptions struct {
	singleton  bool
	annotation any
	as         reflect.Type
	inject     bool
}

func newBindingOptions(opts []BindingOption) *bindingOptions {
	options := &bindingOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyBindingOption(options)
		}
	}
	return options
}

// Singleton is a BindingOption that makes the owning injector build the
// instance at most once and share it.
func Singleton() BindingOption {
	return singletonOption(true)
}

// Transient is a BindingOption that builds a fresh instance on every request.
// It is the default for providers and constructors.
func Transient() BindingOption {
	return singletonOption(false)
}

type singletonOption bool

func (o singletonOption) String() string {
	if o {
		return "Singleton()"
	}
	return "Transient()"
}

func (o singletonOption) applyBindingOption(opts *bindingOptions) {
	opts.singleton = bool(o)
}

// Annotated is a BindingOption for Func and ConstructorsFor that binds the
// result under an annotated key.
//
//	inject.Func(NewReplicaDB, inject.Annotated("replica"))
func Annotated(annotation any) BindingOption {
	return annotatedOption{annotation: annotation}
}

type annotatedOption struct {
	annotation any
}

func (o annotatedOption) String() string {
	return fmt.Sprintf("Annotated(%v)", o.annotation)
}

func (o annotatedOption) applyBindingOption(opts *bindingOptions) {
	opts.annotation = o.annotation
}

// As is a BindingOption for Func that binds the result under T instead of the
// function's return type. The return type must be assignable to T.
//
//	inject.Func(NewRedisCache, inject.As[Cache]())
func As[T any]() BindingOption {
	return asOption{t: reflect.TypeFor[T]()}
}

type asOption struct {
	t reflect.Type
}

func (o asOption) String() string {
	return fmt.Sprintf("As[%s]()", formatType(o.t))
}

func (o asOption) applyBindingOption(opts *bindingOptions) {
	opts.as = o.t
}

// ========================================
// Injector options
// ========================================

// Options configures an Injector.
type Options struct {
	// Logger receives registration and resolution events. Defaults to a no-op
	// logger; children inherit their parent's logger.
	Logger *zap.Logger

	// EagerSingletons builds every local singleton, dependencies first, at the
	// end of New.
	EagerSingletons bool

	// StrictModules rejects a key declared by more than one module of the same
	// injector instead of letting the last module win.
	StrictModules bool
}

// An Option modifies the Options of New and CreateChild.
type Option interface {
	applyOption(*Options)
}

// WithLogger sets the injector's logger.
func WithLogger(logger *zap.Logger) Option {
	return loggerOption{logger: logger}
}

type loggerOption struct {
	logger *zap.Logger
}

func (o loggerOption) applyOption(opts *Options) {
	if o.logger != nil {
		opts.Logger = o.logger
	}
}

// WithEagerSingletons builds local singletons during New.
func WithEagerSingletons() Option {
	return eagerOption(true)
}

type eagerOption bool

func (o eagerOption) String() string {
	return "WithEagerSingletons()"
}

func (o eagerOption) applyOption(opts *Options) {
	opts.EagerSingletons = bool(o)
}

// WithStrictModules turns cross-module redeclarations into
// DuplicateModuleBindingError.
func WithStrictModules() Option {
	return strictOption(true)
}

type strictOption bool

func (o strictOption) String() string {
	return "WithStrictModules()"
}

func (o strictOption) applyOption(opts *Options) {
	opts.StrictModules = bool(o)
}

// WithOptions replaces every option at once.
func WithOptions(options Options) Option {
	return optionsOption(options)
}

type optionsOption Options

func (o optionsOption) applyOption(opts *Options) {
	logger := opts.Logger
	*opts = Options(o)
	if opts.Logger == nil {
		opts.Logger = logger
	}
}
