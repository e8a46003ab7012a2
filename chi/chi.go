// Package chi provides inject integration for the Chi router.
//
// The middleware creates a child injector for every request. The child binds
// the request, its context and the chi route context, and is attached to the
// request context where Handle and inject.FromContext find it.
//
// Example usage:
//
//	inj, _ := inject.New([]*inject.Module{AppModule})
//
//	r := chi.NewRouter()
//	r.Use(injectchi.RequestMiddleware(inj))
//
//	r.Post("/login", injectchi.Handle(AuthController.Login))
//	r.Get("/users/{id}", injectchi.Handle(UserController.GetByID))
package chi

import (
	"context"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/junioryono/inject"
)

// requestModule names the module holding the request keys.
const requestModule = "chi.request"

// Keys bound by every request injector.
var (
	RequestKey      = inject.KeyOf[*http.Request]()
	ContextKey      = inject.KeyOf[context.Context]()
	RouteContextKey = inject.KeyOf[*gochi.Context]()
)

// Config holds the configuration for the request middleware.
type Config struct {
	// Logger receives request injector failures. Defaults to the parent
	// injector's logger.
	Logger *zap.Logger

	// ErrorHandler is called when the request injector cannot be created or a
	// middleware fails. If nil, a default handler returning 500 Internal
	// Server Error is used.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Modules returns extra modules for the request injector.
	Modules func(*http.Request) ([]*inject.Module, error)

	// Middlewares run after the request injector is created, in order.
	Middlewares []func(*inject.Injector, *http.Request) error
}

// Option configures the request middleware.
type Option func(*Config)

// WithLogger sets the logger used by the default error handler.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithErrorHandler sets the error handler for request injector failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithModules adds fixed modules to every request injector. Modules are
// frozen by the first request, so they must not be rebound afterwards.
func WithModules(modules ...*inject.Module) Option {
	return WithModuleFactory(func(*http.Request) ([]*inject.Module, error) {
		return modules, nil
	})
}

// WithModuleFactory builds extra modules for each request.
func WithModuleFactory(f func(*http.Request) ([]*inject.Module, error)) Option {
	return func(c *Config) {
		c.Modules = f
	}
}

// WithMiddleware adds a function that runs after the request injector is
// created. Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*inject.Injector, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig(parent *inject.Injector) *Config {
	logger := zap.NewNop()
	if parent != nil && parent.Options().Logger != nil {
		logger = parent.Options().Logger
	}

	return &Config{Logger: logger}
}

// RequestMiddleware creates a Chi middleware that creates a child of parent
// for each request.
//
// The request keys are bound by every request injector, so parent and its
// ancestors must not bind RequestKey, ContextKey or RouteContextKey. Such a
// conflict is detected and logged once here; every request then fails with a
// ParentBindingConflictError passed to the error handler.
//
// Transient bindings declared in parent are built by the request injector, so
// they may depend on the request keys.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(injectchi.RequestMiddleware(inj, injectchi.WithModules(RequestModule)))
func RequestMiddleware(parent *inject.Injector, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig(parent)
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.ErrorHandler == nil {
		logger := cfg.Logger
		cfg.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("failed to create request injector",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	conflict := requestKeyConflict(parent)
	if conflict != nil {
		cfg.Logger.Error("request keys are bound by the parent injector", zap.Error(conflict))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parent == nil {
				cfg.ErrorHandler(w, r, inject.ErrInjectorNil)
				return
			}

			if conflict != nil {
				cfg.ErrorHandler(w, r, conflict)
				return
			}

			child, req, err := newRequestInjector(parent, cfg, r)
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			for _, mw := range cfg.Middlewares {
				if err := mw(child, req); err != nil {
					cfg.ErrorHandler(w, req, err)
					return
				}
			}

			next.ServeHTTP(w, req)
		})
	}
}

// requestKeyConflict reports the first request key already bound in the
// parent chain.
func requestKeyConflict(parent *inject.Injector) error {
	for _, key := range []inject.Key{RequestKey, ContextKey, RouteContextKey} {
		for cur := parent; cur != nil; cur = cur.Parent() {
			if _, local := cur.Binding(key); local {
				return inject.ParentBindingConflictError{
					Key:        key,
					Module:     requestModule,
					AncestorID: cur.ID(),
				}
			}
		}
	}
	return nil
}

// newRequestInjector creates the request injector and the request that
// carries it.
func newRequestInjector(parent *inject.Injector, cfg *Config, r *http.Request) (*inject.Injector, *http.Request, error) {
	var req *http.Request

	request, err := inject.NewModule(requestModule,
		inject.Getter(RequestKey, func() any { return req }),
		inject.Getter(ContextKey, func() any { return req.Context() }),
		inject.Getter(RouteContextKey, func() any { return gochi.RouteContext(req.Context()) }),
	)
	if err != nil {
		return nil, nil, err
	}

	modules := []*inject.Module{request}
	if cfg.Modules != nil {
		extra, err := cfg.Modules(r)
		if err != nil {
			return nil, nil, err
		}
		modules = append(modules, extra...)
	}

	child, err := parent.CreateChild(modules)
	if err != nil {
		return nil, nil, err
	}

	req = r.WithContext(inject.WithInjector(r.Context(), child))
	return child, req, nil
}

// NewRouter returns a chi router that runs RequestMiddleware for parent.
func NewRouter(parent *inject.Injector, opts ...Option) *gochi.Mux {
	r := gochi.NewRouter()
	r.Use(RequestMiddleware(parent, opts...))
	return r
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Logger is used by the default handlers.
	Logger *zap.Logger

	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// InjectorErrorHandler is called when no injector is attached to the request.
	InjectorErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when the controller cannot be resolved.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithHandlerLogger sets the logger used by the default handlers.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(c *HandlerConfig) {
		c.Logger = logger
	}
}

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithInjectorErrorHandler sets the error handler for a missing request injector.
func WithInjectorErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.InjectorErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func newHandlerConfig(opts []HandlerOption) *HandlerConfig {
	cfg := &HandlerConfig{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.Logger
	if cfg.PanicHandler == nil {
		cfg.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
			logger.Error("panic in handler", zap.Any("panic", v), zap.String("path", r.URL.Path))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
	if cfg.InjectorErrorHandler == nil {
		cfg.InjectorErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("failed to get injector from context", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
	if cfg.ResolutionErrorHandler == nil {
		cfg.ResolutionErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("failed to resolve controller", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	return cfg
}

// Handle wraps a controller method for type-safe resolution from the request
// injector. T is resolved from the injector attached to the request context.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	type UserController interface {
//	    GetByID(http.ResponseWriter, *http.Request)
//	}
//
//	r.Get("/users/{id}", injectchi.Handle(UserController.GetByID))
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		inj, err := inject.FromContext(r.Context())
		if err != nil {
			cfg.InjectorErrorHandler(w, r, err)
			return
		}

		controller, err := inject.Resolve[T](inj)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
