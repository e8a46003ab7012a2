package inject

import "context"

type injectorContextKey struct{}

// WithInjector returns a copy of ctx carrying inj.
func WithInjector(ctx context.Context, inj *Injector) context.Context {
	return context.WithValue(ctx, injectorContextKey{}, inj)
}

// FromContext returns the injector stored by WithInjector.
func FromContext(ctx context.Context) (*Injector, error) {
	if ctx == nil {
		return nil, ErrInjectorNotInContext
	}

	inj, ok := ctx.Value(injectorContextKey{}).(*Injector)
	if !ok || inj == nil {
		return nil, ErrInjectorNotInContext
	}

	return inj, nil
}
