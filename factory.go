package mosquittobuild

import "fmt"

// BuilderFactory manages the registration and selection of native build
// strategies.
//
// # Usage
//
// Create a factory with the standard strategies:
//
//	factory := mosquittobuild.NewBuilderFactory()
//	builder, err := factory.BuilderFor(cfg.Target, mosquittobuild.HostPlatform())
//
// # Builder Selection
//
// Strategies are asked in registration order and the first one whose
// CanBuild() returns true wins. The selection is made once, before the
// build starts.
//
// # Thread Safety
//
// BuilderFactory is NOT thread-safe for registration.
// Register all builders before use.
type BuilderFactory struct {
	builders []NativeBuilder
}

// NewBuilderFactory creates a factory with the standard builders registered:
//  1. MakefileBuilder - cross builds to Linux-like targets
//  2. CmakeBuilder - everything else
func NewBuilderFactory() *BuilderFactory {
	factory := &BuilderFactory{}

	factory.Register(&MakefileBuilder{})
	factory.Register(&CmakeBuilder{})

	return factory
}

// Register adds a new builder to the factory.
//
// Builders are checked in the order they are registered.
func (f *BuilderFactory) Register(builder NativeBuilder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the strategy for building target on host.
func (f *BuilderFactory) BuilderFor(target, host Platform) (NativeBuilder, error) {
	for _, builder := range f.builders {
		if builder.CanBuild(target, host) {
			return builder, nil
		}
	}

	return nil, fmt.Errorf("%w: %s (host %s)", ErrNoBuilder, target, host)
}

// ListBuilders returns a copy of all registered builders.
func (f *BuilderFactory) ListBuilders() []NativeBuilder {
	return append([]NativeBuilder{}, f.builders...)
}
