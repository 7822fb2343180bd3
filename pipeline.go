package mosquittobuild

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Result collects everything a pipeline run produced. Stage is the last
// stage entered, so on failure it names the stage that failed.
type Result struct {
	Stage      Stage
	Builder    string
	Checkout   *Checkout
	Artifact   *Artifact
	Bindings   *Bindings
	Directives *DirectiveSet
	Output     []string // Native build tool output
}

// Pipeline runs the bundled build:
//
//	Init → Checkout → Build → BindingsGenerated-or-Skipped → LinkEmitted → Done
//
// Steps run strictly in order and every failure is terminal. Link directives
// are only written once all earlier steps succeeded.
type Pipeline struct {
	config  *Config
	logger  *slog.Logger
	stdout  io.Writer
	factory *BuilderFactory
	host    Platform
	cache   billy.Filesystem
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithStdout sets where link directives are written. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(p *Pipeline) {
		p.stdout = w
	}
}

// WithBuilderFactory replaces the native build strategies.
func WithBuilderFactory(factory *BuilderFactory) Option {
	return func(p *Pipeline) {
		p.factory = factory
	}
}

// WithHost overrides the detected host platform.
func WithHost(host Platform) Option {
	return func(p *Pipeline) {
		p.host = host
	}
}

// WithCacheFS sets the filesystem holding binding snapshots. Defaults to the
// OS filesystem rooted at config.Bindings.Dir.
func WithCacheFS(fs billy.Filesystem) Option {
	return func(p *Pipeline) {
		p.cache = fs
	}
}

// NewPipeline creates a pipeline for config.
func NewPipeline(config *Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:  config,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout:  os.Stdout,
		factory: NewBuilderFactory(),
		host:    HostPlatform(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.cache == nil {
		p.cache = osfs.New(config.Bindings.Dir)
	}

	return p
}

// Builder returns the native build strategy selected for the target.
func (p *Pipeline) Builder() (NativeBuilder, error) {
	return p.factory.BuilderFor(p.config.Target, p.host)
}

// RequiredTools lists every external tool the run will invoke.
func (p *Pipeline) RequiredTools() ([]ToolRequirement, error) {
	builder, err := p.Builder()
	if err != nil {
		return nil, err
	}

	tools := []ToolRequirement{gitRequirement}
	if checker, ok := builder.(ToolChecker); ok {
		tools = append(tools, checker.RequiredTools()...)
	}
	if p.config.Bindings.Generate {
		tools = append(tools, translatorRequirement(p.config))
	}
	return tools, nil
}

// CheckTools verifies that every required tool is in PATH.
func (p *Pipeline) CheckTools() error {
	tools, err := p.RequiredTools()
	if err != nil {
		return err
	}
	return CheckRequiredTools(tools)
}

// Run executes the pipeline. Errors are *StageError values wrapping one of
// the package sentinels; use ExitCode to map them to a process status.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{Stage: StageInit}

	builder, err := p.Builder()
	if err != nil {
		return result, p.fail(result, err)
	}
	result.Builder = builder.Name()

	p.logger.Info("running the bundled build",
		"version", p.config.LibraryVersion(),
		"target", p.config.Target.Triple(),
		"builder", builder.Name(),
		"bindgen", p.config.Bindings.Generate)

	// Checkout
	result.Stage = StageCheckout
	checkout, err := CheckoutSource(ctx, p.config, p.logger)
	if err != nil {
		return result, p.fail(result, err)
	}
	result.Checkout = checkout

	// Native build
	result.Stage = StageBuild
	build, err := builder.Build(ctx, p.config, checkout.Dir)
	if build != nil {
		result.Output = build.Output
	}
	if err != nil {
		return result, p.fail(result, err)
	}
	result.Artifact = build.Artifact
	p.logger.Debug("using mosquitto C library", "path", build.Artifact.Path())

	// Bindings
	result.Stage = StageBindings
	bindings, err := GenerateBindings(ctx, p.config, build.Artifact, p.cache, p.logger)
	if err != nil {
		return result, p.fail(result, err)
	}
	result.Bindings = bindings

	// Link directives
	result.Stage = StageLink
	directives := NewDirectiveSet(build.Artifact)
	if p.config.Output.CgoFile != "" {
		if err := WriteCgoFile(p.config.Output.CgoFile, p.config, build.Artifact, directives); err != nil {
			return result, p.fail(result, err)
		}
		p.logger.Debug("wrote cgo flags file", "path", p.config.Output.CgoFile)
	}
	if err := directives.Emit(p.stdout); err != nil {
		return result, p.fail(result, err)
	}
	result.Directives = &directives

	result.Stage = StageDone
	p.logger.Info("bundled build complete", "library", build.Artifact.Path(), "commit", checkout.Commit)
	return result, nil
}

func (p *Pipeline) fail(result *Result, err error) error {
	p.logger.Error("bundled build failed", "stage", string(result.Stage), "error", err)
	return &StageError{Stage: result.Stage, Err: err}
}
