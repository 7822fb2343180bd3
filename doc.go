// Package mosquittobuild builds a bundled copy of the Eclipse Mosquitto C
// client library and links it into a Go build.
//
// It is the build-time half of a cgo binding: everything MQTT lives in
// libmosquitto itself, this package only fetches, compiles and describes it.
//
// # Pipeline
//
// A run is strictly sequential and every failure is terminal:
//
//	Init → Checkout → Build → BindingsGenerated-or-Skipped → LinkEmitted → Done
//
// The stages:
//
//   - Checkout: a fresh shallow git clone, optionally pinned to one commit
//     that the resolved HEAD must match exactly
//   - Build: libmosquitto compiled with every optional feature off except
//     bundled dependencies, by a platform-selected NativeBuilder
//   - Bindings: optional Go bindings for mosquitto.h, snapshotted once per
//     version and target into the bindings directory
//   - Link: cgo:link-search and cgo:link-lib directives on stdout
//
// # Basic Usage
//
//	cfg, err := mosquittobuild.Load("")
//	if err != nil {
//	    return err
//	}
//
//	pipeline := mosquittobuild.NewPipeline(cfg, mosquittobuild.WithLogger(logger))
//	_, err = pipeline.Run(ctx)
//	os.Exit(mosquittobuild.ExitCode(err))
//
// # Architecture
//
// Native build strategies are registered with a factory and selected once:
//
//	BuilderFactory
//	├── MakefileBuilder (cross builds to linux/android)
//	└── CmakeBuilder (everything else)
//
// # Exit Codes
//
// ExitCode maps ErrArtifactMissing to 103 so CI can tell "the native compile
// silently produced nothing" apart from other failures, which map to 1.
package mosquittobuild
