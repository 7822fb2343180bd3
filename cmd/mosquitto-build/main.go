// Command mosquitto-build fetches, compiles and links a bundled libmosquitto.
//
// It clones the configured mosquitto revision, builds the shared library
// with every optional feature off except bundled dependencies, optionally
// generates Go bindings, and prints link directives on stdout:
//
//	cgo:link-search=native=/abs/build/lib
//	cgo:link-lib=mosquitto
//
// Exit status is 0 on success, 103 when the native build produced no
// library, and 1 for every other failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	mosquittobuild "github.com/contriboss/mosquitto-build"
	"github.com/contriboss/mosquitto-build/internal/logging"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("mosquitto-build", flag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", "", "optional YAML configuration file")
	bindgen := flags.Bool("bindgen", false, "generate Go bindings (same as MOSQUITTO_BINDGEN=1)")
	checkTools := flags.Bool("check-tools", false, "verify required tools are in PATH and exit")
	showVersion := flags.Bool("version", false, "print version and exit")

	if err := flags.Parse(args); err != nil {
		return mosquittobuild.ExitFailure
	}

	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	cfg, err := mosquittobuild.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return mosquittobuild.ExitFailure
	}
	if *bindgen {
		cfg.Bindings.Generate = true
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(stderr, err)
			return mosquittobuild.ExitFailure
		}
	}

	logger := logging.New(cfg.Logging, version, stdout, stderr).With("run_id", uuid.NewString())

	pipeline := mosquittobuild.NewPipeline(cfg,
		mosquittobuild.WithLogger(logger),
		mosquittobuild.WithStdout(stdout),
	)

	if *checkTools {
		if err := pipeline.CheckTools(); err != nil {
			fmt.Fprintln(stderr, err)
			return mosquittobuild.ExitFailure
		}
		logger.Info("all required tools found")
		return 0
	}

	_, err = pipeline.Run(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "failed to build bundled library: %v\n", err)
	}
	return mosquittobuild.ExitCode(err)
}
