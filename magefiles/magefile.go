//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

// Build compiles the mosquitto-build command into ./bin.
func Build() error {
	return sh.RunV("go", "build", "-o", "bin/mosquitto-build", "./cmd/mosquitto-build")
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Bundle builds libmosquitto and regenerates the Go bindings snapshot.
func Bundle() error {
	mg.Deps(Build)
	return sh.RunWithV(map[string]string{"MOSQUITTO_BINDGEN": "1"}, "bin/mosquitto-build")
}

// Clean removes build outputs. Binding snapshots are kept.
func Clean() error {
	if err := sh.Rm("bin"); err != nil {
		return err
	}
	return sh.Rm("build")
}
