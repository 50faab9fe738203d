//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when mage is run without arguments.
var Default = Build

const binary = "xrag"

func ldflags() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	if commit == "" {
		commit = "none"
	}
	date, _ := sh.Output("date", "-u", "+%Y-%m-%dT%H:%M:%SZ")
	return fmt.Sprintf("-s -w -X main.version=%s -X main.commit=%s -X main.date=%s", version, commit, date)
}

// Build compiles the xrag binary.
func Build() error {
	mg.Deps(Vet)
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binary, ".")
}

// Test runs the test suite with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs xrag into GOBIN.
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "-ldflags", ldflags(), ".")
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm(binary)
}
