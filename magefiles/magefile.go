//go:build mage

// Package main provides build targets for ncnnd using Mage.
//
// Usage:
//
//	mage build        Compile ncnnd without the native engine to bin/
//	mage buildNative  Compile ncnnd against libncnn (-tags ncnn, cgo)
//	mage buildSwagger Compile ncnnd with the Swagger UI mounted
//	mage test         Run all tests
//	mage testNative   Run tests with the native engine
//	mage lint         Run golangci-lint
//	mage clean        Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "ncnnd"
	binaryDir  = "bin"
	cmdDir     = "./cmd/ncnnd"
)

func build(tags string) error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if tags != "" {
		args = append(args, "-tags", tags)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Build compiles the ncnnd binary to bin/ without libncnn.
func Build() error { return build("") }

// BuildNative compiles ncnnd linked against libncnn. CGO_CFLAGS/CGO_LDFLAGS
// may point at a non-system ncnn install.
func BuildNative() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, binGo, "build", "-v", "-tags", "ncnn",
		"-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// BuildSwagger compiles ncnnd with the Swagger UI at /swagger/.
func BuildSwagger() error { return build("swagger") }

// Test runs all tests.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// TestNative runs tests against libncnn.
func TestNative() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, binGo, "test", "-tags", "ncnn", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), filepath.Join(binaryDir, binaryName))
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}
