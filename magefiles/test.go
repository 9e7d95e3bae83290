//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Test runs the full test suite with the race detector.
func Test() error {
	return goRun("test", "-race", "./...")
}

// Cover runs the test suite and writes an HTML coverage report.
func Cover() error {
	if err := goRun("test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	if err := goRun("tool", "cover", "-html=coverage.out", "-o", "coverage.html"); err != nil {
		return err
	}
	fmt.Println("Coverage report written to coverage.html")
	return nil
}

// Vet runs go vet across the module.
func Vet() error {
	return goRun("vet", "./...")
}

// All vets, tests, and builds, in that order.
func All() {
	mg.SerialDeps(Vet, Test, Build)
}

func goRun(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go %s: %w", args[0], err)
	}
	return nil
}
