// Package runner abstracts execution of external programs so that every
// package-manager, helper, and snapshot call can be replaced by canned
// fixtures in tests.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result holds the outcome of one external program invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the program exited with status zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner runs an external program to completion and reports its outcome.
// A non-zero exit is not an error; err is reserved for programs that could
// not be started at all.
type Runner interface {
	Run(name string, args ...string) (*Result, error)
}

// Exec runs programs with os/exec.
type Exec struct{}

// Run executes name with args, capturing stdout and stderr separately.
func (Exec) Run(name string, args ...string) (*Result, error) {
	cmd := exec.Command(name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", CommandLine(name, args...), err)
	}

	return res, nil
}

// CommandAvailable reports whether program resolves on PATH according to
// the system `which` utility.
func CommandAvailable(r Runner, program string) bool {
	res, err := r.Run("which", program)
	if err != nil {
		return false
	}
	return res.Success()
}

// CommandLine joins a program and its arguments for messages and fixtures.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
