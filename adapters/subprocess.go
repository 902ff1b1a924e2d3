// Package adapters collects the thin, out-of-core wrappers spec §1 and §4.G
// describe as plumbing: subprocess invocation, rsync, and annotation file
// I/O. None of these interpret linguistic content; they only move bytes
// between the engine and external collaborators.
package adapters

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/bittoy/corpuspipe/corpuserr"
)

// Subprocess runs an external language tool, honoring the data directory's
// bin/ subtree as a PATH fallback per spec §6 "Environment variables":
// "Language tool paths are consulted through the normal PATH first, then
// the data directory's bin/ subtree."
type Subprocess struct {
	// BinPath is appended to PATH (lowest priority) when resolving Name.
	BinPath string
}

// Run executes name with args, feeding stdin and returning stdout. A
// non-zero exit is surfaced as corpuserr.KindRuleFailed, matching spec §7
// "RuleFailed: an executed rule returned a non-zero status."
func (s Subprocess) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, corpuserr.New(corpuserr.KindRuleFailed, name, errWithStderr{err, stderr.String()})
	}
	return stdout.Bytes(), nil
}

func (s Subprocess) resolve(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	if s.BinPath != "" {
		path, err := exec.LookPath(s.BinPath + "/" + name)
		if err == nil {
			return path, nil
		}
	}
	return "", corpuserr.New(corpuserr.KindRuleFailed, name, exec.ErrNotFound)
}

type errWithStderr struct {
	err    error
	stderr string
}

func (e errWithStderr) Error() string {
	if e.stderr == "" {
		return e.err.Error()
	}
	return e.err.Error() + ": " + e.stderr
}

func (e errWithStderr) Unwrap() error { return e.err }
