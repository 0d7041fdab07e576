// Package lifecycle runs the user scripts attached to the steps of a
// release. Each hook maps to one command line which is split with shell
// quoting rules and executed directly, without a shell. Scripts run in
// order and are awaited; a non-zero exit stops the release.
package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"
)

// Hook names a point in the release where a script may run.
type Hook string

const (
	PreRelease    Hook = "prerelease"
	PreBump       Hook = "prebump"
	PostBump      Hook = "postbump"
	PreChangelog  Hook = "prechangelog"
	PostChangelog Hook = "postchangelog"
	PreCommit     Hook = "precommit"
	PostCommit    Hook = "postcommit"
	PreTag        Hook = "pretag"
	PostTag       Hook = "posttag"
)

// Hooks lists every hook in release order.
var Hooks = []Hook{
	PreRelease, PreBump, PostBump,
	PreChangelog, PostChangelog,
	PreCommit, PostCommit,
	PreTag, PostTag,
}

// Valid reports whether h is a known hook.
func (h Hook) Valid() bool {
	for _, k := range Hooks {
		if h == k {
			return true
		}
	}
	return false
}

// ErrEmptyScript is returned for a script that splits into no words.
var ErrEmptyScript = errors.New("script produces no command")

// ScriptError reports a hook script that failed.
type ScriptError struct {
	Hook Hook
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s script: %v", e.Hook, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Runner executes configured scripts.
type Runner struct {
	// Scripts maps hook names to command lines.
	Scripts map[Hook]string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the process environment.
	Env    []string
	Logger *zap.Logger
	// DryRun logs the command instead of running it.
	DryRun bool
}

// Run executes the script for hook and returns its trimmed standard output.
// A hook without a script is a no-op.
func (r *Runner) Run(ctx context.Context, hook Hook) (string, error) {
	script := strings.TrimSpace(r.Scripts[hook])
	if script == "" {
		return "", nil
	}
	log := r.logger().With(zap.String("hook", string(hook)))

	args, err := shlex.Split(script)
	if err != nil {
		return "", fmt.Errorf("parsing %s script: %w", hook, err)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("%s: %w", hook, ErrEmptyScript)
	}

	log.Info(fmt.Sprintf("running lifecycle script %q", hook), zap.String("command", script))
	if r.DryRun {
		return "", nil
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Env = append(cmd.Env, "BUMPKIT_HOOK="+string(hook))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("running %q: %w: %s", script, err, msg)
		}
		return "", fmt.Errorf("running %q: %w", script, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		log.Warn(msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// ParseScripts converts a config map into hook scripts, rejecting unknown
// hook names.
func ParseScripts(raw map[string]string) (map[Hook]string, error) {
	scripts := make(map[Hook]string, len(raw))
	for name, script := range raw {
		h := Hook(strings.ToLower(name))
		if !h.Valid() {
			return nil, fmt.Errorf("unknown lifecycle hook %q", name)
		}
		scripts[h] = script
	}
	return scripts, nil
}
