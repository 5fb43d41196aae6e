// Package doctor runs runtime readiness diagnostics for config, tools, storage, and the service.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/scriber/internal/config"
	"github.com/rbright/scriber/internal/store"
	"github.com/rbright/scriber/internal/transport"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("%q not found; using defaults", cfg.Path)
	}
	if len(cfg.Overrides) > 0 {
		message += fmt.Sprintf(" (overridden by %s)", strings.Join(cfg.Overrides, ", "))
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: message})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir is set", "XDG_RUNTIME_DIR is empty; session control is unavailable"))

	checks = append(checks, checkService(ctx, cfg.Config.Service))
	checks = append(checks, checkProbe(cfg.Config.Metadata.ProbeCmd))
	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	checks = append(checks, checkStore(ctx, cfg.Config.Store))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkProbe treats an empty probe command as intentionally disabled.
func checkProbe(cmd config.CommandConfig) Check {
	if len(cmd.Argv) == 0 {
		return Check{Name: "metadata.probe_cmd", Pass: true, Message: "duration probing disabled"}
	}
	return checkCommand(cmd.Argv, "metadata.probe_cmd")
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkService verifies the transcription service answers HTTP at all.
func checkService(ctx context.Context, cfg config.ServiceConfig) Check {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return Check{Name: "service", Pass: false, Message: "service.endpoint is empty"}
	}

	client := transport.NewClient(transport.Config{Endpoint: cfg.Endpoint, Timeout: 2 * time.Second}, nil)
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Reachable(probeCtx); err != nil {
		return Check{Name: "service", Pass: false, Message: fmt.Sprintf("%v (uploads will fall back to a placeholder transcript)", err)}
	}
	return Check{Name: "service", Pass: true, Message: fmt.Sprintf("reachable at %s", client.Endpoint())}
}

// checkStore opens the configured backend and asks it to verify access.
func checkStore(ctx context.Context, cfg config.StoreConfig) Check {
	name := "store." + cfg.Backend
	s, err := store.Open(store.Config{
		Backend:   cfg.Backend,
		Path:      cfg.FilePath(),
		RedisAddr: cfg.RedisAddr,
		Key:       cfg.Key,
	}, nil)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	if closer, ok := s.(io.Closer); ok {
		defer closer.Close()
	}

	checker, ok := s.(store.Checker)
	if !ok {
		return Check{Name: name, Pass: true, Message: "in-process store"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := checker.Check(checkCtx); err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{Name: name, Pass: true, Message: "reachable"}
}
