// Package executor runs the external lifecycle script.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/convox/logger"
	"github.com/kballard/go-shellquote"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
)

const DefaultTimeout = 30 * time.Second

// Runner runs one lifecycle operation given as an argument vector
type Runner interface {
	Run(ctx context.Context, args ...string) model.CommandResult
}

// Executor invokes Command followed by the operation arguments. Arguments
// are passed as a vector and never go through a shell.
type Executor struct {
	Command []string
	Dir     string
	Timeout time.Duration
	Logger  *logger.Logger
}

var _ Runner = (*Executor)(nil)

// New splits script with shell quoting rules, e.g. "sudo ./webtop.sh"
func New(script, dir string, timeout time.Duration, log *logger.Logger) (*Executor, error) {
	words, err := shellquote.Split(script)
	if err != nil {
		return nil, fault.Wrap(fault.KindExecutor, err, "parse script")
	}
	if len(words) == 0 {
		return nil, fault.Errorf(fault.KindExecutor, "script required")
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Executor{Command: words, Dir: dir, Timeout: timeout, Logger: log}, nil
}

// Run executes the script with a hard timeout. A non-zero exit is an
// unsuccessful result with the captured streams; a timeout is reported with
// kind timeout and is not retried.
func (e *Executor) Run(ctx context.Context, args ...string) model.CommandResult {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	argv := append(append([]string{}, e.Command[1:]...), args...)

	cmd := exec.CommandContext(ctx, e.Command[0], argv...)
	cmd.Dir = e.Dir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := e.logger().At("run").Start()
	op := strings.Join(args, " ")

	err := cmd.Run()

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		log.Logf("command=%q state=timeout timeout=%s", op, e.Timeout)
		return model.CommandResult{
			Success:   false,
			Stdout:    stdout.String(),
			Stderr:    stderr.String(),
			Error:     "Command timed out",
			ErrorKind: fault.KindTimeout,
		}
	case err == nil:
		log.Successf("command=%q", op)
		return model.CommandResult{Success: true, Stdout: stdout.String(), Stderr: stderr.String()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Logf("command=%q state=failed exit=%d", op, exitErr.ExitCode())
		return model.CommandResult{
			Success:   false,
			Stdout:    stdout.String(),
			Stderr:    stderr.String(),
			ErrorKind: fault.KindExecutor,
		}
	}

	log.Error(fmt.Errorf("command %q: %w", op, err))
	return model.Failure(fault.New(fault.KindExecutor, err))
}

func (e *Executor) logger() *logger.Logger {
	if e.Logger == nil {
		return logger.New("ns=executor")
	}
	return e.Logger
}
