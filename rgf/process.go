package rgf

import (
	"bufio"
	"io"
	"iter"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// maxLineSize bounds a single line of learner output.
const maxLineSize = 1 << 20

// ExitStatus describes how a learner run ended.
type ExitStatus struct {
	Code     int
	Duration time.Duration
}

// Success reports whether the learner exited with code 0.
func (s ExitStatus) Success() bool {
	return s.Code == 0
}

// Process is a running learner. Its stdout and stderr share one pipe, which
// the caller must drain with Lines, Drain or Wait; the learner blocks once
// the pipe is full.
type Process struct {
	Name string
	Mode string

	cmd     *exec.Cmd
	out     *os.File
	started time.Time

	consumed atomic.Bool
	scanErr  error

	waitOnce sync.Once
	status   ExitStatus
	err      error
}

func start(cmd *exec.Cmd, name, mode string) (*Process, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "rgf: create output pipe")
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, errors.NewProcessError(name, mode, -1, err)
	}
	// The child holds its own copy of the write end; closing ours lets the
	// reader see EOF when the child exits.
	pw.Close()

	return &Process{
		Name:    name,
		Mode:    mode,
		cmd:     cmd,
		out:     pr,
		started: time.Now(),
	}, nil
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Lines returns the output of the learner one line at a time, without the
// trailing newline. The sequence ends when the learner closes its output.
// It can be ranged over once; later calls yield nothing.
func (p *Process) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !p.consumed.CompareAndSwap(false, true) {
			return
		}
		sc := bufio.NewScanner(p.out)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			if !yield(sc.Text()) {
				return
			}
		}
		p.scanErr = sc.Err()
	}
}

// Wait discards any output not yet read, waits for the learner to exit and
// returns its status. A non-zero exit is reported as a *errors.ProcessError.
// Wait must not be called while Lines is being ranged over. Calling it
// again returns the same result.
func (p *Process) Wait() (ExitStatus, error) {
	p.waitOnce.Do(func() {
		p.consumed.Store(true)
		_, _ = io.Copy(io.Discard, p.out)
		_ = p.out.Close()

		err := p.cmd.Wait()
		p.status = ExitStatus{
			Code:     p.cmd.ProcessState.ExitCode(),
			Duration: time.Since(p.started),
		}

		var exitErr *exec.ExitError
		switch {
		case err == nil && p.scanErr == nil:
		case err == nil:
			p.err = errors.NewProcessError(p.Name, p.Mode, p.status.Code, p.scanErr)
		case errors.As(err, &exitErr):
			p.err = errors.NewProcessError(p.Name, p.Mode, p.status.Code, nil)
		default:
			p.err = errors.NewProcessError(p.Name, p.Mode, p.status.Code, err)
		}
	})
	return p.status, p.err
}

// Drain passes every output line to fn and then waits for the learner.
func (p *Process) Drain(fn func(line string)) (ExitStatus, error) {
	for line := range p.Lines() {
		fn(line)
	}
	return p.Wait()
}
