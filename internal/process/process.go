package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/remotecam/internal/logging"
)

// ErrNotStarted is returned when stopping a process that was never started.
var ErrNotStarted = errors.New("process not started")

// LogParser parses a log line and returns the log level and message.
type LogParser func(line string) (level, msg string)

// Process manages a single subprocess run.
type Process struct {
	id            string
	name          string
	args          []string
	logger        logging.Logger
	processLogger logging.Logger // logger for stderr (nil = use logger)
	logParser     LogParser

	mu          sync.Mutex
	cmd         *exec.Cmd
	stdout      *os.File
	processDone chan struct{}
	exitErr     error
	stderrDone  chan struct{}

	gracefulTimeout time.Duration // timeout for graceful shutdown before force kill
	killTimeout     time.Duration // timeout after Kill() before giving up
}

// New creates a process that will run name with args.
func New(id, name string, args []string, logger logging.Logger) *Process {
	return &Process{
		id:              id,
		name:            name,
		args:            args,
		logger:          logger,
		gracefulTimeout: 3 * time.Second,
		killTimeout:     3 * time.Second,
	}
}

// SetLogParser sets the logger and parser used for stderr lines.
func (p *Process) SetLogParser(logger logging.Logger, parser LogParser) {
	p.processLogger = logger
	p.logParser = parser
}

// Start launches the subprocess in its own process group and returns its
// stdout. The reader reports EOF once the process exits.
func (p *Process) Start() (io.Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return nil, fmt.Errorf("process %s already started", p.id)
	}

	cmd := exec.Command(p.name, p.args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// A plain pipe keeps stdout readable after Wait returns.
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stdout = stdoutW

	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	err = cmd.Start()
	stdoutW.Close()
	if err != nil {
		stdout.Close()
		return nil, fmt.Errorf("start %s: %w", p.name, err)
	}
	p.logger.Info("Process started", "id", p.id, "pid", cmd.Process.Pid)

	p.cmd = cmd
	p.stdout = stdout
	p.processDone = make(chan struct{})
	p.stderrDone = make(chan struct{})

	go func() {
		p.streamStderr(stderr)
		close(p.stderrDone)
	}()
	go func() {
		// Wait closes the stderr pipe, so drain it first.
		<-p.stderrDone
		err := cmd.Wait()
		p.mu.Lock()
		p.exitErr = err
		p.mu.Unlock()
		close(p.processDone)
	}()

	return stdout, nil
}

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processDone
}

// Stop sends SIGINT, waits for the grace period, then kills the process.
// It returns the exit code and closes the stdout reader.
func (p *Process) Stop() (int, error) {
	p.mu.Lock()
	cmd, done, stdout := p.cmd, p.processDone, p.stdout
	p.mu.Unlock()

	if cmd == nil {
		return 0, ErrNotStarted
	}
	defer stdout.Close()

	select {
	case <-done:
		return p.exitCode(), nil
	default:
	}

	if err := cmd.Process.Signal(syscall.SIGINT); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("Failed to send SIGINT", "id", p.id, "error", err)
	}

	select {
	case <-done:
		return p.exitCode(), nil
	case <-time.After(p.gracefulTimeout):
	}

	p.logger.Warn("Graceful shutdown timeout, forcing kill", "id", p.id, "timeout", p.gracefulTimeout)
	// Kill the whole group so children do not outlive the process.
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Error("Failed to kill process", "id", p.id, "error", err)
		}
	}

	select {
	case <-done:
	case <-time.After(p.killTimeout):
		return 137, fmt.Errorf("process %s did not exit after kill", p.id)
	}
	return 137, nil
}

func (p *Process) exitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return exitCodeFromError(p.exitErr)
}

// exitCodeFromError returns 0 for nil, the exit code for ExitError, or 1.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func (p *Process) streamStderr(reader io.Reader) {
	logger := p.processLogger
	if logger == nil {
		logger = p.logger
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		level, msg := "info", scanner.Text()
		if p.logParser != nil {
			level, msg = p.logParser(msg)
		}

		switch level {
		case "panic", "fatal", "error":
			logger.Error(msg, "id", p.id)
		case "warning":
			logger.Warn(msg, "id", p.id)
		case "info":
			logger.Info(msg, "id", p.id)
		default:
			logger.Debug(msg, "id", p.id)
		}
	}
	if err := scanner.Err(); err != nil {
		p.logger.Warn("Error reading stderr", "id", p.id, "error", err)
	}
}
