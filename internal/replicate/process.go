package replicate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"randomnet/adapters/rng"
	domain "randomnet/domain/replicate"
	"randomnet/internal"
	"randomnet/ports"
)

// WorkerSpecEnv carries the JSON worker spec into a worker process.
const WorkerSpecEnv = "RANDOMNET_WORKER_SPEC"

// ProcessSpawner runs each worker as a child process of the same binary.
// The child streams one replicate per stdout line. Closing its stdin is the
// stop signal; Kill is an OS-level kill, so a crash or a hang in one worker
// never reaches the dispatcher.
type ProcessSpawner struct {
	Path   string
	Args   []string
	Env    []string
	Stderr io.Writer
	Logger *internal.Logger
}

// NewProcessSpawner re-executes the running binary with args, e.g. the
// hidden "worker" subcommand.
func NewProcessSpawner(logger *internal.Logger, args ...string) (*ProcessSpawner, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating worker binary: %w", err)
	}
	return &ProcessSpawner{Path: path, Args: args, Stderr: os.Stderr, Logger: logger}, nil
}

type processHandle struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}
}

func (h *processHandle) Name() string                    { return h.name }
func (h *processHandle) Alive() bool                     { return !isClosed(h.done) }
func (h *processHandle) Wait(timeout time.Duration) bool { return waitDone(h.done, timeout) }

func (h *processHandle) Kill() error {
	if err := h.cmd.Process.Kill(); err != nil && !isClosed(h.done) {
		return err
	}
	return nil
}

// Spawn starts one worker process and a reader that feeds its output into q.
func (s *ProcessSpawner) Spawn(ctx context.Context, spec domain.WorkerSpec, flag *CancellationFlag, q *Queue) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := s.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	payload, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encoding worker spec: %w", err)
	}

	cmd := exec.Command(s.Path, s.Args...)
	cmd.Env = append(append(os.Environ(), s.Env...), WorkerSpecEnv+"="+string(payload))
	cmd.Stderr = s.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %s stdin: %w", spec.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %s stdout: %w", spec.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting worker %s: %w", spec.Name, err)
	}

	h := &processHandle{name: spec.Name, cmd: cmd, done: make(chan struct{})}
	flag.OnStop(func() { _ = stdin.Close() })

	go func() {
		defer close(h.done)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			v, err := strconv.ParseFloat(line, 64)
			if err != nil {
				logger.Error("Worker %s wrote malformed replicate %q", spec.Name, line)
				continue
			}
			q.Put(v)
		}
		if err := cmd.Wait(); err != nil {
			logger.Error("Worker %s exited: %v", spec.Name, err)
			return
		}
		logger.Debug("Worker %s stopped", spec.Name)
	}()
	return h, nil
}

// SpecFromEnv decodes the worker spec handed down by ProcessSpawner.
func SpecFromEnv() (domain.WorkerSpec, error) {
	var spec domain.WorkerSpec
	raw := os.Getenv(WorkerSpecEnv)
	if raw == "" {
		return spec, fmt.Errorf("%s is not set", WorkerSpecEnv)
	}
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return spec, fmt.Errorf("decoding %s: %w", WorkerSpecEnv, err)
	}
	return spec, nil
}

// ServeWorker is the body of a worker process. It writes replicates to
// stdout until stdin reaches EOF, which is how the dispatcher says stop.
func ServeWorker(ctx context.Context, spec domain.WorkerSpec, streams ports.RNGPort, stdin io.Reader, stdout io.Writer, logger *internal.Logger) error {
	r, err := streams.SeededStream(ctx, spec.Name, spec.Seed)
	if err != nil {
		return err
	}
	job, err := NewJob(spec, r)
	if err != nil {
		return err
	}

	flag := NewCancellationFlag()
	go func() {
		_, _ = io.Copy(io.Discard, stdin)
		flag.Stop()
	}()

	out := bufio.NewWriter(stdout)
	logger.Debug("Worker %s serving %s", spec.Name, spec.Statistic)
	err = Work(ctx, flag, job, func(v float64) error {
		if _, err := out.WriteString(strconv.FormatFloat(v, 'g', -1, 64) + "\n"); err != nil {
			return err
		}
		return out.Flush()
	})
	if err != nil {
		return fmt.Errorf("worker %s: %w", spec.Name, err)
	}
	return nil
}

// ServeFromEnv runs this process as a worker: spec from the environment,
// results on stdout, stop signal on stdin. Logs must go to stderr.
func ServeFromEnv(ctx context.Context, logger *internal.Logger) error {
	spec, err := SpecFromEnv()
	if err != nil {
		return err
	}
	return ServeWorker(ctx, spec, rng.New(), os.Stdin, os.Stdout, logger)
}
