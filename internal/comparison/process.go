package comparison

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/wesleyorama2/thunderbench/internal/config"
	thttp "github.com/wesleyorama2/thunderbench/internal/http"
)

// tailSize bounds the captured server output kept for error messages.
const tailSize = 4096

// tailBuffer keeps the last tailSize bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > tailSize {
		t.buf = t.buf[len(t.buf)-tailSize:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(bytes.TrimSpace(t.buf))
}

// serverProcess is a running competitor.
type serverProcess struct {
	cmd    *exec.Cmd
	output *tailBuffer
	done   chan struct{}
	err    error
}

// startServer launches the server with PORT and its extra environment set.
func startServer(server config.ServerConfig) (*serverProcess, error) {
	cmd := exec.Command(server.Command, server.Args...)
	cmd.Env = append(os.Environ(), "PORT="+strconv.Itoa(server.Port))
	for key, value := range server.Env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	out := &tailBuffer{}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", server.Command, err)
	}

	p := &serverProcess{cmd: cmd, output: out, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Pid returns the process id.
func (p *serverProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Exited is closed when the process ends.
func (p *serverProcess) Exited() <-chan struct{} {
	return p.done
}

// exitError describes an unexpected exit including the tail of its output.
func (p *serverProcess) exitError() error {
	msg := "server exited"
	if p.err != nil {
		msg = fmt.Sprintf("server exited: %v", p.err)
	}
	if tail := p.output.String(); tail != "" {
		msg += "\n" + tail
	}
	return errors.New(msg)
}

// stop interrupts the process and kills it if it has not exited within
// grace.
func (p *serverProcess) stop(grace time.Duration) {
	select {
	case <-p.done:
		return
	default:
	}

	if runtime.GOOS == "windows" {
		_ = p.cmd.Process.Kill()
	} else {
		_ = p.cmd.Process.Signal(os.Interrupt)
	}

	select {
	case <-p.done:
	case <-time.After(grace):
		_ = p.cmd.Process.Kill()
		<-p.done
	}
}

// waitHealthy polls url until it answers 2xx, the process exits, or
// timeout elapses.
func waitHealthy(ctx context.Context, p *serverProcess, url string, timeout, interval time.Duration) error {
	client := thttp.NewClient(thttp.WithTimeout(interval*4), thttp.WithDiscardBody())
	defer client.Close()

	prepared, err := client.Prepare(thttp.NewRequest("GET", url))
	if err != nil {
		return err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		resp, err := client.Do(ctx, prepared)
		if err == nil && resp.IsSuccess() {
			return nil
		}
		if err == nil {
			lastErr = fmt.Errorf("health check returned %s", resp.Status)
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.Exited():
			return p.exitError()
		case <-deadline.C:
			return fmt.Errorf("server not healthy after %s: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}

// warmup sends n sequential requests. Failures are counted, not fatal.
func warmup(ctx context.Context, client *thttp.Client, prepared *thttp.Prepared, n int) (failed int) {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return failed
		}
		resp, err := client.Do(ctx, prepared)
		if err != nil || resp.IsError() {
			failed++
		}
	}
	return failed
}
