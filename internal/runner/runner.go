package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/lyon/internal/stream"
)

// Publisher receives the events a Host produces. *stream.Bus satisfies it.
type Publisher interface {
	PublishLifecycle(stream.LifecycleEvent)
	PublishContent(stream.ContentEvent)
}

type process struct {
	cmd       *exec.Cmd
	cancelled atomic.Bool
	done      chan struct{}
}

// Host runs external commands and reports their activity as events keyed by
// correlation id. It implements stream.Launcher.
type Host struct {
	pub Publisher

	mu    sync.Mutex
	procs map[string]*process
}

// NewHost creates a Host publishing to pub.
func NewHost(pub Publisher) *Host {
	return &Host{pub: pub, procs: make(map[string]*process)}
}

// Start spawns cmd and returns its correlation id. The process outlives ctx;
// use Cancel to stop it.
func (h *Host) Start(ctx context.Context, c stream.Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := c.CorrelationID
	if id == "" {
		id = uuid.NewString()
	}

	cmd := exec.Command(c.Name, c.Args...)
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to spawn %s: %w", c.Name, err)
	}

	p := &process{cmd: cmd, done: make(chan struct{})}
	h.mu.Lock()
	h.procs[id] = p
	h.mu.Unlock()

	go h.monitor(id, p, stdout, stderr)
	return id, nil
}

// Cancel kills the process registered under id and publishes a cancelled
// event. Unknown or already finished ids are ignored.
func (h *Host) Cancel(_ context.Context, id string) error {
	h.mu.Lock()
	p, ok := h.procs[id]
	if ok {
		delete(h.procs, id)
	}
	h.mu.Unlock()
	if !ok {
		return nil
	}

	p.cancelled.Store(true)
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	h.pub.PublishLifecycle(stream.LifecycleEvent{
		CorrelationID: id,
		Kind:          stream.KindCancelled,
		Text:          "Process cancelled by user",
	})
	return nil
}

// Running returns the number of processes not yet finished or cancelled.
func (h *Host) Running() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.procs)
}

// Wait blocks until the process under id has exited or ctx ends. Unknown ids
// return immediately.
func (h *Host) Wait(ctx context.Context, id string) error {
	h.mu.Lock()
	p, ok := h.procs[id]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) monitor(id string, p *process, stdout, stderr io.Reader) {
	defer close(p.done)

	var g errgroup.Group
	g.Go(func() error {
		raw, err := io.ReadAll(stdout)
		if p.cancelled.Load() {
			return err
		}
		for _, text := range ExtractText(string(raw)) {
			h.pub.PublishContent(stream.ContentEvent{
				CorrelationID: id,
				Kind:          stream.KindTextDelta,
				Text:          text,
			})
		}
		return err
	})
	g.Go(func() error {
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			if p.cancelled.Load() {
				continue
			}
			h.pub.PublishLifecycle(stream.LifecycleEvent{
				CorrelationID: id,
				Kind:          stream.KindStderr,
				Text:          sc.Text(),
			})
		}
		return sc.Err()
	})

	// Pipes must be drained before Wait closes them.
	_ = g.Wait()
	waitErr := p.cmd.Wait()

	if !p.cancelled.Load() {
		h.pub.PublishLifecycle(exitEvent(id, waitErr))
	}

	h.mu.Lock()
	delete(h.procs, id)
	h.mu.Unlock()
}

func exitEvent(id string, err error) stream.LifecycleEvent {
	ev := stream.LifecycleEvent{CorrelationID: id, Kind: stream.KindComplete}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		ev.Text = "Process exited with code 0"
	case errors.As(err, &exitErr):
		ev.Kind = stream.KindError
		ev.Text = fmt.Sprintf("Process exited with code %d", exitErr.ExitCode())
	default:
		ev.Kind = stream.KindError
		ev.Text = fmt.Sprintf("Error waiting for process: %v", err)
	}
	return ev
}

// ExtractText pulls model text out of a command's complete stdout. It
// understands a single JSON document carrying "result" or a "content" array,
// and JSONL streams of agent_message items. Anything else is returned raw.
// Blank output yields nothing.
func ExtractText(out string) []string {
	if strings.TrimSpace(out) == "" {
		return nil
	}

	var doc any
	if err := json.Unmarshal([]byte(out), &doc); err == nil {
		obj, _ := doc.(map[string]any)
		if s, ok := obj["result"].(string); ok {
			return []string{s}
		}
		if items, ok := obj["content"].([]any); ok {
			var texts []string
			for _, it := range items {
				m, _ := it.(map[string]any)
				if s, ok := m["text"].(string); ok {
					texts = append(texts, s)
				}
			}
			return texts
		}
		return []string{out}
	}

	var b strings.Builder
	for _, line := range strings.Split(out, "\n") {
		var ev struct {
			Item *struct {
				Type string  `json:"type"`
				Text *string `json:"text"`
			} `json:"item"`
		}
		if json.Unmarshal([]byte(line), &ev) != nil || ev.Item == nil {
			continue
		}
		if ev.Item.Type == "agent_message" && ev.Item.Text != nil {
			b.WriteString(*ev.Item.Text)
			b.WriteByte('\n')
		}
	}
	if b.Len() > 0 {
		return []string{strings.TrimSpace(b.String())}
	}
	return []string{out}
}
