package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teris-io/shortid"

	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/redact"
	"github.com/dshills/lyon/internal/stream"
)

// Provider turns a prompt into the external command that reviews it.
type Provider interface {
	Name() string
	Command(prompt string) stream.Command
}

// Request describes one review.
type Request struct {
	Diff       string
	Title      string
	Body       string
	PRNumber   int
	Repository string
	Rules      *Rules

	RedactSecrets bool
	RedactPaths   []string
}

// Progress receives engine activity. All fields are optional.
type Progress struct {
	OnStatus   func(Status)
	OnRedacted func(n int)
	OnThinking func()
	OnDelta    func(kind stream.Kind, text string)
}

func (p Progress) status(s Status) {
	if p.OnStatus != nil {
		p.OnStatus(s)
	}
}

// Engine runs reviews through an external provider command.
type Engine struct {
	Launcher stream.Launcher
	Events   stream.Events
	Provider Provider
	Now      func() time.Time
}

type outcome struct {
	output string
	err    error
}

// Run reviews req and returns the finished result. A failed or cancelled
// session yields a failed result together with the error; unparseable model
// output still yields a completed result.
func (e *Engine) Run(ctx context.Context, req Request, progress Progress) (Result, error) {
	now := e.Now
	if now == nil {
		now = time.Now
	}

	id, err := shortid.Generate()
	if err != nil {
		return Result{}, fmt.Errorf("generating review id: %w", err)
	}
	rc := Context{
		ID:         id,
		PRNumber:   req.PRNumber,
		Repository: req.Repository,
		Provider:   e.Provider.Name(),
		CreatedAt:  now(),
	}
	res := Result{
		ID:          rc.ID,
		PRNumber:    rc.PRNumber,
		Repository:  rc.Repository,
		Provider:    rc.Provider,
		Status:      StatusPending,
		Comments:    []Comment{},
		Suggestions: []Suggestion{},
		CreatedAt:   rc.CreatedAt,
	}
	progress.status(StatusPending)

	if strings.TrimSpace(req.Diff) == "" {
		rc.CompletedAt = now()
		res = Normalize("No changes to review.", "", rc)
		progress.status(res.Status)
		return res, nil
	}

	text := req.Diff
	redacted := 0
	if len(req.RedactPaths) > 0 {
		var n int
		text, n = redact.Paths(text, req.RedactPaths)
		redacted += n
	}
	if req.RedactSecrets {
		var n int
		text, n = redact.Secrets(text)
		redacted += n
	}
	if redacted > 0 && progress.OnRedacted != nil {
		progress.OnRedacted(redacted)
	}

	prompt := BuildPrompt(PromptInput{
		Title:  req.Title,
		Body:   req.Body,
		Diff:   text,
		Parsed: diff.Parse(text),
		Rules:  req.Rules,
	})

	done := make(chan outcome, 1)
	session := stream.NewSession(e.Launcher, e.Events, e.Provider.Command(prompt), stream.Callbacks{
		OnThinkingStart: progress.OnThinking,
		OnDelta:         progress.OnDelta,
		OnComplete:      func(out string) { done <- outcome{output: out} },
		OnError:         func(err error) { done <- outcome{err: err} },
	})

	if err := session.Start(ctx); err != nil {
		return e.fail(res, err, now, progress), err
	}
	res.Status = StatusRunning
	progress.status(StatusRunning)

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		session.Cancel(context.WithoutCancel(ctx))
		out = <-done
	}

	if out.err != nil {
		return e.fail(res, out.err, now, progress), out.err
	}

	rc.CompletedAt = now()
	res = NormalizeOutput(out.output, rc)
	res.Comments = ApplySeverityOverrides(res.Comments, req.Rules)
	progress.status(res.Status)
	return res, nil
}

func (e *Engine) fail(res Result, err error, now func() time.Time, progress Progress) Result {
	at := now()
	res.Status = StatusFailed
	res.Summary = err.Error()
	res.CompletedAt = &at
	progress.status(StatusFailed)
	return res
}
