package providers

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/dshills/lyon/internal/stream"
)

// modelPlaceholder in custom args is replaced by the configured model.
const modelPlaceholder = "{model}"

// Custom describes a user-configured provider command.
type Custom struct {
	Command string
	Args    []string
}

// CLI is an AI command line tool that reads a prompt on stdin and writes its
// answer to stdout.
type CLI struct {
	name      string
	bin       string
	args      []string
	modelFlag string
	trailing  []string
	model     string

	lookPath func(string) (string, error)
}

// New returns the provider registered under name. Built-in names are
// "claude" and "codex"; custom entries may shadow them.
func New(name, model string, custom map[string]Custom) (*CLI, error) {
	if c, ok := custom[name]; ok {
		if strings.TrimSpace(c.Command) == "" {
			return nil, fmt.Errorf("provider %s: command is empty", name)
		}
		return &CLI{name: name, bin: c.Command, args: c.Args, model: model, lookPath: exec.LookPath}, nil
	}
	switch name {
	case "claude":
		return &CLI{
			name:      "claude",
			bin:       "claude",
			args:      []string{"-p", "--output-format", "json"},
			modelFlag: "--model",
			model:     model,
			lookPath:  exec.LookPath,
		}, nil
	case "codex":
		return &CLI{
			name:      "codex",
			bin:       "codex",
			args:      []string{"exec", "--json"},
			modelFlag: "--model",
			trailing:  []string{"-"},
			model:     model,
			lookPath:  exec.LookPath,
		}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// Names lists built-in and custom provider names, sorted.
func Names(custom map[string]Custom) []string {
	seen := map[string]bool{"claude": true, "codex": true}
	for name := range custom {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Name returns the provider name.
func (c *CLI) Name() string { return c.name }

// Binary returns the executable the provider runs.
func (c *CLI) Binary() string { return c.bin }

// Command builds the invocation for prompt. The prompt is piped on stdin.
func (c *CLI) Command(prompt string) stream.Command {
	args := make([]string, 0, len(c.args)+len(c.trailing)+2)
	for _, a := range c.args {
		if c.modelFlag == "" && strings.Contains(a, modelPlaceholder) {
			a = strings.ReplaceAll(a, modelPlaceholder, c.model)
		}
		args = append(args, a)
	}
	if c.modelFlag != "" && c.model != "" {
		args = append(args, c.modelFlag, c.model)
	}
	args = append(args, c.trailing...)
	return stream.Command{Name: c.bin, Args: args, Stdin: prompt}
}

// Available reports whether the executable can be found on PATH.
func (c *CLI) Available() bool {
	_, err := c.lookPath(c.bin)
	return err == nil
}
