package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/dshills/lyon/internal/config"
	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/github"
	"github.com/dshills/lyon/internal/output"
	"github.com/dshills/lyon/internal/review"
	"github.com/dshills/lyon/internal/store"
)

const sampleDiff = "diff --git a/main.go b/main.go\n" +
	"--- a/main.go\n" +
	"+++ b/main.go\n" +
	"@@ -1,2 +1,3 @@\n" +
	" package main\n" +
	"+var limit = 10\n" +
	" func main() {}\n"

const fakeResponse = `Here is the review.
{"summary": "Looks risky", "overallScore": 6,
 "comments": [{"path": "main.go", "line": 2, "severity": "critical", "body": "limit is never read"}],
 "suggestions": ["add a test"]}`

// resetFlags resets all package-level flag variables to their zero values.
func resetFlags() {
	flagPaths = ""
	flagExclude = ""
	flagContextLines = 0
	flagMaxDiffBytes = 0
	flagProvider = ""
	flagModel = ""
	flagFormat = ""
	flagOut = ""
	flagFailOn = ""
	flagRules = ""
	flagNoRedact = false
	flagNoSave = false
	flagVerbose = false
	flagMergeBase = false
	flagRepo = ""
	flagPost = false
	flagReviewID = ""
	flagHistoryRepo = ""
	flagHistoryLimit = 20
	flagNoColor = false
}

// saveExitCode restores exitCode after the test and resets it now.
func saveExitCode(t *testing.T) {
	t.Helper()
	saved := exitCode
	t.Cleanup(func() { exitCode = saved })
	exitCode = ExitSuccess
}

// writeScript creates an executable shell script acting as an AI provider.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\ncat >/dev/null\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeProviderConfig returns a config whose "fake" provider prints
// fakeResponse, and isolates config and history in temp dirs.
func fakeProviderConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	script := writeScript(t, dir, "fake-ai", "cat <<'JSON'\n"+fakeResponse+"\nJSON\n")

	cfg := config.Default()
	cfg.Provider = "fake"
	cfg.Providers = map[string]config.ProviderConfig{"fake": {Command: script}}
	cfg.Format = "json"
	cfg.FailOn = "warning"
	cfg.Store.Path = filepath.Join(dir, "history.db")
	return cfg
}

func readReport(t *testing.T, path string) output.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var report output.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not valid JSON: %v\n%s", err, data)
	}
	return report
}

func historyResults(t *testing.T, path string) []review.Result {
	t.Helper()
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer st.Close()
	results, err := st.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("listing history: %v", err)
	}
	return results
}

// --- splitComma tests ---

func TestSplitComma(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", nil},
		{"single value", "foo", []string{"foo"}},
		{"multiple values", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace trimmed", " a , b , c ", []string{"a", "b", "c"}},
		{"empty parts skipped", "a,,b", []string{"a", "b"}},
		{"all empty", ",,,", nil},
		{"glob patterns", "*.go,src/**/*.ts", []string{"*.go", "src/**/*.ts"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitComma(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitComma(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitComma(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// --- buildOverrides tests ---

func TestBuildOverrides_NoFlags(t *testing.T) {
	resetFlags()
	if m := buildOverrides(); len(m) != 0 {
		t.Errorf("buildOverrides() with no flags = %v, want empty map", m)
	}
}

func TestBuildOverrides_AllFlags(t *testing.T) {
	resetFlags()
	flagProvider = "codex"
	flagModel = "o4-mini"
	flagFormat = "json"
	flagFailOn = "warning"
	flagContextLines = 5
	flagMaxDiffBytes = 1000
	flagRules = "rules.toml"

	m := buildOverrides()

	expected := map[string]string{
		"provider":     "codex",
		"model":        "o4-mini",
		"format":       "json",
		"failOn":       "warning",
		"contextLines": "5",
		"maxDiffBytes": "1000",
		"rulesFile":    "rules.toml",
	}
	if len(m) != len(expected) {
		t.Fatalf("buildOverrides() returned %d entries, want %d", len(m), len(expected))
	}
	for k, v := range expected {
		if m[k] != v {
			t.Errorf("buildOverrides()[%q] = %q, want %q", k, m[k], v)
		}
	}
}

func TestBuildOverrides_ZeroIntsExcluded(t *testing.T) {
	resetFlags()
	flagProvider = "claude"

	m := buildOverrides()
	if _, ok := m["contextLines"]; ok {
		t.Error("contextLines=0 should not be in overrides")
	}
	if _, ok := m["maxDiffBytes"]; ok {
		t.Error("maxDiffBytes=0 should not be in overrides")
	}
}

// --- buildDiffOpts tests ---

func TestBuildDiffOpts_FromConfig(t *testing.T) {
	resetFlags()
	cfg := config.Config{
		ContextLines: 5,
		MaxDiffBytes: 100000,
		Include:      []string{"*.go"},
		Exclude:      []string{"vendor/**"},
	}

	opts := buildDiffOpts(cfg)

	if opts.ContextLines != 5 || opts.MaxDiffBytes != 100000 {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.Include) != 1 || opts.Include[0] != "*.go" {
		t.Errorf("Include = %v, want [*.go]", opts.Include)
	}
	if len(opts.Exclude) != 1 || opts.Exclude[0] != "vendor/**" {
		t.Errorf("Exclude = %v, want [vendor/**]", opts.Exclude)
	}
}

func TestBuildDiffOpts_PathsFlagOverridesInclude(t *testing.T) {
	resetFlags()
	flagPaths = "src/**/*.go,lib/**/*.go"

	opts := buildDiffOpts(config.Config{Include: []string{"**/*"}})

	if len(opts.Include) != 2 || opts.Include[0] != "src/**/*.go" || opts.Include[1] != "lib/**/*.go" {
		t.Errorf("Include = %v, want [src/**/*.go lib/**/*.go]", opts.Include)
	}
}

func TestBuildDiffOpts_ExcludeFlagAppends(t *testing.T) {
	resetFlags()
	flagExclude = "test/**,docs/**"

	opts := buildDiffOpts(config.Config{Exclude: []string{"vendor/**"}})

	want := []string{"vendor/**", "test/**", "docs/**"}
	if len(opts.Exclude) != len(want) {
		t.Fatalf("Exclude = %v, want %v", opts.Exclude, want)
	}
	for i := range want {
		if opts.Exclude[i] != want[i] {
			t.Errorf("Exclude[%d] = %q, want %q", i, opts.Exclude[i], want[i])
		}
	}
}

// --- helpers ---

func TestParsePRNumber(t *testing.T) {
	if n, err := parsePRNumber("42"); err != nil || n != 42 {
		t.Errorf("parsePRNumber(42) = %d, %v", n, err)
	}
	for _, bad := range []string{"abc", "0", "-3", ""} {
		if _, err := parsePRNumber(bad); err == nil {
			t.Errorf("parsePRNumber(%q) should fail", bad)
		}
	}
}

func TestCustomProviders(t *testing.T) {
	cfg := config.Config{Providers: map[string]config.ProviderConfig{
		"local": {Command: "llm", Args: []string{"-m", "{model}"}},
	}}
	got := customProviders(cfg)
	if got["local"].Command != "llm" || len(got["local"].Args) != 2 {
		t.Errorf("customProviders = %+v", got)
	}
}

func TestPRDiffComments(t *testing.T) {
	got := prDiffComments([]github.PRComment{
		{ID: 1, Path: "a.go", Line: 3, Side: diff.SideLeft, Body: "why?", User: "octo"},
	})
	if len(got) != 1 {
		t.Fatalf("got %d comments", len(got))
	}
	c := got[0]
	if c.Path != "a.go" || c.Line != 3 || c.Side != diff.SideLeft || c.Author != "octo" || c.Body != "why?" {
		t.Errorf("comment = %+v", c)
	}
}

func TestStoredReport(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	done := created.Add(12 * time.Second)

	pr := storedReport(review.Result{PRNumber: 9, Repository: "acme/api", CreatedAt: created, CompletedAt: &done})
	if pr.Source != "PR #9 (acme/api)" {
		t.Errorf("Source = %q", pr.Source)
	}
	if pr.Elapsed != 12*time.Second {
		t.Errorf("Elapsed = %v, want 12s", pr.Elapsed)
	}

	local := storedReport(review.Result{Repository: "acme/api"})
	if local.Source != "local changes in acme/api" || local.Elapsed != 0 {
		t.Errorf("local report = %+v", local)
	}
}

// --- version command tests ---

func TestVersionCmd_Execute(t *testing.T) {
	if err := versionCmd.Execute(); err != nil {
		t.Errorf("version command returned error: %v", err)
	}
}

func TestVersionConstant(t *testing.T) {
	if version == "" {
		t.Error("version constant is empty")
	}
}

// --- config command tests ---

func TestConfigInit_CreatesFile(t *testing.T) {
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configCmd.SetArgs([]string{"init"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config init returned error: %v", err)
	}

	var cfg config.Config
	if _, err := toml.DecodeFile(filepath.Join(tmpDir, "lyon", "config.toml"), &cfg); err != nil {
		t.Fatalf("config file is not valid TOML: %v", err)
	}
	if cfg.Provider == "" {
		t.Error("config file has empty provider")
	}
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfgDir := filepath.Join(tmpDir, "lyon")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte("provider = \"codex\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	configCmd.SetArgs([]string{"init"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config init with existing file returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfgDir, "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "provider = \"codex\"\n" {
		t.Errorf("config init overwrote existing file:\n%s", data)
	}
}

func TestConfigSet_UpdatesFile(t *testing.T) {
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("LYON_MODEL", "from-env")

	configCmd.SetArgs([]string{"set", "store.reuseTTLSeconds", "600"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config set returned error: %v", err)
	}

	var cfg config.Config
	if _, err := toml.DecodeFile(filepath.Join(tmpDir, "lyon", "config.toml"), &cfg); err != nil {
		t.Fatalf("config file is not valid TOML: %v", err)
	}
	if cfg.Store.ReuseTTLSeconds != 600 {
		t.Errorf("reuseTTLSeconds = %d, want 600", cfg.Store.ReuseTTLSeconds)
	}
	if cfg.Provider != "claude" {
		t.Errorf("provider = %q, defaults should be kept", cfg.Provider)
	}
	if cfg.Model == "from-env" {
		t.Error("environment overrides must not be written to the file")
	}
}

func TestConfigSet_InvalidKey(t *testing.T) {
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configCmd.SetArgs([]string{"set", "unknownKey", "value"})
	if err := configCmd.Execute(); err == nil {
		t.Error("config set with invalid key should return error")
	}
}

func TestConfigSet_MissingArgs(t *testing.T) {
	resetFlags()

	configCmd.SetArgs([]string{"set", "provider"})
	if err := configCmd.Execute(); err == nil {
		t.Error("config set with 1 arg should return error (requires 2)")
	}
}

func TestConfigShowAndPath_Execute(t *testing.T) {
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	for _, sub := range []string{"show", "path"} {
		configCmd.SetArgs([]string{sub})
		if err := configCmd.Execute(); err != nil {
			t.Errorf("config %s returned error: %v", sub, err)
		}
	}
}

// --- command structure tests ---

func TestReviewCmd_HasSubcommands(t *testing.T) {
	assertSubcommands(t, reviewCmd, "pr", "staged", "unstaged", "range")
}

func TestDiffCmd_HasSubcommands(t *testing.T) {
	assertSubcommands(t, diffCmd, "pr", "staged", "unstaged", "range")
}

func TestHistoryCmd_HasSubcommands(t *testing.T) {
	assertSubcommands(t, historyCmd, "list", "show", "delete")
}

func assertSubcommands(t *testing.T, parent *cobra.Command, names ...string) {
	t.Helper()
	found := map[string]bool{}
	for _, sub := range parent.Commands() {
		found[sub.Name()] = true
	}
	for _, name := range names {
		if !found[name] {
			t.Errorf("subcommand %q not found", name)
		}
	}
}

func TestReviewRangeCmd_MissingArg(t *testing.T) {
	resetFlags()

	reviewCmd.SetArgs([]string{"range"})
	if err := reviewCmd.Execute(); err == nil {
		t.Error("review range without arg should return error")
	}
}

func TestReviewPRCmd_InvalidNumber(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reviewCmd.SetArgs([]string{"pr", "abc"})
	if err := reviewCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exitCode != ExitUsageError {
		t.Errorf("exitCode = %d, want %d (ExitUsageError)", exitCode, ExitUsageError)
	}
}

func TestReviewPRCmd_MissingToken(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GITHUB_TOKEN", "")

	reviewCmd.SetArgs([]string{"pr", "7", "--repo", "acme/api"})
	if err := reviewCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exitCode != ExitAuthError {
		t.Errorf("exitCode = %d, want %d (ExitAuthError)", exitCode, ExitAuthError)
	}
}

// --- review flow tests ---

func TestRunReview_EndToEnd(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	cfg := fakeProviderConfig(t)
	flagOut = filepath.Join(t.TempDir(), "report.json")

	runReview(context.Background(), target{source: "test changes", repository: "acme/api", diff: sampleDiff}, cfg)

	if exitCode != ExitFindings {
		t.Errorf("exitCode = %d, want %d (critical comment meets warning threshold)", exitCode, ExitFindings)
	}
	report := readReport(t, flagOut)
	res := report.Result
	if res.Status != review.StatusCompleted || res.Summary != "Looks risky" {
		t.Errorf("result = %+v", res)
	}
	if len(res.Comments) != 1 || res.Comments[0].Path != "main.go" || res.Comments[0].Line != 2 {
		t.Errorf("comments = %+v", res.Comments)
	}
	if res.Provider != "fake" || res.Repository != "acme/api" {
		t.Errorf("provider/repository = %q/%q", res.Provider, res.Repository)
	}
	if report.Stats.Additions != 1 || report.Reused {
		t.Errorf("report = %+v", report)
	}

	history := historyResults(t, cfg.Store.Path)
	if len(history) != 1 || history[0].ID != res.ID {
		t.Errorf("history = %+v, want the review just run", history)
	}
}

func TestRunReview_NoSave(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	cfg := fakeProviderConfig(t)
	cfg.FailOn = "none"
	flagOut = filepath.Join(t.TempDir(), "report.json")
	flagNoSave = true

	runReview(context.Background(), target{source: "test changes", diff: sampleDiff}, cfg)

	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d, want success with failOn none", exitCode)
	}
	if _, err := os.Stat(cfg.Store.Path); !os.IsNotExist(err) {
		t.Errorf("history database should not be created with --no-save")
	}
}

func TestRunReview_ReusesStoredResult(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	cfg := fakeProviderConfig(t)
	cfg.Store.ReuseTTLSeconds = 3600
	dir := t.TempDir()
	tgt := target{source: "test changes", diff: sampleDiff}

	flagOut = filepath.Join(dir, "first.json")
	runReview(context.Background(), tgt, cfg)
	first := readReport(t, flagOut)

	// The second run must not need the provider at all.
	cfg.Providers["fake"] = config.ProviderConfig{Command: filepath.Join(dir, "missing-binary")}
	flagOut = filepath.Join(dir, "second.json")
	exitCode = ExitSuccess
	runReview(context.Background(), tgt, cfg)
	second := readReport(t, flagOut)

	if !second.Reused || second.Result.ID != first.Result.ID {
		t.Errorf("second run = reused %v id %q, want reuse of %q", second.Reused, second.Result.ID, first.Result.ID)
	}
	if got := len(historyResults(t, cfg.Store.Path)); got != 1 {
		t.Errorf("history has %d reviews, want 1", got)
	}
}

func TestRunReview_ProviderFailure(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	cfg := fakeProviderConfig(t)
	dir := t.TempDir()
	script := writeScript(t, dir, "broken-ai", "echo 'model overloaded' >&2\nexit 3\n")
	cfg.Providers["fake"] = config.ProviderConfig{Command: script}
	flagOut = filepath.Join(dir, "report.json")

	runReview(context.Background(), target{source: "test changes", diff: sampleDiff}, cfg)

	if exitCode != ExitRuntimeError {
		t.Errorf("exitCode = %d, want %d (ExitRuntimeError)", exitCode, ExitRuntimeError)
	}
	history := historyResults(t, cfg.Store.Path)
	if len(history) != 1 || history[0].Status != review.StatusFailed {
		t.Fatalf("history = %+v, want one failed review", history)
	}
	if !strings.Contains(history[0].Summary, "model overloaded") {
		t.Errorf("failed summary = %q, want provider stderr", history[0].Summary)
	}
}

func TestRunReview_ProviderNotInstalled(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	cfg := fakeProviderConfig(t)
	cfg.Providers["fake"] = config.ProviderConfig{Command: filepath.Join(t.TempDir(), "nope")}

	runReview(context.Background(), target{source: "test changes", diff: sampleDiff}, cfg)

	if exitCode != ExitRuntimeError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitRuntimeError)
	}
}

func TestRunReview_UnknownFormat(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	cfg := fakeProviderConfig(t)
	cfg.Format = "sarif"

	runReview(context.Background(), target{source: "test changes", diff: sampleDiff}, cfg)

	if exitCode != ExitUsageError {
		t.Errorf("exitCode = %d, want %d (ExitUsageError)", exitCode, ExitUsageError)
	}
}

// fakeGitHub serves one pull request and records posted reviews.
type fakeGitHub struct {
	mu     sync.Mutex
	posted []github.ReviewRequest
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "diff") {
			fmt.Fprint(w, sampleDiff)
			return
		}
		fmt.Fprint(w, `{"number":7,"title":"Add limit","body":"Adds a limit.","user":{"login":"dev"},`+
			`"head":{"sha":"abc123","ref":"feature"},"base":{"ref":"main"}}`)
	})
	mux.HandleFunc("/repos/acme/api/pulls/7/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"path":"main.go","line":2,"side":"RIGHT","body":"nit","user":{"login":"octo"}}]`)
	})
	mux.HandleFunc("/repos/acme/api/pulls/7/reviews", func(w http.ResponseWriter, r *http.Request) {
		var req github.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding posted review: %v", err)
		}
		f.mu.Lock()
		f.posted = append(f.posted, req)
		f.mu.Unlock()
		fmt.Fprint(w, `{"id":99}`)
	})
	return mux
}

func TestReviewPRCmd_PostsReview(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	cfg := fakeProviderConfig(t)

	gh := &fakeGitHub{}
	server := httptest.NewServer(gh.handler(t))
	defer server.Close()
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("GITHUB_API_URL", server.URL)
	t.Setenv("LYON_DB_PATH", cfg.Store.Path)

	cfgText := fmt.Sprintf("provider = \"fake\"\nfailOn = \"critical\"\n\n[providers.fake]\ncommand = %q\n", cfg.Providers["fake"].Command)
	cfgDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "lyon")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(cfgText), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "report.md")
	reviewCmd.SetArgs([]string{"pr", "7", "--repo", "acme/api", "--post", "--format", "markdown", "--out", out})
	if err := reviewCmd.Execute(); err != nil {
		t.Fatalf("review pr returned error: %v", err)
	}

	if exitCode != ExitFindings {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitFindings)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "## Lyon Code Review: PR #7 (acme/api)") {
		t.Errorf("markdown report missing heading:\n%s", data)
	}

	gh.mu.Lock()
	defer gh.mu.Unlock()
	if len(gh.posted) != 1 {
		t.Fatalf("posted %d reviews, want 1", len(gh.posted))
	}
	posted := gh.posted[0]
	if posted.CommitID != "abc123" {
		t.Errorf("CommitID = %q, want head sha", posted.CommitID)
	}
	if len(posted.Comments) != 1 || posted.Comments[0].Path != "main.go" || posted.Comments[0].Line != 2 {
		t.Errorf("inline comments = %+v", posted.Comments)
	}

	history := historyResults(t, cfg.Store.Path)
	if len(history) != 1 || history[0].PRNumber != 7 || history[0].Repository != "acme/api" {
		t.Errorf("history = %+v", history)
	}
}

// --- history command tests ---

func seedHistory(t *testing.T) (string, review.Result) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("LYON_DB_PATH", path)

	st, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	res := review.Result{
		ID:          "rev1",
		Repository:  "acme/api",
		PRNumber:    3,
		Provider:    "claude",
		Status:      review.StatusCompleted,
		Summary:     "fine",
		Comments:    []review.Comment{},
		Suggestions: []review.Suggestion{},
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	if err := st.Save(context.Background(), res, "key"); err != nil {
		t.Fatal(err)
	}
	return path, res
}

func TestHistoryListAndShow_Execute(t *testing.T) {
	resetFlags()
	seedHistory(t)

	for _, args := range [][]string{{"list"}, {"list", "--repo", "acme/api"}, {"show", "rev1", "--format", "json"}} {
		historyCmd.SetArgs(args)
		if err := historyCmd.Execute(); err != nil {
			t.Errorf("history %v returned error: %v", args, err)
		}
	}
}

func TestHistoryShow_Unknown(t *testing.T) {
	resetFlags()
	seedHistory(t)

	historyCmd.SetArgs([]string{"show", "missing"})
	if err := historyCmd.Execute(); err == nil {
		t.Error("history show of an unknown id should return error")
	}
}

func TestHistoryDelete_Execute(t *testing.T) {
	resetFlags()
	path, _ := seedHistory(t)

	historyCmd.SetArgs([]string{"delete", "rev1"})
	if err := historyCmd.Execute(); err != nil {
		t.Fatalf("history delete returned error: %v", err)
	}
	if got := historyResults(t, path); len(got) != 0 {
		t.Errorf("history still has %d reviews", len(got))
	}
}

func TestHistory_Disabled(t *testing.T) {
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := config.Save(func() config.Config {
		cfg := config.Default()
		cfg.Store.Enabled = false
		return cfg
	}()); err != nil {
		t.Fatal(err)
	}

	historyCmd.SetArgs([]string{"list"})
	if err := historyCmd.Execute(); err == nil {
		t.Error("history list should fail when history is disabled")
	}
}

// --- diff command tests ---

func TestDiffPRCmd_Execute(t *testing.T) {
	resetFlags()
	saveExitCode(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	gh := &fakeGitHub{}
	server := httptest.NewServer(gh.handler(t))
	defer server.Close()
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("GITHUB_API_URL", server.URL)

	diffCmd.SetArgs([]string{"pr", "7", "--repo", "acme/api"})
	if err := diffCmd.Execute(); err != nil {
		t.Fatalf("diff pr returned error: %v", err)
	}
	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d, want success", exitCode)
	}
}

func TestRenderDiff_UnknownStoredReview(t *testing.T) {
	resetFlags()
	seedHistory(t)
	flagNoColor = true
	flagReviewID = "missing"

	cfg, err := config.Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := renderDiff(context.Background(), target{diff: sampleDiff}, cfg, nil); err == nil {
		t.Error("renderDiff should fail for an unknown stored review")
	}
}

// --- exit code constants tests ---

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitFindings", ExitFindings, 1},
		{"ExitUsageError", ExitUsageError, 2},
		{"ExitAuthError", ExitAuthError, 3},
		{"ExitRuntimeError", ExitRuntimeError, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.want)
			}
		})
	}
}
