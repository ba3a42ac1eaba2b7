package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ccollicutt/lineblame/internal/cli/commands"
	"github.com/ccollicutt/lineblame/pkg/blame"
	"github.com/ccollicutt/lineblame/pkg/output"
	"github.com/ccollicutt/lineblame/pkg/source"
)

const oneLine = "c9a79e91e05355fc42ec519593806466c2f66de0 1 1 1\n" +
	"author mitsu-ksgr\n" +
	"author-mail <mitsu-ksgr@users.noreply.github.com>\n" +
	"committer GitHub\n" +
	"committer-mail <noreply@github.com>\n" +
	"summary Update README.md\n" +
	"filename README.md\n" +
	"\t# lineblame\n"

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	if root.Use != "lineblame" {
		t.Errorf("Unexpected Use: %s", root.Use)
	}
	for _, name := range []string{"parse", "stats", "detect", "diagnose", "validate", "version"} {
		if !isBuiltinCommand(root, name) {
			t.Errorf("Missing command: %s", name)
		}
	}
	for _, flag := range []string{"log-level", "log-format"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Missing persistent flag: %s", flag)
		}
	}
}

func TestPluginCandidate(t *testing.T) {
	root := NewRootCommand()

	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"--log-level", "debug"}, false},
		{[]string{"parse", "a.blame"}, false},
		{[]string{"help"}, false},
		{[]string{"capture", "src/"}, true},
	}

	for _, tt := range tests {
		if _, got := pluginCandidate(root, tt.args); got != tt.want {
			t.Errorf("pluginCandidate(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	perr := &blame.ParseError{Kind: blame.KindMalformedHeader, Line: 1}

	if got := exitCode(&source.Failure{Path: "a.blame", Err: perr}); got != commands.ExitMalformed {
		t.Errorf("exitCode(parse failure) = %d, want %d", got, commands.ExitMalformed)
	}
	if got := exitCode(errors.New("loading config: boom")); got != commands.ExitError {
		t.Errorf("exitCode(other) = %d, want %d", got, commands.ExitError)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", t.TempDir())

	if code := execute(context.Background(), []string{"no-such-command"}); code != commands.ExitError {
		t.Errorf("exit code = %d, want %d", code, commands.ExitError)
	}
}

func TestExecute_InvalidLogLevel(t *testing.T) {
	if code := execute(context.Background(), []string{"--log-level", "loud", "version"}); code != commands.ExitError {
		t.Errorf("exit code = %d, want %d", code, commands.ExitError)
	}
}

func TestExecute_LogLevelFromEnv(t *testing.T) {
	t.Setenv("LINEBLAME_LOG_LEVEL", "loud")

	if code := execute(context.Background(), []string{"version"}); code != commands.ExitError {
		t.Errorf("exit code = %d, want %d (env level should be validated)", code, commands.ExitError)
	}
}

func TestExecute_ParseExitCodes(t *testing.T) {
	t.Setenv("LINEBLAME_CONFIG", "")
	dir := t.TempDir()
	good := writeInput(t, dir, "good.blame", oneLine)
	bad := writeInput(t, dir, "bad.blame", "not a header\n")

	if code := execute(context.Background(), []string{"parse", "-q", good}); code != commands.ExitOK {
		t.Errorf("good input: exit code = %d, want %d", code, commands.ExitOK)
	}
	if code := execute(context.Background(), []string{"parse", "-q", bad}); code != commands.ExitMalformed {
		t.Errorf("bad input: exit code = %d, want %d", code, commands.ExitMalformed)
	}
	if code := execute(context.Background(), []string{"parse", "-q", filepath.Join(dir, "missing.blame")}); code != commands.ExitError {
		t.Errorf("missing input: exit code = %d, want %d", code, commands.ExitError)
	}
}

func TestExecute_WebhookOnFailure(t *testing.T) {
	t.Setenv("LINEBLAME_CONFIG", "")
	dir := t.TempDir()
	good := writeInput(t, dir, "good.blame", oneLine)
	bad := writeInput(t, dir, "bad.blame", oneLine+"c9a79e91e05355fc42ec519593806466c2f66de0 2 2\n")

	var (
		mu       sync.Mutex
		received []output.Report
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var report output.Report
		if err := json.Unmarshal(body, &report); err == nil {
			mu.Lock()
			received = append(received, report)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	code := execute(context.Background(), []string{"parse", "-q", "-k", "--webhook-url", server.URL, good, bad})
	if code != commands.ExitMalformed {
		t.Errorf("exit code = %d, want %d", code, commands.ExitMalformed)
	}

	code = execute(context.Background(), []string{"parse", "-q", "--webhook-url", server.URL, good})
	if code != commands.ExitOK {
		t.Errorf("exit code = %d, want %d", code, commands.ExitOK)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 delivery (on_failure only), got %d", len(received))
	}
	report := received[0]
	if report.Summary.Failed != 1 || report.Summary.Entries != 1 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if len(report.Failures) != 1 || report.Failures[0].Kind != "unterminated block" {
		t.Errorf("unexpected failures: %+v", report.Failures)
	}
}
