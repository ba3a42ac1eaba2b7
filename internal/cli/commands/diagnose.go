package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lineblame/pkg/blame"
	"github.com/ccollicutt/lineblame/pkg/config"
	"github.com/ccollicutt/lineblame/pkg/detector"
	"github.com/ccollicutt/lineblame/pkg/source"
)

// contextLines is the number of lines shown either side of a parse failure.
const contextLines = 2

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigFile string
	Strict     bool
	Verbose    bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <file|->",
		Short: "Explain why blame output fails to decode",
		Long: `Diagnose problems with captured git blame output.

This command checks:
- The input exists and is readable
- Which git blame variant produced it
- Whether it decodes, and if not, the offending line with context
- Webhook settings, when a configuration file is given

Example:
  lineblame diagnose readme.blame
  lineblame diagnose --strict -v readme.blame
  lineblame diagnose --config lineblame.yaml readme.blame`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Configuration file to check alongside the input")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Reject unknown metadata keywords")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, cmd *cobra.Command, path string, opts *DiagnoseOptions) error {
	var results []DiagnosticResult

	raw, result := checkInput(cmd.InOrStdin(), path)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(cmd.OutOrStdout(), results, opts)
		ExitCode = ExitError
		return nil
	}

	detection, result := checkFormat(ctx, raw)
	results = append(results, result)

	result = checkDecode(raw, detection, opts)
	results = append(results, result)
	if result.Status == "error" {
		ExitCode = ExitMalformed
	}

	if opts.ConfigFile != "" {
		cfg, result := checkConfigParseable(ctx, opts.ConfigFile)
		results = append(results, result)
		if cfg != nil {
			results = append(results, checkWebhooks(cfg, opts)...)
		}
	}

	printDiagnostics(cmd.OutOrStdout(), results, opts)
	return nil
}

func checkInput(stdin io.Reader, path string) (string, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Input",
	}

	if path == source.Stdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			result.Status = "error"
			result.Message = fmt.Sprintf("Cannot read standard input: %v", err)
			return "", result
		}
		result.Status = "ok"
		result.Message = fmt.Sprintf("Read standard input (%d bytes)", len(data))
		return string(data), result
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Input not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Capture blame output with: git blame --line-porcelain <file> > " + path,
		}
		return "", result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access input: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return "", result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return "", result
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read input: %v", err)
		return "", result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	if info.Size() == 0 {
		result.Status = "warning"
		result.Message = "Input is empty (0 bytes)"
		result.Suggests = []string{"An empty input decodes to zero lines"}
	}
	return string(data), result
}

func checkFormat(ctx context.Context, raw string) (*detector.DetectionResult, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Format",
	}

	detection, err := detector.New().DetectFromReader(ctx, strings.NewReader(raw))
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot sample input: %v", err)
		return nil, result
	}

	best := detection.BestMatch()
	switch {
	case best == nil && detection.SampledLines == 0:
		result.Status = "ok"
		result.Message = "Nothing to sample"
	case best == nil:
		result.Status = "warning"
		result.Message = "Input does not look like git blame output"
		result.Suggests = []string{detection.Hint()}
	case !best.Variant.Parseable:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Looks like %s", best.Variant.Description)
		result.Suggests = []string{best.Variant.Hint}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Looks like %s (%.0f%% of %d sampled lines)",
			best.Variant.Description, best.Confidence*100, detection.SampledLines)
	}
	return detection, result
}

func checkDecode(raw string, detection *detector.DetectionResult, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Decode",
	}

	entries, err := blame.Parse(raw, blame.WithStrict(opts.Strict))
	if err == nil {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Decoded %d line(s)", len(entries))
		result.Details = entrySummary(entries)
		return result
	}

	result.Status = "error"
	result.Message = err.Error()

	var perr *blame.ParseError
	if errors.As(err, &perr) {
		result.Details = excerpt(raw, perr.Line)
		result.Suggests = append(result.Suggests, kindHint(perr))
	}
	if detection != nil {
		if hint := detection.Hint(); hint != "" {
			result.Suggests = append(result.Suggests, hint)
		}
	}
	return result
}

func entrySummary(entries []blame.Entry) []string {
	commits := make(map[string]struct{})
	authors := make(map[string]struct{})
	boundary, uncommitted := 0, 0

	for i := range entries {
		e := &entries[i]
		commits[e.Commit] = struct{}{}
		authors[e.Author+" "+e.AuthorMail] = struct{}{}
		if e.Boundary {
			boundary++
		}
		if e.IsUncommitted() {
			uncommitted++
		}
	}

	return []string{
		fmt.Sprintf("Commits: %d", len(commits)),
		fmt.Sprintf("Authors: %d", len(authors)),
		fmt.Sprintf("Boundary lines: %d", boundary),
		fmt.Sprintf("Uncommitted lines: %d", uncommitted),
	}
}

// excerpt returns the physical lines around lineNo, marking lineNo itself.
// Tabs are shown as \t so content lines are recognizable.
func excerpt(raw string, lineNo int) []string {
	lines := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
	if lineNo < 1 || len(lines) == 0 {
		return nil
	}
	if lineNo > len(lines) {
		lineNo = len(lines)
	}

	first := max(1, lineNo-contextLines)
	last := min(len(lines), lineNo+contextLines)

	out := make([]string, 0, last-first+1)
	for n := first; n <= last; n++ {
		marker := " "
		if n == lineNo {
			marker = ">"
		}
		text := strings.ReplaceAll(strings.TrimSuffix(lines[n-1], "\r"), "\t", `\t`)
		out = append(out, fmt.Sprintf("%s %5d | %s", marker, n, truncate(text, 100)))
	}
	return out
}

func kindHint(perr *blame.ParseError) string {
	switch perr.Kind {
	case blame.KindMalformedHeader:
		return "a block must start with '<commit> <original line> <final line> [<group size>]'"
	case blame.KindUnknownBlockState:
		return "the input may be cut off at the start, or a metadata line appears after the content line"
	case blame.KindMissingField:
		return "git blame --porcelain omits metadata for repeated commits; capture with --line-porcelain"
	case blame.KindInvalidFieldValue:
		return fmt.Sprintf("check the value of the %q line", perr.Field)
	case blame.KindUnterminatedBlock:
		return "the input may be truncated, or a content line lost its leading tab"
	case blame.KindUnknownKeyword:
		return "newer git versions may add keywords; drop --strict to ignore them"
	default:
		return "capture the input with git blame --line-porcelain"
	}
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file loaded successfully"
	result.Details = []string{
		fmt.Sprintf("Sources: %d", len(cfg.Sources)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== lineblame Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running parse.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nInput is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nInput looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	var results []DiagnosticResult

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", wh.DisplayName()),
		}

		var issues, warnings []string

		if u, err := url.Parse(wh.URL); err != nil {
			issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
		}

		if wh.UnresolvedToken() {
			warnings = append(warnings, fmt.Sprintf("Token references %s, which is not set", wh.TokenRef))
		}

		switch {
		case len(issues) > 0:
			result.Status = "error"
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		case len(warnings) > 0:
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", wh.DisplayName())
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	// Any response means the server is reachable.
	if resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST, which is what deliveries use",
			"Check authentication if using a token",
		}
	}

	return result
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
