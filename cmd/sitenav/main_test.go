package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gochecknoglobals // test binary path is set in TestMain
var testBinaryPath string

// TestMain builds the CLI binary once for the entire package and reuses it.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "sitenav-test-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1) //nolint:gocritic // Mkdir failed, nothing to cleanup
	}
	defer os.RemoveAll(dir)

	bin := filepath.Join(dir, "sitenav-test")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build test binary: %v\nOutput: %s\n", err, string(out))
		os.Exit(1) //nolint:gocritic // Binary failed, nothing to cleanup
	}
	testBinaryPath = bin

	code := m.Run()
	os.Exit(code)
}

func buildTestBinary(t *testing.T) string {
	t.Helper()
	if testBinaryPath == "" {
		t.Fatalf("test binary not built")
	}
	return testBinaryPath
}

// newCmd runs the binary with an isolated HOME and config file under dir.
func newCmd(binary, dir string, args ...string) *exec.Cmd {
	args = append([]string{"--config", filepath.Join(dir, "sitenav.yml")}, args...)
	cmd := exec.Command(binary, args...)
	cmd.Env = append(os.Environ(), "HOME="+filepath.Join(dir, "home"))
	return cmd
}

func writeSite(t *testing.T) string {
	t.Helper()
	site := filepath.Join(t.TempDir(), "site")
	require.NoError(t, os.MkdirAll(filepath.Join(site, "docs"), 0o755))
	index := "# Home\n\nWelcome.\n\n## About\n\nWho we are.\n\n## Projects\n\nWhat we built.\n\n## Contact\n\n[Mail](mailto:hi@example.com)\n"
	require.NoError(t, os.WriteFile(filepath.Join(site, "index.md"), []byte(index), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(site, "docs", "guide.md"), []byte("# Guide\n\nSteps.\n"), 0o600))
	return site
}

func TestCLI_HelpOutput(t *testing.T) {
	binary := buildTestBinary(t)
	dir := t.TempDir()

	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "root help",
			args:     []string{"--help"},
			contains: []string{"sitenav", "preview", "sections", "classify", "pages", "config", "state", "--json"},
		},
		{
			name:     "classify help",
			args:     []string{"classify", "--help"},
			contains: []string{"--offset", "--height", "--strategy", "--rects"},
		},
		{
			name:     "preview help",
			args:     []string{"preview", "--help"},
			contains: []string{"PAGE", "--event-log", "--verbose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := newCmd(binary, dir, tt.args...).CombinedOutput()
			require.NoError(t, err)
			for _, expected := range tt.contains {
				assert.Contains(t, string(output), expected)
			}
		})
	}
}

func TestCLI_Pages(t *testing.T) {
	binary := buildTestBinary(t)
	dir := t.TempDir()
	site := writeSite(t)

	output, err := newCmd(binary, dir, "pages", "--json", site).Output()
	require.NoError(t, err)
	var pages []string
	require.NoError(t, json.Unmarshal(output, &pages), string(output))
	assert.Equal(t, []string{"docs/guide.md", "index.md"}, pages)

	output, err = newCmd(binary, dir, "pages", t.TempDir()).CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), "no pages found")
}

func TestCLI_Sections(t *testing.T) {
	binary := buildTestBinary(t)
	dir := t.TempDir()
	site := writeSite(t)

	output, err := newCmd(binary, dir, "sections", "--json", filepath.Join(site, "index.md")).Output()
	require.NoError(t, err)

	var result struct {
		Page  string `json:"page"`
		Title string `json:"title"`
		Items []struct {
			ID   string `json:"id"`
			Href string `json:"href"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(output, &result), string(output))
	assert.Equal(t, "index.md", result.Page)
	assert.Equal(t, "Home", result.Title)
	require.Len(t, result.Items, 4)
	assert.Equal(t, "about", result.Items[1].ID)
	assert.Equal(t, "#about", result.Items[1].Href)

	output, err = newCmd(binary, dir, "sections", filepath.Join(site, "docs", "guide.md")).CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Guide")
	assert.Contains(t, string(output), "anchor")
}

func TestCLI_ClassifyScenario(t *testing.T) {
	binary := buildTestBinary(t)
	dir := t.TempDir()

	for _, strategy := range []string{"coverage", "intersection"} {
		t.Run(strategy, func(t *testing.T) {
			output, err := newCmd(binary, dir, "classify", "--json",
				"--rects", "hero:800,about:800,projects:800",
				"--offset", "900", "--height", "1000",
				"--strategy", strategy,
			).Output()
			require.NoError(t, err)

			var result struct {
				Strategy string `json:"strategy"`
				Active   string `json:"active"`
				Scores   []struct {
					Anchor string `json:"anchor"`
				} `json:"scores"`
			}
			require.NoError(t, json.Unmarshal(output, &result), string(output))
			assert.Equal(t, strategy, result.Strategy)
			assert.Equal(t, "about", result.Active)
			assert.Len(t, result.Scores, 3)
		})
	}
}

func TestCLI_ClassifyPage(t *testing.T) {
	binary := buildTestBinary(t)
	dir := t.TempDir()
	site := writeSite(t)

	output, err := newCmd(binary, dir, "classify", "--offset", "0", "--height", "10", filepath.Join(site, "index.md")).
		CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Active: home (coverage)")
}

func TestCLI_ConfigInitShow(t *testing.T) {
	binary := buildTestBinary(t)
	dir := t.TempDir()

	output, err := newCmd(binary, dir, "config", "init").CombinedOutput()
	require.NoError(t, err, string(output))
	assert.FileExists(t, filepath.Join(dir, "sitenav.yml"))

	output, err = newCmd(binary, dir, "config", "init").CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(output), "already exists")

	output, err = newCmd(binary, dir, "config", "show").CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "strategy: coverage")

	cmd := newCmd(binary, dir, "config", "show")
	cmd.Env = append(cmd.Env, "SITENAV_CLASSIFIER__STRATEGY=intersection")
	output, err = cmd.CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "strategy: intersection")
}

func TestCLI_State(t *testing.T) {
	binary := buildTestBinary(t)
	dir := t.TempDir()

	output, err := newCmd(binary, dir, "state", "show").CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "No remembered pages")
	assert.FileExists(t, filepath.Join(dir, "home", ".local", "state", "sitenav", "state.json"))

	output, err = newCmd(binary, dir, "state", "reset").CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Remembered pages cleared")
}

func TestCLI_ErrorHandling(t *testing.T) {
	binary := buildTestBinary(t)
	dir := t.TempDir()

	tests := []struct {
		name     string
		args     []string
		errorMsg string
	}{
		{name: "invalid command", args: []string{"invalid-command"}, errorMsg: "unknown command"},
		{name: "too many pages", args: []string{"sections", "a.md", "b.md"}, errorMsg: "accepts at most 1 arg(s)"},
		{name: "missing page", args: []string{"sections", "nope.md"}, errorMsg: "page not found"},
		{name: "bad strategy", args: []string{"classify", "--rects", "a:1", "--strategy", "nearest"}, errorMsg: "Unknown strategy"},
		{name: "bad rects", args: []string{"classify", "--rects", "a:tall"}, errorMsg: "invalid --rects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := newCmd(binary, dir, tt.args...).CombinedOutput()
			require.Error(t, err)
			assert.Contains(t, string(output), tt.errorMsg)
		})
	}
}

func TestParseRects(t *testing.T) {
	t.Parallel()
	rects, err := parseRects("hero:800, about:400")
	require.NoError(t, err)
	require.Len(t, rects, 2)
	assert.InDelta(t, 800.0, rects[1].Top, 0)
	assert.InDelta(t, 400.0, rects[1].Height, 0)

	_, err = parseRects(":1")
	require.ErrorIs(t, err, errBadRects)
	_, err = parseRects("a:-1")
	require.ErrorIs(t, err, errBadRects)
}
