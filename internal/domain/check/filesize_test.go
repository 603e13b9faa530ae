package check

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hookwarden/hookwarden/internal/config"
	"github.com/hookwarden/hookwarden/internal/domain/policy"
)

func smallLimitConfig(maxLines int) *config.Config {
	cfg := config.Default()
	cfg.FileLengthLimit.MaxLines = maxLines
	return cfg
}

func contentWithLines(n int) string {
	return strings.Repeat("x\n", n)
}

func TestFileSize_WriteOverLimitAsks(t *testing.T) {
	c := NewFileSize(provider(smallLimitConfig(10)), testLogger())

	ev := policy.ToolEvent{
		ToolName: "Write",
		FilePath: "big.go",
		Content:  contentWithLines(11),
	}
	result := c.Evaluate(context.Background(), ev)
	if result.Decision != policy.Ask {
		t.Fatalf("11 lines over a 10 line limit = %v, want Ask", result.Decision)
	}
	for _, want := range []string{"11 lines > 10 lines", "big.go", "Refactor"} {
		if !strings.Contains(result.Reason, want) {
			t.Errorf("reason missing %q:\n%s", want, result.Reason)
		}
	}
}

func TestFileSize_ExactLimitAllowed(t *testing.T) {
	c := NewFileSize(provider(smallLimitConfig(10)), testLogger())

	ev := policy.ToolEvent{
		ToolName: "Write",
		FilePath: "ok.go",
		Content:  contentWithLines(10),
	}
	if result := c.Evaluate(context.Background(), ev); result.Decision != policy.Allow {
		t.Errorf("exactly at the limit = %v, want Allow", result.Decision)
	}
}

func TestFileSize_NonSourceFileAllowed(t *testing.T) {
	c := NewFileSize(provider(smallLimitConfig(10)), testLogger())

	for _, path := range []string{"notes.md", "data.csv", "Makefile"} {
		ev := policy.ToolEvent{ToolName: "Write", FilePath: path, Content: contentWithLines(100)}
		if result := c.Evaluate(context.Background(), ev); result.Decision != policy.Allow {
			t.Errorf("non-source file %q = %v, want Allow", path, result.Decision)
		}
	}
}

func TestFileSize_EditGrowsFileOverLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte(contentWithLines(9)+"MARK\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewFileSize(provider(smallLimitConfig(10)), testLogger())
	ev := policy.ToolEvent{
		ToolName:  "Edit",
		FilePath:  path,
		OldString: "MARK\n",
		NewString: contentWithLines(5),
	}
	result := c.Evaluate(context.Background(), ev)
	if result.Decision != policy.Ask {
		t.Errorf("edit growing file to 14 lines = %v, want Ask (reason %q)", result.Decision, result.Reason)
	}
}

func TestFileSize_EditShrinkingFileAllowed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte(contentWithLines(20)), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewFileSize(provider(smallLimitConfig(10)), testLogger())
	ev := policy.ToolEvent{
		ToolName:   "Edit",
		FilePath:   path,
		OldString:  "x\n",
		NewString:  "",
		ReplaceAll: true,
	}
	if result := c.Evaluate(context.Background(), ev); result.Decision != policy.Allow {
		t.Errorf("edit emptying the file = %v, want Allow", result.Decision)
	}
}

func TestFileSize_RelativePathResolvedAgainstCWD(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(contentWithLines(10)), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewFileSize(provider(smallLimitConfig(10)), testLogger())
	ev := policy.ToolEvent{
		ToolName:  "Edit",
		FilePath:  "main.go",
		CWD:       dir,
		OldString: "x\n",
		NewString: "x\nx\n",
	}
	if result := c.Evaluate(context.Background(), ev); result.Decision != policy.Ask {
		t.Errorf("relative path edit over limit = %v, want Ask", result.Decision)
	}
}

func TestFileSize_MissingFileNoOpinion(t *testing.T) {
	c := NewFileSize(provider(smallLimitConfig(10)), testLogger())
	ev := policy.ToolEvent{
		ToolName:  "Edit",
		FilePath:  filepath.Join(t.TempDir(), "gone.go"),
		OldString: "a",
		NewString: contentWithLines(50),
	}
	if result := c.Evaluate(context.Background(), ev); result.Decision != policy.Allow {
		t.Errorf("missing target file = %v, want Allow", result.Decision)
	}
}

func TestFileSize_Disabled(t *testing.T) {
	cfg := smallLimitConfig(10)
	cfg.Hooks.FileLengthLimit = false
	c := NewFileSize(provider(cfg), testLogger())

	ev := policy.ToolEvent{ToolName: "Write", FilePath: "big.go", Content: contentWithLines(100)}
	if result := c.Evaluate(context.Background(), ev); result.Decision != policy.Allow {
		t.Errorf("disabled hook = %v, want Allow", result.Decision)
	}
}

func TestFileSize_SkipsBash(t *testing.T) {
	c := NewFileSize(provider(smallLimitConfig(1)), testLogger())
	if result := c.Evaluate(context.Background(), bashEvent("cat big.go")); result.Decision != policy.Allow {
		t.Errorf("Bash event = %v, want Allow", result.Decision)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
	}
	for _, tt := range tests {
		if got := countLines(tt.content); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}
