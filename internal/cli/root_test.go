package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/open-physiology/lyphgraph/internal/config"
	"github.com/open-physiology/lyphgraph/pkg/errors"
)

const graphModel = `{
  "id": "g",
  "class": "Graph",
  "nodes": [{"id": "n1", "name": "Start"}, {"id": "n2"}],
  "links": [
    {"id": "l1", "source": "n1", "target": "n2"},
    {"id": "l2", "source": "n2", "target": "n9"}
  ]
}`

// isolate points every XDG lookup at fresh temp dirs and clears the Redis
// override.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(config.EnvRedisURL, "")
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out bytes.Buffer
	var errOut syncBuffer

	c := New(&errOut, LogInfo)
	c.Out = &out
	c.Err = &errOut
	c.In = strings.NewReader(stdin)

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeModel(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()

	want := []string{"hydrate", "render", "schema", "serve", "browse", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
	if root.PersistentFlags().ShorthandLookup("v") == nil {
		t.Error("-v flag missing")
	}
}

func TestRootVersion(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "", "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(out, appName+" version ") {
		t.Errorf("version output = %q", out)
	}
}

func TestRootMissingConfig(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "nope.toml"), "cache", "path")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRootConfigApplies(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfg := writeModel(t, "lyphgraph.toml", "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	out, _, err := runCLI(t, "", "--config", cfg, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), dir)
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)

	_, stderr, err := runCLI(t, "", "-v", "hydrate", "--no-cache", path)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if !strings.Contains(stderr, "DEBU") {
		t.Errorf("verbose run should log at debug level, got:\n%s", stderr)
	}
}
