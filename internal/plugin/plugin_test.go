package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/store"
)

// echoScript replies with the request it received as the response data.
const echoScript = `input=$(cat)
printf '{"success":true,"data":%s}' "$input"
`

// writePlugin creates a plugin directory holding a shell script executable
// and its manifest.
func writePlugin(t *testing.T, root, name, script string, actions ...string) string {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Actions:    actions,
	}
	data, _ := json.Marshal(manifest)
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return dir
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script plugins need a POSIX shell")
	}
}

func TestExecutor_Execute(t *testing.T) {
	skipOnWindows(t)
	dir := writePlugin(t, t.TempDir(), "hello", `echo '{"success":true,"data":{"message":"hello"}}'`+"\n", "type")

	p := &Plugin{Path: dir, Executable: filepath.Join(dir, "run.sh")}
	resp, err := NewExecutor(5000).Execute(p, &Request{Action: "type", Sign: "A", Confidence: 0.9})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("unexpected response %+v", resp)
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}
	if data["message"] != "hello" {
		t.Errorf("message = %q, want hello", data["message"])
	}
}

func TestExecutor_SendsRequestOnStdin(t *testing.T) {
	skipOnWindows(t)
	dir := writePlugin(t, t.TempDir(), "stdin", echoScript, "type")

	p := &Plugin{Path: dir, Executable: filepath.Join(dir, "run.sh")}
	req := &Request{
		Action:     "type",
		Sign:       "B",
		Confidence: 0.75,
		Config:     json.RawMessage(`{"suffix":" "}`),
	}

	resp, err := NewExecutor(5000).Execute(p, req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var echoed Request
	if err := json.Unmarshal(resp.Data, &echoed); err != nil {
		t.Fatalf("plugin did not echo the request: %v", err)
	}
	if echoed.Sign != "B" || echoed.Confidence != 0.75 || string(echoed.Config) != `{"suffix":" "}` {
		t.Errorf("plugin received %+v", echoed)
	}
}

func TestExecutor_Failures(t *testing.T) {
	skipOnWindows(t)
	root := t.TempDir()

	t.Run("timeout", func(t *testing.T) {
		dir := writePlugin(t, root, "slow", "sleep 5\n", "type")
		p := &Plugin{Path: dir, Executable: filepath.Join(dir, "run.sh")}

		_, err := NewExecutor(100).Execute(p, &Request{Action: "type"})
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		dir := writePlugin(t, root, "garbage", "echo not-json\n", "type")
		p := &Plugin{Path: dir, Executable: filepath.Join(dir, "run.sh")}

		_, err := NewExecutor(5000).Execute(p, &Request{Action: "type"})
		if err == nil || !strings.Contains(err.Error(), "parse plugin response") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("non-zero exit", func(t *testing.T) {
		dir := writePlugin(t, root, "crash", "echo boom >&2\nexit 3\n", "type")
		p := &Plugin{Path: dir, Executable: filepath.Join(dir, "run.sh")}

		_, err := NewExecutor(5000).Execute(p, &Request{Action: "type"})
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Errorf("expected error including stderr, got %v", err)
		}
	})

	t.Run("error response", func(t *testing.T) {
		dir := writePlugin(t, root, "refuse", `echo '{"success":false,"error":"no"}'`+"\n", "type")
		p := &Plugin{Path: dir, Executable: filepath.Join(dir, "run.sh")}

		resp, err := NewExecutor(5000).Execute(p, &Request{Action: "type"})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if resp.Success || resp.Error != "no" {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "keyboard", "", "type", "keystroke")
	writePlugin(t, root, "audio", "", "play")

	// Invalid manifests and manifests without an executable are skipped.
	os.MkdirAll(filepath.Join(root, "broken"), 0755)
	os.WriteFile(filepath.Join(root, "broken", ManifestFile), []byte("{not json"), 0644)
	os.MkdirAll(filepath.Join(root, "noexec"), 0755)
	os.WriteFile(filepath.Join(root, "noexec", ManifestFile), []byte(`{"name":"noexec","executable":"missing"}`), 0644)
	os.MkdirAll(filepath.Join(root, "empty"), 0755)

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(list))
	}
	if list[0].Manifest.Name != "audio" || list[1].Manifest.Name != "keyboard" {
		t.Errorf("List() should be sorted by name, got %s, %s", list[0].Manifest.Name, list[1].Manifest.Name)
	}

	p, err := m.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Executable != filepath.Join(root, "keyboard", "run.sh") {
		t.Errorf("Executable = %q", p.Executable)
	}
	if !p.Manifest.Supports("type") || p.Manifest.Supports("play") {
		t.Error("Supports() does not reflect manifest actions")
	}

	if _, err := m.Get("noexec"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
	if m.PluginDir() != root {
		t.Errorf("PluginDir() = %q, want %q", m.PluginDir(), root)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"))
	if err := m.Discover(); err != nil {
		t.Errorf("missing directory should not be an error: %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no plugins")
	}
}

type fakeBindings map[string]*store.Binding

func (f fakeBindings) GetBySignLabel(label string) (*store.Binding, error) {
	return f[label], nil
}

func TestDispatcher_Fire(t *testing.T) {
	skipOnWindows(t)
	root := t.TempDir()
	writePlugin(t, root, "keyboard", echoScript, "type")

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	bindings := fakeBindings{
		"A": {PluginName: "keyboard", ActionName: "type", Config: json.RawMessage(`{}`)},
		"B": {PluginName: "keyboard", ActionName: "shortcut", Config: json.RawMessage(`{}`)},
		"C": {PluginName: "missing", ActionName: "type", Config: json.RawMessage(`{}`)},
	}
	d := NewDispatcher(bindings, m, NewExecutor(5000))

	t.Run("bound sign", func(t *testing.T) {
		resp, err := d.Fire(context.Background(), "A", 0.9)
		if err != nil {
			t.Fatalf("Fire() error = %v", err)
		}
		var req Request
		json.Unmarshal(resp.Data, &req)
		if req.Sign != "A" || req.Action != "type" {
			t.Errorf("plugin received %+v", req)
		}
	})

	t.Run("unbound sign", func(t *testing.T) {
		resp, err := d.Fire(context.Background(), "Z", 0.9)
		if resp != nil || err != nil {
			t.Errorf("expected nil, nil, got %+v, %v", resp, err)
		}
	})

	t.Run("unsupported action", func(t *testing.T) {
		if _, err := d.Fire(context.Background(), "B", 0.9); err == nil {
			t.Error("expected error for unsupported action")
		}
	})

	t.Run("missing plugin", func(t *testing.T) {
		if _, err := d.Fire(context.Background(), "C", 0.9); !errors.Is(err, ErrPluginNotFound) {
			t.Errorf("expected ErrPluginNotFound, got %v", err)
		}
	})

	t.Run("background dispatch", func(t *testing.T) {
		d.Dispatch("A", 0.8)
		d.Dispatch("Z", 0.8)
		d.Wait()
	})
}
