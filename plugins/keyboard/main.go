// Package main is a keyboard plugin that types recognized signs. It uses
// AppleScript on macOS and xdotool on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action     string          `json:"action"`
	Sign       string          `json:"sign"`
	Confidence float64         `json:"confidence"`
	Config     json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TypeConfig controls the "type" action.
type TypeConfig struct {
	// Text replaces the sign label when set.
	Text      string `json:"text"`
	Suffix    string `json:"suffix"`
	Lowercase bool   `json:"lowercase"`
}

// KeystrokeConfig defines the key pressed by the keystroke and shortcut actions.
type KeystrokeConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdotoolModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var err error
	switch req.Action {
	case "type":
		err = handleType(req)
	case "keystroke", "shortcut":
		err = handleKeystroke(req.Config)
	default:
		err = fmt.Errorf("unknown action: %s", req.Action)
	}
	if err != nil {
		err = fmt.Errorf("action %s failed: %w", req.Action, err)
	}
	writeResponse(err)
}

func parseConfig(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// textFor returns the text typed for a sign.
func textFor(sign string, cfg TypeConfig) string {
	text := sign
	if cfg.Text != "" {
		text = cfg.Text
	}
	if cfg.Lowercase {
		text = strings.ToLower(text)
	}
	return text + cfg.Suffix
}

func handleType(req Request) error {
	var cfg TypeConfig
	if err := parseConfig(req.Config, &cfg); err != nil {
		return err
	}
	if req.Sign == "" && cfg.Text == "" {
		return fmt.Errorf("nothing to type")
	}

	text := textFor(req.Sign, cfg)
	switch runtime.GOOS {
	case "darwin":
		return run("osascript", "-e", fmt.Sprintf(`tell application "System Events" to keystroke %q`, text))
	case "linux":
		return run("xdotool", "type", "--", text)
	default:
		return fmt.Errorf("typing is not supported on %s", runtime.GOOS)
	}
}

func handleKeystroke(raw json.RawMessage) error {
	var cfg KeystrokeConfig
	if err := parseConfig(raw, &cfg); err != nil {
		return err
	}
	if cfg.Key == "" {
		return fmt.Errorf("key is required")
	}

	switch runtime.GOOS {
	case "darwin":
		return run("osascript", "-e", appleKeystroke(cfg.Key, cfg.Modifiers))
	case "linux":
		return run("xdotool", "key", xdotoolChord(cfg.Key, cfg.Modifiers))
	default:
		return fmt.Errorf("keystrokes are not supported on %s", runtime.GOOS)
	}
}

// appleKeystroke generates an AppleScript for the given key and modifiers.
func appleKeystroke(key string, modifiers []string) string {
	var mods []string
	for _, m := range modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}

	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke %q`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke %q using {%s}`, key, strings.Join(mods, ", "))
}

// xdotoolChord joins modifiers and key the way `xdotool key` expects, e.g. ctrl+shift+a.
func xdotoolChord(key string, modifiers []string) string {
	parts := make([]string, 0, len(modifiers)+1)
	for _, m := range modifiers {
		if xm, ok := xdotoolModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	return strings.Join(append(parts, key), "+")
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
