// Package prefs keeps small per-user UI state between runs: last directories, brush size,
// overlay toggles.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const (
	appDir    = "mlpaint"
	prefsFile = "preferences.json"
)

// Keys used by the main window.
const (
	KeyLastImageDir = "lastImageDir"
	KeyLastLabelDir = "lastLabelDir"
	KeyBrushDigit   = "brushDigit"
	KeyScorePower   = "scorePower"
	KeyShowProbMap  = "showProbMap"
	KeyLabelOpacity = "labelOpacity"
	KeyWindowWidth  = "windowWidth"
	KeyWindowHeight = "windowHeight"
)

// Prefs is a thread-safe key-value store persisted as JSON.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]any
	path   string
}

// DefaultPath returns <user config dir>/mlpaint/preferences.json.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, appDir, prefsFile)
}

// Load reads preferences from DefaultPath.
func Load() *Prefs {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads preferences from path. A missing or corrupt file yields empty preferences.
func LoadFrom(path string) *Prefs {
	p := &Prefs{values: map[string]any{}, path: path}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &p.values)
	}
	if p.values == nil {
		// A file holding JSON null.
		p.values = map[string]any{}
	}
	return p
}

// Path returns the file the preferences are saved to.
func (p *Prefs) Path() string { return p.path }

// Save writes preferences to disk, creating the directory if needed.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

func (p *Prefs) number(key string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch n := p.values[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// Float returns a float preference, or fallback if unset.
func (p *Prefs) Float(key string, fallback float64) float64 {
	if v, ok := p.number(key); ok {
		return v
	}
	return fallback
}

// Int returns an integer preference, or fallback if unset.
func (p *Prefs) Int(key string, fallback int) int {
	if v, ok := p.number(key); ok {
		return int(v)
	}
	return fallback
}

// String returns a string preference, or "" if unset.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, _ := p.values[key].(string)
	return s
}

// Bool returns a bool preference, or fallback if unset.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

// Set stores a preference. Values must be JSON-encodable.
func (p *Prefs) Set(key string, val any) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}
