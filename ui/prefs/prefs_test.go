package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", prefsFile)
	p := LoadFrom(path)
	require.Equal(t, 3, p.Int(KeyBrushDigit, 3))
	require.True(t, p.Bool(KeyShowProbMap, true))

	p.Set(KeyBrushDigit, 5)
	p.Set(KeyScorePower, 2.25)
	p.Set(KeyShowProbMap, false)
	p.Set(KeyLastImageDir, "/data/scenes")
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	require.Equal(t, 5, q.Int(KeyBrushDigit, 0))
	require.Equal(t, 2.25, q.Float(KeyScorePower, 1))
	require.False(t, q.Bool(KeyShowProbMap, true))
	require.Equal(t, "/data/scenes", q.String(KeyLastImageDir))
	require.Equal(t, "", q.String(KeyLastLabelDir))
}

func TestCorruptFileIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	p := LoadFrom(path)
	require.Equal(t, 1.5, p.Float(KeyScorePower, 1.5))

	// A value of the wrong type falls back too.
	p.Set(KeyBrushDigit, "big")
	require.Equal(t, 4, p.Int(KeyBrushDigit, 4))
}

func TestNullFileIsUsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o644))
	p := LoadFrom(path)
	p.Set(KeyBrushDigit, 6)
	require.Equal(t, 6, p.Int(KeyBrushDigit, 0))
	require.NoError(t, p.Save())
	require.Equal(t, 6, LoadFrom(path).Int(KeyBrushDigit, 0))
}
