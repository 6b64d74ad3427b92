package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 40, cfg.Growth.DefaultDepth)
	require.Equal(t, 20, cfg.Growth.InteriorSteps)
	require.Equal(t, 4000, cfg.Training.MaxPositives)
	require.Equal(t, 8000, cfg.Training.MaxNegatives)
	require.Equal(t, 30, cfg.Training.Trees)
	require.Equal(t, 10, cfg.Labels.UndoDepth)
	require.Equal(t, 2.0, cfg.Cost.ScorePower)
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mlpaint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
growth:
  block_size: 2
cost:
  score_power: 3.5
labels:
  lock: false
session:
  autosave_interval: 90s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Growth.BlockSize)
	require.Equal(t, 40, cfg.Growth.DefaultDepth)
	require.Equal(t, 3.5, cfg.Cost.ScorePower)
	require.False(t, cfg.Labels.Lock)
	require.Equal(t, 90*time.Second, cfg.Session.AutosaveInterval)
	require.Equal(t, 30, cfg.Training.Trees)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("growth:\n  block_size: 0\ncost:\n  score_power: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "block_size")
	require.Contains(t, err.Error(), "score_power")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Growth.BlockSize = 8
	require.NoError(t, cfg.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, back)
}
