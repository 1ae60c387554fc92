package tracker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.MOT.MaxUnmatchedTimes)
	assert.Equal(t, 2, cfg.MOT.TrackConfirmedFrames)
	assert.InDelta(t, 0.6, cfg.MOT.TrackInitScoreThresh, 1e-6)
	assert.InDelta(t, 0.5, cfg.MOT.HighScoreThresh, 1e-6)
	assert.InDelta(t, 0.7, cfg.MOT.HighScoreIoUDistThresh, 1e-6)
	assert.InDelta(t, 0.5, cfg.MOT.LowScoreIoUDistThresh, 1e-6)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.json")
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"mot": {"max_unmatched_times": 30}, "sot": {"reappear_thresh": 0.7}}`), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, 30, cfg.MOT.MaxUnmatchedTimes)
		assert.Equal(t, 2, cfg.MOT.TrackConfirmedFrames)
		assert.InDelta(t, 0.7, cfg.SOT.ReappearThresh, 1e-6)
		assert.Equal(t, 127, cfg.SOT.TemplateSize)
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"mot": {"high_score_thresh": 1.5}}`), 0o644))

		_, err := LoadConfig(path)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("rejects wrong extension", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "config.yaml"))
		assert.Error(t, err)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"mot": `), 0o644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestSOTConfigValidate(t *testing.T) {
	cfg := DefaultSOTConfig()
	cfg.SearchSize = 64
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))

	cfg = DefaultSOTConfig()
	cfg.ScoreWarmupFrames = cfg.ScoreHistorySize + 1
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
}
