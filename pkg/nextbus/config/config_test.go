package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/nextbus/pkg/nextbus/config"
	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
)

func TestConfigAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":    "bus",
		"workers": 4,
		"ratio":   2.0,
		"frac":    2.5,
		"slow":    "10ms",
		"ms":      7,
		"on":      true,
		"app":     map[string]any{"name": "inner"},
	})

	assert.Equal(t, "bus", cfg.String("name", "x"))
	assert.Equal(t, "x", cfg.String("workers", "x"))
	assert.Equal(t, 4, cfg.Int("workers", 1))
	assert.Equal(t, 2, cfg.Int("ratio", 1))
	assert.Equal(t, 1, cfg.Int("frac", 1), "fractional float keeps default")
	assert.Equal(t, 10*time.Millisecond, cfg.Duration("slow", time.Second))
	assert.Equal(t, 7*time.Millisecond, cfg.Duration("ms", time.Second))
	assert.Equal(t, time.Second, cfg.Duration("name", time.Second))
	assert.True(t, cfg.Bool("on", false))
	assert.False(t, cfg.Bool("missing", false))
	assert.Equal(t, "inner", cfg.Section("app").String("name", ""))
	assert.False(t, cfg.Section("missing").Has("name"))
	assert.Equal(t, "d", cfg.Any("missing", "d"))
	assert.NotNil(t, config.New(nil).Raw())
}

func TestDefault(t *testing.T) {
	s := config.Default()
	assert.Equal(t, exec.Pooled, s.EmitContext)
	assert.Equal(t, 5*time.Millisecond, s.SlowThreshold)
	assert.Equal(t, 1000, s.FaultJournalSize)
	assert.NoError(t, s.Validate())
}

func TestDecode_YAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
nextbus:
  emit_context: serial
  workers: 8
  queue_size: 64
  emit_workers: 2
  emit_queue_size: 16
  slow_threshold: 12ms
  metrics: true
  tracing: true
  fault_journal: memory
  fault_journal_size: 50
`))
	require.NoError(t, err)

	s, err := config.Decode(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.Settings{
		EmitContext:      exec.Serial,
		Workers:          8,
		QueueSize:        64,
		EmitWorkers:      2,
		EmitQueueSize:    16,
		SlowThreshold:    12 * time.Millisecond,
		Metrics:          true,
		Tracing:          true,
		FaultJournal:     "memory",
		FaultJournalSize: 50,
	}, s)
}

func TestDecode_JSONTopLevel(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"emit_context": "inline", "workers": 3, "slow_threshold": 0}`))
	require.NoError(t, err)

	s, err := config.Decode(cfg)
	require.NoError(t, err)
	assert.Equal(t, exec.Inline, s.EmitContext)
	assert.Equal(t, 3, s.Workers)
	assert.Zero(t, s.SlowThreshold)
	assert.Equal(t, 1000, s.FaultJournalSize, "missing keys keep defaults")
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"unknown context", map[string]any{"emit_context": "gpu"}},
		{"context not string", map[string]any{"emit_context": 1}},
		{"workers not int", map[string]any{"workers": "ten"}},
		{"negative workers", map[string]any{"workers": -1}},
		{"fractional queue", map[string]any{"queue_size": 1.5}},
		{"bad duration", map[string]any{"slow_threshold": "soon"}},
		{"negative duration", map[string]any{"slow_threshold": "-1ms"}},
		{"metrics not bool", map[string]any{"metrics": "yes"}},
		{"journal not string", map[string]any{"fault_journal": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Decode(config.New(tt.data))
			assert.ErrorIs(t, err, config.ErrInvalidSetting)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(dir, "bus.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: 2\nemit_context: pool\n"), 0o600))

		s, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Workers)
		assert.Equal(t, exec.Pooled, s.EmitContext)
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(dir, "bus.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tracing": true}`), 0o600))

		s, err := config.Load(path)
		require.NoError(t, err)
		assert.True(t, s.Tracing)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "bus.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

		_, err := config.Load(path)
		assert.ErrorContains(t, err, "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: [1,\n"), 0o600))

		_, err := config.Load(path)
		assert.ErrorContains(t, err, "parse yaml")
	})
}

func TestParseSettings(t *testing.T) {
	yamlDoc := []byte("nextbus:\n  emit_context: inline\n  fault_journal: memory\n")
	jsonDoc := []byte(`{"nextbus": {"emit_context": "inline", "fault_journal": "memory"}}`)

	fromYAML, err := config.ParseSettings(yamlDoc, config.FormatYAML)
	require.NoError(t, err)
	fromJSON, err := config.ParseSettings(jsonDoc, config.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromJSON)
	assert.Equal(t, exec.Inline, fromYAML.EmitContext)
	assert.Equal(t, "memory", fromYAML.FaultJournal)

	empty, err := config.ParseSettings(nil, config.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), empty)

	_, err = config.ParseSettings(yamlDoc, config.Format("toml"))
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestFormatOf(t *testing.T) {
	f, err := config.FormatOf("bus.YML")
	require.NoError(t, err)
	assert.Equal(t, config.FormatYAML, f)

	f, err = config.FormatOf("dir/bus.json")
	require.NoError(t, err)
	assert.Equal(t, config.FormatJSON, f)

	_, err = config.FormatOf("bus")
	assert.Error(t, err)
}

func TestLoad_DecodeErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: many\n"), 0o600))

	_, err := config.Load(path)
	assert.ErrorIs(t, err, config.ErrInvalidSetting)
	assert.ErrorContains(t, err, path)
}
