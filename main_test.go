package main

import (
	"testing"

	"eqcrawl/internal/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&maxPages, "max-pages", -1, "")
	cmd.Flags().BoolVar(&showUI, "showui", false, "")
	cmd.Flags().StringVar(&outputDir, "output-dir", "outputs", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--max-pages", "3", "--showui"}))

	cfg := config.Default()
	cfg.Output.Dir = "from-yaml"
	applyFlags(cmd, cfg)

	assert.Equal(t, 3, cfg.Crawler.MaxPages)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "from-yaml", cfg.Output.Dir)
}

func TestValidateFlags(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, validateFlags(cfg))

	cfg.Output.Format = "xml"
	assert.EqualError(t, validateFlags(cfg), "invalid output format: xml")

	cfg = config.Default()
	cfg.Crawler.MaxPages = 0
	assert.Error(t, validateFlags(cfg))

	cfg = config.Default()
	cfg.Log.Format = "logfmt"
	assert.Error(t, validateFlags(cfg))
}

func TestInitLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := initLogger(config.LogConfig{Level: "debug", Format: format})
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(-1))
	}
}
