package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Andrew-Beniash/tai/config"
)

func TestRunConfigWritesEffectiveConfig(t *testing.T) {
	configOut = filepath.Join(t.TempDir(), "config.yaml")
	defer func() { configOut = "config.yaml" }()

	var buf bytes.Buffer
	configCmd.SetOut(&buf)
	require.NoError(t, runConfig(configCmd, nil))
	assert.Contains(t, buf.String(), "wrote "+configOut)

	raw, err := os.ReadFile(configOut)
	require.NoError(t, err)
	var got config.Config
	require.NoError(t, yaml.Unmarshal(raw, &got))
	assert.Equal(t, config.GetConfig().RAG, got.RAG)
	assert.Equal(t, config.GetConfig().Server.Port, got.Server.Port)
}
