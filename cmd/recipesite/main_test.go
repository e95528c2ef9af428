package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
)

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"serve", "init"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestServeFlags(t *testing.T) {
	cmd := newRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	addr := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, "a", addr.Shorthand)
	assert.Equal(t, ":8080", addr.DefValue)

	assert.NotNil(t, serveCmd.Flags().Lookup("admin-code"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.Equal(t, "recipes.sqlite3", cmd.PersistentFlags().Lookup("db").DefValue)
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DBPath = filepath.Join(dir, "site.sqlite3")
	cfg.MediaDir = filepath.Join(dir, "media")
	output := filepath.Join(dir, "site.jsonc")

	var out bytes.Buffer
	require.NoError(t, initSite(cfg, output, &out))
	assert.Contains(t, out.String(), "Admin code: ")

	loaded, err := config.Load(output)
	require.NoError(t, err)
	assert.Len(t, loaded.AdminCode, 24)
	assert.Equal(t, cfg.DBPath, loaded.DBPath)
	assert.Equal(t, cfg.Limits, loaded.Limits)
	assert.True(t, strings.Contains(out.String(), loaded.AdminCode))

	info, err := os.Stat(cfg.MediaDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// A second run must not clobber the existing site.
	err = initSite(cfg, filepath.Join(dir, "other.jsonc"), &out)
	assert.ErrorContains(t, err, "already exists")
}

func TestInitThroughCommand(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"init",
		"--db", filepath.Join(dir, "r.sqlite3"),
		"--media", filepath.Join(dir, "m"),
		"--output", filepath.Join(dir, "r.jsonc"),
	})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(dir, "r.jsonc"))
	assert.FileExists(t, filepath.Join(dir, "r.sqlite3"))
}

func TestLoggerRoutesLevels(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, cleanup, err := newLogger(&stdout, &stderr, "")
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hello", "k", 1)
	logger.Warn("careful")
	logger.Error("broken")
	logger.Debug("hidden")

	assert.Contains(t, stdout.String(), "msg=hello")
	assert.Contains(t, stdout.String(), "msg=careful")
	assert.NotContains(t, stdout.String(), "broken")
	assert.Contains(t, stderr.String(), "msg=broken")
	assert.NotContains(t, stdout.String()+stderr.String(), "hidden")
}

func TestLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.log")
	var stdout, stderr bytes.Buffer
	logger, cleanup, err := newLogger(&stdout, &stderr, path)
	require.NoError(t, err)

	logger.Info("to file")
	logger.Error("also to file")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, string(data), "also to file")
}
