package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/medihome/storefront/internal/config"
	"github.com/medihome/storefront/internal/errors"
	"github.com/medihome/storefront/pkg/store"
	"github.com/medihome/storefront/pkg/toast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestVersionLong(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    "+version)
	assert.Contains(t, out, "Go version:")
}

func TestConfigDefaults(t *testing.T) {
	out, err := execute(t, "config", "--defaults")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(config.Default().Entries()))
	assert.Regexp(t, `(?m)^toast\.duration\s+3s$`, out)
	assert.Regexp(t, `(?m)^flash\.stagger\s+150ms$`, out)
	assert.Regexp(t, `(?m)^toast\.policy\s+replace$`, out)
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("toast:\n  policy: legacy\n  duration: 5s\n"), 0o600))

	out, err := execute(t, "--config", path, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
	assert.Regexp(t, `(?m)^toast\.policy\s+legacy$`, out)
	assert.Regexp(t, `(?m)^toast\.duration\s+5s$`, out)
}

func TestConfigMissingFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "config")
	require.Error(t, err)
	assert.Equal(t, "E101", errors.Code(err))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "storefront.db")
	cfg.Server.Address = "127.0.0.1:0"
	return cfg
}

func TestRunServeBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.Address = ln.Addr().String()

	var logs bytes.Buffer
	err = runServe(context.Background(), cfg, false, &logs)
	require.Error(t, err)
	assert.Equal(t, "E401", errors.Code(err))
}

func TestRunServeStopsWithContext(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Format = "json"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var logs bytes.Buffer
	require.NoError(t, runServe(ctx, cfg, false, &logs))
	assert.Contains(t, logs.String(), `"msg":"storefront starting"`)
}

func TestRunServeBadDatabase(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	cfg.Store.SQLitePath = filepath.Join(blocker, "storefront.db")

	err := runServe(context.Background(), cfg, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, "E201", errors.Code(err))
}

func TestNewArchive(t *testing.T) {
	cfg := config.Default()
	_, ok := newArchive(cfg, testLogger()).(*store.MemoryArchive)
	assert.True(t, ok)

	cfg.Store.Archive = config.ArchiveS3
	cfg.Store.S3.Bucket = "contact-archive"
	_, ok = newArchive(cfg, testLogger()).(*store.S3Archive)
	assert.True(t, ok)
}

func TestLiveConfigFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Toast.Policy = "legacy"
	cfg.Session.CookieName = "sid"
	cfg.Server.AllowedOrigins = []string{"https://medihome.example"}

	lc := liveConfig(cfg)
	assert.Equal(t, toast.PolicyLegacy, lc.ToastPolicy)
	assert.Equal(t, cfg.Toast.Duration, lc.ToastDuration)
	assert.Equal(t, cfg.Flash.Stagger, lc.FlashStagger)
	assert.Equal(t, "sid", lc.CookieName)
	assert.Equal(t, []string{"https://medihome.example"}, lc.AllowedOrigins)

	sc := serverConfig(cfg, true)
	assert.Equal(t, "sid", sc.CookieName)
	assert.True(t, sc.DevMode)
	assert.Equal(t, cfg.Metrics.Path, sc.MetricsPath)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
