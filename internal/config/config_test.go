package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HAULBOARD_CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "haulboard.yaml", `
server:
  port: 9090
transport:
  mode: stdio
auth:
  enabled: true
tracker:
  mirror: file
  mirror_dir: /var/lib/haulboard/mirror
  backup_schedule: "0 2 * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "file", cfg.Tracker.Mirror)
	require.Equal(t, "/var/lib/haulboard/mirror", cfg.Tracker.MirrorDir)
	require.Equal(t, "0 2 * * *", cfg.Tracker.BackupSchedule)
	require.Equal(t, "default", cfg.Tracker.Tenant)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "haulboard.toml", `
[db]
path = "/tmp/board.db"

[log]
level = "debug"

[tracker]
inbox_dir = "/srv/inbox"
tenant = "tiligul"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/board.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/srv/inbox", cfg.Tracker.InboxDir)
	require.Equal(t, "tiligul", cfg.Tracker.Tenant)
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeFile(t, "haulboard.yml", "server:\n  host: 127.0.0.1\n")
	t.Setenv("HAULBOARD_CONFIG_PATH", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "haulboard.yaml", "server:\n  port: 9090\n")
	t.Setenv("HAULBOARD_SERVER_PORT", "7070")
	t.Setenv("HAULBOARD_AUTH_ENABLED", "true")
	t.Setenv("HAULBOARD_TRACKER_BACKUP_DIR", "/backups")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "/backups", cfg.Tracker.BackupDir)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("HAULBOARD_CONFIG_PATH", "")
	t.Setenv("HAULBOARD_SERVER_PORT", "eighty")

	_, err := Load("")
	require.ErrorContains(t, err, "HAULBOARD_SERVER_PORT")
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"transport":   "transport:\n  mode: carrier-pigeon\n",
		"mirror":      "tracker:\n  mirror: redis\n",
		"log level":   "log:\n  level: loud\n",
		"port":        "server:\n  port: 70000\n",
		"file mirror": "tracker:\n  mirror: file\n  mirror_dir: \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "haulboard.yaml", content))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
