package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpggio/haulboard/internal/codec"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("HAULBOARD_CONFIG_PATH", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "haulboard.yaml")
	body := fmt.Sprintf("db:\n  path: %s\ntracker:\n  tenant: depot\n", filepath.Join(dir, "data", "haulboard.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "database ready")
	require.FileExists(t, filepath.Join(filepath.Dir(cfg), "data", "haulboard.db"))
}

func TestAPIKeyCreateCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "apikey", "create", "--tenant", "acme", "--description", "ops laptop")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	a, err := newApp(cfg, false)
	require.NoError(t, err)
	defer a.Close()

	tenant, err := a.apiKeys.ResolveTenant(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "acme", tenant)
}

func TestAPIKeyCreateCommand_RequiresTenant(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "--config", cfg, "apikey", "create")
	require.Error(t, err)
	require.Contains(t, err.Error(), "tenant")
}

func TestTrackerImportExportCommands(t *testing.T) {
	cfg := writeConfig(t)
	dir := filepath.Dir(cfg)

	in := filepath.Join(dir, "board.csv")
	text := codec.Encode([]codec.Row{
		{"vessel": "Ocean Star", "serialNumber": "SN-1"},
		{"vessel": "Black Sea", "serialNumber": "SN-2"},
	}, tracker.Columns())
	require.NoError(t, os.WriteFile(in, []byte(text), 0o644))

	out, err := execute(t, "--config", cfg, "tracker", "import", in)
	require.NoError(t, err)
	require.Contains(t, out, "imported 2 rows")

	out, err = execute(t, "--config", cfg, "tracker", "export")
	require.NoError(t, err)
	require.Contains(t, out, "Ocean Star")
	require.Contains(t, out, "SN-2")

	exported := filepath.Join(dir, "export.csv")
	_, err = execute(t, "--config", cfg, "tracker", "export", "--out", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	require.Contains(t, string(data), "Black Sea")

	// Other tenants start from a single blank row.
	out, err = execute(t, "--config", cfg, "tracker", "export", "--tenant", "elsewhere")
	require.NoError(t, err)
	require.NotContains(t, out, "Ocean Star")
}

func TestTrackerImportCommand_Malformed(t *testing.T) {
	cfg := writeConfig(t)
	in := filepath.Join(filepath.Dir(cfg), "broken.csv")
	require.NoError(t, os.WriteFile(in, []byte(`"Стовпець 1","Судно/Vessel"`), 0o644))

	_, err := execute(t, "--config", cfg, "tracker", "import", in)
	require.ErrorIs(t, err, codec.ErrMalformedInput)
}

func TestTrackerImportCommand_MissingFile(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "--config", cfg, "tracker", "import", filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	t.Setenv("HAULBOARD_CONFIG_PATH", "")
	t.Setenv("HAULBOARD_TRANSPORT_MODE", "carrier-pigeon")

	_, err := execute(t, "serve")
	require.Error(t, err)
	require.Contains(t, err.Error(), "transport mode")
}
