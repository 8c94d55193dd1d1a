package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/concave-dev/ceph-sentinel/internal/state"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	SetupCommands()
	os.Exit(m.Run())
}

// resetChanged clears flag state left behind by a previous Execute.
func resetChanged(cmd *cobra.Command) {
	unset := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(unset)
	cmd.PersistentFlags().VisitAll(unset)
	for _, sub := range cmd.Commands() {
		resetChanged(sub)
	}
}

// execute runs the command tree with args and restores Global afterwards.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	saved := config.Global
	t.Cleanup(func() {
		config.Global = saved
		CleanupLogFile()
	})
	resetChanged(RootCmd)
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "serve", "sample", "state"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	show, _, err := RootCmd.Find([]string{"state", "show"})
	require.NoError(t, err)
	assert.Equal(t, "show", show.Name())
	assert.NotNil(t, show.Flags().Lookup("idle-confirm-threshold"), "state commands inherit policy flags")

	run, _, err := RootCmd.Find([]string{"run"})
	require.NoError(t, err)
	for _, flag := range []string{"dry-run", "osd-min", "notify-to", "window-size", "reboot-threshold"} {
		assert.NotNil(t, run.Flags().Lookup(flag), "run is missing --%s", flag)
	}
}

func TestStateShowAndReset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentinel_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"no_client_io_count": 2}`), 0644))

	require.NoError(t, execute(t, "state", "show", "--state-file", path, "-o", "json", "--log-level", "ERROR"))
	require.NoError(t, execute(t, "state", "reset", "--state-file", path, "--log-level", "ERROR"))

	store, err := state.NewFileStore(path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.NoClientIOCount)
}

func TestStateShow_CorruptFileExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	err := execute(t, "state", "show", "--state-file", path, "--log-level", "ERROR")
	require.Error(t, err)
	assert.Equal(t, sentinel.ExitPersistenceError, sentinel.ExitCodeFor(err))
}

func TestStateReset_OverwritesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	require.NoError(t, execute(t, "state", "reset", "--state-file", path, "--log-level", "ERROR"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"no_client_io_count": 0}`, string(data))
}

func TestRootValidationIsUsageError(t *testing.T) {
	err := execute(t, "state", "show", "--log-level", "LOUD")
	require.Error(t, err)
	assert.Equal(t, sentinel.ExitUsage, sentinel.ExitCodeFor(err))
}

func TestConfigFileApplied(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	cfgPath := filepath.Join(dir, "sentinel.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("state_file: "+statePath+"\nlog_level: ERROR\n"), 0644))
	require.NoError(t, os.WriteFile(statePath, []byte(`{"no_client_io_count": 1}`), 0644))

	require.NoError(t, execute(t, "state", "reset", "--config", cfgPath))

	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"no_client_io_count": 0}`, string(data))
}
