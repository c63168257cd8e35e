package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRootCmd resets all global flag values and Cobra's internal "Changed"
// tracking to pristine state. This must be called at the start of every test
// that invokes Execute() or manipulates rootCmd.
func resetRootCmd(t *testing.T) {
	t.Helper()
	flagVerbose = false
	flagQuiet = false
	flagDir = ""
	flagNoColor = false
	rootCmd.SetArgs(nil)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
	})
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
			if err := f.Value.Set(f.DefValue); err != nil {
				t.Logf("resetting flag %q: %v", f.Name, err)
			}
		})
	}
}

// noopCmdName is the name of the test-only noop subcommand.
const noopCmdName = "__test_noop"

// addNoopCmd registers a minimal subcommand on rootCmd so that
// PersistentPreRunE is invoked during tests.
func addNoopCmd(t *testing.T) {
	t.Helper()
	noop := &cobra.Command{
		Use:    noopCmdName,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	rootCmd.AddCommand(noop)
	t.Cleanup(func() {
		rootCmd.RemoveCommand(noop)
	})
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "talon", rootCmd.Use)
}

func TestRootCmd_SilencesCobraOutput(t *testing.T) {
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	tests := []struct {
		name      string
		flagName  string
		shorthand string
	}{
		{name: "verbose", flagName: "verbose", shorthand: "v"},
		{name: "quiet", flagName: "quiet", shorthand: "q"},
		{name: "dir", flagName: "dir", shorthand: ""},
		{name: "no-color", flagName: "no-color", shorthand: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag, "persistent flag %q must be registered", tt.flagName)
			if tt.shorthand != "" {
				assert.Equal(t, tt.shorthand, flag.Shorthand)
			}
		})
	}
}

func TestRootCmd_FlagUsageContainsEnvHints(t *testing.T) {
	tests := []struct {
		flagName string
		envHint  string
	}{
		{flagName: "verbose", envHint: "TALON_VERBOSE"},
		{flagName: "quiet", envHint: "TALON_QUIET"},
		{flagName: "no-color", envHint: "TALON_NO_COLOR"},
		{flagName: "no-color", envHint: "NO_COLOR"},
	}

	for _, tt := range tests {
		t.Run(tt.flagName+"_"+tt.envHint, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag)
			assert.Contains(t, flag.Usage, tt.envHint)
		})
	}
}

func TestRootCmd_RegistersAllCommands(t *testing.T) {
	want := []string{
		"create", "list", "show", "update", "set-status", "delete",
		"can-run", "assess", "plan", "archive", "clear", "deleted",
		"recover", "history", "search", "status", "version",
	}
	have := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		assert.True(t, have[name], "command %q must be registered", name)
	}
}

func TestExecute_NoSubcommand_ReturnsZero(t *testing.T) {
	resetRootCmd(t)

	code := Execute()
	assert.Equal(t, 0, code)
}

func TestExecute_HelpFlag_ReturnsZero(t *testing.T) {
	resetRootCmd(t)

	rootCmd.SetArgs([]string{"--help"})
	assert.Equal(t, 0, Execute())
}

func TestPersistentPreRunE_VerboseFlag(t *testing.T) {
	resetRootCmd(t)
	addNoopCmd(t)

	rootCmd.SetArgs([]string{"--verbose", noopCmdName})
	assert.Equal(t, 0, Execute())
	assert.True(t, flagVerbose)
}

func TestPersistentPreRunE_VerboseEnvVar(t *testing.T) {
	resetRootCmd(t)
	addNoopCmd(t)
	t.Setenv("TALON_VERBOSE", "1")

	rootCmd.SetArgs([]string{noopCmdName})
	assert.Equal(t, 0, Execute())
	assert.True(t, flagVerbose)
}

func TestPersistentPreRunE_DirChangesWorkingDirectory(t *testing.T) {
	resetRootCmd(t)
	addNoopCmd(t)
	t.Chdir(t.TempDir())

	target := t.TempDir()
	rootCmd.SetArgs([]string{"--dir", target, noopCmdName})
	assert.Equal(t, 0, Execute())
}

func TestPersistentPreRunE_BadDirFails(t *testing.T) {
	resetRootCmd(t)
	addNoopCmd(t)
	t.Chdir(t.TempDir())

	rootCmd.SetArgs([]string{"--dir", "/definitely/not/a/dir", noopCmdName})
	assert.Equal(t, 1, Execute())
}
