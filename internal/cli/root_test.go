package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "customs", cmd.Use)
	assert.Contains(t, cmd.Long, "listener groups")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"listeners", "list"},
		{"listeners", "show"},
		{"listeners", "add"},
		{"listeners", "remove"},
		{"listeners", "rename"},
		{"listeners", "import"},
		{"listeners", "export"},
		{"menus", "list"},
		{"menus", "show"},
		{"menus", "add"},
		{"menus", "remove"},
		{"menus", "rename"},
		{"menus", "import"},
		{"menus", "export"},
	}

	for _, path := range commands {
		t.Run(path[0]+" "+path[1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"root", "backend", "workers", "autosave"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestImportExportFlags(t *testing.T) {
	cmd := NewRootCommand()

	importCmd, _, err := cmd.Find([]string{"menus", "import"})
	require.NoError(t, err)
	assert.NotNil(t, importCmd.Flags().Lookup("rename-suffix"))
	assert.NotNil(t, importCmd.Flags().Lookup("as"))

	exportCmd, _, err := cmd.Find([]string{"listeners", "export"})
	require.NoError(t, err)
	assert.NotNil(t, exportCmd.Flags().Lookup("as"))
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&discard{})
	cmd.SetErr(&discard{})
	cmd.SetArgs([]string{"--format", "xml", "menus", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
