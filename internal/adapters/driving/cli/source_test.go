package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceCmd_Use(t *testing.T) {
	assert.Equal(t, "source", sourceCmd.Use)
}

func TestSourceCmd_Short(t *testing.T) {
	assert.Equal(t, "Manage content sources", sourceCmd.Short)
}

func TestSourceCmd_HasSubcommands(t *testing.T) {
	commands := sourceCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "add")
	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "remove")
	assert.Contains(t, commandNames, "resume")
	assert.Contains(t, commandNames, "log")
}

// Source Add Tests

func TestSourceAddCmd_Use(t *testing.T) {
	assert.Equal(t, "add [workspace-id]", sourceAddCmd.Use)
}

func TestSourceAddCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "add"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSourceAddCmd_ErrorsWithoutServices(t *testing.T) {
	err := runSourceAdd(sourceAddCmd, []string{"ws-1"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSourceAddCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ws := seedWorkspace("research")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{
		"source", "add", ws.ID,
		"--provider", "rss",
		"--name", "Go Blog",
		"--set", "feed_url=https://go.dev/blog/feed.atom",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		sourceSettings = nil
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Added rss source Go Blog")
}

func TestSourceAddCmd_RejectsUnknownProvider(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ws := seedWorkspace("research")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "add", ws.ID, "--provider", "gopher"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider type")
}

func TestSourceAddCmd_RejectsMalformedSetting(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ws := seedWorkspace("research")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "add", ws.ID, "--provider", "rss", "--set", "no-equals-sign"})
	defer func() {
		rootCmd.SetArgs(nil)
		sourceSettings = nil
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}

// Source List Tests

func TestSourceListCmd_Use(t *testing.T) {
	assert.Equal(t, "list [workspace-id]", sourceListCmd.Use)
}

func TestSourceListCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ws := seedWorkspace("research")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"source", "list", ws.ID})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No sources configured")
}

// Source Remove Tests

func TestSourceRemoveCmd_Use(t *testing.T) {
	assert.Equal(t, "remove [source-id]", sourceRemoveCmd.Use)
}

func TestSourceRemoveCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "remove"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSourceRemoveCmd_UnknownSource(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "remove", "missing"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
}
