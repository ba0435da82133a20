package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatCommand(t *testing.T) {
	cmd := NewChatCommand()

	require.NotNil(t, cmd)

	assert.Equal(t, "chat", cmd.Use)
	assert.Contains(t, cmd.Aliases, "c")

	assert.Nil(t, cmd.Run)
	assert.NotNil(t, cmd.RunE)

	assert.NotNil(t, cmd.Flags().Lookup("chat-id"))
	assert.NotNil(t, cmd.Flags().Lookup("debug"))

	flag := cmd.Flags().Lookup("chat-id")
	assert.Equal(t, "cli-default", flag.DefValue)
}
