package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "chatcli", cmd.Use)

	for _, name := range []string{"repl", "ask", "audit-tail"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"verbose", "format", "user", "session"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestAuditTailFlags(t *testing.T) {
	cmd := NewAuditTailCommand(&RootOptions{})
	assert.Equal(t, "nats://localhost:4222", cmd.Flags().Lookup("nats").DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("durable"))
}

func TestInvalidFormatIsRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml", "ask", "hello"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestAskRunsOneTurn(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "json", "ask", "show", "contract", "123456"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"isSuccess": true`)
	assert.Contains(t, out.String(), `"queryType": "CONTRACTS"`)
}
