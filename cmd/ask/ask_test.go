package askcmder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskRequest(t *testing.T) {
	cmder := &askCommander{conversationID: "conv-1", email: "jane@acme.com", orgID: "acme"}

	req, err := cmder.request(`What is the "remote work" policy?`)
	require.NoError(t, err)

	assert.Equal(t, "conv-1", req.ConversationID)
	assert.Equal(t, "jane@acme.com", req.UserEmail)
	assert.Equal(t, "acme", req.OrgID)

	var conversation map[string]string
	require.NoError(t, json.Unmarshal(req.Conversation, &conversation))
	assert.Equal(t, "user", conversation["role"])
	assert.Equal(t, `What is the "remote work" policy?`, conversation["content"])
}

func TestAskCmdFlags(t *testing.T) {
	cmd := NewAskCmd(nil)
	require.NoError(t, cmd.ParseFlags([]string{"-c", "conv-9", "--email", "a@b.c", "--org", "acme"}))

	id, err := cmd.Flags().GetString("conversation-id")
	require.NoError(t, err)
	assert.Equal(t, "conv-9", id)

	assert.Error(t, cmd.Args(cmd, nil))
}
