package askcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SaiNageswarS/employee-desk/app"
	"github.com/SaiNageswarS/employee-desk/appconfig"
	"github.com/SaiNageswarS/employee-desk/desk"
)

const askLongDesc string = `Send one question through the employee desk and print the response envelope.

Without --conversation-id the desk starts a new conversation and replies with
the greeting; pass the returned id to ask real questions.

Examples:
  employee-desk ask "How many vacation days do I have?"
  employee-desk ask --conversation-id 6f1c... --email jane@acme.com "And sick leave?"`

const askShortDesc string = "Ask the employee desk a question"

type askCommander struct {
	conversationID string
	email          string
	orgID          string
}

func NewAskCmd(cfg *appconfig.AppConfig) *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, cfg, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.conversationID, "conversation-id", "c", "", "Conversation to continue")
	cmd.Flags().StringVarP(&cmder.email, "email", "e", "", "Email of the asking employee")
	cmd.Flags().StringVar(&cmder.orgID, "org", "", "Organization id (defaults to default_org_id)")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, cfg *appconfig.AppConfig, question string) error {
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	req, err := c.request(question)
	if err != nil {
		return err
	}

	resp, err := a.Desk.Chat(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func (c *askCommander) request(question string) (desk.ChatRequest, error) {
	conversation, err := json.Marshal(map[string]string{"role": "user", "content": question})
	if err != nil {
		return desk.ChatRequest{}, fmt.Errorf("could not encode question: %w", err)
	}

	return desk.ChatRequest{
		Conversation:   conversation,
		ConversationID: c.conversationID,
		UserEmail:      c.email,
		OrgID:          c.orgID,
	}, nil
}
