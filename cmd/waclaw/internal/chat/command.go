package chat

import (
	"github.com/spf13/cobra"
)

func NewChatCommand() *cobra.Command {
	var (
		chatID string
		debug  bool
	)

	cmd := &cobra.Command{
		Use:     "chat",
		Aliases: []string{"c"},
		Short:   "Talk to a conversation from the terminal",
		Long: `Talk to a conversation from the terminal, without the webhook gateway.

Messages use the same per-chat transcript, settings, and generation
pipeline the gateway uses. /help and /settings work as they do in a
group chat.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return chatCmd(chatID, debug)
		},
	}

	cmd.Flags().StringVarP(&chatID, "chat-id", "c", "cli-default", "Chat id to converse under")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}
