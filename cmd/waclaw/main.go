// waclaw - WhatsApp group chat gateway with LLM conversations.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/waclaw/cmd/waclaw/internal"
	"github.com/tinyland-inc/waclaw/cmd/waclaw/internal/chat"
	"github.com/tinyland-inc/waclaw/cmd/waclaw/internal/gateway"
	"github.com/tinyland-inc/waclaw/cmd/waclaw/internal/version"
)

func NewWaclawCommand() *cobra.Command {
	short := fmt.Sprintf("%s waclaw - WhatsApp chat gateway v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "waclaw",
		Short:   short,
		Example: "waclaw gateway",
	}

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		chat.NewChatCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewWaclawCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
