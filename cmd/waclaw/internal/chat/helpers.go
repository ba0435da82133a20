package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/tinyland-inc/waclaw/cmd/waclaw/internal"
	"github.com/tinyland-inc/waclaw/pkg/chat"
	"github.com/tinyland-inc/waclaw/pkg/config"
	"github.com/tinyland-inc/waclaw/pkg/llm"
	anthropicprovider "github.com/tinyland-inc/waclaw/pkg/llm/anthropic"
	openaiprovider "github.com/tinyland-inc/waclaw/pkg/llm/openai"
	"github.com/tinyland-inc/waclaw/pkg/logger"
	"github.com/tinyland-inc/waclaw/pkg/store"
)

func chatCmd(chatID string, debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}

	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	st, err := store.NewStore(cfg.StateDirPath())
	if err != nil {
		return fmt.Errorf("error opening state store: %w", err)
	}

	if !st.Exists(chatID) {
		defaults := chat.DefaultSettings(cfg.Chat, cfg.Providers.OpenAI.APIKey)
		if err := st.Save(chatID, store.NewChatState(defaults)); err != nil {
			return fmt.Errorf("error creating chat %s: %w", chatID, err)
		}
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return fmt.Errorf("error creating provider: %w", err)
	}

	session := &chatSession{chatID: chatID, store: st, provider: provider}

	fmt.Printf("%s Chatting as %s (Ctrl+C to exit)\n\n", internal.Logo, chatID)
	interactiveMode(session)

	return nil
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	mux := llm.NewMux()
	configured := false

	if key := cfg.Providers.OpenAI.APIKey; key != "" {
		mux.SetFallback(openaiprovider.NewProviderWithBaseURL(key, cfg.Providers.OpenAI.APIBase))
		configured = true
	}
	if key := cfg.Providers.Anthropic.APIKey; key != "" {
		mux.RegisterPrefix("claude", anthropicprovider.NewProviderWithBaseURL(key, cfg.Providers.Anthropic.APIBase))
		configured = true
	}

	if !configured {
		return nil, errors.New("no generation provider configured (set providers.openai.api_key or providers.anthropic.api_key)")
	}
	return mux, nil
}

// chatSession runs one console turn through the same transcript, settings,
// and generation pipeline the gateway's group handler uses.
type chatSession struct {
	chatID   string
	store    *store.Store
	provider llm.Provider
}

func (s *chatSession) process(ctx context.Context, input string) (string, error) {
	var reply string
	err := s.store.Update(ctx, s.chatID, func(state *store.ChatState) error {
		lower := strings.ToLower(input)
		switch {
		case strings.Contains(lower, "/help"):
			reply = "/settings\n" + chat.FormatSettings(state.Settings)
			return nil
		case strings.Contains(lower, "/settings"):
			changed := chat.ReconcileSettings(state.Settings, input)
			reply = "Updated settings: " + strings.Join(changed, ", ")
			return nil
		}

		state.Append("user", input, time.Now().Format(time.RFC3339))

		instructions := ""
		if state.GroupDescription != nil {
			instructions = *state.GroupDescription
		}
		prompt := chat.BuildContext(instructions, state.Conversation, chat.MaxContexts(state.Settings))

		resp, err := s.provider.Generate(ctx, prompt, chat.CallOptions(state.Settings))
		if err != nil {
			return err
		}

		state.Append(store.AssistantAuthor, resp.Text, time.Now().Format(time.RFC3339))
		reply = resp.Text
		return nil
	})
	return reply, err
}

func interactiveMode(session *chatSession) {
	prompt := fmt.Sprintf("%s You: ", internal.Logo)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".waclaw_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(session)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !handleLine(session, line) {
			return
		}
	}
}

func simpleInteractiveMode(session *chatSession) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", internal.Logo)
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !handleLine(session, line) {
			return
		}
	}
}

func handleLine(session *chatSession, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}
	if input == "exit" || input == "quit" {
		fmt.Println("Goodbye!")
		return false
	}

	response, err := session.process(context.Background(), input)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return true
	}

	fmt.Printf("\n%s %s\n\n", internal.Logo, response)
	return true
}
