package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/tinyland-inc/waclaw/cmd/waclaw/internal"
	"github.com/tinyland-inc/waclaw/pkg/bridge"
	"github.com/tinyland-inc/waclaw/pkg/bus"
	"github.com/tinyland-inc/waclaw/pkg/chat"
	"github.com/tinyland-inc/waclaw/pkg/config"
	gatewaysrv "github.com/tinyland-inc/waclaw/pkg/gateway"
	"github.com/tinyland-inc/waclaw/pkg/llm"
	anthropicprovider "github.com/tinyland-inc/waclaw/pkg/llm/anthropic"
	openaiprovider "github.com/tinyland-inc/waclaw/pkg/llm/openai"
	"github.com/tinyland-inc/waclaw/pkg/logger"
	"github.com/tinyland-inc/waclaw/pkg/router"
	"github.com/tinyland-inc/waclaw/pkg/routes"
	"github.com/tinyland-inc/waclaw/pkg/store"
	"github.com/tinyland-inc/waclaw/pkg/voice"
)

func gatewayCmd(debug bool) error {
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

	bridgeClient := bridge.NewClient(bridge.Config{
		BaseURL: cfg.Bridge.BaseURL,
		APIKey:  cfg.Bridge.APIKey,
		Session: cfg.Bridge.Session,
	})

	provider, err := buildProvider(cfg)
	if err != nil {
		return fmt.Errorf("error creating provider: %w", err)
	}
	meter := llm.NewMeterStore()

	defaults := chat.DefaultSettings(cfg.Chat, cfg.Providers.OpenAI.APIKey)
	dispatcher := router.NewDispatcher(st, func(chatID string) router.ChatRoute {
		return chat.NewGroupHandler(chatID, st, bridgeClient, provider, meter)
	})

	dispatcher.Register(routes.NewGroupCreationRoute(st, defaults))
	if cfg.Transcriber.Enabled {
		transcriber := voice.NewWhisperTranscriber(cfg.Transcriber.Binary, cfg.Transcriber.ModelName)
		dispatcher.Register(routes.NewTranscribeRoute(bridgeClient, transcriber, cfg.Transcriber.TmpDir))
		fmt.Println("✓ Audio transcription enabled")
	}
	if cfg.SessionMonitor.Enabled {
		dispatcher.Register(routes.NewSessionRoute(bridgeClient, cfg.StaticDirPath(), cfg.SessionMonitor.Schedule))
		fmt.Println("✓ Session monitor enabled")
	}

	if err := dispatcher.RefreshDynamicRoutes(); err != nil {
		fmt.Printf("Warning: route rediscovery failed: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := bus.NewEventQueue()
	server := gatewaysrv.NewServer(
		cfg.Gateway.Host,
		cfg.Gateway.Port,
		cfg.StaticDirPath(),
		cfg.Gateway.CaptureFile,
		queue,
	)

	// Serial intake: one consumer drains the queue so events enter
	// dispatch in arrival order.
	go func() {
		for {
			ev, ok := queue.Consume(ctx)
			if !ok {
				return
			}
			dispatcher.Dispatch(ctx, ev)
		}
	}()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCF("gateway", "Webhook server error", map[string]any{"error": err.Error()})
		}
	}()

	fmt.Printf("✓ Gateway started on %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
	fmt.Printf("✓ Webhook endpoint at http://%s:%d/callback\n", cfg.Gateway.Host, cfg.Gateway.Port)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan

	fmt.Println("\nShutting down...")
	_ = server.Stop(context.Background())
	queue.Close()
	cancel()
	dispatcher.Wait()
	fmt.Println("✓ Gateway stopped")

	return nil
}

// buildProvider wires the generation providers configured in cfg into one
// mux: claude models go to Anthropic, everything else to OpenAI.
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
