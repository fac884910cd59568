package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"kodiak/attachments"
	"kodiak/chat"
	"kodiak/config"
	"kodiak/model"
	"kodiak/provider"
	"kodiak/storage"
	"kodiak/tools"
	"kodiak/weather"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	creds, err := config.OpenCredentialStore(cfg.DataDir())
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	prov, err := buildProvider(cfg, creds)
	if err != nil {
		return err
	}

	store, err := storage.NewConversationStore(cfg.DataDir(), logger)
	if err != nil {
		return fmt.Errorf("failed to open conversation store: %w", err)
	}
	defer store.Close()

	attachReg := attachments.NewRegistry()

	// Utility session with no tools, used for title/document/welcome prompts.
	utility := chat.NewSession(prov, nil, cfg.SystemPrompt, 1, logger)

	registry, err := buildTools(cfg, attachReg, store, utility, logger)
	if err != nil {
		return err
	}

	session := chat.NewSession(prov, registry, cfg.SystemPrompt, cfg.MaxToolRounds, logger)
	titler := chat.NewTitleGenerator(prov, logger)
	controller := chat.NewController(store, session, titler, attachReg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return repl(ctx, controller, store, utility)
}

func buildProvider(cfg *config.Config, creds *config.CredentialStore) (model.Provider, error) {
	providerCfg := provider.Config{
		Type:   provider.MapProviderIDToType(cfg.DefaultProvider),
		APIKey: creds.Get(cfg.DefaultProvider),
	}

	switch providerCfg.Type {
	case provider.ProviderTypeOllama:
		providerCfg.BaseURL = cfg.Ollama.Host
		providerCfg.Model = cfg.Ollama.DefaultModel
	case provider.ProviderTypeOpenAI:
		providerCfg.BaseURL = cfg.OpenAI.BaseURL
		providerCfg.Model = cfg.OpenAI.Model
	case provider.ProviderTypeAnthropic:
		providerCfg.BaseURL = cfg.Anthropic.BaseURL
		providerCfg.Model = cfg.Anthropic.Model
	}

	p, err := provider.NewProvider(providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return p, nil
}

func buildTools(cfg *config.Config, attachReg *attachments.Registry, store *storage.ConversationStore, responder chat.Responder, logger *zap.Logger) (*tools.Registry, error) {
	var enabled []tools.Tool

	if cfg.Tools.Weather {
		enabled = append(enabled, tools.NewWeatherTool(weather.NewClient(), weather.NewCache()))
	}
	if cfg.Tools.ImageAnalysis {
		// Platform detectors are injected on mobile builds; the CLI runs
		// without them and the tool degrades to its no-detection summary.
		enabled = append(enabled, tools.NewImageAnalysisTool(attachReg, store, nil, nil, nil, logger))
	}
	if cfg.Tools.DocumentAnalysis {
		enabled = append(enabled, tools.NewDocumentAnalysisTool(responder))
	}
	if cfg.Tools.WebSearch {
		enabled = append(enabled, tools.WebSearchTool{})
	}
	if cfg.Tools.Wikipedia {
		enabled = append(enabled, tools.WikipediaTool{})
	}

	registry, err := tools.NewRegistry(enabled...)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	return registry, nil
}

func repl(ctx context.Context, controller *chat.Controller, store *storage.ConversationStore, responder chat.Responder) error {
	fmt.Printf("kodiak %s\n", Version)
	for _, s := range chat.WelcomeSuggestions(ctx, responder) {
		fmt.Printf("  • %s\n", s)
	}
	fmt.Println("\nType a message, or /help for commands.")

	// Print streamed snapshots incrementally: each snapshot carries the full
	// text so far, so only the suffix beyond what was already printed is new.
	var printed int
	controller.Subscribe(func(ev chat.Event) {
		switch ev.Type {
		case chat.EventTurnStarted:
			printed = 0
		case chat.EventMessageUpdated:
			if ev.Message == nil || ev.Message.IsUser() {
				return
			}
			if len(ev.Message.Content) > printed {
				fmt.Print(ev.Message.Content[printed:])
				printed = len(ev.Message.Content)
			}
		case chat.EventTurnCompleted:
			fmt.Println()
		case chat.EventTurnFailed:
			fmt.Printf("\n[turn failed: %v]\n", ev.Err)
		case chat.EventTitleUpdated:
			fmt.Printf("[conversation titled: %s]\n", ev.Title)
		}
	})

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := command(ctx, controller, store, line); quit {
				return nil
			}
			continue
		}

		if _, err := controller.SendMessage(ctx, line, nil); err != nil {
			fmt.Printf("[%v]\n", err)
		}
	}
}

func command(ctx context.Context, controller *chat.Controller, store *storage.ConversationStore, line string) (quit bool) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	}

	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		if _, err := controller.NewConversation(); err != nil {
			fmt.Printf("[%v]\n", err)
		}
	case "/list":
		convs, err := controller.ListConversations()
		if err != nil {
			fmt.Printf("[%v]\n", err)
			return false
		}
		for _, conv := range convs {
			pin := " "
			if conv.Pinned {
				pin = "*"
			}
			fmt.Printf("%s %s  %s\n", pin, conv.ID, conv.Title)
		}
	case "/select":
		if err := controller.SelectConversation(arg); err != nil {
			fmt.Printf("[%v]\n", err)
		}
	case "/delete":
		if err := controller.DeleteConversation(arg); err != nil {
			fmt.Printf("[%v]\n", err)
		}
	case "/clear":
		if err := controller.DeleteAllConversations(); err != nil {
			fmt.Printf("[%v]\n", err)
		}
	case "/pin":
		if err := controller.TogglePin(arg); err != nil {
			fmt.Printf("[%v]\n", err)
		}
	case "/regen":
		if _, err := controller.Regenerate(ctx, arg); err != nil {
			fmt.Printf("[%v]\n", err)
		}
	case "/search":
		titles, err := store.SearchTitles(arg)
		if err != nil {
			fmt.Printf("[%v]\n", err)
			return false
		}
		for _, m := range titles {
			fmt.Printf("%s  %s\n", m.ConversationID, m.Title)
		}
		hits, err := store.SearchMessages(arg)
		if err != nil {
			fmt.Printf("[%v]\n", err)
			return false
		}
		for _, m := range hits {
			fmt.Printf("%s  %s: %s\n", m.ConversationID, m.Role, m.Preview)
		}
	case "/help":
		fmt.Println("/new /list /select <id> /delete <id> /clear /pin <id> /regen <message-id> /search <query> /quit")
	default:
		fmt.Println("[unknown command, /help for commands]")
	}
	return false
}
