package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"interviewlab/internal/agent"
	"interviewlab/internal/agent/tools"
	"interviewlab/internal/config"
	"interviewlab/internal/logger"
	"interviewlab/internal/mailer"
	"interviewlab/internal/store"
)

const defaultConfigPath = "interviewlab.toml"

func main() {
	if err := run(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; the API key may come from the real environment.
	_ = godotenv.Load()

	defer logger.CloseLogFile()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	logger.Infof("Loading configuration from %s", configPath)
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Infof("Shutdown signal received, exiting...")
		cancel()
	}()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	gateway, err := agent.NewOpenAIGateway(agent.GatewayConfig{
		APIKey:            os.Getenv("OPENAI_API_KEY"),
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		MaxResponseTokens: cfg.MaxResponseTokens,
	})
	if err != nil {
		return err
	}

	a, err := agent.New(agent.Options{
		Gateway:           gateway,
		SystemPrompt:      cfg.SystemPrompt,
		MaxTurns:          cfg.MaxTurns,
		MaxToolIterations: cfg.MaxToolIterations,
	})
	if err != nil {
		return err
	}

	m := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     cfg.SMTP.From,
	})

	a.RegisterTools(tools.DefaultTools(st, m))
	logger.Successf("Interview assistant ready (model %s, %d tools)", cfg.Model, len(a.Tools()))

	transcript := logger.NewTranscript("")
	defer transcript.Close()

	return repl(ctx, a, transcript)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warnf("No database configured; using an empty in-memory store")
		return store.NewMemStore(), func() {}, nil
	}

	ps, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := ps.EnsureSchema(ctx); err != nil {
		ps.Close()
		return nil, nil, err
	}
	logger.Successf("Connected to Postgres")
	return ps, ps.Close, nil
}

func repl(ctx context.Context, a *agent.Agent, transcript *logger.Transcript) error {
	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Type a request, or /tools, /history, /clear, /quit.")

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/clear":
			a.ClearConversation()
			transcript.Event("conversation cleared")
			fmt.Println("Conversation cleared.")
			continue
		case "/tools":
			for _, t := range a.Tools() {
				fmt.Printf("  %s: %s\n", t.Name(), t.Description())
			}
			continue
		case "/history":
			printHistory(a.History())
			continue
		}

		transcript.User(line)
		fmt.Print("assistant> ")
		reply, err := a.StreamChat(ctx, line, func(fragment string) {
			fmt.Print(fragment)
		})
		fmt.Println()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Errorf("Chat failed: %v", err)
			continue
		}
		transcript.Assistant(reply)
	}
}

func printHistory(messages []agent.Message) {
	for _, m := range messages {
		ts := m.Timestamp.Format(time.TimeOnly)
		switch m.Role {
		case agent.RoleTool:
			fmt.Printf("  [%s] tool(%s): %s\n", ts, m.ToolName, firstLine(m.Content))
		case agent.RoleAssistant:
			if len(m.ToolCalls) > 0 {
				names := make([]string, 0, len(m.ToolCalls))
				for _, call := range m.ToolCalls {
					names = append(names, call.Name)
				}
				fmt.Printf("  [%s] assistant -> tools: %s\n", ts, strings.Join(names, ", "))
				continue
			}
			fmt.Printf("  [%s] assistant: %s\n", ts, firstLine(m.Content))
		default:
			fmt.Printf("  [%s] %s: %s\n", ts, m.Role, firstLine(m.Content))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	return s
}
