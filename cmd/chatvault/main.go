// Package main provides the chatvault command line interface: a thin
// driver around the encrypted conversation store and the conversation
// manager for inspecting and exercising the local persistence core.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/entrhq/chatvault/pkg/chat"
	"github.com/entrhq/chatvault/pkg/chat/store"
	"github.com/entrhq/chatvault/pkg/config"
	"github.com/entrhq/chatvault/pkg/logging"
	"github.com/entrhq/chatvault/pkg/secrets"
)

const (
	version = "0.1.0"

	// keyID addresses the snapshot encryption key in the keychain.
	keyID = "chatvault-conversations"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	DataDir     string
	Model       string
	MemoryKeys  bool
	List        bool
	Search      string
	NewMessage  string
	Clear       bool
	ShowVersion bool
}

func main() {
	// Environment overrides may live in a local .env during development.
	_ = godotenv.Load()

	cli := parseFlags()
	if cli.ShowVersion {
		fmt.Printf("chatvault v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		fmt.Fprintf(os.Stderr, "chatvault: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}
	flag.StringVar(&cli.ConfigFile, "config", "", "Path to the config file (default ~/.chatvault/config.yaml)")
	flag.StringVar(&cli.DataDir, "data-dir", "", "Directory holding the encrypted snapshot (default ~/.chatvault)")
	flag.StringVar(&cli.Model, "model", "", "Override the selected model for this run")
	flag.BoolVar(&cli.MemoryKeys, "memory-keychain", false, "Use an in-memory keychain instead of the platform secure store (development only)")
	flag.BoolVar(&cli.List, "list", false, "Print the conversation timeline")
	flag.StringVar(&cli.Search, "search", "", "Search conversations for a substring")
	flag.StringVar(&cli.NewMessage, "new", "", "Create a conversation seeded with this user message")
	flag.BoolVar(&cli.Clear, "clear", false, "Clear all conversations and delete the snapshot file")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Print version and exit")
	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	logger, logErr := logging.NewLogger("cli")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging unavailable: %v\n", logErr)
	}
	defer logger.Close()

	fileStore, err := config.NewFileStore(cli.ConfigFile)
	if err != nil {
		return err
	}
	cfg := config.NewManager(fileStore)
	llmSection := config.NewLLMSection()
	chatSection := config.NewChatSection()
	if err := cfg.RegisterSection(llmSection); err != nil {
		return err
	}
	if err := cfg.RegisterSection(chatSection); err != nil {
		return err
	}
	if err := cfg.LoadAll(); err != nil {
		return err
	}
	if cli.Model != "" {
		llmSection.SetModel(cli.Model)
	}

	dataDir := cli.DataDir
	if dataDir == "" {
		dataDir = chatSection.GetDataDir()
	}
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".chatvault")
	}

	var keychain secrets.Keychain
	if cli.MemoryKeys {
		keychain = secrets.NewMemoryKeychain()
	} else {
		keychain = secrets.NewSystemKeychain("")
	}

	encStore := store.NewEncryptedStore(dataDir, keyID, keychain)
	manager := chat.NewManager(encStore, llmSection, chatSection, chat.Options{
		SaveDebounce: chatSection.GetSaveDebounce(),
		Logger:       logger,
	})
	if err := manager.WaitUntilLoaded(ctx); err != nil {
		// A corrupt or undecryptable snapshot is surfaced but not fatal;
		// the manager continues with an empty list.
		fmt.Fprintf(os.Stderr, "warning: could not load conversations: %v\n", err)
	}

	switch {
	case cli.Clear:
		manager.ClearAll()
		// The in-memory clear is synchronous; give the background file
		// deletion a moment to land before exiting.
		waitForEvent(ctx, manager, chat.EventCleared, chat.EventClearFailed)
		fmt.Println("All conversations cleared.")
		return nil

	case cli.NewMessage != "":
		conv := manager.CreateConversation()
		manager.AddMessage(conv.ID, chat.NewMessage(chat.RoleUser, cli.NewMessage))
		if err := manager.SaveNow().Wait(ctx); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
		fmt.Printf("Created conversation %s (model %s)\n", conv.ID, conv.Model)
		return nil

	case cli.Search != "":
		results := manager.Search(cli.Search)
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, conv := range results {
			fmt.Printf("%s  %s  (%d messages)\n", conv.ID, conv.Title, len(conv.Messages))
		}
		return nil

	case cli.List:
		printTimeline(manager.Conversations())
		return nil

	default:
		flag.Usage()
		return nil
	}
}

// waitForEvent drains manager events until one of the wanted types (or
// a timeout) arrives.
func waitForEvent(ctx context.Context, manager *chat.Manager, types ...chat.EventType) {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-manager.Events():
			for _, t := range types {
				if ev.Type == t {
					return
				}
			}
		case <-timeout:
			return
		case <-ctx.Done():
			return
		}
	}
}

func printTimeline(conversations []*chat.Conversation) {
	if len(conversations) == 0 {
		fmt.Println("No conversations.")
		return
	}
	for _, section := range chat.GroupByTimeline(conversations, time.Now()) {
		fmt.Printf("%s\n", section.Label)
		for _, conv := range section.Conversations {
			fmt.Printf("  %s  %s  (%d messages)\n",
				conv.UpdatedAt.Format("2006-01-02 15:04"), conv.Title, len(conv.Messages))
		}
	}
}
