package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voxtodo/voxtodo/internal/chatctx"
	"github.com/voxtodo/voxtodo/internal/clientconfig"
	"github.com/voxtodo/voxtodo/internal/dispatch"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/notify"
	"github.com/voxtodo/voxtodo/internal/processor"
	"github.com/voxtodo/voxtodo/internal/remote"
	"github.com/voxtodo/voxtodo/internal/store"
	"go.uber.org/zap"
)

// env bundles everything a command needs: config, store, gateway client
// and the wired processing pipeline.
type env struct {
	configPath string
	config     *clientconfig.Config
	logger     *zap.Logger
	notifier   *notify.MemoryScheduler
	store      *store.Store
	remote     *remote.Client
	processor  *processor.Processor
}

// newEnv loads config and opens the store. Call close when done.
func newEnv(cmd *cobra.Command) (*env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		p, err := clientconfig.DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	cfg, err := clientconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewDevelopment(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	notifier := notify.NewMemoryScheduler(log)
	st, err := store.Open(cfg.StorePath, notifier, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	client := remote.New(cfg.GatewayURL)
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	if cfg.BypassPassword != "" {
		client.SetPassword(cfg.BypassPassword)
	}

	builder := chatctx.New(st)
	dispatcher := dispatch.New(st, log)
	toast := func(message string) {
		fmt.Println(message)
	}
	proc := processor.New(builder, client, dispatcher, st, toast, log)

	return &env{
		configPath: configPath,
		config:     cfg,
		logger:     log,
		notifier:   notifier,
		store:      st,
		remote:     client,
		processor:  proc,
	}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}
