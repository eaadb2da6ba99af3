package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/talentum-plus/talentum/internal/ai"
	"github.com/talentum-plus/talentum/internal/ai/gemini"
	"github.com/talentum-plus/talentum/internal/api"
	"github.com/talentum-plus/talentum/internal/auth"
	"github.com/talentum-plus/talentum/internal/fanout"
	"github.com/talentum-plus/talentum/internal/filtering"
	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/metrics"
	"github.com/talentum-plus/talentum/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// geminiKeyEnv is the variable the Gemini SDK itself reads.
const geminiKeyEnv = "GEMINI_API_KEY"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address, overrides server.addr")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), "serve")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Server == nil || config.Auth == nil {
		logger.Fatal("server and auth sections are required")
	}

	logger.Info("starting talentum", zap.String("version", version))

	// secrets are never printed, the config is logged after redaction
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	backends, err := connectStores(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting stores", zap.Error(err))
	}
	defer backends.close(context.Background(), logger)

	secret, err := secrets.Load(secrets.Source{
		Name:  "jwt secret",
		Value: config.Auth.JWTSecret,
		File:  config.Auth.JWTSecretFile,
	})
	if err != nil {
		logger.Fatal("loading jwt secret", zap.Error(err))
	}

	tokens, err := auth.NewTokens(secret, config.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("creating token issuer", zap.Error(err))
	}

	m := metrics.New(logger)
	syncer := fanout.New(backends.docs, backends.rel, backends.graph, backends.cache, m, logger)

	var matcher ai.Matcher
	if config.AI != nil && config.AI.Enabled {
		matcher, err = newAIMatcher(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping AI matching", zap.Error(err))
		}
	}

	server := api.New(api.Config{
		CORSOrigins:      config.Server.CORSOrigins,
		RequireRecruiter: config.Auth.RequireRecruiter,
		LoginPerMinute:   config.Auth.LoginPerMinute,
		AI:               filteringAIConfig(config.AI),
	}, api.Deps{
		Documents:  backends.docs,
		Relational: backends.rel,
		Graph:      backends.graph,
		Cache:      backends.cache,
		Syncer:     syncer,
		Tokens:     tokens,
		Metrics:    m,
		Matcher:    matcher,
		Logger:     logger,
	})

	err = server.ListenAndServe(ctx, config.Server.Addr, api.Timeouts{
		Read:     config.Server.ReadTimeout,
		Write:    config.Server.WriteTimeout,
		Shutdown: config.Server.ShutdownTimeout,
	})
	if err != nil {
		logger.Error("serving", zap.Error(err))
	}
}

func newAIMatcher(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Matcher, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, fmt.Errorf("ai.gemini section is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		Env:   geminiKeyEnv,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, TALENTUM_AI_GEMINI_API_KEY or GEMINI_API_KEY)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	matcherLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Float64("minimum_fit_score", minScore),
	)

	matcher := gemini.NewMatcher(generator, minScore, cfg.Gemini.MaxLogLength, matcherLogger)
	matcher.SetPromptOverrides(cfg.Gemini.Prompt)

	return matcher, nil
}

func filteringAIConfig(cfg *AIConfig) *filtering.AIConfig {
	if cfg == nil {
		return nil
	}

	out := &filtering.AIConfig{
		Enabled:         cfg.Enabled,
		Provider:        cfg.Provider,
		MinimumFitScore: cfg.MinimumFitScore,
	}
	if cfg.Gemini != nil {
		out.Gemini = &filtering.GeminiConfig{
			Model:        cfg.Gemini.Model,
			MaxRetries:   cfg.Gemini.MaxRetries,
			MaxLogLength: cfg.Gemini.MaxLogLength,
		}
	}
	return out
}

// redacted returns a copy of the config with every secret masked.
func redacted(config *Config) Config {
	out := *config
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}

	if config.Neo4j != nil {
		n := *config.Neo4j
		n.Password = mask(n.Password)
		out.Neo4j = &n
	}
	if config.Auth != nil {
		a := *config.Auth
		a.JWTSecret = mask(a.JWTSecret)
		out.Auth = &a
	}
	if config.AI != nil && config.AI.Gemini != nil {
		a := *config.AI
		g := *config.AI.Gemini
		g.APIKey = mask(g.APIKey)
		a.Gemini = &g
		out.AI = &a
	}
	return out
}
