// cmd/review-server/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"review-framework-api/internal/api"
	"review-framework-api/internal/common/config"
	"review-framework-api/internal/common/database"
	"review-framework-api/internal/common/logger"
	"review-framework-api/internal/common/observability"
	"review-framework-api/internal/framework"
	"review-framework-api/internal/review"
)

var (
	configPath string
	logLevel   string

	promptCategory   string
	promptExperience string
	promptComponents []string
)

var rootCmd = &cobra.Command{
	Use:   "review-server",
	Short: "Review framework API",
	Long: `review-server serves the review framework JSON documents over HTTP
and generates product reviews with Claude from a user's experience and the
selected framework components.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the framework files that load successfully",
	RunE:  runFiles,
}

var promptCmd = &cobra.Command{
	Use:   "prompt <product-name>",
	Short: "Print the prompt that would be sent for a review request",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrompt,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")

	promptCmd.Flags().StringVar(&promptCategory, "category", "", "Product category")
	promptCmd.Flags().StringVar(&promptExperience, "experience", "", "User experience with the product")
	promptCmd.Flags().StringSliceVar(&promptComponents, "component", nil, "Framework component to include (repeatable)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(promptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting review server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio)
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	obs.WithTracing(tracing)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(ctx)
	}()

	// --- Optional review history ---
	var history *database.ReviewHistory
	if cfg.Redis.Enabled() {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Redis)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")

		if err != nil {
			// History is optional; serve without it.
			zapLog.Error("review history disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			history = database.NewReviewHistory(redisClient, cfg.Redis.HistorySize,
				time.Duration(cfg.Redis.HistoryTTL)*time.Second)
			zapLog.Info("Redis connected successfully", zap.String("address", cfg.Redis.Address))
		}
	}

	store := framework.NewStore(cfg.Framework, log)
	selector := framework.NewSelector(store, cfg.Framework, log)
	generator := review.NewGenerator(review.NewGeneratorConfig(cfg.Anthropic), log, obs)

	deps := api.Deps{
		Config:   cfg,
		Store:    store,
		Selector: selector,
		Logger:   log,
	}
	if history != nil {
		deps.Service = review.NewService(selector, generator, history, log)
		deps.History = history
	} else {
		deps.Service = review.NewService(selector, generator, nil, log)
	}

	loaded := store.LoadAll()
	zapLog.Info("Framework directory scanned",
		zap.String("directory", store.Directory()),
		zap.Bool("exists", store.DirectoryExists()),
		zap.Int("files", len(loaded)),
		zap.Bool("generationEnabled", generator.Enabled()),
	)
	if !generator.Enabled() {
		zapLog.Warn("ANTHROPIC_API_KEY not set, review generation returns a configuration notice")
	}

	server, err := api.NewServer(deps)
	if err != nil {
		return fmt.Errorf("server init failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-sigCh:
	}

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Review server stopped gracefully")
	return nil
}

func runFiles(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.NewStructured(cfg.Logging.Level, "console", "stderr")
	store := framework.NewStore(cfg.Framework, log)

	files := store.LoadAll()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Framework directory: %s (exists: %t)\n", store.Directory(), store.DirectoryExists())
	for _, name := range framework.Names(files) {
		fmt.Fprintln(out, name)
	}
	fmt.Fprintf(out, "%d file(s)\n", len(files))
	return nil
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.NewStructured(cfg.Logging.Level, "console", "stderr")
	store := framework.NewStore(cfg.Framework, log)
	selector := framework.NewSelector(store, cfg.Framework, log)

	components := selector.Resolve(promptComponents)
	fmt.Fprintln(cmd.OutOrStdout(), review.BuildPrompt(args[0], promptCategory, promptExperience, components))

	used, _ := json.Marshal(selector.ComponentsUsed(promptComponents))
	fmt.Fprintf(cmd.ErrOrStderr(), "components_used: %s\n", used)
	return nil
}
