package main

import (
	"context"
	"fmt"
	"os"

	"github.com/printloft/storefront/pkg/config"
	"github.com/printloft/storefront/pkg/engine"
	"github.com/printloft/storefront/pkg/events"
	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront - cart and checkout for the Printloft marketplace",
	Long: `Storefront keeps a shopping cart consistent for anonymous and
signed-in visitors and drives checkout from cart to placed order.

Anonymous carts live on this device. Signed-in carts live in the
configured remote backend (bolt, memory, postgres or firestore).
The default bolt backend keeps them in the device database.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Storefront version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for the device store (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")

	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Storefront version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}

// loadConfig reads the config file and applies persistent flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	level, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if jsonLogs {
		cfg.Log.JSON = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	metrics.SetVersion(Version)
	return cfg, nil
}

// openEngine builds and starts an engine for one command invocation.
// The returned stop function must be called before exit.
func openEngine(cmd *cobra.Command) (*engine.Engine, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := engine.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	sub := e.Broker.Subscribe()
	done := make(chan struct{})
	go watchEvents(sub, done)

	if err := e.Start(ctx); err != nil {
		e.Broker.Unsubscribe(sub)
		<-done
		_ = e.Close()
		return nil, nil, err
	}

	stop := func() {
		e.Broker.Unsubscribe(sub)
		<-done
		if err := e.Close(); err != nil {
			log.Errorf("Failed to close engine", err)
		}
	}
	return e, stop, nil
}

// watchEvents logs every engine event at debug level until sub is closed
func watchEvents(sub events.Subscriber, done chan<- struct{}) {
	defer close(done)
	logger := log.WithComponent("events")
	for ev := range sub {
		entry := logger.Debug().Str("type", string(ev.Type))
		if ev.Message != "" {
			entry = entry.Str("message", ev.Message)
		}
		for k, v := range ev.Metadata {
			entry = entry.Str(k, v)
		}
		entry.Msg("Event")
	}
}

// printNotification shows the message a user would see after the command
func printNotification(e *engine.Engine) {
	if n := e.Notifier.Current(); n.Visible {
		fmt.Printf("» %s\n", n.Message)
	}
}
