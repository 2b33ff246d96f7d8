// Command settingsctl reads and changes the stored settings without the
// SDL screen: from a shell, over the portal, or in a terminal UI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"flow-settings/pkg/config"
	"flow-settings/pkg/kv"
	"flow-settings/pkg/logger"
	"flow-settings/pkg/prefs"
)

var (
	// Global flags
	verbose  bool
	envFile  string
	backend  string
	dataDir  string
	redisURL string

	cfg config.Config
	log *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "settingsctl",
	Short: "Inspect and change the stored settings",
	Long: `settingsctl works on the same preference store as the settings screen.

With the redis backend, changes made here show up immediately on a running
screen. With sqlite they are picked up on the screen's next start. The
badger directory is locked by a running screen, so stop it first or use the
portal instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		if err := config.LoadDotEnv(files...); err != nil {
			return err
		}

		cfg = config.Load()
		if backend != "" {
			cfg.Backend = backend
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if redisURL != "" {
			cfg.RedisAddr = redisURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = zapcore.DebugLevel.String()
		}
		log = logger.New(logger.Config{Level: level, Console: cmd.ErrOrStderr()})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file (default: ./.env)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Override SETTINGS_BACKEND (badger, sqlite, redis, memory)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override SETTINGS_DATA_DIR")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-addr", "", "Override SETTINGS_REDIS_ADDR")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the configured backend
func openStore() (*prefs.Store, error) {
	backend, err := kv.Open(kv.OptionsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return prefs.NewStore(backend, log), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
