package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hihikaAAa/duty-bot/internal/config"
	"github.com/hihikaAAa/duty-bot/internal/storage/sqlite"
)

var cfgPath string

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:   "dutybot",
		Short: "Telegram bot for scheduling project duties",
		Long: `dutybot runs the duty assignment bot and manages the projects
it serves. Bind a project to a chat with "project add", then start the
bot with "serve".`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to the YAML config")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(dutiesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/local.yaml"
}

func loadConfig() (*config.Config, error) {
	return config.MustLoad(cfgPath)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openDB loads the config and opens the store for the admin commands.
func openDB() (*sqlite.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.DBPath)
}
