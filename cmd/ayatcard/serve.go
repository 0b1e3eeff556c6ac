// serve.go — themes, init and serve commands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xob0t/ayatcard/clients/server"
	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/config"
)

var (
	initOut    string
	initConfig bool
	servePort  string
	serveOpen  bool
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the built-in colour themes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := color.New(color.FgCyan, color.Bold)
		faint := color.New(color.Faint)
		for _, t := range card.Themes {
			name.Printf("%-10s", t.Name)
			faint.Print("  bg ")
			fmt.Print(t.Background)
			faint.Print("  text ")
			fmt.Print(t.Text)
			faint.Print("  overlay ")
			fmt.Print(t.Overlay)
			faint.Print("  border ")
			fmt.Println(t.Border)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample card (and optionally a config file)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.WriteFile(initOut, []byte(card.ExampleJSON()+"\n"), 0o644); err != nil {
			return fmt.Errorf("write card: %w", err)
		}
		fmt.Printf("Created: %s\n", initOut)

		if initConfig {
			path := configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.Write(path, cfg); err != nil {
				return err
			}
			fmt.Printf("Created: %s\n", path)
		}
		fmt.Printf("Run: ayatcard render %s -o card.png\n", initOut)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		level := slog.LevelInfo
		if cfg.Debug {
			level = slog.LevelDebug
		}
		log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
			With(slog.String("app", "ayatcard"))
		slog.SetDefault(log)
		if cfg.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY not set, background generation disabled")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		must(log, server.Run(ctx, server.New(server.Options{Config: cfg, Logger: log}), serveOpen), "run server")
		return nil
	},
}

// must logs a structured fatal error and exits when err is non-nil.
func must(log *slog.Logger, err error, action string) {
	if err != nil {
		log.Error("startup failed", slog.String("action", action), slog.Any("err", err))
		os.Exit(1)
	}
}

func init() {
	initCmd.Flags().StringVarP(&initOut, "output", "o", "card.json", "sample card path")
	initCmd.Flags().BoolVar(&initConfig, "config-file", false, "also write the effective config as TOML")
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8080", "listen port")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the preview in a browser")
}
