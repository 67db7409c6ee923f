package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/csheth/mangadeck/internal/api"
	"github.com/csheth/mangadeck/internal/archive"
	"github.com/csheth/mangadeck/internal/config"
	"github.com/csheth/mangadeck/internal/tui"
)

var version = "dev"

var (
	flagConfig      string
	flagServer      string
	flagManga       int64
	flagNoAltScreen bool
)

var rootCmd = &cobra.Command{
	Use:   "mangadeck",
	Short: "Browse chapters and manage downloads on a Suwayomi-compatible server",
	Long: `mangadeck is a terminal client for Suwayomi-compatible manga servers.

It shows a manga's chapter list with filtering, sorting, and multi-select
bulk actions, and a live download queue that can be reordered while the
downloader runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: ~/.config/mangadeck/config.yml)")
	rootCmd.Flags().StringVar(&flagServer, "server", "", "server base URL (overrides config)")
	rootCmd.Flags().Int64Var(&flagManga, "manga", 0, "manga id to open")
	rootCmd.Flags().BoolVar(&flagNoAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the mangadeck version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("mangadeck", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "pages <file>...",
		Short: "Count pages in downloaded chapter archives (cbz, zip, pdf)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				count, err := archive.Pages(path)
				if err != nil {
					return fmt.Errorf("inspect %s: %w", path, err)
				}
				fmt.Printf("%s: %d pages\n", path, count)
			}
			return nil
		},
	})
}

func run(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagServer != "" {
		cfg.Server.URL = flagServer
	}
	if flagManga == 0 {
		return fmt.Errorf("a manga id is required, pass --manga")
	}

	client, err := api.New(cfg.Server.URL, cfg.Server.Timeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Server.URL, err)
	}

	opts := []tea.ProgramOption{}
	if !flagNoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Client:     client,
			MangaID:    flagManga,
			Prefs:      cfg.Chapters,
			ConfigPath: path,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
