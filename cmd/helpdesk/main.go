// helpdesk serves the turn-limited helpdesk game.
//
// Usage:
//
//	helpdesk serve              run the websocket game server
//	helpdesk play               play one game in the terminal
//	helpdesk missions           list the built-in mission pool
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Turn-limited helpdesk game",
	Long:  "Helpdesk puts the player on a support line with a generated caller who has a\nhidden goal. Solve it before the turns run out.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file found, using environment variables")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(missionsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
