package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/helpdesk/internal/game"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one game in the terminal",
	Long:  "Starts a new game against the configured models and reads replies from stdin.\nSessions are kept in memory.",
	RunE:  runPlay,
}

var terminalPlayer = game.Player{UserID: "local", TabID: "terminal"}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Store.Driver = "memory"

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return playGame(cmd.Context(), a.svc, terminalPlayer, cmd.InOrStdin(), cmd.OutOrStdout())
}

// playGame runs one game over a line-based reader and writer.
func playGame(ctx context.Context, svc *game.Service, p game.Player, in io.Reader, out io.Writer) error {
	if done := render(out, svc.ClientHasGame(ctx, p, game.ClientHasGame{HasGame: false})); done {
		return nil
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ev, err := svc.HandlePlayerMessage(ctx, p, line)
		if errors.Is(err, game.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		if render(out, ev) {
			return nil
		}
	}
}

// render prints ev and reports whether the game has ended.
func render(out io.Writer, ev game.Event) bool {
	switch data := ev.Data.(type) {
	case game.InitialMission:
		fmt.Fprintf(out, "Caller: %s\n", data.Persona)
		fmt.Fprintf(out, "Turn 1/%d\n\n", data.MaxTurns)
		fmt.Fprintf(out, "them: %s\n", data.FirstMessage)
	case game.NewBotMessage:
		fmt.Fprintf(out, "them: %s\n", data.Message)
		fmt.Fprintf(out, "Turn %d/%d\n", data.Turn, data.MaxTurns)
	case game.GameOver:
		fmt.Fprintf(out, "them: %s\n", data.Message)
		if data.Win {
			score := 0
			if data.Score != nil {
				score = *data.Score
			}
			fmt.Fprintf(out, "\nSolved in %d turn(s).\n", score)
		} else {
			fmt.Fprintln(out, "\nMission failed.")
		}
		return true
	default:
		fmt.Fprintf(out, "[%s]\n", ev.Name)
	}
	return false
}
