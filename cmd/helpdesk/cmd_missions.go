package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ashureev/helpdesk/internal/mission"
	"github.com/spf13/cobra"
)

var showGoals bool

var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "List the built-in mission pool",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pool, err := mission.NewPoolGenerator()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		if showGoals {
			fmt.Fprintln(w, "PERSONA\tTRAIT\tGOAL")
		} else {
			fmt.Fprintln(w, "PERSONA\tTRAIT")
		}
		for _, m := range pool.List() {
			if showGoals {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Persona, m.PersonalityTrait, m.HiddenGoal)
			} else {
				fmt.Fprintf(w, "%s\t%s\n", m.Persona, m.PersonalityTrait)
			}
		}
		return w.Flush()
	},
}

func init() {
	missionsCmd.Flags().BoolVar(&showGoals, "goals", false, "also print the hidden goals")
}
