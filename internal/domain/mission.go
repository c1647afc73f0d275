// Package domain contains core domain types for the helpdesk game.
package domain

import (
	"fmt"
	"strings"
)

// Mission is the scenario a session is played against. It is immutable once created.
type Mission struct {
	Persona          string `json:"persona" yaml:"persona"`
	HiddenGoal       string `json:"technical_goal" yaml:"technical_goal"`
	PersonalityTrait string `json:"personality_trait" yaml:"personality_trait"`
	OpeningLine      string `json:"first_message" yaml:"first_message"`
}

// PersonaDisplay returns the persona line shown to the player.
func (m Mission) PersonaDisplay() string {
	return fmt.Sprintf("%s (Personality: %s)", m.Persona, m.PersonalityTrait)
}

// Validate reports whether the mission carries everything a session needs.
func (m Mission) Validate() error {
	switch {
	case strings.TrimSpace(m.Persona) == "":
		return fmt.Errorf("mission persona is empty")
	case strings.TrimSpace(m.HiddenGoal) == "":
		return fmt.Errorf("mission goal is empty")
	case strings.TrimSpace(m.OpeningLine) == "":
		return fmt.Errorf("mission opening line is empty")
	}
	return nil
}
