package agent

import (
	"fmt"

	"github.com/ashureev/helpdesk/internal/domain"
)

// PersonaInstruction builds the system instruction that seeds a responder log.
func PersonaInstruction(persona, goal, trait string) string {
	return fmt.Sprintf(`You are a game character. You are *not* an AI assistant.
Your persona: %s
Your technical goal: %s
Your personality: %s

Your job is to act out this persona and personality *perfectly*.
The player is an assistant trying to help you.
DO NOT reveal your technical goal. Just act confused.
**Based on your personality, you might reject a correct answer if it's not delivered well.**
(e.g., if you are 'impatient', you hate long answers. if you are 'anxious', you hate technical jargon.)`,
		persona, goal, trait)
}

// closingInstruction is the one-shot prompt appended for the final message.
func closingInstruction(outcome domain.Outcome) string {
	if outcome == domain.OutcomeWin {
		return "The player *just* solved your problem. Write a final message gratefully (or grumpily) ending the chat."
	}
	return "The player has failed. Write a final message getting frustrated and rage-quitting."
}

const refereeSystemPrompt = `You are a strict game referee. Your only job is to determine if the player has won.
Respond with ONLY a JSON object: {"solved": true} or {"solved": false}`

func refereePrompt(goal, transcriptJSON string) string {
	return fmt.Sprintf("**Secret Goal:**\n%s\n\n**Chat History:**\n%s\n\n---\nHas the player's *last* message solved the goal?",
		goal, transcriptJSON)
}
