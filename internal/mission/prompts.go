package mission

import "fmt"

const personaPrompt = `Generate a realistic user persona for a chatbot application.

This should be a brief, natural description of a real person who might converse with a chatbot.

Examples:
- "a college student working on an assignment"
- "a busy parent trying to fix something quickly"
- "a freelance graphic designer"
- "an office worker dealing with IT issues"
- "a retiree learning new technology"
- "a small business owner"
- "a high school teacher preparing lessons"

Respond with ONLY the persona description, nothing else. Keep it under 15 words. No JSON, no extra formatting.`

func missionPrompt(persona string) string {
	return fmt.Sprintf(`You are a scenario designer for a realistic helpdesk simulation game.

You have a user persona: **%s**

Now create a mission for this persona. You must invent:
1. A simple, concrete **technical_goal** (what they want to accomplish)
2. A **personality_trait** (how they communicate)
3. The **first_message** they send (strongly reflecting both their goal and personality)

Goals may be technical support, writing or grammar help, simple programming help,
general knowledge, creative tasks or math help. Vary the category.

**RULES:**
* Keep it realistic and appropriate for the persona
* NO EMOJIS in the first_message
* Make the personality trait interesting and challenging
* DO NOT MAKE IT TOO HARD TO COMPLETE.

Respond with ONLY a JSON object (no code blocks):

{
  "technical_goal": "wants to...",
  "personality_trait": "description of how they communicate",
  "first_message": "their opening message"
}

Example:
{
  "technical_goal": "wants to understand why their for loop keeps printing the wrong numbers",
  "personality_trait": "Extremely vague and scatterbrained. Keeps getting distracted",
  "first_message": "heyyy so i'm trying to make the computer count to 10 but it's doing... something else? here's my code: 'for i in range(1, 10):' and it only goes to 9. why?"
}

Now generate the mission for: **%s**. DO NOT WRAP IT IN A CODE BLOCK.`, persona, persona)
}
