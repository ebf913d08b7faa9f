package prompt

import "strings"

const bizBotPersona = `You are BizBot, an elite AI Business Consultant.
Provide strategic, data-driven, and actionable advice.
Keep responses professional yet approachable.
Use bullet points for clarity when providing steps or lists.`

// BuildChatPrompt prefixes a single user message with the BizBot persona.
// Earlier turns are not included.
func BuildChatPrompt(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrMessageRequired
	}
	return bizBotPersona + "\nUser Question: " + message, nil
}
