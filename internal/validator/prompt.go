package validator

import (
	"fmt"
	"strings"
)

const systemPrompt = `You decide whether two prediction market questions are about the same real-world event.
The entities, the outcome being predicted and the time frame must agree; wording may differ.
Treat common aliases as equal (Pro Football means the NFL, Pro Basketball means the NBA) unless a market says otherwise.
Ignore minor edge cases in the resolution rules.
Reply with exactly one word: yes or no.`

func buildUserPrompt(descA, descB string) string {
	return fmt.Sprintf("Market 1: %q\nMarket 2: %q\n\nAre these the same event? Answer yes or no:", descA, descB)
}

// parseAnswer reads a yes/no reply. Anything else is an error.
func parseAnswer(raw string) (bool, error) {
	word := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexFunc(word, func(r rune) bool { return r == ' ' || r == '\n' || r == ',' }); i >= 0 {
		word = word[:i]
	}
	word = strings.Trim(word, ".!\"'`*")
	switch word {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("validator: unrecognized answer %q", truncate(raw, 80))
	}
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
