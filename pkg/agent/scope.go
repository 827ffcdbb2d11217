package agent

import (
	"regexp"
	"strings"
)

// Scope pre-checks catch ambiguous short follow-ups and questions aimed at
// the assistant itself before any provider or tool call is made. The
// heuristics are deliberately conservative: when unsure they return false
// and the completion flow stays in charge.

var (
	moreRecoPattern = regexp.MustCompile(`^(any|anything|anymore|any other|anything else|more)\b.*\b(recommendation|recommendations|suggestions)`)
	namePattern     = regexp.MustCompile(`\b(your name|your full name|who are you)\b`)
	wordPattern     = regexp.MustCompile(`\w+`)
)

// checkScope returns a canned clarifying response for messages that should
// not reach the completion provider, or ok=false to proceed normally.
// hadRecommendations reports whether the conversation already contains
// recommendation output, which changes the follow-up phrasing.
func checkScope(userMessage string, hadRecommendations bool) (response string, ok bool) {
	if strings.TrimSpace(userMessage) == "" {
		return "Could you please clarify your request? I didn't catch that.", true
	}

	msg := strings.ToLower(strings.TrimSpace(userMessage))

	// Vague "any other recommendations?" style follow-ups.
	if moreRecoPattern.MatchString(msg) {
		if hadRecommendations {
			return "Do you want more recommendations similar to the ones I showed earlier, " +
				"or would you like to change your preferences (cuisine, location, price)?", true
		}
		return "What kind of recommendations are you looking for? Cuisine, location, or price range?", true
	}

	// Questions about the assistant itself.
	if namePattern.MatchString(msg) {
		return "I don't have a personal name. If you'd like to make a reservation, " +
			"please provide the customer's full name to use for the booking.", true
	}

	// Very short follow-ups without enough context.
	tokens := wordPattern.FindAllString(msg, -1)
	if len(tokens) <= 2 && (strings.HasSuffix(msg, "?") || len(msg) < 15) {
		return "Could you please provide a bit more detail so I can help? " +
			"For example, which cuisine or area are you interested in?", true
	}

	return "", false
}
