package app

import (
	"errors"
	"fmt"
	"strings"

	"topicast/internal/audio"
	"topicast/internal/script"
)

func composeMessage(r *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your episode on %q is ready: %s\n", r.Topic, r.URL)
	fmt.Fprintf(&b, "Script: %d words, about %s spoken.\n", r.WordCount, formatSeconds(r.EstimatedSeconds))
	b.WriteString("Audio: " + coverageNote(r.Coverage) + "\n")
	if !r.Persisted {
		b.WriteString("Note: the episode could not be saved and will not appear in recent listings.\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func coverageNote(c audio.Coverage) string {
	switch c {
	case audio.Full:
		return "covers the full script."
	case audio.Substantial:
		return "covers the first part of the script; the rest is text only."
	case audio.Excerpt:
		return "a short excerpt from the opening of the script."
	default:
		return "not available; the script text is still included."
	}
}

func formatSeconds(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}

// DescribeFailure turns a Generate error into a message with a likely
// cause and a suggestion.
func DescribeFailure(err error) string {
	var failure *script.GenerationFailure
	if !errors.As(err, &failure) {
		return fmt.Sprintf("Generation failed: %v", err)
	}

	var hint, suggestion string
	switch failure.Cause {
	case script.CauseCapacity:
		hint = "The text service is over capacity or rate limited."
		suggestion = "Wait a minute and try again, or use a shorter duration class."
	case script.CauseTimeout:
		hint = "The text service took too long to answer."
		suggestion = "Try again later, or use the short duration class."
	default:
		hint = "The text service did not return a usable script."
		suggestion = "Try again later, or rephrase the topic."
	}

	return fmt.Sprintf("Could not write a script about %q after %d attempts. %s %s",
		failure.Topic, failure.Attempts, hint, suggestion)
}
