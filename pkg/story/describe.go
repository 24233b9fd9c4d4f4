package story

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

// describe renders the text shown at the top of a stage. n already
// includes the stage event's effect.
func describe(index int, location string, event catalog.Event, previous *catalog.Event, n state.Narrative, objective string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n\n%s", location, event.Text)

	switch {
	case n.AlertLevel >= 3:
		b.WriteString("\n\nCRITICAL ALERT: the situation needs immediate action to prevent further damage.")
	case n.AlertLevel == 2:
		b.WriteString("\n\nElevated alert: suspicious activity confirmed. Proceed with caution.")
	case n.AlertLevel == 1:
		b.WriteString("\n\nLow alert: minor anomalies detected.")
	}

	switch {
	case n.Clues >= 3:
		fmt.Fprintf(&b, "\n\nYou have solid evidence (%d indicators) to make informed decisions.", n.Clues)
	case n.Clues > 0:
		fmt.Fprintf(&b, "\n\nYou have gathered %d clue(s) that may help.", n.Clues)
	}

	if index > 0 && previous != nil && previous.HasTag("phishing") && event.HasTag("phishing") {
		b.WriteString("\n\nThis incident looks related to the earlier campaign...")
	}

	if index == 0 && objective != "" {
		fmt.Fprintf(&b, "\n\nObjective: %s", objective)
	}

	b.WriteString("\n\nWhat is your next move?")
	return b.String()
}
