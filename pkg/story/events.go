package story

import (
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

// fallbackEvent keeps generation going when the catalog has no events.
var fallbackEvent = catalog.Event{
	Text:     "The day starts quietly. Too quietly.",
	Tags:     []string{"general"},
	Severity: catalog.SeverityLow,
}

func (g *Generator) pickEvent(role catalog.Role, phase catalog.Phase, n state.Narrative, used map[string]bool, src dice.Source) (catalog.Event, EventTier) {
	candidates := g.catalog.EventsFor(role)
	gap := false
	if len(candidates) == 0 {
		g.logger.Warn("Content gap: no events tagged for role, using any event", "role", role)
		candidates = g.catalog.Events
		gap = true
	}
	if len(candidates) == 0 {
		return fallbackEvent, EventContentGap
	}

	tier := EventFresh
	if gap {
		tier = EventContentGap
	}

	for range maxEventAttempts {
		e := weightedEvent(candidates, phase, n, src)
		if !used[e.Text] {
			return e, tier
		}
	}

	var unused []catalog.Event
	for _, e := range candidates {
		if !used[e.Text] {
			unused = append(unused, e)
		}
	}
	if len(unused) > 0 {
		return weightedEvent(unused, phase, n, src), tier
	}

	if !gap {
		tier = EventRepeat
	}
	return weightedEvent(candidates, phase, n, src), tier
}

func weightedEvent(events []catalog.Event, phase catalog.Phase, n state.Narrative, src dice.Source) catalog.Event {
	weights := make([]float64, len(events))
	var total float64
	for i, e := range events {
		weights[i] = eventWeight(e, phase, n)
		total += weights[i]
	}

	r := src.Float64() * total
	for i, w := range weights {
		if r < w {
			return events[i]
		}
		r -= w
	}
	return events[len(events)-1]
}

// eventWeight favours tags that suit the phase, then adjusts for the
// current narrative state.
func eventWeight(e catalog.Event, phase catalog.Phase, n state.Narrative) float64 {
	w := 1.0
	sev := e.Severity

	switch phase {
	case catalog.PhaseEarly:
		switch {
		case e.HasTag("recon") || e.HasTag("osint"):
			w = 4
		case e.HasTag("phishing") || e.HasTag("social"):
			w = 3
		case sev == catalog.SeverityLow || sev == catalog.SeverityMedium:
			w = 2
		}
	case catalog.PhaseMid:
		switch {
		case e.HasTag("exploit") || e.HasTag("lateral") || e.HasTag("incident"):
			w = 4
		case e.HasTag("malware") || e.HasTag("vulnerability"):
			w = 3
		case sev == catalog.SeverityMedium || sev == catalog.SeverityHigh:
			w = 2
		}
	default:
		switch {
		case e.HasTag("ransomware") || e.HasTag("exfiltration") || sev == catalog.SeverityCritical:
			w = 4
		case e.HasTag("privilege") || e.HasTag("persistence"):
			w = 3
		case sev == catalog.SeverityHigh:
			w = 2
		}
	}

	if n.AlertLevel >= 3 && sev == catalog.SeverityCritical {
		w *= 2
	}
	if n.AlertLevel == 0 && sev == catalog.SeverityLow {
		w *= 2
	}
	if n.Clues == 0 && e.Effect.GrantsClues() {
		w *= 1.5
	}
	if n.CompromisedHosts > 0 && (e.HasTag("forensics") || e.HasTag("response")) {
		w *= 1.5
	}
	return w
}
