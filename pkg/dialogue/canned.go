package dialogue

import (
	"context"
	"sync"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
)

var cannedLines = map[catalog.Role]map[Emotion][]string{
	catalog.RoleUser: {
		Neutral: {
			"Okay, let me think this through before I click anything.",
			"Just another day at the office. Hopefully.",
			"I'll keep an eye out for anything strange.",
		},
		Stressed: {
			"Oh no, was that supposed to happen?",
			"I think I should call IT right now.",
			"My screen is doing something weird...",
		},
		Victory: {
			"Crisis averted. I should get a medal for this.",
			"Nobody is phishing me today.",
		},
	},
	catalog.RoleDefender: {
		Neutral: {
			"Monitoring the logs. Nothing gets past this SOC.",
			"Let's correlate these alerts before we jump.",
			"Baseline looks normal. For now.",
		},
		Stressed: {
			"We have lateral movement. Isolate that segment!",
			"Alerts are piling up faster than we can triage.",
			"Who approved that firewall change?",
		},
		Victory: {
			"Threat contained. Writing up the incident report.",
			"Attacker evicted. Rotate every credential they touched.",
		},
	},
	catalog.RoleAttacker: {
		Neutral: {
			"Quiet and patient. Every network has a weak spot.",
			"Recon first, exploit later.",
			"Let's see who clicks.",
		},
		Stressed: {
			"They're onto me. Time to burn this foothold.",
			"Blue team is faster than I expected.",
			"Too many eyes on this box. Back off.",
		},
		Victory: {
			"Domain admin. That's game.",
			"Data's out. They'll read about it in the news.",
		},
	},
}

var genericLines = []string{"...", "Let's keep going."}

// Canned picks lines from a built-in table. It never fails.
type Canned struct {
	mu  sync.Mutex
	src dice.Source
}

var _ Provider = (*Canned)(nil)

// NewCanned returns a canned provider drawing from src. A nil src always
// returns the first matching line.
func NewCanned(src dice.Source) *Canned {
	return &Canned{src: src}
}

func (c *Canned) Line(_ context.Context, role catalog.Role, _ string, emotion Emotion) (string, error) {
	lines := cannedLines[role][emotion]
	if len(lines) == 0 {
		lines = cannedLines[role][Neutral]
	}
	if len(lines) == 0 {
		lines = genericLines
	}
	if c.src == nil {
		return lines[0], nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return dice.Pick(c.src, lines), nil
}
