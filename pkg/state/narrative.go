package state

// Narrative is the story-wide state shared by every stage of a story.
// Integer counters never drop below zero.
type Narrative struct {
	AlertLevel        int    `json:"alert_level"`
	Clues             int    `json:"clues"`
	CompromisedHosts  int    `json:"compromised_hosts"`
	CredentialsLeaked int    `json:"credentials_leaked"`
	HasKeyObject      bool   `json:"has_key_object"`
	CurrentLocation   string `json:"current_location"`
}

// NewNarrative returns the initial narrative state positioned at start.
func NewNarrative(start string) Narrative {
	return Narrative{CurrentLocation: start}
}

// Apply returns a copy of n with d applied, clamping counters at zero.
func (n Narrative) Apply(d Delta) Narrative {
	n.AlertLevel = floorZero(n.AlertLevel + d.AlertLevel)
	n.Clues = floorZero(n.Clues + d.Clues)
	n.CompromisedHosts = floorZero(n.CompromisedHosts + d.CompromisedHosts)
	n.CredentialsLeaked = floorZero(n.CredentialsLeaked + d.CredentialsLeaked)
	if d.HasKeyObject != nil {
		n.HasKeyObject = *d.HasKeyObject
	}
	return n
}

func floorZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
