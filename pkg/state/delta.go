package state

// Delta is a compact change to the narrative counters. Events carry one
// delta; options carry one for success and one for failure.
type Delta struct {
	AlertLevel        int   `json:"alert_level,omitempty" yaml:"alert_level,omitempty"`
	Clues             int   `json:"clues,omitempty" yaml:"clues,omitempty"`
	CompromisedHosts  int   `json:"compromised_hosts,omitempty" yaml:"compromised_hosts,omitempty"`
	CredentialsLeaked int   `json:"credentials_leaked,omitempty" yaml:"credentials_leaked,omitempty"`
	HasKeyObject      *bool `json:"has_key_object,omitempty" yaml:"has_key_object,omitempty"`
}

// IsEmpty checks if the Delta changes nothing
func (d Delta) IsEmpty() bool {
	return d.AlertLevel == 0 &&
		d.Clues == 0 &&
		d.CompromisedHosts == 0 &&
		d.CredentialsLeaked == 0 &&
		d.HasKeyObject == nil
}

// GrantsClues reports whether applying the delta adds clues.
func (d Delta) GrantsClues() bool {
	return d.Clues > 0
}
