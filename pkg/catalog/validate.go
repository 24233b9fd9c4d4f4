package catalog

import (
	"errors"
	"fmt"
)

// Validate checks the coverage and referential rules every catalog must
// satisfy and returns all violations joined together.
func (c *Catalog) Validate() error {
	var errs []error

	for _, r := range Roles() {
		if len(c.ScenariosFor(r)) == 0 {
			errs = append(errs, fmt.Errorf("role %s has no scenario", r))
		}
		if len(c.EventsFor(r)) == 0 {
			errs = append(errs, fmt.Errorf("role %s has no events", r))
		}
		for _, p := range Phases() {
			if len(c.OptionsFor(r, p)) == 0 {
				errs = append(errs, fmt.Errorf("role %s has no %s options", r, p))
			}
		}
	}

	seen := make(map[string]bool)
	for _, s := range c.Scenarios {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("scenario %q has no id", s.Name))
		} else if seen[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate scenario id %q", s.ID))
		}
		seen[s.ID] = true

		if len(s.Locations) == 0 {
			errs = append(errs, fmt.Errorf("scenario %s has no locations", s.ID))
		}
		for _, l := range s.Locations {
			for _, conn := range l.Connections {
				if _, ok := s.Location(conn); !ok {
					errs = append(errs, fmt.Errorf("scenario %s: location %q connects to unknown location %q", s.ID, l.Name, conn))
				}
			}
		}
	}

	for i, e := range c.Events {
		if _, ok := e.Owner(); !ok {
			errs = append(errs, fmt.Errorf("event %d (%q) has no role tag", i, e.Text))
		}
		if !e.Severity.Valid() {
			errs = append(errs, fmt.Errorf("event %d (%q) has invalid severity %q", i, e.Text, e.Severity))
		}
	}

	for r, phases := range c.Options {
		if !r.Valid() {
			errs = append(errs, fmt.Errorf("options declared for unknown role %q", r))
		}
		for p, opts := range phases {
			for _, o := range opts {
				if o.Success < 0 || o.Success > 100 {
					errs = append(errs, fmt.Errorf("%s/%s option %q: success %d out of [0,100]", r, p, o.Text, o.Success))
				}
				if !o.Risk.Valid() {
					errs = append(errs, fmt.Errorf("%s/%s option %q: invalid risk %q", r, p, o.Text, o.Risk))
				}
				if o.Text == "" {
					errs = append(errs, fmt.Errorf("%s/%s option with empty text", r, p))
				}
			}
		}
	}

	return errors.Join(errs...)
}
