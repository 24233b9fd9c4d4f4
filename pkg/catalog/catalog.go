// Package catalog holds the static content a story is assembled from:
// scenarios, tagged events, per-role and per-phase options, and the
// templates used to synthesize options when the catalog runs short.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/jwebster45206/cyber-quest/pkg/state"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultData []byte

// NotApplicable marks an objective for a role a scenario does not serve.
const NotApplicable = "N/A"

// Location is a node of a scenario's location graph.
type Location struct {
	Name        string   `yaml:"name" json:"name"`
	Connections []string `yaml:"connections" json:"connections,omitempty"`
}

// Scenario is the immutable template a story is built on.
type Scenario struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	Context    string          `yaml:"context" json:"context"`
	Locations  []Location      `yaml:"locations" json:"locations"`
	Objectives map[Role]string `yaml:"objectives" json:"objectives"`
}

// ObjectiveFor returns the role's objective, or "" when the scenario does
// not serve the role.
func (s *Scenario) ObjectiveFor(r Role) string {
	o := strings.TrimSpace(s.Objectives[r])
	if o == NotApplicable {
		return ""
	}
	return o
}

// Serves reports whether the scenario has an objective for r.
func (s *Scenario) Serves(r Role) bool {
	return s.ObjectiveFor(r) != ""
}

// Location looks up a location by name.
func (s *Scenario) Location(name string) (Location, bool) {
	for _, l := range s.Locations {
		if l.Name == name {
			return l, true
		}
	}
	return Location{}, false
}

// Start is the first declared location.
func (s *Scenario) Start() string {
	if len(s.Locations) == 0 {
		return ""
	}
	return s.Locations[0].Name
}

func (s *Scenario) LocationNames() []string {
	names := make([]string, len(s.Locations))
	for i, l := range s.Locations {
		names[i] = l.Name
	}
	return names
}

// Thread is the static antagonist and key item of a role.
type Thread struct {
	Antagonist string `yaml:"antagonist" json:"antagonist"`
	KeyItem    string `yaml:"key_item" json:"key_item"`
}

// Event is something that happens at the start of a stage.
type Event struct {
	Text     string      `yaml:"text" json:"text"`
	Tags     []string    `yaml:"tags" json:"tags"`
	Severity Severity    `yaml:"severity" json:"severity"`
	Effect   state.Delta `yaml:"effect" json:"effect"`
}

func (e Event) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

// Owner returns the role tag carried by the event, if any.
func (e Event) Owner() (Role, bool) {
	for _, t := range e.Tags {
		if r := Role(t); r.Valid() {
			return r, true
		}
	}
	return "", false
}

// Outcome holds the narration for each result of an option.
type Outcome struct {
	Success string `yaml:"success" json:"success"`
	Failure string `yaml:"failure" json:"failure"`
}

// Option is a choice offered to an actor at a stage.
type Option struct {
	Text      string      `yaml:"text" json:"text"`
	Tags      []string    `yaml:"tags" json:"tags"`
	Risk      Risk        `yaml:"risk" json:"risk"`
	Time      int         `yaml:"time" json:"time"`
	Success   int         `yaml:"success" json:"success"`
	OnSuccess state.Delta `yaml:"on_success" json:"on_success"`
	OnFailure state.Delta `yaml:"on_failure" json:"on_failure"`
	Outcome   Outcome     `yaml:"outcome" json:"outcome"`
}

// DeltaFor returns the narrative change for the given result.
func (o Option) DeltaFor(success bool) state.Delta {
	if success {
		return o.OnSuccess
	}
	return o.OnFailure
}

// OutcomeFor returns the narration for the given result.
func (o Option) OutcomeFor(success bool) string {
	if success {
		return o.Outcome.Success
	}
	return o.Outcome.Failure
}

// Generic is a template family for synthesized options.
type Generic struct {
	Family string          `yaml:"family" json:"family"`
	Match  []string        `yaml:"match" json:"match"`
	Text   map[Role]string `yaml:"text" json:"text"`
}

// Matches reports whether any tag belongs to the family.
func (g Generic) Matches(tags []string) bool {
	for _, t := range tags {
		if slices.Contains(g.Match, t) {
			return true
		}
	}
	return false
}

// Render fills the role's template with location.
func (g Generic) Render(r Role, location string) (string, bool) {
	tpl, ok := g.Text[r]
	if !ok || tpl == "" {
		return "", false
	}
	return strings.ReplaceAll(tpl, "{location}", location), true
}

// Catalog is the full content set. It is read-only once loaded.
type Catalog struct {
	Scenarios []Scenario                  `yaml:"scenarios" json:"scenarios"`
	Threads   map[Role]Thread             `yaml:"threads" json:"threads"`
	Events    []Event                     `yaml:"events" json:"events"`
	Options   map[Role]map[Phase][]Option `yaml:"options" json:"options"`
	Generics  []Generic                   `yaml:"generics" json:"generics"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded catalog: %w", err)
	}
	return c, nil
}

// Parse decodes a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return &c, nil
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// ScenariosFor returns the scenarios that serve r.
func (c *Catalog) ScenariosFor(r Role) []*Scenario {
	var out []*Scenario
	for i := range c.Scenarios {
		if c.Scenarios[i].Serves(r) {
			out = append(out, &c.Scenarios[i])
		}
	}
	return out
}

// EventsFor returns the events tagged with r.
func (c *Catalog) EventsFor(r Role) []Event {
	var out []Event
	for _, e := range c.Events {
		if e.HasTag(string(r)) {
			out = append(out, e)
		}
	}
	return out
}

// OptionsFor returns the options of r in phase p.
func (c *Catalog) OptionsFor(r Role, p Phase) []Option {
	return c.Options[r][p]
}

// ThreadFor returns the antagonist and key item of r.
func (c *Catalog) ThreadFor(r Role) Thread {
	return c.Threads[r]
}
