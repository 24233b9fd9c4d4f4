package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Len(t, c.Scenarios, 3)
	assert.Len(t, c.Events, 20)
}

func TestDefault_Coverage(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, r := range Roles() {
		scenarios := c.ScenariosFor(r)
		if len(scenarios) != 1 {
			t.Errorf("ScenariosFor(%s) = %d scenarios, want 1", r, len(scenarios))
		}
		if len(c.EventsFor(r)) == 0 {
			t.Errorf("EventsFor(%s) is empty", r)
		}
		for _, p := range Phases() {
			for _, o := range c.OptionsFor(r, p) {
				if o.Success < 0 || o.Success > 100 {
					t.Errorf("%s/%s %q success = %d", r, p, o.Text, o.Success)
				}
			}
		}
		if c.ThreadFor(r).Antagonist == "" {
			t.Errorf("ThreadFor(%s) has no antagonist", r)
		}
	}
}

func TestDefault_KeyObjectOption(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	var found bool
	for _, o := range c.OptionsFor(RoleAttacker, PhaseMid) {
		if o.OnSuccess.HasKeyObject != nil && *o.OnSuccess.HasKeyObject {
			found = true
		}
	}
	assert.True(t, found, "attacker mid options should include one that grants the key object")
}

func TestScenario_ObjectiveFor(t *testing.T) {
	s := Scenario{Objectives: map[Role]string{
		RoleUser:     "Stay safe",
		RoleDefender: "N/A",
	}}

	assert.Equal(t, "Stay safe", s.ObjectiveFor(RoleUser))
	assert.Equal(t, "", s.ObjectiveFor(RoleDefender))
	assert.Equal(t, "", s.ObjectiveFor(RoleAttacker))
	assert.True(t, s.Serves(RoleUser))
	assert.False(t, s.Serves(RoleDefender))
}

func TestPhaseFor(t *testing.T) {
	tests := []struct {
		i, count int
		want     Phase
	}{
		{0, 5, PhaseEarly},
		{1, 5, PhaseEarly},
		{2, 5, PhaseMid},
		{3, 5, PhaseLate},
		{4, 5, PhaseLate},
		{0, 1, PhaseEarly},
		{2, 7, PhaseMid},
		{4, 7, PhaseLate},
	}
	for _, tt := range tests {
		if got := PhaseFor(tt.i, tt.count); got != tt.want {
			t.Errorf("PhaseFor(%d, %d) = %s, want %s", tt.i, tt.count, got, tt.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Defender ")
	require.NoError(t, err)
	assert.Equal(t, RoleDefender, r)

	_, err = ParseRole("wizard")
	assert.Error(t, err)
}

func TestGeneric_Render(t *testing.T) {
	g := Generic{
		Family: "device",
		Match:  []string{"usb"},
		Text:   map[Role]string{RoleUser: "Hand it in at {location}"},
	}

	assert.True(t, g.Matches([]string{"physical", "usb"}))
	assert.False(t, g.Matches([]string{"phishing"}))

	text, ok := g.Render(RoleUser, "Reception")
	assert.True(t, ok)
	assert.Equal(t, "Hand it in at Reception", text)

	_, ok = g.Render(RoleAttacker, "Reception")
	assert.False(t, ok)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	data := `
scenarios:
  - id: lonely
    name: Lonely
    locations:
      - name: A
        connections: [B]
    objectives:
      user: Survive
events:
  - text: Something happens
    tags: [phishing]
    severity: extreme
options:
  user:
    early:
      - text: Guess
        risk: reckless
        success: 120
`
	c, err := Parse([]byte(data))
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"role defender has no scenario",
		"role attacker has no events",
		"role user has no mid options",
		`unknown location "B"`,
		"has no role tag",
		`invalid severity "extreme"`,
		"success 120 out of [0,100]",
		`invalid risk "reckless"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Validate() error missing %q\n%s", want, msg)
		}
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("scenarios: []\nmonsters: []\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultData, 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Scenarios, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
