package actor

import (
	"errors"
	"testing"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
)

func TestLoadout_Validate(t *testing.T) {
	tests := []struct {
		name    string
		loadout Loadout
		wantErr bool
	}{
		{"empty", Loadout{Role: catalog.RoleUser}, false},
		{"user gear", Loadout{Role: catalog.RoleUser, Accessories: []string{"shield", "analyzer"}}, false},
		{"case and space tolerant", Loadout{Role: catalog.RoleAttacker, Accessories: []string{" Mask "}}, false},
		{"wrong role", Loadout{Role: catalog.RoleUser, Accessories: []string{"mask"}}, true},
		{"duplicate", Loadout{Role: catalog.RoleDefender, Accessories: []string{"cloak", "cloak"}}, true},
		{"bad role", Loadout{Role: "janitor"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.loadout.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadout_UnknownAccessory(t *testing.T) {
	_, err := Loadout{Role: catalog.RoleUser, Accessories: []string{"jetpack"}}.Build("p1")
	if !errors.Is(err, ErrUnknownAccessory) {
		t.Errorf("Build() error = %v, want ErrUnknownAccessory", err)
	}
}

func TestKit_Modifiers(t *testing.T) {
	tests := []struct {
		name    string
		loadout Loadout
		want    Modifiers
	}{
		{
			name:    "user shield and analyzer",
			loadout: Loadout{Role: catalog.RoleUser, Accessories: []string{"shield", "analyzer"}},
			want:    Modifiers{HealthPenalty: -5, ResourceGain: 3},
		},
		{
			name:    "defender toolkit",
			loadout: Loadout{Role: catalog.RoleDefender, Accessories: []string{"toolkit"}},
			want:    Modifiers{ProgressBonus: 3},
		},
		{
			name:    "attacker mask and virus",
			loadout: Loadout{Role: catalog.RoleAttacker, Accessories: []string{"mask", "virus"}},
			want:    Modifiers{DetectionGain: -4, OpponentChance: -5},
		},
		{
			name:    "no accessories",
			loadout: Loadout{Role: catalog.RoleDefender},
			want:    Modifiers{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kit, err := tt.loadout.Build("player")
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := kit.Modifiers(); got != tt.want {
				t.Errorf("Modifiers() = %+v, want %+v", got, tt.want)
			}
			if kit.Actor.MaxHP() != 100 {
				t.Errorf("actor MaxHP = %d, want 100", kit.Actor.MaxHP())
			}
		})
	}
}

func TestKit_NilModifiers(t *testing.T) {
	var k *Kit
	if got := k.Modifiers(); got != (Modifiers{}) {
		t.Errorf("nil kit Modifiers() = %+v, want zero", got)
	}
}

func TestAccessories(t *testing.T) {
	for _, role := range catalog.Roles() {
		if len(Accessories(role)) != 2 {
			t.Errorf("Accessories(%s) = %d items, want 2", role, len(Accessories(role)))
		}
	}
	list := Accessories(catalog.RoleUser)
	list[0].Value = 99
	if Accessories(catalog.RoleUser)[0].Value == 99 {
		t.Error("Accessories() returned a shared slice")
	}
}
