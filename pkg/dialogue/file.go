package dialogue

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
)

// Script is a provider backed by an operator-supplied line table, keyed
// by role, then emotion, then situation. The "default" situation is used
// when no exact match exists.
type Script struct {
	Lines map[catalog.Role]map[Emotion]map[string]string `yaml:"lines"`
}

var _ Provider = (*Script)(nil)

// LoadScript reads a YAML line table from path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dialogue file: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse dialogue file: %w", err)
	}
	return &s, nil
}

func (s *Script) Line(_ context.Context, role catalog.Role, situation string, emotion Emotion) (string, error) {
	bySituation := s.Lines[role][emotion]
	if line, ok := bySituation[strings.ToLower(situation)]; ok {
		return line, nil
	}
	if line, ok := bySituation["default"]; ok {
		return line, nil
	}
	return "", fmt.Errorf("%w for %s/%s", ErrNoLine, role, emotion)
}
