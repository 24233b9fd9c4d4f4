package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dialogue"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <catalog.yaml> [dialogue.yaml]\n", os.Args[0])
		os.Exit(1)
	}

	validator := &CatalogValidator{}

	if err := validator.validateFile(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Catalog file is valid!")

	if len(os.Args) == 3 {
		if err := validator.validateDialogueFile(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Dialogue file is valid!")
	}
}

type CatalogValidator struct {
	errors []string
}

func (v *CatalogValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	if err := checkExtension(filename); err != nil {
		return err
	}

	v.errors = nil

	c, err := catalog.LoadFile(filename)
	if err != nil {
		return fmt.Errorf("file %s failed strict YAML unmarshaling: %w", filename, err)
	}

	if err := c.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			v.addError(line)
		}
	}
	v.validateCatalog(c)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

// validateCatalog adds the naming rules the loader does not enforce.
func (v *CatalogValidator) validateCatalog(c *catalog.Catalog) {
	for _, s := range c.Scenarios {
		v.validateIDFormat("scenario ID", s.ID)
		for r, objective := range s.Objectives {
			if !r.Valid() {
				v.addError(fmt.Sprintf("scenario %s has an objective for unknown role '%s'", s.ID, r))
			}
			if strings.TrimSpace(objective) == "" {
				v.addError(fmt.Sprintf("scenario %s has an empty objective for %s; use %s", s.ID, r, catalog.NotApplicable))
			}
		}
	}

	for i, e := range c.Events {
		for _, tag := range e.Tags {
			v.validateIDFormat(fmt.Sprintf("event %d tag", i), tag)
		}
	}

	for r, phases := range c.Options {
		for p, opts := range phases {
			for _, o := range opts {
				if o.Time < 1 {
					v.addError(fmt.Sprintf("%s/%s option '%s' must take at least 1 time unit", r, p, o.Text))
				}
				for _, tag := range o.Tags {
					v.validateIDFormat(fmt.Sprintf("%s/%s option tag", r, p), tag)
				}
			}
		}
	}

	families := make(map[string]bool)
	for _, g := range c.Generics {
		v.validateIDFormat("generic family", g.Family)
		if families[g.Family] {
			v.addError(fmt.Sprintf("generic family '%s' is declared twice", g.Family))
		}
		families[g.Family] = true
		if len(g.Match) == 0 {
			v.addError(fmt.Sprintf("generic family '%s' matches no tags", g.Family))
		}
		for r, tpl := range g.Text {
			if !strings.Contains(tpl, "{location}") {
				v.addError(fmt.Sprintf("generic family '%s' text for %s has no {location} placeholder", g.Family, r))
			}
		}
	}
}

func (v *CatalogValidator) validateDialogueFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	if err := checkExtension(filename); err != nil {
		return err
	}

	v.errors = nil

	s, err := dialogue.LoadScript(filename)
	if err != nil {
		return err
	}
	if len(s.Lines) == 0 {
		return fmt.Errorf("file %s has no lines", filename)
	}

	for r, emotions := range s.Lines {
		if !r.Valid() {
			v.addError(fmt.Sprintf("lines for unknown role '%s'", r))
		}
		for e, situations := range emotions {
			switch e {
			case dialogue.Neutral, dialogue.Stressed, dialogue.Victory:
			default:
				v.addError(fmt.Sprintf("%s lines use unknown emotion '%s'", r, e))
			}
			for situation, line := range situations {
				v.validateIDFormat(fmt.Sprintf("%s/%s situation", r, e), situation)
				if strings.TrimSpace(line) == "" {
					v.addError(fmt.Sprintf("%s/%s/%s line is empty", r, e, situation))
				}
			}
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *CatalogValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		v.addError(fmt.Sprintf("%s is empty", fieldName))
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *CatalogValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func checkExtension(filename string) error {
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		return nil
	}
	return fmt.Errorf("file must have .yaml or .yml extension: %s", filepath.Base(filename))
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
