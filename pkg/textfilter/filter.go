// Package textfilter cleans player-supplied text before it reaches the
// leaderboard.
package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words masked in player names.
var swearWords = []string{
	"fuck", "shit", "damn", "hell", "ass", "bitch", "bastard", "crap",
	"piss", "cock", "dick", "pussy", "tits", "boobs", "whore", "slut",
	"fag", "retard", "nigger", "nigga", "spic", "chink", "kike",
	"motherfucker", "goddamn", "jesus christ", "christ", "asshole",
	"dumbass", "jackass", "smartass", "badass", "bullshit", "horseshit",
	"dipshit", "shithead", "dickhead", "prick", "douche", "douchebag",
}

// Replacements keep names readable instead of blanking them.
var swearWordReplacements = map[string]string{
	"fuck":         "fudge",
	"shit":         "shoot",
	"damn":         "dang",
	"hell":         "heck",
	"ass":          "butt",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"cock":         "[censored]",
	"dick":         "jerk",
	"pussy":        "[censored]",
	"tits":         "[censored]",
	"boobs":        "[censored]",
	"whore":        "[censored]",
	"slut":         "[censored]",
	"fag":          "[censored]",
	"retard":       "[censored]",
	"nigger":       "[censored]",
	"nigga":        "[censored]",
	"spic":         "[censored]",
	"chink":        "[censored]",
	"kike":         "[censored]",
	"motherfucker": "mother-trucker",
	"goddamn":      "gosh-dang",
	"jesus christ": "jeez",
	"christ":       "crikey",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"smartass":     "smarty",
	"badass":       "tough",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douche":       "jerk",
	"douchebag":    "jerk",
}

const (
	// MaxNameLength is the longest name kept, in runes.
	MaxNameLength = 20
	AnonymousName = "Anonymous"
)

// Filter masks profanity with one case-insensitive alternation.
type Filter struct {
	re *regexp.Regexp
}

// NewFilter compiles the word list. Longer words are tried first so that
// "bullshit" wins over "shit".
func NewFilter() *Filter {
	words := append([]string(nil), swearWords...)
	sort.Slice(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return &Filter{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

// Clean replaces every listed word, following the case of the match.
func (f *Filter) Clean(text string) string {
	return f.re.ReplaceAllStringFunc(text, func(match string) string {
		repl, ok := swearWordReplacements[strings.ToLower(match)]
		if !ok {
			repl = "[censored]"
		}
		return matchCase(match, repl)
	})
}

// Contains reports whether text holds a listed word.
func (f *Filter) Contains(text string) bool {
	return f.re.MatchString(text)
}

func matchCase(original, replacement string) string {
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return strings.ToLower(replacement)
	}
	if unicode.IsUpper([]rune(original)[0]) {
		return cases.Title(language.English).String(replacement)
	}
	return replacement
}

var (
	defaultOnce   sync.Once
	defaultFilter *Filter
)

func shared() *Filter {
	defaultOnce.Do(func() { defaultFilter = NewFilter() })
	return defaultFilter
}

// CleanName turns raw player input into a leaderboard name: profanity is
// masked, whitespace collapsed, the result capped at MaxNameLength runes
// and title-cased. Blank input becomes AnonymousName.
func CleanName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return AnonymousName
	}
	name = shared().Clean(name)
	if r := []rune(name); len(r) > MaxNameLength {
		name = strings.TrimSpace(string(r[:MaxNameLength]))
	}
	if strings.ToLower(name) == name {
		name = cases.Title(language.English).String(name)
	}
	return name
}
