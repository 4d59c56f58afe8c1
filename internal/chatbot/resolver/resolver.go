// Package resolver maps free text to an intent of a catalog.
package resolver

import (
	"fmt"

	"rpa-assistant/internal/chatbot/catalog"
	"rpa-assistant/internal/models"
)

// Match is a recognized intent with its extracted parameters, in capture
// group order. Params is empty, not nil, for intents without parameters.
type Match struct {
	Intent  models.IntentName
	Params  []string
	Matched string
}

type Resolver struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve returns the first intent, in catalog order, whose pattern occurs
// anywhere in text. ok is false when nothing matches.
func (r *Resolver) Resolve(text string) (Match, bool) {
	for _, def := range r.catalog.Definitions() {
		if m, ok := match(def, text); ok {
			return m, true
		}
	}
	return Match{}, false
}

// ResolveAll returns every intent whose pattern occurs in text, in catalog
// order. More than one result means the first one shadows the rest.
func (r *Resolver) ResolveAll(text string) []Match {
	var out []Match
	for _, def := range r.catalog.Definitions() {
		if m, ok := match(def, text); ok {
			out = append(out, m)
		}
	}
	return out
}

func match(def catalog.Definition, text string) (Match, bool) {
	sub := def.Regexp().FindStringSubmatch(text)
	if sub == nil {
		return Match{}, false
	}
	params := make([]string, len(sub)-1)
	copy(params, sub[1:])
	return Match{Intent: def.Name, Params: params, Matched: sub[0]}, true
}

// Conflict is an example utterance that does not resolve to the intent
// that declares it.
type Conflict struct {
	Example  string
	Declared models.IntentName
	// Resolved is empty when the example matches nothing at all.
	Resolved models.IntentName
}

func (c Conflict) String() string {
	if c.Resolved == "" {
		return fmt.Sprintf("%q (declared by %s) matches no intent", c.Example, c.Declared)
	}
	return fmt.Sprintf("%q (declared by %s) resolves to %s", c.Example, c.Declared, c.Resolved)
}

// CheckShadowing replays every declared example through Resolve and reports
// the ones that land on a different intent.
func (r *Resolver) CheckShadowing() []Conflict {
	var conflicts []Conflict
	for _, def := range r.catalog.Definitions() {
		for _, example := range def.Examples {
			m, ok := r.Resolve(example)
			if ok && m.Intent == def.Name {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Example:  example,
				Declared: def.Name,
				Resolved: m.Intent,
			})
		}
	}
	return conflicts
}
