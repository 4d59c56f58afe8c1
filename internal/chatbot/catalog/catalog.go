// Package catalog holds the closed set of questions the assistant can answer.
//
// Each Definition binds a match pattern to one parameterized query and one
// response template. A Catalog is validated and compiled once and is read-only
// afterwards; its order is the resolution priority.
package catalog

import (
	"errors"
	"fmt"
	"regexp"

	"rpa-assistant/internal/models"
)

// ErrInvalidCatalog wraps every authoring problem found while building a Catalog.
var ErrInvalidCatalog = errors.New("CATALOG_INVALID")

// ResultsPlaceholder is the single placeholder a row_list response carries.
const ResultsPlaceholder = "results"

// Definition describes one intent.
type Definition struct {
	Name    models.IntentName `yaml:"name"`
	Pattern string            `yaml:"pattern"`
	// Query uses positional placeholders ("?" or "$n"); Params names them in order.
	Query  string             `yaml:"query"`
	Params []string           `yaml:"params"`
	Shape  models.ResultShape `yaml:"shape"`

	Response  string   `yaml:"response"`
	Line      string   `yaml:"line,omitempty"`
	Fields    []string `yaml:"fields,omitempty"`
	Aggregate string   `yaml:"aggregate,omitempty"`

	// Examples are utterances that must resolve to this intent.
	Examples []string `yaml:"examples,omitempty"`

	re *regexp.Regexp
}

// Regexp returns the compiled, case-insensitive match pattern. It is nil
// until the definition has been added to a Catalog.
func (d Definition) Regexp() *regexp.Regexp {
	return d.re
}

// Catalog is an ordered, immutable set of intent definitions.
type Catalog struct {
	defs  []Definition
	index map[models.IntentName]int
}

// New validates and compiles defs, keeping their order.
func New(defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]Definition, len(defs)),
		index: make(map[models.IntentName]int, len(defs)),
	}
	copy(c.defs, defs)

	var errs []error
	for i := range c.defs {
		d := &c.defs[i]
		if err := compile(d); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.index[d.Name]; dup {
			errs = append(errs, fmt.Errorf("intent %q is defined more than once", d.Name))
			continue
		}
		c.index[d.Name] = i
		errs = append(errs, validate(*d)...)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return c, nil
}

// MustNew is New for static tables; it panics on an invalid catalog.
func MustNew(defs ...Definition) *Catalog {
	c, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate reports every authoring problem in defs without keeping the catalog.
func Validate(defs ...Definition) error {
	_, err := New(defs...)
	return err
}

func (c *Catalog) Lookup(name models.IntentName) (Definition, bool) {
	i, ok := c.index[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Definitions returns the definitions in resolution order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

func (c *Catalog) Names() []models.IntentName {
	out := make([]models.IntentName, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.Name
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.defs)
}

func compile(d *Definition) error {
	if d.Name == "" {
		return errors.New("intent without a name")
	}
	if d.Pattern == "" {
		return fmt.Errorf("intent %q: empty pattern", d.Name)
	}
	re, err := regexp.Compile("(?i)" + d.Pattern)
	if err != nil {
		return fmt.Errorf("intent %q: pattern does not compile: %w", d.Name, err)
	}
	d.re = re
	return nil
}

func validate(d Definition) []error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("intent %q: "+format, append([]interface{}{d.Name}, args...)...))
	}

	if d.Query == "" {
		fail("empty query")
	}
	if groups := d.re.NumSubexp(); groups != len(d.Params) {
		fail("pattern has %d capture groups but %d params are declared", groups, len(d.Params))
	}
	if n := CountPlaceholders(d.Query); n != len(d.Params) {
		fail("query has %d placeholders but %d params are declared", n, len(d.Params))
	}
	if d.Response == "" {
		fail("empty response template")
	}

	params := toSet(d.Params)
	fields := toSet(d.Fields)

	switch d.Shape {
	case models.ShapeSingleRowFields:
		for _, p := range TemplateFields(d.Response) {
			if !fields[p] && !params[p] {
				fail("response placeholder {%s} is neither a field nor a param", p)
			}
		}
	case models.ShapeRowList:
		placeholders := TemplateFields(d.Response)
		if len(placeholders) != 1 || placeholders[0] != ResultsPlaceholder {
			fail("row_list response must contain exactly {%s}, found %v", ResultsPlaceholder, placeholders)
		}
		if d.Line == "" {
			fail("row_list intent needs a line template")
		}
		for _, p := range TemplateFields(d.Line) {
			if !fields[p] {
				fail("line placeholder {%s} is not a field", p)
			}
		}
	case models.ShapeSingleAggregate:
		if d.Aggregate == "" {
			fail("single_aggregate intent needs an aggregate column")
		}
		seen := false
		for _, p := range TemplateFields(d.Response) {
			switch {
			case p == d.Aggregate:
				seen = true
			case !params[p]:
				fail("response placeholder {%s} is neither the aggregate nor a param", p)
			}
		}
		if d.Aggregate != "" && !seen {
			fail("response does not reference aggregate {%s}", d.Aggregate)
		}
	default:
		fail("unknown result shape %q", d.Shape)
	}
	return errs
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
