// Package formatter turns an executed intent into the text shown to the user.
//
// Rendering is driven by the intent's result shape and templates only; there
// is no per-intent code here.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"rpa-assistant/internal/chatbot/catalog"
	"rpa-assistant/internal/models"
)

const (
	// NoDataMessage answers any intent whose query returned no rows.
	NoDataMessage = "No data found for your query."
	// NullValue stands in for SQL NULL.
	NullValue = "N/A"
	// TimeLayout renders DATETIME and TIMESTAMP columns.
	TimeLayout = "2006-01-02 15:04:05"
)

// Format renders outcome for def. params are the values extracted by the
// resolver, in the order of def.Params.
func Format(def catalog.Definition, outcome models.Outcome, params []string) string {
	if outcome.Failed() {
		return outcome.Failure.Message()
	}
	if len(outcome.Rows) == 0 {
		return NoDataMessage
	}

	switch def.Shape {
	case models.ShapeSingleRowFields:
		values := renderRow(outcome.Rows[0])
		// Requested values win over queried ones with the same name.
		for k, v := range namedParams(def, params) {
			values[k] = v
		}
		return fill(def, def.Response, values)

	case models.ShapeRowList:
		lines := make([]string, 0, len(outcome.Rows))
		for _, row := range outcome.Rows {
			line, missing := substitute(def.Line, renderRow(row))
			if missing != "" {
				return misconfigured(def, missing)
			}
			lines = append(lines, line)
		}
		return fill(def, def.Response, map[string]string{
			catalog.ResultsPlaceholder: strings.Join(lines, "\n"),
		})

	case models.ShapeSingleAggregate:
		values := namedParams(def, params)
		v, ok := outcome.Rows[0][def.Aggregate]
		if !ok {
			return misconfigured(def, def.Aggregate)
		}
		values[def.Aggregate] = Render(v)
		return fill(def, def.Response, values)
	}

	return fmt.Sprintf("Response template for %s has unknown shape %q.", def.Name, def.Shape)
}

// Render converts one column value to display text.
func Render(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return NullValue
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(TimeLayout)
	case *time.Time:
		if val == nil {
			return NullValue
		}
		return val.Format(TimeLayout)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

func renderRow(row models.Row) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = Render(v)
	}
	return out
}

func namedParams(def catalog.Definition, params []string) map[string]string {
	out := make(map[string]string, len(def.Params))
	for i, name := range def.Params {
		if i < len(params) {
			out[name] = params[i]
		}
	}
	return out
}

func fill(def catalog.Definition, tmpl string, values map[string]string) string {
	out, missing := substitute(tmpl, values)
	if missing != "" {
		return misconfigured(def, missing)
	}
	return out
}

// substitute replaces every {name} in tmpl. missing names the first
// placeholder without a value.
func substitute(tmpl string, values map[string]string) (out string, missing string) {
	out = catalog.PlaceholderPattern.ReplaceAllStringFunc(tmpl, func(ph string) string {
		name := ph[1 : len(ph)-1]
		v, ok := values[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return ph
		}
		return v
	})
	return out, missing
}

func misconfigured(def catalog.Definition, field string) string {
	return fmt.Sprintf("Response template for %s is misconfigured (missing {%s}).", def.Name, field)
}
