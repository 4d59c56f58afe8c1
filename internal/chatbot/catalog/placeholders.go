package catalog

import "regexp"

// PlaceholderPattern matches a named template placeholder such as {job_id}.
var PlaceholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// TemplateFields lists the distinct placeholder names in tmpl, in order of
// first appearance.
func TemplateFields(tmpl string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range PlaceholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// CountPlaceholders returns the number of positional parameters a query
// expects: every "?" plus the highest "$n", ignoring quoted literals.
func CountPlaceholders(query string) int {
	questions, maxDollar := 0, 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '?':
			questions++
		case '$':
			n, j := 0, i+1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				n = n*10 + int(query[j]-'0')
				j++
			}
			if n > maxDollar {
				maxDollar = n
			}
			i = j - 1
		}
	}
	return questions + maxDollar
}
