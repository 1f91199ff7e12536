package compiler

import (
	"fmt"
	"regexp"
	"strings"
)

// modernSyntax matches Handlebars 4 constructs the raymond parser cannot
// lex: inline partials, partial blocks and decorators.
var modernSyntax = regexp.MustCompile(`\{\{~?\s*(#\*|#>|\*)`)

func usesModernSyntax(source string) bool {
	return modernSyntax.MatchString(source)
}

type openBlock struct {
	name string
	line int
}

// checkBlocks verifies that every block opened with {{#x}}, {{#> x}},
// {{#*x}} or {{^x}} is closed by a matching {{/x}}. Comments and raw
// blocks are skipped. Expressions themselves are not validated.
func checkBlocks(source string) error {
	var (
		stack []openBlock
		pos   int
	)

	lineAt := func(off int) int { return strings.Count(source[:off], "\n") + 1 }

	for {
		i := strings.Index(source[pos:], "{{")
		if i < 0 {
			break
		}

		start := pos + i

		// \{{ is an escaped mustache.
		if start > 0 && source[start-1] == '\\' {
			pos = start + 2
			continue
		}

		rest := source[start:]

		switch {
		case strings.HasPrefix(rest, "{{{{"):
			end, err := skipRawBlock(source, start)
			if err != nil {
				return err
			}

			pos = end

			continue
		case strings.HasPrefix(rest, "{{!--"), strings.HasPrefix(rest, "{{~!--"):
			end := strings.Index(rest, "--}}")
			if alt := strings.Index(rest, "--~}}"); alt >= 0 && (end < 0 || alt < end) {
				end = alt + 1
			}

			if end < 0 {
				return fmt.Errorf("unclosed comment on line %d", lineAt(start))
			}

			pos = start + end + 4

			continue
		}

		closer := "}}"
		open := 2

		if strings.HasPrefix(rest, "{{{") {
			closer = "}}}"
			open = 3
		}

		end := strings.Index(rest[open:], closer)
		if end < 0 {
			return fmt.Errorf("unclosed expression on line %d", lineAt(start))
		}

		pos = start + open + end + len(closer)

		body := strings.TrimSpace(strings.Trim(rest[open:open+end], "~"))
		line := lineAt(start)

		switch {
		case strings.HasPrefix(body, "!"):
		case strings.HasPrefix(body, "#>"), strings.HasPrefix(body, "#*"):
			stack = append(stack, openBlock{name: firstField(body[2:]), line: line})
		case strings.HasPrefix(body, "#"):
			stack = append(stack, openBlock{name: firstField(body[1:]), line: line})
		case strings.HasPrefix(body, "^") && strings.TrimSpace(body[1:]) != "":
			stack = append(stack, openBlock{name: firstField(body[1:]), line: line})
		case strings.HasPrefix(body, "/"):
			name := firstField(body[1:])

			if len(stack) == 0 {
				return fmt.Errorf("{{/%s}} on line %d closes no open block", name, line)
			}

			top := stack[len(stack)-1]
			if top.name != name {
				return fmt.Errorf("{{/%s}} on line %d does not match {{#%s}} opened on line %d", name, line, top.name, top.line)
			}

			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return fmt.Errorf("unclosed block {{#%s}} opened on line %d", top.name, top.line)
	}

	return nil
}

// skipRawBlock returns the offset just past the {{{{/name}}}} closing the
// raw block that starts at start.
func skipRawBlock(source string, start int) (int, error) {
	line := strings.Count(source[:start], "\n") + 1

	end := strings.Index(source[start+4:], "}}}}")
	if end < 0 {
		return 0, fmt.Errorf("unclosed raw block on line %d", line)
	}

	name := firstField(source[start+4 : start+4+end])
	after := start + 4 + end + 4

	closing := "{{{{/" + name + "}}}}"

	idx := strings.Index(source[after:], closing)
	if idx < 0 {
		return 0, fmt.Errorf("unclosed raw block {{{{%s}}}} opened on line %d", name, line)
	}

	return after + idx + len(closing), nil
}

// firstField returns the block name: the first word, unquoted.
func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	return strings.Trim(fields[0], `"'`)
}
