package router

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultRequirement is the pattern used for placeholders without a declared
// requirement: one or more characters excluding the path separator.
const defaultRequirement = `[^/]+`

// placeholderPattern matches {identifier} placeholders in a path template.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// segment is one piece of a parsed path template: either a literal run or a
// single placeholder.
type segment struct {
	literal     string
	placeholder string
}

// requirement keeps a declared pattern in both forms it is used: the original
// string for error reporting and a compiled expression anchored over the
// whole value for parameter validation.
type requirement struct {
	pattern string
	value   *regexp.Regexp
}

// matcher is the compiled form of one route's path template. It is built
// once at table construction and immutable afterwards.
type matcher struct {
	template     string
	regex        *regexp.Regexp
	segments     []segment
	placeholders []string
	requirements map[string]*requirement
}

// newMatcher compiles a path template and its requirements. The route name
// is only used in error messages.
func newMatcher(route, template string, requirements map[string]string) (*matcher, error) {
	m := &matcher{
		template:     template,
		segments:     parseTemplate(template),
		requirements: make(map[string]*requirement, len(requirements)),
	}

	declared := make(map[string]bool)
	for _, seg := range m.segments {
		if seg.placeholder == "" {
			continue
		}
		if declared[seg.placeholder] {
			return nil, &DuplicatePlaceholderError{Route: route, Placeholder: seg.placeholder}
		}
		declared[seg.placeholder] = true
		m.placeholders = append(m.placeholders, seg.placeholder)
	}

	for name, pattern := range requirements {
		if !declared[name] {
			return nil, &UndeclaredRequirementError{Route: route, Placeholder: name}
		}
		value, err := regexp.Compile("^(?:" + trimAnchors(pattern) + ")$")
		if err != nil {
			return nil, &InvalidRequirementError{Route: route, Placeholder: name, Pattern: pattern, Cause: err}
		}
		m.requirements[name] = &requirement{pattern: pattern, value: value}
	}

	var b strings.Builder
	b.WriteString("^")
	for _, seg := range m.segments {
		if seg.placeholder == "" {
			b.WriteString(regexp.QuoteMeta(seg.literal))
			continue
		}
		sub := defaultRequirement
		if req, ok := requirements[seg.placeholder]; ok {
			sub = trimAnchors(req)
		}
		fmt.Fprintf(&b, "(?P<%s>%s)", seg.placeholder, sub)
	}
	b.WriteString("$")

	regex, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("route %s: failed to compile path template %q: %w", route, template, err)
	}
	m.regex = regex

	return m, nil
}

// parseTemplate splits a path template into alternating literal and
// placeholder segments. Braces that do not form a valid placeholder are kept
// as literal text.
func parseTemplate(template string) []segment {
	locs := placeholderPattern.FindAllStringSubmatchIndex(template, -1)
	if len(locs) == 0 {
		return []segment{{literal: template}}
	}

	var segments []segment
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			segments = append(segments, segment{literal: template[last:loc[0]]})
		}
		segments = append(segments, segment{placeholder: template[loc[2]:loc[3]]})
		last = loc[1]
	}
	if last < len(template) {
		segments = append(segments, segment{literal: template[last:]})
	}

	return segments
}

// trimAnchors strips a leading "^" and a trailing unescaped "$" from a
// requirement pattern so it can be embedded as a sub-pattern: mid-pattern
// anchors never match inside the combined expression. The original pattern
// string is what error messages report.
func trimAnchors(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "^")
	if strings.HasSuffix(pattern, "$") && !strings.HasSuffix(pattern, `\$`) {
		pattern = strings.TrimSuffix(pattern, "$")
	}
	return pattern
}

// match tests a candidate request path against the compiled template. On
// success it returns every placeholder's captured value.
func (m *matcher) match(path string) (map[string]string, bool) {
	values := m.regex.FindStringSubmatch(path)
	if values == nil {
		return nil, false
	}

	params := make(map[string]string, len(m.placeholders))
	for i, name := range m.regex.SubexpNames() {
		if i > 0 && name != "" && i < len(values) {
			params[name] = values[i]
		}
	}

	return params, true
}

// generate substitutes parameter values into the template, validating each
// against its declared requirement. Parameters not referenced by any
// placeholder are ignored.
func (m *matcher) generate(route string, params map[string]string) (string, error) {
	var b strings.Builder
	for _, seg := range m.segments {
		if seg.placeholder == "" {
			b.WriteString(seg.literal)
			continue
		}

		value, ok := params[seg.placeholder]
		if !ok {
			return "", &MissingParameterError{Route: route, Placeholder: seg.placeholder}
		}
		if req, ok := m.requirements[seg.placeholder]; ok && !req.value.MatchString(value) {
			return "", &RequirementMismatchError{Route: route, Placeholder: seg.placeholder, Value: value, Pattern: req.pattern}
		}
		b.WriteString(value)
	}

	return b.String(), nil
}
