// Package cachecontrol maps object keys to Cache-Control header values using an
// ordered list of regexp rules. Order matters: first hit, first served.
package cachecontrol

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strconv"
)

// Rule pairs a compiled path pattern with the Cache-Control value it assigns.
type Rule struct {
	Pattern *regexp.Regexp
	Value   string
}

// Rules is an ordered rule list. Evaluation stops at the first match.
type Rules []Rule

// RuleSpec is the uncompiled form of a Rule, as read from configuration.
type RuleSpec struct {
	Pattern string
	Value   string
}

// CompileOptions controls how rule patterns are compiled.
type CompileOptions struct {
	// IgnoreCase makes every pattern case-insensitive.
	IgnoreCase bool
}

// NoMatchingRuleError is returned when a path exhausts the rule list.
type NoMatchingRuleError struct {
	Path string
}

func (e *NoMatchingRuleError) Error() string {
	return fmt.Sprintf("no cache-control rule matches %q", e.Path)
}

// Compile compiles specs in order. Patterns are searched, not anchored, unless they
// anchor themselves.
func Compile(specs []RuleSpec, opts CompileOptions) (Rules, error) {
	rules := make(Rules, 0, len(specs))
	for i, spec := range specs {
		expr := spec.Pattern
		if opts.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("cache-control rule %d (%q): %w", i, spec.Pattern, err)
		}
		rules = append(rules, Rule{Pattern: re, Value: spec.Value})
	}
	return rules, nil
}

// Resolve returns the value of the first rule matching path.
func Resolve(path string, rules Rules) (string, error) {
	for _, rule := range rules {
		if rule.Pattern.MatchString(path) {
			return rule.Value, nil
		}
	}
	return "", &NoMatchingRuleError{Path: path}
}

// Resolve is shorthand for Resolve(path, r).
func (r Rules) Resolve(path string) (string, error) {
	return Resolve(path, r)
}

// MaxAge formats a public max-age directive.
func MaxAge(seconds int) string {
	return "public,max-age=" + strconv.Itoa(seconds)
}

// IsCatchAll reports whether rule matches any path, including the empty one. A
// pattern counts when it can match the empty string at the start or at the end
// of every path (`^`, `x?$`), or when it spans the whole path with `.*` between
// such parts (`^.*$`).
func IsCatchAll(rule Rule) bool {
	re, err := syntax.Parse(rule.Pattern.String(), syntax.Perl)
	if err != nil {
		return false
	}
	return emptyAt(re, true) || emptyAt(re, false) || spans(re)
}

// spans reports whether re matches every path as a whole. Paths never hold a
// newline, so `.` counts as any character.
func spans(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpStar:
		op := re.Sub[0].Op
		return op == syntax.OpAnyChar || op == syntax.OpAnyCharNotNL
	case syntax.OpCapture:
		return spans(re.Sub[0])
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if spans(sub) {
				return true
			}
		}
	case syntax.OpConcat:
		for k, sub := range re.Sub {
			if !spans(sub) {
				continue
			}
			ok := true
			for _, before := range re.Sub[:k] {
				ok = ok && emptyAt(before, true)
			}
			for _, after := range re.Sub[k+1:] {
				ok = ok && emptyAt(after, false)
			}
			if ok {
				return true
			}
		}
	}
	return false
}

// emptyAt reports whether re matches the empty string at the start (or the end)
// of an arbitrary path.
func emptyAt(re *syntax.Regexp, start bool) bool {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpStar, syntax.OpQuest:
		return true
	case syntax.OpBeginText, syntax.OpBeginLine:
		return start
	case syntax.OpEndText, syntax.OpEndLine:
		return !start
	case syntax.OpRepeat:
		return re.Min == 0 || emptyAt(re.Sub[0], start)
	case syntax.OpPlus, syntax.OpCapture:
		return emptyAt(re.Sub[0], start)
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !emptyAt(sub, start) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if emptyAt(sub, start) {
				return true
			}
		}
	}
	return false
}
