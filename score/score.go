// Package score evaluates a subject (a node's text or a whole page source)
// against a declarative table of weighted boolean rules.
package score

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Subject is the normalized input every rule sees. Build it once per
// evaluation with NewSubject.
type Subject struct {
	raw  string
	norm string
}

// NewSubject lower-cases text and collapses runs of whitespace.
func NewSubject(text string) Subject {
	return Subject{
		raw:  text,
		norm: strings.ToLower(strings.Join(strings.Fields(text), " ")),
	}
}

// Raw returns the text as given.
func (s Subject) Raw() string { return s.raw }

// Text returns the normalized text.
func (s Subject) Text() string { return s.norm }

// Contains reports whether the normalized text contains kw (normalized too).
func (s Subject) Contains(kw string) bool {
	k := strings.ToLower(strings.Join(strings.Fields(kw), " "))
	return k != "" && strings.Contains(s.norm, k)
}

// Predicate is a pure boolean test over a subject.
type Predicate func(Subject) bool

// Rule is one named, weighted indicator.
type Rule struct {
	Name string

	// Weight is the contribution when the predicate holds. Zero means 1;
	// negative weights count as 0.
	Weight float64

	Predicate Predicate
}

func (r Rule) weight() float64 {
	switch {
	case r.Weight == 0:
		return 1
	case r.Weight < 0:
		return 0
	default:
		return r.Weight
	}
}

// AnyKeyword holds when the subject contains at least one keyword.
func AnyKeyword(name string, keywords ...string) Rule {
	kws := append([]string(nil), keywords...)
	return Rule{Name: name, Predicate: func(s Subject) bool {
		for _, kw := range kws {
			if s.Contains(kw) {
				return true
			}
		}
		return false
	}}
}

// AnyToken holds when one of the tokens occurs as a standalone word, so
// "2024" matches "© 2024 RWTH" but not "120245".
func AnyToken(name string, tokens ...string) Rule {
	toks := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		toks[strings.ToLower(t)] = struct{}{}
	}
	return Rule{Name: name, Predicate: func(s Subject) bool {
		words := strings.FieldsFunc(s.Text(), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if _, ok := toks[w]; ok {
				return true
			}
		}
		return false
	}}
}

// Marker holds when the raw subject contains one of the glyphs. Glyphs are
// matched verbatim, which keeps "©" distinct from "(c)".
func Marker(name string, glyphs ...string) Rule {
	gs := append([]string(nil), glyphs...)
	return Rule{Name: name, Predicate: func(s Subject) bool {
		for _, g := range gs {
			if g != "" && (strings.Contains(s.Raw(), g) || strings.Contains(s.Text(), strings.ToLower(g))) {
				return true
			}
		}
		return false
	}}
}

// Years returns the current and previous year as tokens, the set a footer
// copyright line is expected to carry.
func Years(current int) []string {
	return []string{strconv.Itoa(current), strconv.Itoa(current - 1)}
}

// Result is the outcome of one rule.
type Result struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Passed bool    `json:"passed"`
}

// Card is the immutable result of Evaluate.
type Card struct {
	results   []Result
	score     float64
	max       float64
	threshold float64
}

// Evaluate runs every rule against subject and compares the summed weight of
// the satisfied ones to threshold. Rules with a nil predicate never pass.
func Evaluate(rules []Rule, subject Subject, threshold float64) Card {
	c := Card{results: make([]Result, 0, len(rules)), threshold: threshold}
	for _, r := range rules {
		w := r.weight()
		ok := r.Predicate != nil && r.Predicate(subject)
		c.results = append(c.results, Result{Name: r.Name, Weight: w, Passed: ok})
		c.max += w
		if ok {
			c.score += w
		}
	}
	return c
}

// Score is the summed weight of the satisfied rules.
func (c Card) Score() float64 { return c.score }

// Max is the score if every rule passed.
func (c Card) Max() float64 { return c.max }

// Threshold is the pass bound the card was evaluated against.
func (c Card) Threshold() float64 { return c.threshold }

// Passed reports Score >= Threshold.
func (c Card) Passed() bool { return c.score >= c.threshold }

// Results returns a copy of the per-rule outcomes in rule order.
func (c Card) Results() []Result { return append([]Result(nil), c.results...) }

// Satisfied lists the names of the rules that held.
func (c Card) Satisfied() []string {
	var out []string
	for _, r := range c.results {
		if r.Passed {
			out = append(out, r.Name)
		}
	}
	return out
}

// Missing lists the names of the rules that did not hold.
func (c Card) Missing() []string {
	var out []string
	for _, r := range c.results {
		if !r.Passed {
			out = append(out, r.Name)
		}
	}
	return out
}

// Equal reports whether two cards carry the same results and bounds.
func (c Card) Equal(o Card) bool {
	if c.score != o.score || c.max != o.max || c.threshold != o.threshold || len(c.results) != len(o.results) {
		return false
	}
	for i := range c.results {
		if c.results[i] != o.results[i] {
			return false
		}
	}
	return true
}

// String renders "score/max" with the threshold, e.g. "2/5 (need 2)".
func (c Card) String() string {
	return fmt.Sprintf("%s/%s (need %s)", num(c.score), num(c.max), num(c.threshold))
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
