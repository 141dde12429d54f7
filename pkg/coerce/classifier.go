package coerce

import "strings"

// Rule assigns Category when any keyword occurs in the lower-cased input.
type Rule struct {
	Category string
	Keywords []string
}

// Classifier tests rules in order; the first match wins.
type Classifier struct {
	rules    []Rule
	fallback string
}

func NewClassifier(fallback string, rules ...Rule) Classifier {
	return Classifier{rules: rules, fallback: fallback}
}

func (c Classifier) Classify(s string) string {
	lower := strings.ToLower(s)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return c.fallback
}
