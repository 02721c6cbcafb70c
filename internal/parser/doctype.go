package parser

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/statement-renamer/backend/internal/models"
)

// DocTypeRule maps a keyword phrase found in statement text to a short code.
type DocTypeRule struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Code    string `json:"code" yaml:"code"`
}

// DefaultDocTypeRules is the built-in mapping. Order matters: the first rule whose
// keyword occurs in the text wins, so more specific phrases come first.
var DefaultDocTypeRules = []DocTypeRule{
	{Keyword: "Temp Noteholder Statement", Code: "Temp_NoteHolderStatement"},
	{Keyword: "Noteholder Statement of Account", Code: "LT_NoteHolderStatement"},
	{Keyword: "Member Statement", Code: "MemberStatement"},
}

// DocTypeMapping resolves document type codes with a single Aho-Corasick pass
// over the text, then picks the matched rule with the lowest index.
type DocTypeMapping struct {
	rules []DocTypeRule

	mu      sync.Mutex // the matcher keeps per-call state
	matcher *ahocorasick.Matcher
}

// NewDocTypeMapping validates rules and builds the matcher.
func NewDocTypeMapping(rules []DocTypeRule) (*DocTypeMapping, error) {
	seen := make(map[string]int, len(rules))
	patterns := make([][]byte, 0, len(rules))
	for i, r := range rules {
		if r.Keyword == "" {
			return nil, fmt.Errorf("doc type rule %d: keyword is required", i)
		}
		if strings.TrimSpace(r.Code) == "" {
			return nil, fmt.Errorf("doc type rule %d (%q): code is required", i, r.Keyword)
		}
		if strings.ContainsAny(r.Code, `/\`) {
			return nil, fmt.Errorf("doc type rule %d (%q): code %q must not contain path separators", i, r.Keyword, r.Code)
		}
		if prev, dup := seen[r.Keyword]; dup {
			return nil, fmt.Errorf("doc type rule %d: keyword %q already used by rule %d", i, r.Keyword, prev)
		}
		seen[r.Keyword] = i
		patterns = append(patterns, []byte(r.Keyword))
	}

	m := &DocTypeMapping{rules: append([]DocTypeRule(nil), rules...)}
	if len(patterns) > 0 {
		m.matcher = ahocorasick.NewMatcher(patterns)
	}
	return m, nil
}

// DefaultDocTypeMapping returns the built-in mapping.
func DefaultDocTypeMapping() *DocTypeMapping {
	m, err := NewDocTypeMapping(DefaultDocTypeRules)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the code of the first rule, in rule order, whose keyword is a
// literal substring of text, or models.UnknownDocType.
func (m *DocTypeMapping) Lookup(text string) string {
	if m.matcher == nil || text == "" {
		return models.UnknownDocType
	}

	m.mu.Lock()
	hits := m.matcher.Match([]byte(text))
	m.mu.Unlock()

	best := -1
	for _, idx := range hits {
		if idx >= 0 && idx < len(m.rules) && (best == -1 || idx < best) {
			best = idx
		}
	}
	if best == -1 {
		return models.UnknownDocType
	}
	return m.rules[best].Code
}

// Rules returns a copy of the rules in match order.
func (m *DocTypeMapping) Rules() []DocTypeRule {
	return append([]DocTypeRule(nil), m.rules...)
}
