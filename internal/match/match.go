// Package match filters candidate symbol names against a typed prefix.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Policy selects how a pattern is matched against candidates.
type Policy string

const (
	// PolicyHead matches candidates that start with the pattern, ignoring case.
	PolicyHead Policy = "head"

	// PolicySubsequence matches candidates containing every pattern character
	// in order, ignoring case.
	PolicySubsequence Policy = "subsequence"
)

// ErrInvalidPolicy indicates an unknown match policy.
var ErrInvalidPolicy = errors.New("invalid match policy")

// Predicate reports whether a candidate matches a compiled pattern.
type Predicate func(candidate string) bool

// Matcher filters names by a pattern.
type Matcher interface {
	// Policy returns the policy the matcher implements.
	Policy() Policy

	// Compile prepares a pattern for repeated matching.
	Compile(pattern string) Predicate

	// Match is Compile(pattern)(candidate).
	Match(pattern, candidate string) bool
}

// New returns the matcher for policy. An empty policy selects PolicyHead.
func New(policy string) (Matcher, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(policy))) {
	case "", PolicyHead:
		return headMatcher{}, nil
	case PolicySubsequence:
		return subsequenceMatcher{}, nil
	default:
		return nil, fmt.Errorf("%w: must be '%s' or '%s', got '%s'", ErrInvalidPolicy, PolicyHead, PolicySubsequence, policy)
	}
}

type headMatcher struct{}

func (headMatcher) Policy() Policy { return PolicyHead }

func (headMatcher) Compile(pattern string) Predicate {
	if pattern == "" {
		return matchAll
	}
	lower := strings.ToLower(pattern)
	return func(candidate string) bool {
		return strings.HasPrefix(strings.ToLower(candidate), lower)
	}
}

func (m headMatcher) Match(pattern, candidate string) bool {
	return m.Compile(pattern)(candidate)
}

type subsequenceMatcher struct{}

func (subsequenceMatcher) Policy() Policy { return PolicySubsequence }

func (subsequenceMatcher) Compile(pattern string) Predicate {
	if pattern == "" {
		return matchAll
	}
	parts := make([]string, 0, len(pattern))
	for _, r := range pattern {
		parts = append(parts, regexp.QuoteMeta(string(r)))
	}
	re := regexp.MustCompile("(?is)" + strings.Join(parts, ".*"))
	return re.MatchString
}

func (m subsequenceMatcher) Match(pattern, candidate string) bool {
	return m.Compile(pattern)(candidate)
}

func matchAll(string) bool { return true }

// Rank orders names by Jaro-Winkler similarity to pattern, best first.
// Names with equal scores keep their relative order.
func Rank(pattern string, names []string) {
	if pattern == "" || len(names) < 2 {
		return
	}
	lower := strings.ToLower(pattern)
	scores := make(map[string]float32, len(names))
	for _, name := range names {
		score, err := edlib.StringsSimilarity(lower, strings.ToLower(name), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		scores[name] = score
	}
	sort.SliceStable(names, func(i, j int) bool {
		return scores[names[i]] > scores[names[j]]
	})
}
