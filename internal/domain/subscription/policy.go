package subscription

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultThreshold = 7
	DefaultReasons   = "amzn_abuse,user_unknown,user_disabled,domain_error,spam"
)

var ErrInvalidThreshold = errors.New("bounce count threshold must not be negative")

// Policy decides which bounce groups make an address a deactivation candidate.
type Policy struct {
	Reasons     []string
	Threshold   int
	AbuseReason string
}

// NewPolicy builds a Policy from a comma-separated reason list and a threshold.
func NewPolicy(reasonsCSV string, threshold int) (Policy, error) {
	if threshold < 0 {
		return Policy{}, fmt.Errorf("%w: got %d", ErrInvalidThreshold, threshold)
	}
	return Policy{
		Reasons:     ParseReasons(reasonsCSV),
		Threshold:   threshold,
		AbuseReason: AbuseReason,
	}, nil
}

// ParseReasons splits a comma-separated list, dropping blanks and repeats.
func ParseReasons(csv string) []string {
	reasons := make([]string, 0)
	seen := make(map[string]struct{})
	for _, r := range strings.Split(csv, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		reasons = append(reasons, r)
	}
	return reasons
}

func (p Policy) allows(reason string) bool {
	for _, r := range p.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// Qualifies reports whether a single bounce group makes its address a candidate.
func (p Policy) Qualifies(g BounceGroup) bool {
	if !p.allows(g.StdReason) {
		return false
	}
	return g.Count > p.Threshold || (p.AbuseReason != "" && g.StdReason == p.AbuseReason)
}

// SelectCandidates returns the addresses of all qualifying groups, each once,
// in the order they first qualify.
func SelectCandidates(groups []BounceGroup, p Policy) []string {
	addrs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, g := range groups {
		if !p.Qualifies(g) {
			continue
		}
		if _, dup := seen[g.EmailAddress]; dup {
			continue
		}
		seen[g.EmailAddress] = struct{}{}
		addrs = append(addrs, g.EmailAddress)
	}
	return addrs
}
