package model

import "strings"

// RiskLevel classifies how dangerous a request or a single action is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Rank returns an ordinal for comparison; unknown levels rank 0.
func (r RiskLevel) Rank() int { return riskRank[r] }

// IsValid reports whether r is a known level.
func (r RiskLevel) IsValid() bool { return r.Rank() > 0 }

// AtLeast reports whether r is as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool { return r.Rank() >= other.Rank() }

// MaxRisk returns the most severe of the supplied levels (low when empty).
func MaxRisk(levels ...RiskLevel) RiskLevel {
	ret := RiskLow
	for _, l := range levels {
		if l.Rank() > ret.Rank() {
			ret = l
		}
	}
	return ret
}

// ParseRiskLevel parses a case-insensitive level name.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	l := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	return l, l.IsValid()
}

// SecurityLevel is the security classification of a single tool invocation.
type SecurityLevel string

const (
	SecuritySafe      SecurityLevel = "safe"
	SecurityConfirmed SecurityLevel = "confirmed"
	SecurityDangerous SecurityLevel = "dangerous"
)

var securityRank = map[SecurityLevel]int{
	SecuritySafe:      1,
	SecurityConfirmed: 2,
	SecurityDangerous: 3,
}

// Rank returns an ordinal for comparison; unknown levels rank 0.
func (s SecurityLevel) Rank() int { return securityRank[s] }

// IsValid reports whether s is a known level.
func (s SecurityLevel) IsValid() bool { return s.Rank() > 0 }

// MaxSecurity returns the strictest of a and b.
func MaxSecurity(a, b SecurityLevel) SecurityLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	if !a.IsValid() {
		return SecuritySafe
	}
	return a
}
