package model

// RiskCategory groups risk factors.
type RiskCategory string

const (
	CategoryOperational RiskCategory = "operational"
	CategorySecurity    RiskCategory = "security"
	CategoryCompliance  RiskCategory = "compliance"
)

// RiskFactor is one independently scored risk contribution.
type RiskFactor struct {
	Name        string       `json:"name"`
	Score       float64      `json:"score"`
	Weight      float64      `json:"weight"`
	Description string       `json:"description"`
	Category    RiskCategory `json:"category"`
}

// SecurityFlag is raised automatically when a request trips a hard signal.
type SecurityFlag struct {
	Type        string    `json:"type"`
	Severity    RiskLevel `json:"severity"`
	Description string    `json:"description"`
}

// RiskAssessment is the scored risk of a request.
type RiskAssessment struct {
	OverallScore    int            `json:"overallScore"`
	Factors         []RiskFactor   `json:"factors"`
	Mitigations     []string       `json:"mitigations"`
	Recommendations []string       `json:"recommendations"`
	AutomaticFlags  []SecurityFlag `json:"automaticFlags"`
}

// HasFlag reports whether a flag of the given type was raised.
func (a *RiskAssessment) HasFlag(flagType string) bool {
	if a == nil {
		return false
	}
	for _, f := range a.AutomaticFlags {
		if f.Type == flagType {
			return true
		}
	}
	return false
}
