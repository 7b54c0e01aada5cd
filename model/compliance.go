package model

// ComplianceResult is the outcome of validating a request against governance rules.
type ComplianceResult struct {
	Passed       bool     `json:"passed"`
	Violations   []string `json:"violations"`
	Requirements []string `json:"requirements"`
}
