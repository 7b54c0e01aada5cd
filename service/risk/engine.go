package risk

import (
	"fmt"
	"math"

	"github.com/viant/toolgate/model"
)

const (
	operationalWeight = 0.3
	securityWeight    = 0.4
	complianceWeight  = 0.2

	operationalPerAction = 10
	operationalCap       = 70
	securityPerAction    = 15
	securityCap          = 80
	complianceScore      = 40
	complianceFileLimit  = 10

	// mitigationThreshold is the factor score above which mitigations are generated.
	mitigationThreshold = 50
)

// Flag types raised automatically.
const (
	FlagCritical    = "critical"
	FlagDestructive = "destructive_command"
)

// Engine assesses approval requests.
type Engine struct {
	analyzer *Analyzer
}

// New creates a risk engine.
func New() *Engine {
	return &Engine{analyzer: NewAnalyzer()}
}

// AnalyzeCommand classifies a command line with the engine's analyzer.
func (e *Engine) AnalyzeCommand(command string) Finding {
	return e.analyzer.Analyze(command)
}

// Assess computes the risk assessment of req. It never mutates req.
func (e *Engine) Assess(req *model.Request) *model.RiskAssessment {
	ret := &model.RiskAssessment{
		Factors:         []model.RiskFactor{},
		Mitigations:     []string{},
		Recommendations: []string{},
		AutomaticFlags:  []model.SecurityFlag{},
	}
	if req == nil {
		return ret
	}
	fileActions, commandActions := 0, 0
	for _, action := range req.Actions {
		switch {
		case action.Type.IsFile():
			fileActions++
		case action.Type.IsCommand():
			commandActions++
		}
	}
	if fileActions > 0 {
		ret.Factors = append(ret.Factors, model.RiskFactor{
			Name:        "file_operations",
			Score:       math.Min(float64(fileActions*operationalPerAction), operationalCap),
			Weight:      operationalWeight,
			Description: fmt.Sprintf("%d file operation(s)", fileActions),
			Category:    model.CategoryOperational,
		})
	}
	if commandActions > 0 {
		ret.Factors = append(ret.Factors, model.RiskFactor{
			Name:        "command_execution",
			Score:       math.Min(float64(commandActions*securityPerAction), securityCap),
			Weight:      securityWeight,
			Description: fmt.Sprintf("%d command execution(s)", commandActions),
			Category:    model.CategorySecurity,
		})
	}
	if files := req.AffectedFiles(); len(files) > complianceFileLimit {
		ret.Factors = append(ret.Factors, model.RiskFactor{
			Name:        "wide_change_scope",
			Score:       complianceScore,
			Weight:      complianceWeight,
			Description: fmt.Sprintf("%d files affected", len(files)),
			Category:    model.CategoryCompliance,
		})
	}
	ret.OverallScore = WeightedScore(ret.Factors)
	for _, factor := range ret.Factors {
		if factor.Score <= mitigationThreshold {
			continue
		}
		mitigations, recommendations := guidance(factor.Category)
		ret.Mitigations = append(ret.Mitigations, mitigations...)
		ret.Recommendations = append(ret.Recommendations, recommendations...)
	}
	ret.AutomaticFlags = e.flags(req)
	return ret
}

func (e *Engine) flags(req *model.Request) []model.SecurityFlag {
	ret := []model.SecurityFlag{}
	critical := false
	for _, action := range req.Actions {
		if action.RiskLevel == model.RiskCritical && !critical {
			critical = true
			ret = append(ret, model.SecurityFlag{
				Type:        FlagCritical,
				Severity:    model.RiskCritical,
				Description: "request contains a critical risk action",
			})
		}
	}
	for _, action := range req.Actions {
		if !action.Type.IsCommand() {
			continue
		}
		command, _ := action.Details["command"].(string)
		if finding := e.analyzer.Analyze(command); finding.Destructive {
			ret = append(ret, model.SecurityFlag{
				Type:        FlagDestructive,
				Severity:    finding.Level,
				Description: finding.Reason,
			})
			break
		}
	}
	return ret
}

// WeightedScore returns round(Σ score·weight / Σ weight) clamped to [0,100].
// An empty factor list yields 0.
func WeightedScore(factors []model.RiskFactor) int {
	var total, weights float64
	for _, f := range factors {
		if f.Weight <= 0 {
			continue
		}
		total += f.Score * f.Weight
		weights += f.Weight
	}
	if weights == 0 {
		weights = 1
	}
	score := int(math.Round(total / weights))
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

func guidance(category model.RiskCategory) (mitigations, recommendations []string) {
	switch category {
	case model.CategoryOperational:
		return []string{"Create backups of affected files before applying changes"},
			[]string{"Review every staged diff before accepting"}
	case model.CategorySecurity:
		return []string{"Run commands in an isolated working directory"},
			[]string{"Inspect command arguments for destructive flags"}
	case model.CategoryCompliance:
		return []string{"Record the change scope in the audit log"},
			[]string{"Split the change into smaller reviewable requests"}
	}
	return nil, nil
}
