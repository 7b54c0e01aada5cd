package risk

import (
	"regexp"
	"strings"

	"github.com/viant/toolgate/model"
)

// Finding is the outcome of analysing a single command line.
type Finding struct {
	Level       model.RiskLevel
	Destructive bool
	Reason      string
}

type pattern struct {
	re     *regexp.Regexp
	level  model.RiskLevel
	reason string
}

// Analyzer classifies shell command lines. Destructive commands are not
// blocked, they raise the level so that a second confirmation is required.
type Analyzer struct {
	patterns []pattern
	readOnly map[string]bool
}

var defaultPatterns = []struct {
	expr   string
	level  model.RiskLevel
	reason string
}{
	{`\brm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+(/|~|\*|\.)(\s|$)`, model.RiskCritical, "recursive removal of a root, home or wildcard path"},
	{`\bmkfs(\.\w+)?\b`, model.RiskCritical, "filesystem formatting"},
	{`\bdd\s+.*\bof=/dev/`, model.RiskCritical, "raw device write"},
	{`:\(\)\s*\{\s*:\|:&\s*\};:`, model.RiskCritical, "fork bomb"},
	{`(curl|wget)\s+[^|]*\|\s*(sudo\s+)?(ba|z)?sh\b`, model.RiskCritical, "remote script piped to a shell"},
	{`\brm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+`, model.RiskHigh, "forced or recursive removal"},
	{`\bsudo\b`, model.RiskHigh, "privilege escalation"},
	{`\bchmod\s+(-R\s+)?0?777\b`, model.RiskHigh, "world writable permissions"},
	{`\bchown\s+-R\b`, model.RiskHigh, "recursive ownership change"},
	{`\bgit\s+push\s+.*(--force|-f)\b`, model.RiskHigh, "force push rewrites remote history"},
	{`\bgit\s+reset\s+--hard\b`, model.RiskHigh, "discards local changes"},
	{`\bgit\s+clean\s+-[a-zA-Z]*f`, model.RiskHigh, "removes untracked files"},
	{`>\s*/dev/sd[a-z]`, model.RiskCritical, "raw device overwrite"},
	{`\b(shutdown|reboot|halt)\b`, model.RiskHigh, "host power state change"},
	{`\bkill\s+-9\b`, model.RiskMedium, "forced process termination"},
}

var readOnlyCommands = []string{
	"ls", "cat", "pwd", "echo", "head", "tail", "grep", "rg", "find", "stat",
	"wc", "tree", "git status", "git diff", "git log", "which", "env",
}

// NewAnalyzer returns an analyzer with the default destructive patterns.
func NewAnalyzer() *Analyzer {
	ret := &Analyzer{readOnly: map[string]bool{}}
	for _, p := range defaultPatterns {
		ret.patterns = append(ret.patterns, pattern{re: regexp.MustCompile(p.expr), level: p.level, reason: p.reason})
	}
	for _, c := range readOnlyCommands {
		ret.readOnly[c] = true
	}
	return ret
}

// Analyze classifies command. The first, most severe pattern wins; unknown
// commands are medium, known read-only commands are low.
func (a *Analyzer) Analyze(command string) Finding {
	command = strings.TrimSpace(command)
	if command == "" {
		return Finding{Level: model.RiskLow}
	}
	var best *pattern
	for i := range a.patterns {
		p := &a.patterns[i]
		if !p.re.MatchString(command) {
			continue
		}
		if best == nil || p.level.Rank() > best.level.Rank() {
			best = p
		}
	}
	if best != nil {
		return Finding{Level: best.level, Destructive: best.level.AtLeast(model.RiskHigh), Reason: best.reason}
	}
	if a.isReadOnly(command) {
		return Finding{Level: model.RiskLow}
	}
	return Finding{Level: model.RiskMedium}
}

func (a *Analyzer) isReadOnly(command string) bool {
	if strings.ContainsAny(command, ">|;&") {
		return false
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	if len(fields) > 1 && a.readOnly[fields[0]+" "+fields[1]] {
		return true
	}
	return a.readOnly[fields[0]]
}

var defaultAnalyzer = NewAnalyzer()

// AnalyzeCommand classifies command with the default analyzer.
func AnalyzeCommand(command string) Finding {
	return defaultAnalyzer.Analyze(command)
}
