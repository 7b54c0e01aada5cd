package toolgate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/toolgate/internal/logging"
	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/policy"
	"github.com/viant/toolgate/service/approval"
	"github.com/viant/toolgate/service/audit"
	"github.com/viant/toolgate/service/batch"
	"github.com/viant/toolgate/service/tracker"
	"github.com/viant/toolgate/service/workflow"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the governance engine
// configuration. The zero value of every nested field inherits the package
// default; ${env.KEY} expressions are expanded when loaded with LoadConfig.
type Config struct {
	Approval ApprovalConfig `json:"approval" yaml:"approval"`
	Workflow WorkflowConfig `json:"workflow" yaml:"workflow"`
	Audit    AuditConfig    `json:"audit" yaml:"audit"`
	Tracker  TrackerConfig  `json:"tracker" yaml:"tracker"`
	Diff     DiffConfig     `json:"diff" yaml:"diff"`
	Batch    BatchConfig    `json:"batch" yaml:"batch"`
	Logging  logging.Config `json:"logging" yaml:"logging"`
	Tracing  TracingConfig  `json:"tracing" yaml:"tracing"`
}

// ApprovalConfig holds the static approval policy and prompt behaviour.
type ApprovalConfig struct {
	Mode              string             `json:"mode,omitempty" yaml:"mode,omitempty"`
	AutoApprove       policy.AutoApprove `json:"autoApprove,omitempty" yaml:"autoApprove,omitempty"`
	BlockList         []model.ActionType `json:"blockList,omitempty" yaml:"blockList,omitempty"`
	Unattended        string             `json:"unattended,omitempty" yaml:"unattended,omitempty"`
	CommentsThreshold int                `json:"commentsThreshold,omitempty" yaml:"commentsThreshold,omitempty"`
	Requester         string             `json:"requester,omitempty" yaml:"requester,omitempty"`
}

// WorkflowConfig overrides step timeouts and approvers.
type WorkflowConfig struct {
	PrimaryTimeout      time.Duration `json:"primaryTimeout,omitempty" yaml:"primaryTimeout,omitempty"`
	ManagerTimeout      time.Duration `json:"managerTimeout,omitempty" yaml:"managerTimeout,omitempty"`
	ComplianceTimeout   time.Duration `json:"complianceTimeout,omitempty" yaml:"complianceTimeout,omitempty"`
	EscalationDelay     time.Duration `json:"escalationDelay,omitempty" yaml:"escalationDelay,omitempty"`
	PrimaryApprovers    []string      `json:"primaryApprovers,omitempty" yaml:"primaryApprovers,omitempty"`
	ManagerApprovers    []string      `json:"managerApprovers,omitempty" yaml:"managerApprovers,omitempty"`
	ComplianceApprovers []string      `json:"complianceApprovers,omitempty" yaml:"complianceApprovers,omitempty"`
}

// AuditConfig controls audit retention and the optional JSONL sink.
type AuditConfig struct {
	MaxEntries  int    `json:"maxEntries,omitempty" yaml:"maxEntries,omitempty"`
	JSONLURL    string `json:"jsonlURL,omitempty" yaml:"jsonlURL,omitempty"`
	RotateBytes int64  `json:"rotateBytes,omitempty" yaml:"rotateBytes,omitempty"`
}

// TrackerConfig controls execution history and path validation.
type TrackerConfig struct {
	MaxHistory       int      `json:"maxHistory,omitempty" yaml:"maxHistory,omitempty"`
	WorkingDirectory string   `json:"workingDirectory,omitempty" yaml:"workingDirectory,omitempty"`
	AllowedRoots     []string `json:"allowedRoots,omitempty" yaml:"allowedRoots,omitempty"`
}

// DiffConfig controls the diff stage.
type DiffConfig struct {
	AutoAccept   bool   `json:"autoAccept,omitempty" yaml:"autoAccept,omitempty"`
	ContextLines int    `json:"contextLines,omitempty" yaml:"contextLines,omitempty"`
	BaseURL      string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

// BatchConfig controls batch session retention and persistence.
type BatchConfig struct {
	TTL        time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	PersistURL string        `json:"persistURL,omitempty" yaml:"persistURL,omitempty"`
}

// TracingConfig enables the stdout or file OpenTelemetry exporter.
type TracingConfig struct {
	Enabled        bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Approval: ApprovalConfig{
			Mode:              policy.ModeAsk,
			Unattended:        string(approval.UnattendedEscalate),
			CommentsThreshold: approval.DefaultCommentsThreshold,
			Requester:         "user",
		},
		Workflow: WorkflowConfig{
			PrimaryTimeout:    workflow.PrimaryTimeout,
			ManagerTimeout:    workflow.ManagerTimeout,
			ComplianceTimeout: workflow.ComplianceTimeout,
			EscalationDelay:   workflow.EscalationDelay,
		},
		Audit:   AuditConfig{MaxEntries: audit.DefaultMaxEntries, RotateBytes: audit.DefaultRotateBytes},
		Tracker: TrackerConfig{MaxHistory: tracker.DefaultMaxHistory},
		Diff:    DiffConfig{ContextLines: 3},
		Batch:   BatchConfig{TTL: batch.DefaultTTL},
		Logging: logging.Config{Level: "info"},
		Tracing: TracingConfig{ServiceName: "toolgate", ServiceVersion: "dev"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	switch c.Approval.Mode {
	case "", policy.ModeAsk, policy.ModeAuto, policy.ModeDeny:
	default:
		errs = append(errs, fmt.Errorf("approval.mode: unsupported %q", c.Approval.Mode))
	}
	switch approval.Unattended(c.Approval.Unattended) {
	case "", approval.UnattendedEscalate, approval.UnattendedReject:
	default:
		errs = append(errs, fmt.Errorf("approval.unattended: unsupported %q", c.Approval.Unattended))
	}
	for _, actionType := range append(append([]model.ActionType(nil), c.Approval.BlockList...), c.Approval.AutoApprove.Operations...) {
		if !actionType.IsValid() {
			errs = append(errs, fmt.Errorf("approval: unknown action type %q", actionType))
		}
	}
	if c.Approval.CommentsThreshold < 0 {
		errs = append(errs, fmt.Errorf("approval.commentsThreshold must be >= 0"))
	}
	if c.Workflow.PrimaryTimeout < 0 || c.Workflow.ManagerTimeout < 0 || c.Workflow.ComplianceTimeout < 0 || c.Workflow.EscalationDelay < 0 {
		errs = append(errs, fmt.Errorf("workflow: timeouts must be >= 0"))
	}
	if c.Audit.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("audit.maxEntries must be >= 0"))
	}
	if c.Tracker.MaxHistory < 0 {
		errs = append(errs, fmt.Errorf("tracker.maxHistory must be >= 0"))
	}
	if c.Diff.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("diff.contextLines must be >= 0"))
	}
	if c.Batch.TTL < 0 {
		errs = append(errs, fmt.Errorf("batch.ttl must be >= 0"))
	}
	return errors.Join(errs...)
}

// Policy returns the static approval policy described by the config.
func (c *Config) Policy() *policy.Policy {
	ret := &policy.Policy{
		Mode:        c.Approval.Mode,
		AutoApprove: c.Approval.AutoApprove,
		BlockList:   c.Approval.BlockList,
	}
	return ret.Clone()
}

// LoadConfig reads a YAML config from any afs URL on top of DefaultConfig.
// Storage options are passed to the download, e.g. an embed.FS for embed:// URLs.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	ret := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), ret); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// expandEnv replaces ${env.KEY} with the value of KEY. Malformed or
// unterminated expressions are kept literally.
func expandEnv(value string) string {
	const prefix = "${env."
	if !strings.Contains(value, prefix) {
		return value
	}
	b := strings.Builder{}
	for {
		start := strings.Index(value, prefix)
		if start < 0 {
			b.WriteString(value)
			return b.String()
		}
		b.WriteString(value[:start])
		rest := value[start+len(prefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString(value[start:])
			return b.String()
		}
		key := rest[:end]
		if !isEnvKey(key) {
			b.WriteString(prefix)
			value = rest
			continue
		}
		b.WriteString(os.Getenv(key))
		value = rest[end+1:]
	}
}

func isEnvKey(key string) bool {
	for _, r := range key {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
