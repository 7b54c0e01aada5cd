package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/model/types"
)

var (
	// ErrToolNotFound is returned for unregistered services.
	ErrToolNotFound = errors.New("tracker: tool not found")
	// ErrInsufficientLevel is returned when the context level is below the method minimum.
	ErrInsufficientLevel = errors.New("tracker: insufficient security level")
)

// PathInput is implemented by tool inputs that target a filesystem path.
type PathInput interface {
	TargetPath() string
}

// PathTarget is a PathInput that accepts the validated path. Call replaces
// the target with the resolved path so the tool opens what was checked.
type PathTarget interface {
	PathInput
	SetTargetPath(path string)
}

// CommandInput is implemented by tool inputs that carry a command line.
type CommandInput interface {
	CommandLine() string
}

// CommandAnalyzer classifies command lines before execution.
type CommandAnalyzer func(command string) model.RiskLevel

// Registry resolves tool methods and runs them through a Tracker.
type Registry struct {
	tracker  *Tracker
	analyzer CommandAnalyzer
	mu       sync.RWMutex
	services map[string]types.Service
}

// NewRegistry creates a registry bound to tracker.
func NewRegistry(tracker *Tracker, analyzer CommandAnalyzer) *Registry {
	return &Registry{tracker: tracker, analyzer: analyzer, services: map[string]types.Service{}}
}

// Register adds or replaces a service under its name.
func (r *Registry) Register(services ...types.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, svc := range services {
		r.services[svc.Name()] = svc
	}
}

// Names returns the registered service names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.services))
	for name := range r.services {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Lookup returns the service and signature for service.method.
func (r *Registry) Lookup(service, method string) (types.Service, *types.Signature, error) {
	r.mu.RLock()
	svc, ok := r.services[service]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrToolNotFound, service)
	}
	sig := svc.Methods().Lookup(method)
	if sig == nil {
		return nil, nil, types.NewMethodNotFoundError(service + "." + method)
	}
	return svc, sig, nil
}

// Call validates and executes service.method with input and output.
// Validation failures return before any side effect and are not recorded.
// A command input analyzed as critical escalates the context to dangerous.
func (r *Registry) Call(ctx context.Context, tc ToolContext, service, method string, input, output interface{}, checks SecurityChecks) (*Result[interface{}], error) {
	svc, sig, err := r.Lookup(service, method)
	if err != nil {
		return nil, err
	}
	required := model.MaxSecurity(sig.SecurityLevel, model.SecuritySafe)
	if tc.SecurityLevel.Rank() < required.Rank() {
		return nil, fmt.Errorf("%w: %s.%s requires %s, context is %s", ErrInsufficientLevel, service, method, required, tc.SecurityLevel)
	}
	if sig.TouchesPath {
		if in, ok := input.(PathInput); ok {
			validation := r.tracker.ValidatePath(in.TargetPath())
			if !validation.Valid {
				return nil, validation.Error
			}
			if target, ok := in.(PathTarget); ok {
				target.SetTargetPath(validation.SafePath)
			}
			checks.PathValidated = true
		}
	}
	if in, ok := input.(CommandInput); ok && r.analyzer != nil {
		checks.CommandAnalyzed = true
		if r.analyzer(in.CommandLine()) == model.RiskCritical {
			tc = tc.Escalate(model.SecurityDangerous)
		}
	}
	exec, err := svc.Method(method)
	if err != nil {
		return nil, err
	}
	return Execute(ctx, r.tracker, service+"."+method, func(ctx context.Context) (interface{}, error) {
		if err := exec(ctx, input, output); err != nil {
			return nil, err
		}
		return output, nil
	}, tc, checks)
}
