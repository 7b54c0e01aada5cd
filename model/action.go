package model

// ActionType identifies the kind of side effect an action performs.
type ActionType string

const (
	ActionFileCreate     ActionType = "file_create"
	ActionFileModify     ActionType = "file_modify"
	ActionFileDelete     ActionType = "file_delete"
	ActionCommandExecute ActionType = "command_execute"
	ActionPackageInstall ActionType = "package_install"
	ActionNetworkRequest ActionType = "network_request"
)

// IsValid reports whether t is a known action type.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionFileCreate, ActionFileModify, ActionFileDelete, ActionCommandExecute, ActionPackageInstall, ActionNetworkRequest:
		return true
	}
	return false
}

// IsFile reports whether t mutates the filesystem.
func (t ActionType) IsFile() bool {
	switch t {
	case ActionFileCreate, ActionFileModify, ActionFileDelete:
		return true
	}
	return false
}

// IsCommand reports whether t spawns a process.
func (t ActionType) IsCommand() bool {
	return t == ActionCommandExecute
}

// Action is a single declared side effect of an approval request.
type Action struct {
	Type        ActionType             `json:"type" yaml:"type"`
	Description string                 `json:"description" yaml:"description"`
	Details     map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	RiskLevel   RiskLevel              `json:"riskLevel" yaml:"riskLevel"`
}
