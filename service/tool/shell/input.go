package shell

import "strings"

// Input lists the commands to run in one shell session.
type Input struct {
	Workdir      string   `json:"workdir,omitempty" description:"directory where commands start"`
	Commands     []string `json:"commands,omitempty" description:"commands to execute sequentially"`
	AbortOnError *bool    `json:"abortOnError,omitempty" description:"stop at the first non-zero exit status"`
}

// CommandLine returns the commands joined the way a shell would chain them.
func (i *Input) CommandLine() string {
	return strings.Join(i.Commands, " && ")
}

func (i *Input) abortOnError() bool {
	if i.AbortOnError == nil {
		return true
	}
	return *i.AbortOnError
}
