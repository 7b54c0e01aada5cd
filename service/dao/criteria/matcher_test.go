package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/toolgate/service/dao"
)

func TestFilterByState(t *testing.T) {
	testCases := []struct {
		name       string
		state      string
		parameters []*dao.Parameter
		expect     bool
	}{
		{name: "no parameters", state: "running", expect: true},
		{name: "single match", state: "running", parameters: []*dao.Parameter{dao.WithState("running")}, expect: true},
		{name: "single mismatch", state: "pending", parameters: []*dao.Parameter{dao.WithState("running")}, expect: false},
		{name: "any of", state: "failed", parameters: []*dao.Parameter{dao.WithState("completed", "failed")}, expect: true},
		{name: "other parameter ignored", state: "pending", parameters: []*dao.Parameter{dao.NewParameter("Owner", "bob")}, expect: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, FilterByState(tc.state, tc.parameters))
		})
	}
}
