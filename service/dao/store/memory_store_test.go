package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/toolgate/service/dao"
)

type session struct {
	ID    string
	State string
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[string, session](func(v *session) string { return v.ID }).
		WithStateSelector(func(v *session) string { return v.State })

	assert.NoError(t, s.Save(ctx, &session{ID: "a", State: "pending"}))
	assert.NoError(t, s.Insert(ctx, &session{ID: "b", State: "running"}))
	assert.ErrorIs(t, s.Insert(ctx, &session{ID: "b"}), dao.ErrExists)
	assert.ErrorIs(t, s.Save(ctx, nil), dao.ErrNilEntity)

	loaded, err := s.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, "pending", loaded.State)
	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	running, err := s.List(ctx, dao.WithState("running"))
	assert.NoError(t, err)
	assert.Len(t, running, 1)
	all, err := s.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	assert.NoError(t, s.Delete(ctx, "a"))
	assert.Equal(t, 1, s.Len())
}
