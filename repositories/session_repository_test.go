package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestHandleSessionError(t *testing.T) {
	assert.NoError(t, handleSessionError(nil))

	dup := &pq.Error{Code: "23505", Constraint: "fencing_sessions_pkey"}
	assert.ErrorIs(t, handleSessionError(dup), ErrSessionConflict)
	assert.ErrorIs(t, handleSessionError(fmt.Errorf("insert: %w", dup)), ErrSessionConflict)

	bad := &pq.Error{Code: "22P02", Message: "invalid input syntax for type json"}
	assert.ErrorIs(t, handleSessionError(bad), ErrSessionCorrupt)

	other := errors.New("connection reset")
	assert.Equal(t, other, handleSessionError(other))
}

func TestDecodeSession(t *testing.T) {
	s, err := decodeSession([]byte(`{"id":"abc","title":"Open","stage":"registration","max_score":15,"competitors":[{"id":1,"name":"A","rank":1}]}`))
	assert.NoError(t, err)
	assert.Equal(t, "abc", s.ID)
	assert.Len(t, s.Competitors, 1)
	assert.Equal(t, 1, s.Summary().CompetitorCount)

	_, err = decodeSession([]byte(`{`))
	assert.ErrorIs(t, err, ErrSessionCorrupt)
}
