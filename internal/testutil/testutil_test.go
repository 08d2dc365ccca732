package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceIDGenerator(t *testing.T) {
	gen := NewSequenceIDGenerator("")

	assert.Equal(t, "exec-1", gen.Generate())
	assert.Equal(t, "exec-2", gen.Generate())
}

func TestFakeCursor_YieldsRowsInOrder(t *testing.T) {
	cur := NewFakeCursor(map[string]any{"id": 1}, nil, "x")

	var row any
	assert.True(t, cur.Next(&row))
	assert.Equal(t, map[string]any{"id": 1}, row)
	assert.True(t, cur.Next(&row))
	assert.Nil(t, row)
	assert.True(t, cur.Next(&row))
	assert.Equal(t, "x", row)
	assert.False(t, cur.Next(&row))
	assert.NoError(t, cur.Err())
}

func TestFakeCursor_FailsMidStream(t *testing.T) {
	boom := errors.New("boom")
	cur := &FakeCursor{Rows: []any{1, 2, 3}, Fail: boom, FailAfter: 2}

	var row any
	assert.True(t, cur.Next(&row))
	assert.True(t, cur.Next(&row))
	assert.False(t, cur.Next(&row))
	assert.Equal(t, boom, cur.Err())
}

func TestFakeCursor_Close(t *testing.T) {
	cur := NewFakeCursor(1)
	assert.NoError(t, cur.Close())

	var row any
	assert.False(t, cur.Next(&row))
	assert.True(t, cur.Closed())
}

func TestMockConn_CountsCloses(t *testing.T) {
	conn := NewMockConn(nil)
	assert.False(t, conn.Closed())

	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())

	assert.True(t, conn.Closed())
	assert.Equal(t, 2, conn.CloseCount())
	assert.True(t, conn.IsConnected())
}
