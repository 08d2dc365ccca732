package result

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/testutil"
)

func TestFromValue_SingleDocument(t *testing.T) {
	doc := map[string]any{"id": 1, "name": "A"}

	got := FromValue(doc)

	require.Len(t, got, 1)
	assert.Equal(t, Document(doc), got[0])
}

func TestFromValue_Array(t *testing.T) {
	got := FromValue([]any{
		map[string]any{"id": 1},
		map[string]any{"id": 2},
		"authors",
	})

	assert.Equal(t, QueryResult{
		{"id": 1},
		{"id": 2},
		{"value": "authors"},
	}, got)
}

func TestFromValue_Scalar(t *testing.T) {
	assert.Equal(t, QueryResult{{"value": float64(2)}}, FromValue(float64(2)))
	assert.Equal(t, QueryResult{{"value": true}}, FromValue(true))
}

func TestFromValue_Nil(t *testing.T) {
	got := FromValue(nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalize_PreservesStreamOrder(t *testing.T) {
	cur := testutil.NewFakeCursor(
		map[string]any{"id": 1, "name": "A"},
		map[string]any{"id": 2, "name": "B"},
	)

	got, err := Normalize(context.Background(), cur)

	require.NoError(t, err)
	assert.Equal(t, QueryResult{
		{"id": 1, "name": "A"},
		{"id": 2, "name": "B"},
	}, got)
}

func TestNormalize_EmptyStream(t *testing.T) {
	got, err := Normalize(context.Background(), testutil.NewFakeCursor())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalize_ScalarAtom(t *testing.T) {
	got, err := Normalize(context.Background(), testutil.NewFakeCursor(float64(7)))

	require.NoError(t, err)
	assert.Equal(t, QueryResult{{"value": float64(7)}}, got)
}

func TestNormalize_ArrayAtom(t *testing.T) {
	got, err := Normalize(context.Background(), testutil.NewFakeCursor([]any{"a", "b"}))

	require.NoError(t, err)
	assert.Equal(t, QueryResult{{"value": "a"}, {"value": "b"}}, got)
}

func TestNormalize_NullAtom(t *testing.T) {
	got, err := Normalize(context.Background(), testutil.NewFakeCursor(nil))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalize_StreamInterrupted(t *testing.T) {
	cur := &testutil.FakeCursor{
		Rows:      []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
		Fail:      errors.New("rethinkdb: connection reset"),
		FailAfter: 1,
	}

	got, err := Normalize(context.Background(), cur)

	assert.Nil(t, got, "no partial result")
	require.Error(t, err)
	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, failure.KindStreamInterrupted, fe.Kind)
	assert.Contains(t, fe.Message, "connection reset")
}

func TestNormalize_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := Normalize(ctx, testutil.NewFakeCursor(map[string]any{"id": 1}))

	assert.Nil(t, got)
	assert.Equal(t, failure.KindTimeout, failure.KindOf(err))
	assert.Contains(t, err.Error(), "cancelled")
}

func TestCanonical(t *testing.T) {
	q := QueryResult{{"name": "A", "id": float64(1)}}

	out, err := Canonical(q)

	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"name":"A"}]`, string(out))
}

func TestCanonical_Empty(t *testing.T) {
	out, err := Canonical(QueryResult{})

	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))
}

func TestHash_StableAcrossNumberTypes(t *testing.T) {
	a, err := Hash(QueryResult{{"id": 1}})
	require.NoError(t, err)
	b, err := Hash(QueryResult{{"id": float64(1)}})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
