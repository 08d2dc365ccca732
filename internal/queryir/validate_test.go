package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/ir"
)

func TestValidate_TableSelect(t *testing.T) {
	d := Descriptor{Database: "test", Chain: []Operation{Table{Name: "authors"}}}

	stage, err := Validate(d)

	require.NoError(t, err)
	assert.Equal(t, StageTable, stage)
	assert.True(t, stage.Streams())
}

func TestValidate_DatabaseOnly(t *testing.T) {
	stage, err := Validate(Descriptor{Database: "test"})

	require.NoError(t, err)
	assert.Equal(t, StageDatabase, stage)
}

func TestValidate_EmptyDatabase(t *testing.T) {
	_, err := Validate(Descriptor{Database: "  ", Chain: []Operation{Table{Name: "x"}}})

	require.Error(t, err)
	assert.Equal(t, failure.KindMalformedQuery, failure.KindOf(err))
}

func TestValidate_ReadChains(t *testing.T) {
	tests := []struct {
		name  string
		chain []Operation
		want  Stage
	}{
		{"filter", []Operation{Table{Name: "a"}, Filter{Predicate: ir.IRObject{"name": ir.IRString("A")}}}, StageSelection},
		{"get", []Operation{Table{Name: "a"}, Get{Key: ir.IRInt(1)}}, StageSingle},
		{"get then pluck", []Operation{Table{Name: "a"}, Get{Key: ir.IRInt(1)}, Pluck{Fields: []string{"name"}}}, StageObject},
		{"get_all limit", []Operation{Table{Name: "a"}, GetAll{Keys: []ir.IRValue{ir.IRInt(1)}}, Limit{N: 2}}, StageSelection},
		{"pluck then filter", []Operation{Table{Name: "a"}, Pluck{Fields: []string{"x"}}, Filter{Predicate: ir.IRObject{}}}, StageSequence},
		{"order skip count", []Operation{Table{Name: "a"}, OrderBy{Keys: []OrderKey{{Field: "n", Descending: true}}}, Skip{N: 1}, Count{}}, StageValue},
		{"table_list", []Operation{TableList{}}, StageValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, err := Validate(Descriptor{Database: "test", Chain: tt.chain})
			require.NoError(t, err)
			assert.Equal(t, tt.want, stage)
		})
	}
}

func TestValidate_WriteChains(t *testing.T) {
	chains := [][]Operation{
		{TableCreate{Name: "authors"}},
		{TableDrop{Name: "authors"}},
		{Table{Name: "a"}, Insert{Documents: ir.IRObject{"id": ir.IRInt(1)}}},
		{Table{Name: "a"}, Insert{Documents: ir.IRArray{ir.IRObject{}, ir.IRObject{}}, Conflict: "replace"}},
		{Table{Name: "a"}, Get{Key: ir.IRInt(1)}, Update{Patch: ir.IRObject{"n": ir.IRInt(2)}}},
		{Table{Name: "a"}, Filter{Predicate: ir.IRObject{}}, Delete{}},
		{Table{Name: "a"}, Replace{Document: ir.IRObject{"id": ir.IRInt(1)}}},
	}

	for _, chain := range chains {
		stage, err := Validate(Descriptor{Database: "test", Chain: chain})
		require.NoError(t, err, chain[len(chain)-1].Op())
		assert.Equal(t, StageValue, stage)
	}
}

func TestValidate_RejectsMisplacedOperations(t *testing.T) {
	tests := []struct {
		name    string
		chain   []Operation
		index   string
		message string
	}{
		{"insert on database", []Operation{Insert{Documents: ir.IRObject{}}}, "0", "insert() cannot be applied to a database"},
		{"insert on selection", []Operation{Table{Name: "a"}, Filter{Predicate: ir.IRObject{}}, Insert{Documents: ir.IRObject{}}}, "2", "selection"},
		{"after count", []Operation{Table{Name: "a"}, Count{}, Limit{N: 1}}, "2", "value"},
		{"table twice", []Operation{Table{Name: "a"}, Table{Name: "b"}}, "1", "table() cannot be applied to a table"},
		{"update read-only", []Operation{Table{Name: "a"}, Pluck{Fields: []string{"x"}}, Update{Patch: ir.IRObject{}}}, "2", "sequence"},
		{"get on selection", []Operation{Table{Name: "a"}, Limit{N: 1}, Get{Key: ir.IRInt(1)}}, "2", "selection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(Descriptor{Database: "test", Chain: tt.chain})
			require.Error(t, err)

			var fe *failure.Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, failure.KindUnsupportedOperation, fe.Kind)
			assert.Equal(t, tt.index, fe.Details["index"])
			assert.Contains(t, fe.Message, tt.message)
		})
	}
}

func TestValidate_RejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
	}{
		{"empty table name", Table{Name: ""}},
		{"negative limit", Limit{N: -1}},
		{"negative skip", Skip{N: -5}},
		{"empty pluck", Pluck{}},
		{"blank without field", Without{Fields: []string{" "}}},
		{"empty order_by", OrderBy{}},
		{"empty get_all", GetAll{}},
		{"nil get key", Get{}},
		{"nil filter", Filter{}},
		{"insert scalar", Insert{Documents: ir.IRString("x")}},
		{"insert empty array", Insert{Documents: ir.IRArray{}}},
		{"insert array of scalars", Insert{Documents: ir.IRArray{ir.IRInt(1)}}},
		{"insert bad conflict", Insert{Documents: ir.IRObject{}, Conflict: "merge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := []Operation{tt.op}
			if _, ok := tt.op.(Table); !ok {
				chain = []Operation{Table{Name: "a"}, tt.op}
			}
			_, err := Validate(Descriptor{Database: "test", Chain: chain})
			require.Error(t, err)
			assert.Equal(t, failure.KindUnsupportedOperation, failure.KindOf(err))
		})
	}
}

func TestValidate_NilOperation(t *testing.T) {
	_, err := Validate(Descriptor{Database: "test", Chain: []Operation{nil}})

	assert.Equal(t, failure.KindUnsupportedOperation, failure.KindOf(err))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "single document", StageSingle.String())
	assert.Equal(t, "Stage(99)", Stage(99).String())
}
