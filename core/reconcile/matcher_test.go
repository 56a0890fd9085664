package reconcile

import (
	"context"
	"fmt"
	"testing"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idMapping = []ColumnMapping{{File1Column: "id", File2Column: "id", IsExactMatch: true}}

func TestMatcher_ExactMatch(t *testing.T) {
	data1 := []*record.Row{rowOf("id", "1", "amt", "10")}
	data2 := []*record.Row{rowOf("id", "1", "amt", "10")}

	res, err := NewMatcher(0, nil).CompareArrays(context.Background(), data1, data2, idMapping)
	require.NoError(t, err)

	require.Len(t, res.Matched, 1)
	assert.Same(t, data1[0], res.Matched[0].File1)
	assert.Same(t, data2[0], res.Matched[0].File2)
	assert.Empty(t, res.InFile1Only)
	assert.Empty(t, res.InFile2Only)
}

func TestMatcher_UnmatchedRemainder(t *testing.T) {
	data1 := []*record.Row{rowOf("id", "1")}
	data2 := []*record.Row{rowOf("id", "1"), rowOf("id", "2")}

	res, err := NewMatcher(0, nil).CompareArrays(context.Background(), data1, data2, idMapping)
	require.NoError(t, err)

	assert.Len(t, res.Matched, 1)
	assert.Empty(t, res.InFile1Only)
	require.Len(t, res.InFile2Only, 1)
	assert.Equal(t, "2", res.InFile2Only[0].Value("id").String())
}

func TestMatcher_FIFOTieBreak(t *testing.T) {
	data1 := []*record.Row{rowOf("id", "k", "n", "a1"), rowOf("id", "k", "n", "a2")}
	data2 := []*record.Row{rowOf("id", "k", "n", "b1"), rowOf("id", "k", "n", "b2"), rowOf("id", "k", "n", "b3")}

	res, err := NewMatcher(0, nil).CompareArrays(context.Background(), data1, data2, idMapping)
	require.NoError(t, err)

	require.Len(t, res.Matched, 2)
	assert.Equal(t, "a1", res.Matched[0].File1.Value("n").String())
	assert.Equal(t, "b1", res.Matched[0].File2.Value("n").String())
	assert.Equal(t, "a2", res.Matched[1].File1.Value("n").String())
	assert.Equal(t, "b2", res.Matched[1].File2.Value("n").String())
	assert.Equal(t, []string{"b3"}, values(res.InFile2Only, "n"))
}

func TestMatcher_UnclaimedKeepOriginalOrder(t *testing.T) {
	data1 := []*record.Row{rowOf("id", "3"), rowOf("id", "9")}
	data2 := []*record.Row{rowOf("id", "5"), rowOf("id", "3"), rowOf("id", "1"), rowOf("id", "4")}

	res, err := NewMatcher(1, nil).CompareArrays(context.Background(), data1, data2, idMapping)
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "1", "4"}, values(res.InFile2Only, "id"))
	assert.Equal(t, []string{"9"}, values(res.InFile1Only, "id"))
}

func TestMatcher_Normalization(t *testing.T) {
	tests := []struct {
		name      string
		exact     bool
		wantMatch bool
	}{
		{name: "fuzzy mapping", exact: false, wantMatch: true},
		{name: "exact mapping", exact: true, wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mappings := []ColumnMapping{{File1Column: "A", File2Column: "B", IsExactMatch: tt.exact}}
			res, err := NewMatcher(0, nil).CompareArrays(context.Background(),
				[]*record.Row{rowOf("A", "Foo ")}, []*record.Row{rowOf("B", "foo")}, mappings)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, len(res.Matched) == 1)
		})
	}
}

func TestMatcher_EmptyKeysNeverMatch(t *testing.T) {
	data1 := []*record.Row{rowOf("id", nil, "x", "1"), rowOf("id", "")}
	data2 := []*record.Row{rowOf("id", nil, "x", "1"), rowOf("id", "")}

	res, err := NewMatcher(0, nil).CompareArrays(context.Background(), data1, data2, idMapping)
	require.NoError(t, err)

	assert.Empty(t, res.Matched)
	assert.Len(t, res.InFile1Only, 2)
	assert.Len(t, res.InFile2Only, 2)
}

func TestMatcher_EmptyInputs(t *testing.T) {
	rows := []*record.Row{rowOf("id", "1"), rowOf("id", "2")}

	t.Run("dataset 2 empty", func(t *testing.T) {
		res, err := NewMatcher(0, nil).CompareArrays(context.Background(), rows, nil, idMapping)
		require.NoError(t, err)
		assert.Empty(t, res.Matched)
		assert.Len(t, res.InFile1Only, 2)
		assert.Empty(t, res.InFile2Only)
	})

	t.Run("dataset 1 empty", func(t *testing.T) {
		res, err := NewMatcher(0, nil).CompareArrays(context.Background(), nil, rows, idMapping)
		require.NoError(t, err)
		assert.Empty(t, res.Matched)
		assert.Empty(t, res.InFile1Only)
		assert.Len(t, res.InFile2Only, 2)
	})
}

func TestMatcher_RejectsEmptyMappings(t *testing.T) {
	_, err := NewMatcher(0, nil).CompareArrays(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestMatcher_PartitionCompleteness(t *testing.T) {
	var data1, data2 []*record.Row
	for i := 0; i < 300; i++ {
		data1 = append(data1, rowOf("id", fmt.Sprintf("%d", i%120), "seq", i))
	}
	for i := 0; i < 200; i++ {
		data2 = append(data2, rowOf("id", fmt.Sprintf("%d", i%90+50), "seq", i))
	}

	res, err := NewMatcher(0, nil).CompareStreams(context.Background(), chunk.Seq(data1, 64), chunk.Seq(data2, 17), idMapping)
	require.NoError(t, err)

	assert.Equal(t, len(data1), len(res.Matched)+len(res.InFile1Only))
	assert.Equal(t, len(data2), len(res.Matched)+len(res.InFile2Only))

	claimed := make(map[*record.Row]bool)
	for _, p := range res.Matched {
		assert.False(t, claimed[p.File2], "dataset 2 row paired twice")
		claimed[p.File2] = true
		assert.Equal(t, p.File1.Value("id").String(), p.File2.Value("id").String())
	}
}

func TestMatcher_CompareStreamsErrors(t *testing.T) {
	boom := fmt.Errorf("stream failed")
	failing := func(yield func([]*record.Row, error) bool) {
		yield(nil, boom)
	}
	ok := chunk.Seq([]*record.Row{rowOf("id", "1")}, 1)

	t.Run("dataset 2 error", func(t *testing.T) {
		_, err := NewMatcher(0, nil).CompareStreams(context.Background(), ok, failing, idMapping)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("dataset 1 error", func(t *testing.T) {
		_, err := NewMatcher(0, nil).CompareStreams(context.Background(), failing, ok, idMapping)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewMatcher(0, nil).CompareStreams(ctx, ok, ok, idMapping)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
