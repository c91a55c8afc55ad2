package models

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationKind_Valid(t *testing.T) {
	assert.True(t, OperationCreate.Valid())
	assert.True(t, OperationUpdate.Valid())
	assert.True(t, OperationDelete.Valid())
	assert.False(t, OperationKind("purge").Valid())
	assert.False(t, OperationKind("").Valid())
}

func TestCompareOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b Operation
		want int
	}{
		{
			name: "lower clock first",
			a:    Operation{LogicalClock: 1, OriginDeviceID: "z"},
			b:    Operation{LogicalClock: 2, OriginDeviceID: "a"},
			want: -1,
		},
		{
			name: "same clock, device id breaks tie",
			a:    Operation{LogicalClock: 5, OriginDeviceID: "device-b"},
			b:    Operation{LogicalClock: 5, OriginDeviceID: "device-a"},
			want: 1,
		},
		{
			name: "identical position, op id breaks tie",
			a:    Operation{OpID: "1", LogicalClock: 5, OriginDeviceID: "d"},
			b:    Operation{OpID: "2", LogicalClock: 5, OriginDeviceID: "d"},
			want: -1,
		},
		{
			name: "same operation",
			a:    Operation{OpID: "1", LogicalClock: 5, OriginDeviceID: "d"},
			b:    Operation{OpID: "1", LogicalClock: 5, OriginDeviceID: "d"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareOrder(tt.a, tt.b))
			assert.Equal(t, -tt.want, CompareOrder(tt.b, tt.a))
		})
	}
}

func TestOperation_Before_SortsDeterministically(t *testing.T) {
	ops := []Operation{
		{OpID: "c", LogicalClock: 3, OriginDeviceID: "a"},
		{OpID: "b", LogicalClock: 2, OriginDeviceID: "b"},
		{OpID: "a", LogicalClock: 2, OriginDeviceID: "a"},
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Before(ops[j]) })

	require.Len(t, ops, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{ops[0].OpID, ops[1].OpID, ops[2].OpID})
}

func TestEntryFilter_Match(t *testing.T) {
	now := time.Now()
	deleted := now
	live := MoodEntry{ID: "1", Emotion: "calm", Category: "work", UpdatedAt: now}
	tomb := MoodEntry{ID: "2", Emotion: "calm", Category: "work", UpdatedAt: now, DeletedAt: &deleted}
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	assert.True(t, EntryFilter{}.Match(live))
	assert.False(t, EntryFilter{}.Match(tomb))
	assert.True(t, EntryFilter{IncludeDeleted: true}.Match(tomb))
	assert.True(t, EntryFilter{Category: "work"}.Match(live))
	assert.False(t, EntryFilter{Category: "home"}.Match(live))
	assert.False(t, EntryFilter{Emotion: "angry"}.Match(live))
	assert.True(t, EntryFilter{Since: &earlier}.Match(live))
	assert.False(t, EntryFilter{Since: &later}.Match(live))
}
