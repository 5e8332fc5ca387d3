package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeOptionSet(t *testing.T) {
	tests := []struct {
		name     string
		correct  []uint
		selected []uint
		want     bool
	}{
		{"exact match", []uint{1, 2}, []uint{1, 2}, true},
		{"order does not matter", []uint{1, 2, 3}, []uint{3, 1, 2}, true},
		{"missing option", []uint{1, 2}, []uint{1}, false},
		{"extra option", []uint{1, 2}, []uint{1, 2, 3}, false},
		{"disjoint", []uint{1, 2}, []uint{3, 4}, false},
		{"duplicate selection", []uint{1, 2}, []uint{1, 1}, false},
		{"single option", []uint{7}, []uint{7}, true},
		{"empty selection", []uint{1}, nil, false},
		{"no correct options", nil, []uint{1}, false},
		{"both empty", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GradeOptionSet(tt.correct, tt.selected))
		})
	}
}

func TestGradeExactAnswer(t *testing.T) {
	assert.True(t, GradeExactAnswer("a", "a"))
	assert.True(t, GradeExactAnswer("Paris", "Paris"))

	// Matching is exact: no case folding, no trimming.
	assert.False(t, GradeExactAnswer("Paris", "paris"))
	assert.False(t, GradeExactAnswer("a", " a"))
	assert.False(t, GradeExactAnswer("a", "b"))

	// A question with no stored answer can never be answered correctly.
	assert.False(t, GradeExactAnswer("", ""))
	assert.False(t, GradeExactAnswer("", "anything"))
}

func TestPointsEarned(t *testing.T) {
	assert.Equal(t, 3, PointsEarned(3, true))
	assert.Equal(t, 0, PointsEarned(3, false))
	assert.Equal(t, 0, PointsEarned(0, true))
}
