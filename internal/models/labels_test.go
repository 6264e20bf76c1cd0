package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelFor(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{-1, ""},
		{-27, ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelFor(tt.index))
			if tt.index >= 0 {
				assert.Equal(t, tt.index, IndexForLabel(tt.want))
			}
		})
	}
}

func TestIndexForLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  int
	}{
		{"single letter", "C", 2},
		{"lowercase", "aa", 26},
		{"padded", " b ", 1},
		{"three letters", "AAA", 702},
		{"empty", "", -1},
		{"digit", "A1", -1},
		{"punctuation", "A.", -1},
		{"overflow", "ZZZZZZZ", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IndexForLabel(tt.label))
		})
	}
}

func TestLabelFor_RoundTrip(t *testing.T) {
	for i := 0; i < 2000; i++ {
		assert.Equal(t, i, IndexForLabel(LabelFor(i)), "index %d", i)
	}
}

func TestItem_OptionLabel(t *testing.T) {
	item := &Item{Options: []Option{
		{ID: "c", Position: 2},
		{ID: "a", Position: 0},
		{ID: "d", Position: 3},
		{ID: "b", Position: 1},
	}}
	for i := 4; i < 30; i++ {
		item.Options = append(item.Options, Option{ID: LabelFor(i), Position: i})
	}

	tests := []struct {
		id   string
		want string
	}{
		{"a", "A"},
		{"b", "B"},
		{"c", "C"},
		{"d", "D"},
		{"Z", "Z"},
		{"AA", "AA"},
		{"AD", "AD"},
		{"missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, item.OptionLabel(tt.id))
		})
	}

	assert.Equal(t, "c", item.Options[0].ID)
}

func TestAnswerKey(t *testing.T) {
	assert.Equal(t, "q1", AnswerKey("q1", "", ""))
	assert.Equal(t, "q1-a", AnswerKey("q1", "a", ""))
	assert.Equal(t, "q1-a-ii", AnswerKey("q1", "a", "ii"))
	assert.Equal(t, "q1", AnswerKey("q1", "", "ii"))
}
