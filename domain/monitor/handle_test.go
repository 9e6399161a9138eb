package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain", "alice", "alice", true},
		{"at prefix", "@Alice", "alice", true},
		{"double at", "@@alice", "alice", true},
		{"surrounding space", "  @Bob_42  ", "bob_42", true},
		{"upper case", "CAROL", "carol", true},
		{"empty", "", "", false},
		{"only at", "@", "", false},
		{"only whitespace", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeHandle(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHandles(t *testing.T) {
	got := ParseHandles("@Alice, bob", "carol\tdave", "ALICE")
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, got)
}

func TestParseHandles_Empty(t *testing.T) {
	assert.Empty(t, ParseHandles("", " , ", "@"))
}

func TestMergeHandles(t *testing.T) {
	merged := MergeHandles([]string{"alice", "bob"}, []string{"bob", "carol"})
	assert.Equal(t, []string{"alice", "bob", "carol"}, merged)
}

func TestMergeHandles_NoAdditions(t *testing.T) {
	existing := []string{"alice"}
	merged := MergeHandles(existing, nil)
	assert.Equal(t, existing, merged)
}
