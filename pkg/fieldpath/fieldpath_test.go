package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	bag := map[string]any{
		"name": "Alice Davies",
		"buyer_profile": map[string]any{
			"budget_max": 950000.0,
			"suburbs": map[string]any{
				"primary": "Northcote",
			},
		},
		"notes": nil,
	}

	tests := []struct {
		name     string
		path     string
		expected any
		found    bool
	}{
		{"top level", "name", "Alice Davies", true},
		{"nested", "buyer_profile.budget_max", 950000.0, true},
		{"deeply nested", "buyer_profile.suburbs.primary", "Northcote", true},
		{"nil leaf resolves", "notes", nil, true},
		{"missing top level", "phone", nil, false},
		{"missing nested", "buyer_profile.budget_min", nil, false},
		{"path through scalar", "name.first", nil, false},
		{"path through nil", "notes.body", nil, false},
		{"empty path", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, found := Resolve(bag, tt.path)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestResolve_IntermediateMapIsValue(t *testing.T) {
	bag := map[string]any{
		"buyer_profile": map[string]any{"budget_max": 1},
	}

	value, found := Resolve(bag, "buyer_profile")
	assert.True(t, found)
	assert.Equal(t, map[string]any{"budget_max": 1}, value)
}
