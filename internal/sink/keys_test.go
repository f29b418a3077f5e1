package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKeySet(t *testing.T) {
	tests := []struct {
		name   string
		fields string
		want   []string
	}{
		{name: "single", fields: "id", want: []string{"id"}},
		{name: "multiple keeps order", fields: "region,id", want: []string{"region", "id"}},
		{name: "duplicates collapse", fields: "id,region,id", want: []string{"id", "region"}},
		{name: "no trimming", fields: "id, region", want: []string{"id", " region"}},
		{name: "empty segments dropped", fields: "id,,region,", want: []string{"id", "region"}},
		{name: "only separators", fields: ",,", want: []string{}},
		{name: "empty", fields: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := ParseKeySet(tt.fields)
			assert.Equal(t, tt.want, keys.Names())
			assert.Equal(t, len(tt.want), keys.Len())
			assert.Equal(t, len(tt.want) == 0, keys.IsEmpty())
		})
	}
}

func TestKeySet_Contains(t *testing.T) {
	keys := ParseKeySet("id,region")

	assert.True(t, keys.Contains("id"))
	assert.True(t, keys.Contains("region"))
	assert.False(t, keys.Contains("name"))
	assert.Equal(t, "id,region", keys.String())
}

func TestKeySet_NamesIsCopy(t *testing.T) {
	keys := ParseKeySet("id")
	names := keys.Names()
	names[0] = "changed"

	assert.Equal(t, []string{"id"}, keys.Names())
}
