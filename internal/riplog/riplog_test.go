package riplog

import (
	"sort"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNilNotifierDiscardsEverything(t *testing.T) {
	var n Notifier = Nil{}
	n.Info("recv", map[string]any{"event": "x"})
	n.Warn("recv", map[string]any{"event": "x"})
	n.Error("recv", map[string]any{"event": "x"})
}

func TestFlattenPairsEveryKeyWithItsValue(t *testing.T) {
	fields := map[string]any{"a": 1, "b": "two"}
	flat := flatten(fields)
	assert.Equal(t, len(flat), 4)

	var keys []string
	for i := 0; i < len(flat); i += 2 {
		keys = append(keys, flat[i].(string))
	}
	sort.Strings(keys)
	assert.DeepEqual(t, keys, []string{"a", "b"})
}
