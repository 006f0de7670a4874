package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryMapEncoder_StringMap(t *testing.T) {
	out, err := (QueryMapEncoder{}).Encode(map[string]string{
		"name":  "espresso",
		"empty": "",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"espresso"}, out["name"])
	assert.NotContains(t, out, "empty")
}

func TestQueryMapEncoder_AnyMapWithSlices(t *testing.T) {
	out, err := (QueryMapEncoder{}).Encode(map[string]any{
		"limit": 100,
		"tags":  []string{"a", "b"},
		"skip":  nil,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"100"}, out["limit"])
	assert.Equal(t, []string{"a", "b"}, out["tags"])
	assert.NotContains(t, out, "skip")
}

func TestQueryMapEncoder_Struct(t *testing.T) {
	created := time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC)
	type filters struct {
		Name         string    `url:"name"`
		Limit        int       `json:"limit"`
		Active       bool      `url:"active"`
		CreatedAfter time.Time `url:"created_after"`
		Internal     string    `url:"-"`
		Plain        string
	}

	out, err := (QueryMapEncoder{}).Encode(filters{
		Name:         "espresso",
		Limit:        100,
		Active:       true,
		CreatedAfter: created,
		Internal:     "hidden",
		Plain:        "visible",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"espresso"}, out["name"])
	assert.Equal(t, []string{"100"}, out["limit"])
	assert.Equal(t, []string{"true"}, out["active"])
	assert.Equal(t, []string{"2026-02-12T10:00:00Z"}, out["created_after"])
	assert.Equal(t, []string{"visible"}, out["plain"])
	assert.NotContains(t, out, "-")
	assert.NotContains(t, out, "internal")
}

func TestQueryMapEncoder_SkipsZeroValues(t *testing.T) {
	type filters struct {
		Limit int    `url:"limit"`
		Name  string `url:"name"`
	}
	out, err := (QueryMapEncoder{}).Encode(filters{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestQueryMapEncoder_NilAndPointerInputs(t *testing.T) {
	out, err := (QueryMapEncoder{}).Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	m := map[string]string{"a": "1"}
	out, err = (QueryMapEncoder{}).Encode(&m)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, out["a"])
}

func TestQueryMapEncoder_RejectsNonStringKeys(t *testing.T) {
	_, err := (QueryMapEncoder{}).Encode(map[int]string{1: "a"})
	require.Error(t, err)
}

func TestQueryMapEncoder_RejectsScalars(t *testing.T) {
	_, err := (QueryMapEncoder{}).Encode(42)
	require.Error(t, err)
}
