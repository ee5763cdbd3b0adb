package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionsScanValue(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := Completions{{StageID: 1, LessonID: 2, CompletedAt: at, Score: 80, XPEarned: 20}}

	raw, err := in.Value()
	require.NoError(t, err)

	var out Completions
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, in, out)

	var fromString Completions
	require.NoError(t, fromString.Scan(string(raw.([]byte))))
	assert.Equal(t, in, fromString)
}

func TestStringListNilAndEmpty(t *testing.T) {
	raw, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)

	var out StringList
	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
	require.NoError(t, out.Scan([]byte("")))
	assert.Nil(t, out)
	require.NoError(t, out.Scan(`["2024-01-01","2024-01-02"]`))
	assert.Equal(t, StringList{"2024-01-01", "2024-01-02"}, out)

	assert.Error(t, out.Scan(42))
}

func TestCompletionsRejectsMalformedJSON(t *testing.T) {
	var out Completions
	assert.Error(t, out.Scan([]byte(`{"stage_id":1}`)))
}
