package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	token, err := Encode(Cursor{UserID: 42, CreatedUnix: 1700000000000})
	require.NoError(t, err)

	c, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), c.UserID)
	assert.Equal(t, int64(1700000000000), c.CreatedUnix)
	assert.False(t, c.IsZero())
}

func TestDecode_EmptyIsFirstPage(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode("not base64 !!")
	assert.Error(t, err)

	_, err = Decode("bm90IGpzb24=") // "not json"
	assert.Error(t, err)
}
