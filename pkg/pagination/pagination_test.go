package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLimitsNormalize(t *testing.T) {
	limits := Limits{Default: 10, Max: 50}
	require.Equal(t, 10, limits.Normalize(0))
	require.Equal(t, 10, limits.Normalize(-3))
	require.Equal(t, 7, limits.Normalize(7))
	require.Equal(t, 50, limits.Normalize(500))

	require.Equal(t, DefaultLimit, Limits{}.Normalize(0))
	require.Equal(t, MaxLimit, Limits{}.Normalize(MaxLimit+1))
	require.Equal(t, 5, Limits{Default: 20, Max: 5}.Normalize(0))
}

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	at := time.Date(2024, 9, 25, 0, 0, 0, 0, time.UTC)

	encoded := EncodeCursor(Cursor{At: at, ID: id})
	decoded, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.True(t, at.Equal(decoded.At))
	require.Equal(t, id, decoded.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	cursor, err := ParseCursor("")
	require.NoError(t, err)
	require.Nil(t, cursor)

	_, err = ParseCursor("!!!")
	require.Error(t, err)

	_, err = ParseCursor(base64.URLEncoding.EncodeToString([]byte("no-separator")))
	require.Error(t, err)
}
