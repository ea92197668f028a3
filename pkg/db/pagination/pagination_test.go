package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{After: "150404"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "150404", cursor.After)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)

	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, cursor.After)
}

func TestBuildCursorPageInfo(t *testing.T) {
	rows := []string{"1", "2", "3"}

	page, info := BuildCursorPageInfo(rows, 2, func(v string) string { return v })
	assert.Equal(t, []string{"1", "2"}, page)
	assert.True(t, info.HasMore)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "2", cursor.After)

	page, info = BuildCursorPageInfo(rows, 5, func(v string) string { return v })
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Normalize().PageSize)
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Normalize().PageSize)
	assert.Equal(t, 7, Pagination{PageSize: 7}.Normalize().PageSize)
}
