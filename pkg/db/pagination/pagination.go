package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 250
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=25" validate:"gte=1,lte=250"`
}

// Cursor marks the last EGID returned on the previous page.
type Cursor struct {
	After string `json:"after,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"nextPageToken,omitempty"`
	HasMore       bool   `json:"hasMore"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return &Cursor{}, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, ErrInvalidPageToken
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, ErrInvalidPageToken
	}

	return &cursor, nil
}

// Normalize clamps the page size into the accepted range.
func (p Pagination) Normalize() Pagination {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	p.PageToken = strings.TrimSpace(p.PageToken)
	return p
}

// BuildCursorPageInfo trims the look-ahead row and derives the next token.
func BuildCursorPageInfo[T any](data []T, limit int, extractCursor func(T) string) ([]T, PageInfo) {
	if len(data) == 0 {
		return data, PageInfo{HasMore: false}
	}

	hasMore := false
	if len(data) > limit {
		hasMore = true
		data = data[:limit]
	}

	info := PageInfo{HasMore: hasMore}
	if hasMore {
		token, err := EncodeCursor(Cursor{After: extractCursor(data[len(data)-1])})
		if err == nil {
			info.NextPageToken = token
		}
	}

	return data, info
}
