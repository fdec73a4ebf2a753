package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbnb-backend/internal/platform/apierr"
)

func TestParse(t *testing.T) {
	p, err := Parse("", "", 12, 50)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Limit: 12}, p)
	assert.Equal(t, 0, p.Offset())

	p, err = Parse("3", "10", 12, 50)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Offset())

	for _, tc := range [][2]string{{"0", ""}, {"x", ""}, {"", "51"}, {"", "0"}} {
		_, err = Parse(tc[0], tc[1], 12, 50)
		assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument), tc)
	}
}

func TestParse_PageBounded(t *testing.T) {
	p, err := Parse("10000", "50", 12, 50)
	require.NoError(t, err)
	assert.Equal(t, 499950, p.Offset())

	for _, page := range []string{"10001", "9223372036854775807", "99999999999999999999"} {
		_, err = Parse(page, "50", 12, 50)
		var api *apierr.APIError
		require.ErrorAs(t, err, &api, page)
		require.Len(t, api.Fields, 1)
		assert.Equal(t, "page must be between 1 and 10000", api.Fields[0].Message)
	}
}

func TestInfo(t *testing.T) {
	p := Page{Number: 2, Limit: 12}
	info := p.Info(30, 12)
	assert.Equal(t, Info{CurrentPage: 2, TotalPages: 3, HasNext: true, HasPrev: true}, info)

	info = Page{Number: 3, Limit: 12}.Info(30, 6)
	assert.False(t, info.HasNext)

	info = Page{Number: 1, Limit: 12}.Info(0, 0)
	assert.Equal(t, 0, info.TotalPages)
	assert.False(t, info.HasNext)

	info = All.Info(7, 7)
	assert.Equal(t, 1, info.TotalPages)
	assert.False(t, info.HasNext)
}
