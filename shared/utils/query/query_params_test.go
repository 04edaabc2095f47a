package query

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseFrom(rawQuery string) ListParams {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return ParseListParams(c)
}

func TestParseListParams(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"explicit", "limit=10&offset=20", 10, 20},
		{"limit capped", "limit=500", 100, 0},
		{"limit floor", "limit=0", 1, 0},
		{"negative offset clamped", "offset=-5", 50, 0},
		{"garbage falls back", "limit=abc&offset=xyz", 1, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := parseFrom(tc.query)
			if params.Limit != tc.wantLimit {
				t.Errorf("limit: expected %d, got %d", tc.wantLimit, params.Limit)
			}
			if params.Offset != tc.wantOffset {
				t.Errorf("offset: expected %d, got %d", tc.wantOffset, params.Offset)
			}
		})
	}
}
