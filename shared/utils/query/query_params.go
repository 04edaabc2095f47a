package query

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListParams carries offset/limit pagination for list endpoints.
type ListParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParseListParams extracts limit/offset from the query string with the
// defaults the mobile client expects.
func ParseListParams(c *gin.Context) ListParams {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return ListParams{Limit: limit, Offset: offset}
}

// Apply applies pagination to a GORM query.
func (p ListParams) Apply(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset).Limit(p.Limit)
}
