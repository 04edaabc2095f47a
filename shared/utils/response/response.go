package response

import (
	"github.com/gin-gonic/gin"
)

// Pagination is the envelope's offset/limit page metadata.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// Envelope is the uniform API response shape:
// {success, message?, data?, pagination?}
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Success writes a success envelope with optional message and data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Data writes a 200 success envelope with data only.
func Data(c *gin.Context, data interface{}) {
	c.JSON(200, Envelope{
		Success: true,
		Data:    data,
	})
}

// Paginated writes a 200 success envelope with data and page metadata.
func Paginated(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(200, Envelope{
		Success:    true,
		Data:       data,
		Pagination: &pagination,
	})
}

// Error writes a failure envelope.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
	})
}

// NewPagination builds page metadata from totals.
func NewPagination(total int64, limit, offset int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	}
}
