package transport

import (
	"net/http"

	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/gin-gonic/gin"
)

// diffBody keeps missing fields apart from empty ones: a missing field is a
// bad request, an empty url is just one more url that cannot be fetched.
type diffBody struct {
	BeforePNG *string `json:"before_png"`
	AfterPNG  *string `json:"after_png"`
}

func (h *DiffHandler) CreateDiff(c *gin.Context) {
	var body diffBody
	if err := c.ShouldBindJSON(&body); err != nil || body.BeforePNG == nil || body.AfterPNG == nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request"})
		return
	}

	res, err := h.service.Diff(c.Request.Context(), entity.DiffRequest{
		BeforePNG: *body.BeforePNG,
		AfterPNG:  *body.AfterPNG,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
