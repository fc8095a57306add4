package transport

import (
	"net/http"

	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/gin-gonic/gin"
)

type errorReply struct {
	status  int
	message string
}

// errorReplies is the only place pipeline failures are turned into responses.
var errorReplies = map[entity.ErrorKind]errorReply{
	entity.KindInputNotFound:     {http.StatusNotFound, "Input not found"},
	entity.KindUnsupportedFormat: {http.StatusUnsupportedMediaType, "Only supports image/png"},
	entity.KindInternal:          {http.StatusInternalServerError, "Internal server error"},
}

func replyFor(err error) errorReply {
	if r, ok := errorReplies[entity.KindOf(err)]; ok {
		return r
	}
	return errorReplies[entity.KindInternal]
}

func abortWithError(c *gin.Context, err error) {
	r := replyFor(err)
	c.AbortWithStatusJSON(r.status, entity.ErrorResponse{Error: r.message})
}
