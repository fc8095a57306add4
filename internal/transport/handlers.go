package transport

import (
	"github.com/ds124wfegd/png-diff-server/internal/service"
)

type DiffHandler struct {
	service service.DiffService
}

func NewDiffHandler(service service.DiffService) *DiffHandler {
	return &DiffHandler{service: service}
}
