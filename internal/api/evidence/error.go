package evidence

import (
	"HomeGuardGolang/pkg/response"
	"net/http"
)

var (
	ErrEvidenceNotFound = response.NewError(http.StatusNotFound, "evidence not found")
	ErrStoreFull        = response.NewError(http.StatusConflict, "evidence store full for scan")
	ErrBlobUnavailable  = response.NewError(http.StatusInternalServerError, "evidence image unavailable")
)
