package analytics

import (
	"HomeGuardGolang/pkg/response"
	"net/http"
)

var (
	ErrNoDefectsProvided = response.NewError(http.StatusBadRequest, "no defects provided")
)
