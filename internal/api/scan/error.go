package scan

import (
	"HomeGuardGolang/pkg/response"
	"net/http"
)

var (
	ErrUnknownScan      = response.NewError(http.StatusNotFound, "scan not found")
	ErrScanNotComplete  = response.NewError(http.StatusBadRequest, "scan is still processing")
	ErrSessionTerminal  = response.NewError(http.StatusConflict, "scan has already finished")
	ErrMalformedInput   = response.NewError(http.StatusBadRequest, "malformed scan input")
	ErrUnsupportedMedia = response.NewError(http.StatusBadRequest, "unsupported media type")
	ErrFileTooLarge     = response.NewError(http.StatusBadRequest, "file too large")
	ErrNoFilesUploaded  = response.NewError(http.StatusBadRequest, "no files uploaded")
)
