package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/takerupon/lp-generator/internal/core/service"
	"github.com/takerupon/lp-generator/internal/core/storage"
)

// DownloadHandler streams a completed job's archive. It is a plain echo
// handler rather than a huma operation because the response is a binary
// file, not a typed JSON body; http.ServeContent also gives us Range
// support for free.
type DownloadHandler struct {
	svc  *service.Service
	data *storage.Local
}

func NewDownloadHandler(svc *service.Service, data *storage.Local) *DownloadHandler {
	return &DownloadHandler{svc: svc, data: data}
}

func (h *DownloadHandler) Download(c echo.Context) error {
	id := c.Param("id")

	path, filename, err := h.svc.Download(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotCompleted) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "job or archive not found")
	}

	f, meta, err := h.data.Open(path)
	if err != nil {
		log.Error().Err(err).Str("job_id", id).Msg("open archive")
		return echo.NewHTTPError(http.StatusNotFound, "archive not found")
	}
	defer func() { _ = f.Close() }()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/zip")
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))

	http.ServeContent(resp, c.Request(), filename, meta.ModTime, f)
	return nil
}
