package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/takerupon/lp-generator/internal/core/service"
	"github.com/takerupon/lp-generator/internal/core/storage"
	"github.com/takerupon/lp-generator/internal/server/api/handlers"
)

type RouterConfig struct {
	Svc  *service.Service
	Data *storage.Local
}

func SetupRouter(e *echo.Echo, cfg RouterConfig) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
	}))
	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	group := e.Group("/api")
	config := huma.DefaultConfig("LP Generator API", "1.0.0")
	config.Servers = []*huma.Server{{URL: "/api"}}
	config.Info.Description = "Asynchronous landing-page generation pipeline"

	api := humaecho.NewWithGroup(e, group, config)

	jobsHandler := handlers.NewJobsHandler(cfg.Svc)
	huma.Register(api, huma.Operation{
		OperationID: "generate-lp",
		Method:      http.MethodPost,
		Path:        "/generate",
		Summary:     "Create a landing-page generation job",
		Tags:        []string{"Jobs"},
	}, jobsHandler.Generate)

	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "List jobs, newest first",
		Tags:        []string{"Jobs"},
	}, jobsHandler.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-job",
		Method:      http.MethodGet,
		Path:        "/jobs/{id}",
		Summary:     "Get job status",
		Tags:        []string{"Jobs"},
	}, jobsHandler.Get)

	huma.Register(api, huma.Operation{
		OperationID: "retry-job",
		Method:      http.MethodPost,
		Path:        "/jobs/{id}/retry",
		Summary:     "Retry a job from its original brief",
		Tags:        []string{"Jobs"},
	}, jobsHandler.Retry)

	// Binary archive stream lives outside huma (see DownloadHandler).
	downloadHandler := handlers.NewDownloadHandler(cfg.Svc, cfg.Data)
	e.GET("/api/jobs/:id/download", downloadHandler.Download)
}
