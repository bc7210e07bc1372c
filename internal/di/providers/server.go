package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/yamdb/yamdb-server/internal/api"
	"github.com/yamdb/yamdb-server/internal/config"
	"github.com/yamdb/yamdb-server/internal/logger"
	"github.com/yamdb/yamdb-server/internal/service"
)

// Version is reported in the OpenAPI document. Overridden at link time.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideAPIServices collects the services the HTTP handlers call.
func ProvideAPIServices(i do.Injector) (*api.Services, error) {
	return &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Users:      do.MustInvoke[*service.UserService](i),
		Categories: do.MustInvoke[*service.CategoryService](i),
		Genres:     do.MustInvoke[*service.GenreService](i),
		Titles:     do.MustInvoke[*service.TitleService](i),
		Reviews:    do.MustInvoke[*service.ReviewService](i),
		Comments:   do.MustInvoke[*service.CommentService](i),
		Search:     do.MustInvoke[*service.SearchService](i),
	}, nil
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	services := do.MustInvoke[*api.Services](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(storeHandle.Store, services, api.Options{
		Version:               Version,
		AllowedOrigins:        cfg.Server.AllowedOrigins,
		RequestsPerMinute:     cfg.Server.RequestsPerMinute,
		AuthRequestsPerMinute: cfg.Server.AuthRequestsPerMinute,
		AuthBurst:             cfg.Server.AuthBurst,
		DefaultPageSize:       cfg.API.DefaultPageSize,
		MaxPageSize:           cfg.API.MaxPageSize,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
