package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/api"
	"github.com/booksapp/books-server/internal/config"
	"github.com/booksapp/books-server/internal/logger"
	"github.com/booksapp/books-server/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

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

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	services := &api.Services{
		Auth:    do.MustInvoke[*service.AuthService](i),
		Catalog: do.MustInvoke[*service.CatalogService](i),
		Store:   storeHandle.Store,
		Index:   indexHandle.Index,
	}

	handler, err := api.NewServer(services, api.Options{
		CookieName:         cfg.Session.CookieName,
		CookieSecure:       cfg.Session.CookieSecure,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		LoginRatePerMinute: cfg.Server.LoginRatePerMinute,
		TrustedProxies:     cfg.Server.TrustedProxies,
	}, log.Component("http"))
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
