// Package httpapi exposes the server over HTTP: a chi router, bearer-token
// and refresh-cookie middleware, JSON handlers, and SSE streaming for chat
// replies.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aleksvdm/gopherchat/internal/logging"
	"github.com/aleksvdm/gopherchat/internal/server/config"
	"github.com/aleksvdm/gopherchat/internal/server/services"
)

type Server struct {
	address       string
	logger        logging.Logger
	config        *config.Config
	auth          *services.AuthService
	users         *services.UserService
	conversations *services.ConversationService
	chats         *services.ChatService
	modelConfigs  *services.ModelConfigService
	attachments   *services.AttachmentService
}

func NewServer(l logging.Logger, cfg *config.Config,
	as *services.AuthService, us *services.UserService,
	cs *services.ConversationService, chs *services.ChatService,
	mcs *services.ModelConfigService, ats *services.AttachmentService) *Server {
	return &Server{
		address:       cfg.EndpointAddrHTTP,
		logger:        l.With("module", "http_server"),
		config:        cfg,
		auth:          as,
		users:         us,
		conversations: cs,
		chats:         chs,
		modelConfigs:  mcs,
		attachments:   ats,
	}
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "error shutting down HTTP server", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
