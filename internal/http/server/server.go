package server

import (
	"context"
	"net/http"

	"github.com/AlexMickh/speak-messenger/internal/config"
	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/service"
	"github.com/AlexMickh/speak-messenger/pkg/logger"
	"github.com/gorilla/mux"
)

type Service interface {
	EnsureUser(ctx context.Context, identity *models.Identity) error
	GetCurrentUser(ctx context.Context, identity *models.Identity) (*models.User, error)
	ListOtherUsers(ctx context.Context, identity *models.Identity) ([]models.User, error)
	SetPresence(ctx context.Context, tokenIdentifier string, online bool) error
	UpdateProfile(ctx context.Context, identity *models.Identity, name, imageUrl string) error
	ReconcileDuplicates(ctx context.Context, identity *models.Identity) (int64, error)
	CreateOrGetConversation(
		ctx context.Context,
		identity *models.Identity,
		participantsId []string,
		isGroup bool,
		groupName string,
		groupImage string,
		adminId string,
	) (string, error)
	KickParticipant(ctx context.Context, identity *models.Identity, conversationId, userId string) error
	DeleteConversation(ctx context.Context, identity *models.Identity, conversationId string) (service.DeleteSummary, error)
	ListMemberUsers(ctx context.Context, identity *models.Identity, conversationId string) ([]models.User, error)
	MyConversations(ctx context.Context, identity *models.Identity) ([]models.ConversationView, error)
	SendMessage(
		ctx context.Context,
		identity *models.Identity,
		conversationId string,
		messageType models.MessageType,
		content string,
		fileName string,
	) (string, error)
	ListMessages(ctx context.Context, identity *models.Identity, conversationId string) ([]models.Message, error)
	RequestUploadTarget(ctx context.Context, identity *models.Identity) (models.UploadTarget, error)
}

type Server struct {
	srv     *http.Server
	service Service
}

func New(ctx context.Context, cfg config.ServerConfig, authCfg config.AuthConfig, service Service) *Server {
	s := &Server{
		service: service,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(logger.Middleware(ctx))
	api.Use(identityMiddleware([]byte(authCfg.JwtSecret)))

	api.HandleFunc("/users", s.ensureUser).Methods(http.MethodPost)
	api.HandleFunc("/users", s.listOtherUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/me", s.getCurrentUser).Methods(http.MethodGet)
	api.HandleFunc("/users/me", s.updateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/users/me/presence", s.setPresence).Methods(http.MethodPut)
	api.HandleFunc("/users/me/reconcile", s.reconcileDuplicates).Methods(http.MethodPost)

	api.HandleFunc("/conversations", s.createOrGetConversation).Methods(http.MethodPost)
	api.HandleFunc("/conversations", s.myConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}", s.deleteConversation).Methods(http.MethodDelete)
	api.HandleFunc("/conversations/{id}/kick", s.kickParticipant).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/members", s.listMemberUsers).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", s.sendMessage).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/messages", s.listMessages).Methods(http.MethodGet)

	api.HandleFunc("/uploads", s.requestUploadTarget).Methods(http.MethodPost)

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) Run() error {
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) GracefulStop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
