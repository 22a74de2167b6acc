package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/thestream/internal/middleware"
	"github.com/atinyakov/thestream/internal/models"
	"go.uber.org/zap"
)

// CredentialService defines the credential minting operations required by
// CredentialHandler.
type CredentialService interface {
	FeedCredentials(ctx context.Context, username string) (models.StreamCredentials, error)
	ChatCredentials(ctx context.Context, username string) (models.ChatCredentials, error)
}

// CredentialRecorder observes credential issuance. It is satisfied by
// *metrics.Collector.
type CredentialRecorder interface {
	RecordCredentials(product string, err error)
}

// CredentialHandler exchanges a bearer token for hosted platform credentials.
type CredentialHandler struct {
	CredentialService CredentialService
	// Metrics is optional.
	Metrics CredentialRecorder
	Log     *zap.Logger
}

// FeedCredentials handles POST /v1/stream-feed-credentials.
func (h *CredentialHandler) FeedCredentials(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserIDFromContext(r.Context())

	creds, err := h.CredentialService.FeedCredentials(r.Context(), user)
	h.record(models.ProductFeed, err)
	if err != nil {
		h.logger().Error("feed credentials failed", zap.String("user", user), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, creds)
}

// ChatCredentials handles POST /v1/stream-chat-credentials.
// A failure to register the user on the chat platform answers 502.
func (h *CredentialHandler) ChatCredentials(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserIDFromContext(r.Context())

	creds, err := h.CredentialService.ChatCredentials(r.Context(), user)
	h.record(models.ProductChat, err)
	if err != nil {
		h.logger().Error("chat credentials failed", zap.String("user", user), zap.Error(err))
		http.Error(w, "platform error", http.StatusBadGateway)
		return
	}

	writeJSON(w, creds)
}

func (h *CredentialHandler) record(product models.Product, err error) {
	if h.Metrics != nil {
		h.Metrics.RecordCredentials(string(product), err)
	}
}

func (h *CredentialHandler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}
