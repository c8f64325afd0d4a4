package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	clerkwebhook "github.com/localspot/localspot-backend/internal/webhooks/clerk"
	"github.com/localspot/localspot-backend/pkg/logger"
	"github.com/localspot/localspot-backend/pkg/metrics"
)

const (
	maxWebhookBodyBytes = 1 << 20
	replayMarkTTL       = 24 * time.Hour
)

type ClerkWebhookService interface {
	HandleEvent(ctx context.Context, event *clerkwebhook.Event) error
}

type ClerkVerifier interface {
	VerifyRequest(header http.Header, payload []byte) error
}

type ReplayGuard interface {
	SeenWebhookEvent(ctx context.Context, eventID string) (bool, error)
	MarkWebhookEvent(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// ClerkWebhook receives identity lifecycle events. The response contract is
// fixed by the delivery sender: 400 with a plain-text body for anything that
// fails verification, a JSON success flag otherwise.
func ClerkWebhook(svc ClerkWebhookService, verifier ClerkVerifier, guard ReplayGuard, webhookMetrics *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			webhookMetrics.IncRejected("body_read")
			http.Error(w, "Error occurred -- could not read body", http.StatusBadRequest)
			return
		}

		if err := verifier.VerifyRequest(r.Header, payload); err != nil {
			if errors.Is(err, clerkwebhook.ErrMissingHeaders) {
				webhookMetrics.IncRejected("missing_headers")
				http.Error(w, "Error occurred -- no svix headers", http.StatusBadRequest)
				return
			}
			webhookMetrics.IncRejected("bad_signature")
			if logg != nil {
				logg.Warn(ctx, "rejected webhook delivery with bad signature")
			}
			http.Error(w, "Error occurred", http.StatusBadRequest)
			return
		}

		// The signature already proved the sender; a body that then fails to
		// decode is a processing failure, answered like one so the provider
		// redelivers it.
		var event clerkwebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			webhookMetrics.IncFailed("undecodable")
			if logg != nil {
				logg.Error(ctx, "webhook payload decode failed", err)
			}
			writeWebhookFailure(w, err)
			return
		}
		webhookMetrics.IncReceived(event.Type)

		// Redelivery of an already-processed message is acknowledged without
		// re-running the handlers. Guard failures degrade to processing: the
		// handlers are idempotent anyway.
		deliveryID := r.Header.Get(clerkwebhook.HeaderID)
		if guard != nil && deliveryID != "" {
			seen, err := guard.SeenWebhookEvent(ctx, deliveryID)
			if err == nil && seen {
				writeWebhookSuccess(w)
				return
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			webhookMetrics.IncFailed(event.Type)
			if logg != nil {
				logg.Error(ctx, "webhook event processing failed", err)
			}
			writeWebhookFailure(w, err)
			return
		}

		// The delivery mark is recorded only once the event is applied, so a
		// failed delivery stays unmarked and the provider's redelivery runs
		// the handlers again.
		if guard != nil && deliveryID != "" {
			if _, err := guard.MarkWebhookEvent(ctx, deliveryID, replayMarkTTL); err != nil && logg != nil {
				logg.Warn(ctx, "failed to record webhook delivery mark")
			}
		}

		webhookMetrics.ObserveDuration(event.Type, time.Since(start))
		writeWebhookSuccess(w)
	}
}

func writeWebhookSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func writeWebhookFailure(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}
