package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/kristianfreeman/saas-starter/internal/platform/httpx"
)

// SignatureHeader carries the provider's HMAC over the raw webhook body.
const SignatureHeader = "X-Webhook-Signature"

const maxWebhookBody = 1 << 20

// Verifier checks a webhook payload against its signature header.
type Verifier interface {
	Verify(payload []byte, signature string) bool
}

// HMACVerifier verifies hex-encoded HMAC-SHA256 signatures with a shared
// secret.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier constructs an HMACVerifier.
func NewHMACVerifier(secret string) HMACVerifier {
	return HMACVerifier{secret: []byte(secret)}
}

// Verify reports whether signature matches the payload.
func (v HMACVerifier) Verify(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(mac.Sum(nil), expected)
}

// Enqueuer is the slice of asynq.Client the webhook receiver uses.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// WebhookTask builds the queued task carrying a verified webhook payload.
// Declared here so the receiver and the worker agree on the wire format.
func WebhookTask(payload []byte) *asynq.Task {
	return asynq.NewTask(TaskTypeWebhook, payload)
}

// TaskTypeWebhook is the queue task type for verified webhook payloads.
const TaskTypeWebhook = "billing:webhook"

// WebhookHandler accepts provider callbacks, verifies their signature, and
// hands the payload to the worker. Processing never happens on the request
// path.
type WebhookHandler struct {
	logger   *slog.Logger
	verifier Verifier
	queue    Enqueuer
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(logger *slog.Logger, verifier Verifier, queue Enqueuer) *WebhookHandler {
	return &WebhookHandler{logger: logger, verifier: verifier, queue: queue}
}

// MountRoutes registers the webhook endpoint on a public router group.
func (h *WebhookHandler) MountRoutes(r chi.Router) {
	r.Post("/billing/webhook", h.receive)
}

func (h *WebhookHandler) receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.RespondError(w, httpx.NewError(httpx.CodeInvalidInput, "unreadable webhook body"))
		return
	}
	if !h.verifier.Verify(payload, r.Header.Get(SignatureHeader)) {
		h.logger.Warn("webhook signature rejected", slog.Int("bytes", len(payload)))
		httpx.RespondError(w, httpx.NewError(httpx.CodeUnauthorized, "invalid webhook signature"))
		return
	}
	if _, err := h.queue.Enqueue(WebhookTask(payload)); err != nil {
		h.logger.Error("webhook enqueue", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"received": true})
}
