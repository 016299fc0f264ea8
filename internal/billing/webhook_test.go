package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier("whsec")
	payload := []byte(`{"type":"subscription.updated"}`)

	if !v.Verify(payload, sign("whsec", string(payload))) {
		t.Fatal("valid signature rejected")
	}
	if v.Verify(payload, sign("other", string(payload))) {
		t.Fatal("wrong-secret signature accepted")
	}
	if v.Verify(payload, "zz-not-hex") {
		t.Fatal("non-hex signature accepted")
	}
	if v.Verify(payload, "") {
		t.Fatal("empty signature accepted")
	}
}

func TestWebhookEnqueuesVerifiedPayload(t *testing.T) {
	queue := &stubEnqueuer{}
	h := NewWebhookHandler(slog.Default(), NewHMACVerifier("whsec"), queue)

	payload := `{"type":"subscription.updated","subscription":{"userId":"u1"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(payload))
	req.Header.Set(SignatureHeader, sign("whsec", payload))

	rr := httptest.NewRecorder()
	h.receive(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rr.Code)
	}
	if len(queue.tasks) != 1 {
		t.Fatalf("enqueued tasks = %d", len(queue.tasks))
	}
	if queue.tasks[0].Type() != TaskTypeWebhook {
		t.Fatalf("task type = %q", queue.tasks[0].Type())
	}
	if string(queue.tasks[0].Payload()) != payload {
		t.Fatal("payload altered in transit")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	queue := &stubEnqueuer{}
	h := NewWebhookHandler(slog.Default(), NewHMACVerifier("whsec"), queue)

	payload := `{"type":"subscription.updated"}`
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(payload))
	req.Header.Set(SignatureHeader, sign("wrong-secret", payload))

	rr := httptest.NewRecorder()
	h.receive(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if len(queue.tasks) != 0 {
		t.Fatal("unverified payload was enqueued")
	}
}
