package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestJSONEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusCreated, map[string]any{"id": "u1"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["data"]; !ok {
		t.Fatal("missing data key")
	}
	if _, ok := body["meta"]; ok {
		t.Fatal("meta should be omitted without pagination")
	}
}

func TestJSONListIncludesMeta(t *testing.T) {
	rr := httptest.NewRecorder()
	JSONList(rr, http.StatusOK, []string{"a"}, Meta{Page: 2, Limit: 20, Total: 61, HasMore: true})

	var body struct {
		Meta *Meta `json:"meta"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Meta == nil || body.Meta.Page != 2 || !body.Meta.HasMore {
		t.Fatalf("meta = %+v", body.Meta)
	}
}

func TestRespondErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, NewError(CodeForbidden, "insufficient permissions"))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "FORBIDDEN" || body.Error.Message != "insufficient permissions" {
		t.Fatalf("error = %+v", body.Error)
	}
	if body.Error.Details != nil {
		t.Fatal("details should be omitted when empty")
	}
}

type decodeTarget struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func decodeRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeValid(t *testing.T) {
	v := validator.New()

	t.Run("valid body", func(t *testing.T) {
		var target decodeTarget
		err := DecodeValid(decodeRequest(`{"email":"a@example.com","password":"hunter22"}`), v, &target)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.Email != "a@example.com" {
			t.Fatalf("target = %+v", target)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		var target decodeTarget
		err := DecodeValid(decodeRequest(""), v, &target)
		apiErr := AsError(err)
		if apiErr.Code != CodeInvalidInput {
			t.Fatalf("code = %s", apiErr.Code)
		}
		if apiErr.Message != "request body required" {
			t.Fatalf("message = %q", apiErr.Message)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		var target decodeTarget
		err := DecodeValid(decodeRequest(`{"email":`), v, &target)
		if AsError(err).Code != CodeInvalidInput {
			t.Fatalf("code = %s", AsError(err).Code)
		}
	})

	t.Run("validation failure carries field details", func(t *testing.T) {
		var target decodeTarget
		err := DecodeValid(decodeRequest(`{"email":"not-an-email","password":"short"}`), v, &target)
		apiErr := AsError(err)
		if apiErr.Code != CodeValidationError {
			t.Fatalf("code = %s", apiErr.Code)
		}
		if apiErr.Details["email"] != "must be a valid email address" {
			t.Fatalf("email detail = %v", apiErr.Details["email"])
		}
		if apiErr.Details["password"] != "must be at least 8 characters" {
			t.Fatalf("password detail = %v", apiErr.Details["password"])
		}
	})
}
