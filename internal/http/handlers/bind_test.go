package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/AnubisArt/PVA-Model-Banky/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindTestRouter() *gin.Engine {
	r := gin.New()
	r.POST("/transfers", func(ctx *gin.Context) {
		var req handlers.TransferRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})
	return r
}

func TestBindJSONValidationErrors(t *testing.T) {
	r := bindTestRouter()

	w := doJSON(r, http.MethodPost, "/transfers", `{"sourceKind": "checking"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	if fieldErr, ok := found["amount"]; !ok || fieldErr.Rule != "required" {
		t.Fatalf("missing required error for amount: %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSONSyntaxError(t *testing.T) {
	r := bindTestRouter()

	w := doJSON(r, http.MethodPost, "/transfers", `{"sourceKind": `)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}

	if resp.Error.Details.JSON != "invalid_json_syntax" {
		t.Fatalf("unexpected details: %+v", resp.Error.Details)
	}
}

func TestBindJSONTypeMismatch(t *testing.T) {
	r := bindTestRouter()

	w := doJSON(r, http.MethodPost, "/transfers",
		`{"sourceKind": "checking", "destination": {"id": 2, "kind": "checking"}, "amount": "lots"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}

	if resp.Error.Details.JSON != "invalid_json_type" || resp.Error.Details.Field != "amount" {
		t.Fatalf("unexpected details: %+v", resp.Error.Details)
	}
}
