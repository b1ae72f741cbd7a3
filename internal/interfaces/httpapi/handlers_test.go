package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/interfaces"
	"github.com/Victor-armando18/service-promotions/internal/usecase"
)

type stubLoader struct{}

func (stubLoader) Load(_ context.Context, version string) (*domain.RulePack, error) {
	if version != "v1" && version != "" {
		return nil, domain.ErrRulePackNotFound
	}
	amount := decimal.NewFromInt(50)
	return &domain.RulePack{
		Version: "v1",
		Rules: []domain.RuleDefinition{
			{
				ID:            "big-basket",
				Combinability: "stackable",
				Condition:     &domain.ConditionSpec{Type: domain.ConditionMinSubtotal, Amount: &amount},
				Effect:        domain.EffectSpec{Kind: "percentage", Magnitude: decimal.NewFromInt(10)},
			},
			{
				ID:            "card-bonus",
				Combinability: "stackable",
				Priority:      5,
				Condition:     &domain.ConditionSpec{Type: domain.LanguageExpr, Expression: `cart.paymentMethod == "card"`},
				Effect:        domain.EffectSpec{Kind: "fixed_amount", Magnitude: decimal.NewFromInt(2)},
			},
		},
	}, nil
}

func (stubLoader) Versions(context.Context) ([]string, error) { return []string{"v1"}, nil }

func newTestServer(t *testing.T, load bool) *httptest.Server {
	t.Helper()
	svc := usecase.NewEvaluationService(stubLoader{}, interfaces.NewDefaultEngine(),
		usecase.WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	if load {
		_, err := svc.Reload(context.Background(), "v1")
		require.NoError(t, err)
	}
	srv := httptest.NewServer(NewServer(svc, nil))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

const cartJSON = `{"id": "C-1", "currency": "EUR", "paymentMethod": "card",
	"items": [{"productId": "SKU-A", "unitPrice": "30.00", "quantity": 2}]}`

func TestEvaluate(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := do(t, srv, http.MethodPost, "/evaluations", `{"cart": `+cartJSON+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "52", body["total"])
	assert.Equal(t, "8", body["discountTotal"])
	assert.Equal(t, "v1", body["rulesVersion"])
	assert.Equal(t, "2025-01-01T00:00:00Z", body["asOf"])
	assert.Len(t, body["applied"], 2)
}

func TestEvaluate_InvalidCart(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := do(t, srv, http.MethodPost, "/evaluations", `{"cart": {"id": "C-2", "items": []}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "currency")

	resp, _ = do(t, srv, http.MethodPost, "/evaluations", `{"cart": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEvaluate_NoRulesLoaded(t *testing.T) {
	srv := newTestServer(t, false)

	resp, _ := do(t, srv, http.MethodPost, "/evaluations", `{"cart": `+cartJSON+`}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/rules", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPatchEvaluation(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := do(t, srv, http.MethodPatch, "/evaluations", `{"cart": `+cartJSON+`,
		"patch": [{"op": "replace", "path": "/items/0/quantity", "value": 1},
		          {"op": "replace", "path": "/paymentMethod", "value": "cash"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "30", body["total"])

	resp, _ = do(t, srv, http.MethodPatch, "/evaluations", `{"cart": `+cartJSON+`,
		"patch": [{"op": "remove", "path": "/items/3"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEvaluateBatch(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := do(t, srv, http.MethodPost, "/evaluations/batch", `{"carts": [`+cartJSON+`, {"id": "BAD", "currency": "EUR",
		"items": [{"productId": "X", "unitPrice": "1", "quantity": 0}]}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "C-1", first["cartId"])
	assert.NotNil(t, first["result"])
	second := results[1].(map[string]any)
	assert.Equal(t, "BAD", second["cartId"])
	assert.Contains(t, second["error"], "quantity")
}

func TestRules(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := do(t, srv, http.MethodGet, "/rules", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "v1", body["version"])
	assert.Len(t, body["rules"], 2)

	resp, body = do(t, srv, http.MethodPatch, "/rules", `[{"op": "remove", "path": "/rules/1"}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["rules"], 1)

	resp, _ = do(t, srv, http.MethodPatch, "/rules", `[{"op": "remove", "path": "/rules/0/effect"}]`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/rules/reload?version=v1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["rules"])

	resp, _ = do(t, srv, http.MethodPost, "/rules/reload?version=v7", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
