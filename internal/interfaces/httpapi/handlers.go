package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
	"github.com/Victor-armando18/service-promotions/internal/infrastructure"
	"github.com/Victor-armando18/service-promotions/internal/interfaces"
)

type EvaluateRequest struct {
	Cart domain.Cart `json:"cart"`
	AsOf *time.Time  `json:"asOf,omitempty"`
}

// PatchEvaluationRequest evaluates Cart after applying the RFC 6902 Patch.
type PatchEvaluationRequest struct {
	Cart  domain.Cart     `json:"cart"`
	Patch json.RawMessage `json:"patch"`
	AsOf  *time.Time      `json:"asOf,omitempty"`
}

type BatchRequest struct {
	Carts []domain.Cart `json:"carts"`
	AsOf  *time.Time    `json:"asOf,omitempty"`
}

type BatchItem struct {
	CartID string                   `json:"cartId"`
	Result *engine.EvaluationResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

type BatchResponse struct {
	Results []BatchItem `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	svc interfaces.EvaluationFacade
}

func (h *handlers) evaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	res, err := h.svc.Evaluate(c.Request().Context(), req.Cart, asOf(req.AsOf))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *handlers) patchAndEvaluate(c echo.Context) error {
	var req PatchEvaluationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid patch request"})
	}
	cart, err := infrastructure.ApplyCartPatch(req.Cart, req.Patch)
	if err != nil {
		return fail(c, err)
	}
	res, err := h.svc.Evaluate(c.Request().Context(), cart, asOf(req.AsOf))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *handlers) evaluateBatch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	outcomes, err := h.svc.EvaluateBatch(c.Request().Context(), req.Carts, asOf(req.AsOf))
	if err != nil {
		return fail(c, err)
	}

	resp := BatchResponse{Results: make([]BatchItem, len(outcomes))}
	for i, o := range outcomes {
		item := BatchItem{CartID: o.CartID, Result: o.Result}
		if o.Err != nil {
			item.Error = o.Err.Error()
		}
		resp.Results[i] = item
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) currentRules(c echo.Context) error {
	pack := h.svc.CurrentPack()
	if pack == nil {
		return fail(c, interfaces.ErrNoRulesLoaded)
	}
	return c.JSON(http.StatusOK, pack)
}

func (h *handlers) patchRules(c echo.Context) error {
	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unreadable body"})
	}
	pack, err := h.svc.PatchRules(c.Request().Context(), patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pack)
}

func (h *handlers) reloadRules(c echo.Context) error {
	pack, err := h.svc.Reload(c.Request().Context(), c.QueryParam("version"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"version": pack.Version, "rules": len(pack.Rules)})
}

func asOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func fail(c echo.Context, err error) error {
	return c.JSON(statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCart):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRulePackNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrNoRulesLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, infrastructure.ErrInvalidPatch),
		errors.Is(err, domain.ErrInvalidRule),
		errors.Is(err, domain.ErrEffectComputation),
		errors.Is(err, domain.ErrDuplicateRuleID),
		errors.Is(err, domain.ErrEmptyRuleID):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
