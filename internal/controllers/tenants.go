package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stagepass/stagepass/internal/api/write"
	"github.com/stagepass/stagepass/internal/apierrors"
	"github.com/stagepass/stagepass/internal/cascade"
	"github.com/stagepass/stagepass/internal/manager"
	"github.com/stagepass/stagepass/internal/model"
)

// TenantController exposes the tenant registry and the Pro activation flow
// over HTTP.
type TenantController struct {
	tenants    *manager.TenantManager
	activation *manager.ActivationManager
}

// NewTenantController creates and returns a new TenantController.
func NewTenantController(tenants *manager.TenantManager, activation *manager.ActivationManager) *TenantController {
	return &TenantController{
		tenants:    tenants,
		activation: activation,
	}
}

type tenantResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	AppID          string     `json:"app_id"`
	IsPro          bool       `json:"is_pro"`
	ProActivatedAt *time.Time `json:"pro_activated_at,omitempty"`
	PrimaryDomain  *string    `json:"primary_domain,omitempty"`
	Status         string     `json:"status"`
}

func toTenantResponse(t *model.Tenant) tenantResponse {
	return tenantResponse{
		ID:             t.ID,
		UserID:         t.UserID,
		AppID:          t.AppID,
		IsPro:          t.IsPro,
		ProActivatedAt: t.ProActivatedAt,
		PrimaryDomain:  t.PrimaryDomain,
		Status:         string(t.Status),
	}
}

type createTenantRequest struct {
	UserID string `json:"user_id"`
}

// Create handles POST /v1/tenants: get-or-create the tenant of a user.
func (c *TenantController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTenantRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	if req.UserID == "" {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage("user_id is required"))
		return
	}

	tenant, err := c.tenants.GetOrCreate(ctx, req.UserID)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	write.Response(ctx, w, http.StatusOK, toTenantResponse(tenant))
}

// Get handles GET /v1/tenants/{id}.
func (c *TenantController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	tenant, found, err := c.tenants.GetByID(ctx, tenantID)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	if !found {
		write.ErrorResponse(ctx, w, apierrors.NotFoundErrorMessage("tenant not found"))
		return
	}

	write.Response(ctx, w, http.StatusOK, toTenantResponse(tenant))
}

type activationRequest struct {
	AppID *string `json:"app_id,omitempty"`
}

type activationResponse struct {
	Tenant  tenantResponse `json:"tenant"`
	Cascade cascade.Result `json:"cascade"`
}

// Activate handles POST /v1/tenants/{id}/activation. A partially failed
// cascade still answers 200; the per-table outcomes are in the body.
func (c *TenantController) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	req := activationRequest{}

	if r.Body != nil && r.ContentLength != 0 {
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
			return
		}
	}

	tenant, result, err := c.activation.ActivatePro(ctx, manager.ActivateProRequest{
		TenantID:    tenantID,
		CustomAppID: req.AppID,
	})
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	write.Response(ctx, w, http.StatusOK, activationResponse{
		Tenant:  toTenantResponse(tenant),
		Cascade: result,
	})
}

// RepairCascade handles POST /v1/tenants/{id}/cascade-repair.
func (c *TenantController) RepairCascade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	result, err := c.activation.RepairCascade(ctx, tenantID)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	write.Response(ctx, w, http.StatusOK, result)
}

type setDomainRequest struct {
	Domain *string `json:"domain"`
}

// SetDomain handles PUT /v1/tenants/{id}/domain. A null domain releases the
// tenant's claim.
func (c *TenantController) SetDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	var req setDomainRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	tenant, err := c.tenants.SetDomain(ctx, tenantID, req.Domain)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	write.Response(ctx, w, http.StatusOK, toTenantResponse(tenant))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PUT /v1/tenants/{id}/status.
func (c *TenantController) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	var req setStatusRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	tenant, err := c.tenants.SetStatus(ctx, tenantID, model.TenantStatus(req.Status))
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	write.Response(ctx, w, http.StatusOK, toTenantResponse(tenant))
}
