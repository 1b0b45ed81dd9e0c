package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/stagepass/stagepass/internal/api/write"
	"github.com/stagepass/stagepass/internal/apierrors"
	"github.com/stagepass/stagepass/internal/manager"
	"github.com/stagepass/stagepass/internal/model"
)

// MembershipController exposes viewer-tenant memberships over HTTP.
type MembershipController struct {
	memberships *manager.MembershipManager
}

// NewMembershipController creates and returns a new MembershipController.
func NewMembershipController(memberships *manager.MembershipManager) *MembershipController {
	return &MembershipController{
		memberships: memberships,
	}
}

type membershipResponse struct {
	ID       string `json:"id"`
	ViewerID string `json:"viewer_id"`
	TenantID string `json:"tenant_id"`
	Source   string `json:"source"`
	Status   string `json:"status"`
}

func toMembershipResponse(m *model.TenantMembership) membershipResponse {
	return membershipResponse{
		ID:       m.ID,
		ViewerID: m.ViewerID,
		TenantID: m.TenantID,
		Source:   string(m.Source),
		Status:   string(m.Status),
	}
}

type createMembershipRequest struct {
	ViewerID string `json:"viewer_id"`
	TenantID string `json:"tenant_id"`
	Source   string `json:"source"`
}

// Create handles POST /v1/memberships: get-or-create the membership linking
// a viewer and a tenant.
func (c *MembershipController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createMembershipRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	if req.ViewerID == "" || req.TenantID == "" {
		write.ErrorResponse(ctx, w,
			apierrors.ValidationErrorMessage("viewer_id and tenant_id are required"))

		return
	}

	membership, err := c.memberships.GetOrCreate(ctx,
		req.ViewerID, req.TenantID, model.MembershipSource(req.Source))
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	write.Response(ctx, w, http.StatusOK, toMembershipResponse(membership))
}

type membershipListResponse struct {
	Memberships []membershipResponse `json:"memberships"`
	Total       int                  `json:"total"`
}

// ListByTenant handles GET /v1/tenants/{id}/memberships, newest first.
func (c *MembershipController) ListByTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	memberships, total, err := c.memberships.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	body := membershipListResponse{
		Memberships: make([]membershipResponse, 0, len(memberships)),
		Total:       total,
	}
	for _, m := range memberships {
		body.Memberships = append(body.Memberships, toMembershipResponse(m))
	}

	write.Response(ctx, w, http.StatusOK, body)
}

type setMembershipStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PUT /v1/memberships/{viewer}/{tenant}/status.
func (c *MembershipController) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := r.PathValue("viewer")
	tenantID := r.PathValue("tenant")

	var req setMembershipStatusRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	membership, err := c.memberships.SetStatus(ctx,
		viewerID, tenantID, model.MembershipStatus(req.Status))
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.TransformToAPIError(err))
		return
	}

	write.Response(ctx, w, http.StatusOK, toMembershipResponse(membership))
}
