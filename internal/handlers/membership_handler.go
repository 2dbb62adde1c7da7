package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// MembershipHandler exposes membership roster endpoints.
type MembershipHandler struct {
	membershipService *services.MembershipService
}

// NewMembershipHandler constructs a MembershipHandler.
func NewMembershipHandler(membershipService *services.MembershipService) (*MembershipHandler, error) {
	if membershipService == nil {
		return nil, errors.New("membership handler: membership service is required")
	}
	return &MembershipHandler{membershipService: membershipService}, nil
}

// ListMine returns the caller's memberships.
func (h *MembershipHandler) ListMine(c *gin.Context) {
	memberships, err := h.membershipService.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, memberships)
}

// ListForBox returns the box member roster page by page.
func (h *MembershipHandler) ListForBox(c *gin.Context) {
	page, limit := parsePagination(c)

	memberships, total, err := h.membershipService.ListForBox(
		c.Request.Context(), currentUserID(c), c.Param("id"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, memberships,
		response.NewMeta(page, limit, len(memberships), total))
}

type updateMembershipRequest struct {
	Role     *string `json:"role" validate:"omitempty,oneof=trainer athlete"`
	IsActive *bool   `json:"is_active"`
}

// Update changes a member's role or active flag.
func (h *MembershipHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updateMembershipRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	membership, err := h.membershipService.Update(
		c.Request.Context(), currentUserID(c), c.Param("id"),
		services.UpdateMembershipInput{Role: req.Role, IsActive: req.IsActive})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, membership)
}

// Remove deletes a membership.
func (h *MembershipHandler) Remove(c *gin.Context) {
	if err := h.membershipService.Remove(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
