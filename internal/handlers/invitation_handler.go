package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// InvitationHandler exposes the invitation workflow endpoints.
type InvitationHandler struct {
	invitationService *services.InvitationService
}

// NewInvitationHandler constructs an InvitationHandler.
func NewInvitationHandler(invitationService *services.InvitationService) (*InvitationHandler, error) {
	if invitationService == nil {
		return nil, errors.New("invitation handler: invitation service is required")
	}
	return &InvitationHandler{invitationService: invitationService}, nil
}

type createInvitationRequest struct {
	BoxID string `json:"box_id" validate:"required,uuid"`
	Email string `json:"email" validate:"required,email"`
}

// Create invites an email address into a box.
func (h *InvitationHandler) Create(c *gin.Context) {
	req, err := bindAndValidate[createInvitationRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.invitationService.Create(c.Request.Context(), currentUserID(c), req.BoxID, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// ListByBox returns the box's invitations.
func (h *InvitationHandler) ListByBox(c *gin.Context) {
	invitations, err := h.invitationService.ListByBox(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitations)
}

// ListMine returns the caller's pending invitations.
func (h *InvitationHandler) ListMine(c *gin.Context) {
	invitations, err := h.invitationService.ListMine(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitations)
}

// Accept joins the caller to the inviting box.
func (h *InvitationHandler) Accept(c *gin.Context) {
	result, err := h.invitationService.Accept(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Reject declines the invitation.
func (h *InvitationHandler) Reject(c *gin.Context) {
	if err := h.invitationService.Reject(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rejected": true})
}

// Revoke deletes a pending invitation.
func (h *InvitationHandler) Revoke(c *gin.Context) {
	if err := h.invitationService.Revoke(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// ValidateToken lets the setup form check a token before submitting.
// Unauthenticated, like CompleteSetup.
func (h *InvitationHandler) ValidateToken(c *gin.Context) {
	info, err := h.invitationService.ValidateSetupToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}

type completeSetupRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
}

// CompleteSetup finishes the invited-new-user flow. Unauthenticated: the
// setup token is the credential.
func (h *InvitationHandler) CompleteSetup(c *gin.Context) {
	req, err := bindAndValidate[completeSetupRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.invitationService.CompleteSetup(c.Request.Context(), req.Token, req.Password, req.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
