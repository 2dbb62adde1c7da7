package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// ProfileHandler exposes the caller's profile endpoints.
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(profileService *services.ProfileService) (*ProfileHandler, error) {
	if profileService == nil {
		return nil, errors.New("profile handler: profile service is required")
	}
	return &ProfileHandler{profileService: profileService}, nil
}

// Get returns the caller's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profileService.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

type updateProfileRequest struct {
	FullName         *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	AvatarURL        *string `json:"avatar_url" validate:"omitempty,max=2048"`
	Phone            *string `json:"phone" validate:"omitempty,max=32"`
	EmergencyContact *string `json:"emergency_contact" validate:"omitempty,max=255"`
	BirthDate        *string `json:"birth_date" validate:"omitempty,dateonly"`
	ActiveBoxID      *string `json:"active_box_id" validate:"omitempty"`
}

// Update applies partial changes to the caller's profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updateProfileRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), currentUserID(c), services.UpdateProfileInput{
		FullName:         req.FullName,
		AvatarURL:        req.AvatarURL,
		Phone:            req.Phone,
		EmergencyContact: req.EmergencyContact,
		BirthDate:        req.BirthDate,
		ActiveBoxID:      req.ActiveBoxID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}
