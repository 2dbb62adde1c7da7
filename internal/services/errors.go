package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

// Business-rule errors carrying machine-readable codes so clients can branch
// on the violated rule.
var (
	ErrAlreadyMember = apperrors.NewBusiness("ALREADY_MEMBER",
		"User is already an active member of this box")
	ErrPendingInvitation = apperrors.NewBusiness("PENDING_INVITATION",
		"User already has a pending invitation for this box")
	ErrInvitationNotPending = apperrors.NewBusiness("INVITATION_NOT_PENDING",
		"Invitation is not pending")
	ErrInvitationNotLinked = apperrors.NewBusiness("INVITATION_NOT_LINKED",
		"Invitation is not linked to a user account")
	ErrUnauthorizedAccept = apperrors.NewBusiness("UNAUTHORIZED_ACCEPT",
		"Invitation belongs to a different user")
	ErrInvitationNotFound = apperrors.New("INVITATION_NOT_FOUND",
		"Invitation not found", http.StatusNotFound)

	ErrClassCancelled = apperrors.NewBusiness("CLASS_CANCELLED",
		"The class has been cancelled")
	ErrClassFull = apperrors.NewBusiness("CLASS_FULL",
		"The class has reached its maximum capacity")
	ErrMembershipInactive = apperrors.NewBusiness("MEMBERSHIP_INACTIVE",
		"Membership for this box is missing or inactive")

	ErrNotMonday = apperrors.NewBusiness("NOT_MONDAY",
		"The provided date must be a Monday")
	ErrEmptyWeek = apperrors.NewBusiness("EMPTY_WEEK",
		"No schedules found in that week to import")

	ErrEmailTaken = apperrors.NewBusiness("EMAIL_TAKEN",
		"An account already exists for this email")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}
