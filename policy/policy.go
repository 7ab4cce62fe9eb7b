// Package policy is the write boundary for every record the server persists.
// The rules here are the single source of truth: each validator is an explicit
// function evaluated before a write reaches the store, independent of whatever
// the calling handler believes it already checked.
package policy

import (
	"fmt"
	"regexp"
	"strings"

	"gitalong_server/models"
)

// AuthContext is the caller identity as established by the upstream auth
// layer. The server consumes it; it never issues or refreshes sessions.
type AuthContext struct {
	UserID        string
	EmailVerified bool
}

// Field shape bounds
const (
	MaxDisplayNameLen = 50
	MaxBioLen         = 500
	MaxTitleLen       = 100
	MaxBodyLen        = 500
	MaxTechStackSize  = 20
	MaxIdentifierLen  = 128
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@+-]*$`)
	avatarURLPattern  = regexp.MustCompile(`^https://[^\s]+$`)
)

// reservedNames may not be used as human-chosen handles or display names.
var reservedNames = map[string]struct{}{
	"admin":     {},
	"root":      {},
	"system":    {},
	"support":   {},
	"gitalong":  {},
	"moderator": {},
}

// ValidationError is a synchronous boundary rejection. It is never retried
// automatically; the caller fixes the request or gives up.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is a boundary rejection.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

func requireAuth(auth AuthContext) *ValidationError {
	if auth.UserID == "" {
		return invalid("auth", "caller is not authenticated")
	}
	return nil
}

func requireVerified(auth AuthContext) *ValidationError {
	if err := requireAuth(auth); err != nil {
		return err
	}
	if !auth.EmailVerified {
		return invalid("auth", "caller email is not verified")
	}
	return nil
}

func validIdentifier(field, value string) *ValidationError {
	if value == "" {
		return invalid(field, "must not be empty")
	}
	if len(value) > MaxIdentifierLen {
		return invalid(field, "exceeds max length")
	}
	if !identifierPattern.MatchString(value) {
		return invalid(field, "is not a well-formed identifier")
	}
	return nil
}

// ValidateSwipeCreate enforces the swipe write rules: the acting identity owns
// the swipe, self-swipes are rejected, and every enum field is a member of its
// enumeration. Swipes have no update or delete rule at all; once written they
// are immutable.
func ValidateSwipeCreate(auth AuthContext, swipe models.Swipe) error {
	if err := requireVerified(auth); err != nil {
		return err
	}
	if swipe.SwiperID != auth.UserID {
		return invalid("swiper_id", "must match the authenticated identity")
	}
	if err := validIdentifier("swiper_id", swipe.SwiperID); err != nil {
		return err
	}
	if err := validIdentifier("target_id", swipe.TargetID); err != nil {
		return err
	}
	if swipe.SwiperID == swipe.TargetID {
		return invalid("target_id", "must not equal swiper_id")
	}
	if swipe.Direction != models.DirectionLeft && swipe.Direction != models.DirectionRight {
		return invalid("direction", "must be left or right")
	}
	if swipe.TargetType != models.TargetTypeUser && swipe.TargetType != models.TargetTypeProject {
		return invalid("target_type", "must be user or project")
	}
	return nil
}

// ValidateMatchStatusUpdate enforces the restricted match mutation: the caller
// must be one of the two matched parties, the new status must be a member of
// the enumeration, and every identity/creation field must be bit-identical
// between the stored and the proposed version. Only status and the message
// bookkeeping fields may differ.
func ValidateMatchStatusUpdate(auth AuthContext, old, updated models.Match) error {
	if err := requireAuth(auth); err != nil {
		return err
	}
	if !old.HasParticipant(auth.UserID) {
		return invalid("auth", "caller is not a participant of this match")
	}
	switch updated.Status {
	case models.MatchStatusActive, models.MatchStatusArchived, models.MatchStatusBlocked:
	default:
		return invalid("status", "must be active, archived or blocked")
	}
	if updated.ID != old.ID {
		return invalid("id", "must not change")
	}
	if updated.ContributorID != old.ContributorID {
		return invalid("contributor_id", "must not change")
	}
	if updated.ProjectOwnerID != old.ProjectOwnerID {
		return invalid("project_owner_id", "must not change")
	}
	if updated.ProjectID != old.ProjectID {
		return invalid("project_id", "must not change")
	}
	if updated.CreatedAt != old.CreatedAt {
		return invalid("created_at", "must not change")
	}
	return nil
}

// ValidateProfileWrite enforces ownership and field shape on profile writes.
func ValidateProfileWrite(auth AuthContext, profile models.UserProfile) error {
	if err := requireVerified(auth); err != nil {
		return err
	}
	if profile.UserID != auth.UserID {
		return invalid("userId", "must match the authenticated identity")
	}
	if err := validIdentifier("userId", profile.UserID); err != nil {
		return err
	}
	if profile.DisplayName == "" || len(profile.DisplayName) > MaxDisplayNameLen {
		return invalid("displayName", "must be 1-50 characters")
	}
	if _, reserved := reservedNames[strings.ToLower(profile.DisplayName)]; reserved {
		return invalid("displayName", "is a reserved name")
	}
	if profile.GithubHandle != "" {
		if _, reserved := reservedNames[strings.ToLower(profile.GithubHandle)]; reserved {
			return invalid("githubHandle", "is a reserved name")
		}
	}
	if profile.Role != models.RoleContributor && profile.Role != models.RoleMaintainer {
		return invalid("role", "must be contributor or maintainer")
	}
	if len(profile.Bio) > MaxBioLen {
		return invalid("bio", "exceeds max length")
	}
	if profile.AvatarURL != "" && !avatarURLPattern.MatchString(profile.AvatarURL) {
		return invalid("avatarUrl", "must be an https URL")
	}
	if len(profile.TechStack) > MaxTechStackSize {
		return invalid("techStack", "exceeds max list size")
	}
	return nil
}

// ValidateNotificationJob enforces field shape on dispatcher-created jobs.
// Clients never write these directly; the check is defense in depth against a
// misbehaving handler.
func ValidateNotificationJob(job models.NotificationJob) error {
	if err := validIdentifier("userId", job.UserID); err != nil {
		return err
	}
	if job.Title == "" || len(job.Title) > MaxTitleLen {
		return invalid("title", "must be 1-100 characters")
	}
	if len(job.Body) > MaxBodyLen {
		return invalid("body", "exceeds max length")
	}
	if job.Status != models.JobStatusPending {
		return invalid("status", "new jobs must be pending")
	}
	return nil
}
