package engine

import (
	"errors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aidehq/aide/handler"
	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/clientip"
)

// LoginRequest is the captcha-gated admin login. The bearer credential in
// the Authorization header identifies the principal; the captcha token
// proves a human is behind the keyboard.
type LoginRequest struct {
	CaptchaToken string `json:"captcha_token"`
}

// LoginResponse returns the admin record of the principal who logged in.
type LoginResponse struct {
	Role        admin.Role                `json:"role"`
	Permissions map[admin.Permission]bool `json:"permissions"`
}

func (s *service) adminLogin(ctx handler.Context, req LoginRequest) handler.Response {
	if _, err := s.captcha.Verify(ctx, req.CaptchaToken, clientip.GetIP(ctx.Request())); err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	principal, err := s.sessions.Resolve(ctx, ctx.Request().Header.Get("Authorization"))
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	record, err := s.admins.Resolve(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			err = admin.ErrForbidden
		}
		return handler.JSONError(asHTTPError(err))
	}

	return handler.JSON(LoginResponse{Role: record.Role, Permissions: record.Permissions})
}

// AdminRecordResponse is the back-office view of one administrator.
type AdminRecordResponse struct {
	PrincipalID uuid.UUID                 `json:"principal_id"`
	Email       string                    `json:"email"`
	Role        admin.Role                `json:"role"`
	Permissions map[admin.Permission]bool `json:"permissions"`
}

func toAdminResponse(r *admin.Record) AdminRecordResponse {
	return AdminRecordResponse{
		PrincipalID: r.PrincipalID,
		Email:       r.Email,
		Role:        r.Role,
		Permissions: r.Permissions,
	}
}

func (s *service) listAdmins(ctx handler.Context, _ struct{}) handler.Response {
	records, err := s.admins.List(ctx)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	out := make([]AdminRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, toAdminResponse(&records[i]))
	}
	return handler.JSON(out)
}

// GrantAdminRequest creates or overwrites an admin record.
type GrantAdminRequest struct {
	Email       string                    `json:"email"`
	Role        admin.Role                `json:"role"`
	Permissions map[admin.Permission]bool `json:"permissions"`
}

func (s *service) grantAdmin(ctx handler.Context, req GrantAdminRequest) handler.Response {
	acting, ok := adminFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	record, err := s.admins.Grant(ctx, acting, req.Email, req.Role, req.Permissions)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	return handler.JSON(toAdminResponse(record))
}

func (s *service) revokeAdmin(ctx handler.Context, _ struct{}) handler.Response {
	acting, ok := adminFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	targetID, err := uuid.Parse(chi.URLParam(ctx.Request(), "id"))
	if err != nil {
		return handler.JSONError(handler.ErrUnprocessable)
	}

	if err := s.admins.Revoke(ctx, acting, targetID); err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	return handler.Empty()
}
