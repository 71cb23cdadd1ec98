package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aidehq/aide/pkg/audit"
)

// Resolver is the authorization surface for the admin back-office.
type Resolver interface {
	// Resolve looks up the admin record of a principal. Absence is reported
	// as ErrAdminNotFound and means "not an admin".
	Resolve(ctx context.Context, principalID uuid.UUID) (*Record, error)

	// Grant creates or overwrites the admin record of the principal
	// registered under targetEmail. Reserved to super_admins: any other
	// caller fails with ErrForbidden regardless of their permission map.
	Grant(ctx context.Context, acting *Record, targetEmail string, role Role, permissions map[Permission]bool) (*Record, error)

	// Revoke removes the admin record of targetID. Reserved to super_admins;
	// self-revocation and revoking a super_admin are refused.
	Revoke(ctx context.Context, acting *Record, targetID uuid.UUID) error

	// List returns all admin records.
	List(ctx context.Context) ([]Record, error)
}

type resolver struct {
	store     Store
	directory PrincipalDirectory
	auditLog  audit.Logger
	log       *slog.Logger
}

// ResolverOption configures the resolver.
type ResolverOption func(*resolver)

// WithResolverLogger sets a custom logger.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a Resolver. Store, directory and audit logger are all
// required; admin management without an audit trail must not start.
func NewResolver(store Store, directory PrincipalDirectory, auditLog audit.Logger, opts ...ResolverOption) Resolver {
	if store == nil {
		panic("admin: Store is required")
	}
	if directory == nil {
		panic("admin: PrincipalDirectory is required")
	}
	if auditLog == nil {
		panic("admin: audit.Logger is required")
	}

	r := &resolver{
		store:     store,
		directory: directory,
		auditLog:  auditLog,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *resolver) Resolve(ctx context.Context, principalID uuid.UUID) (*Record, error) {
	record, err := r.store.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, err
		}
		// Absence could not be established; this must never read as
		// "not an admin".
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return record, nil
}

func (r *resolver) Grant(ctx context.Context, acting *Record, targetEmail string, role Role, permissions map[Permission]bool) (*Record, error) {
	// Admin management is not delegable through the permission map.
	if !acting.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	target, err := r.directory.LookupByEmail(ctx, targetEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &Record{
		PrincipalID: target.ID,
		Email:       target.Email,
		Role:        role,
		Permissions: maps.Clone(permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if record.Permissions == nil {
		record.Permissions = make(map[Permission]bool)
	}

	// Overwriting keeps the original creation time.
	if existing, err := r.store.Get(ctx, target.ID); err == nil {
		record.CreatedAt = existing.CreatedAt
	}

	if err := r.store.Save(ctx, record); err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "admin role granted",
		"actor", acting.PrincipalID, "target", target.ID, "role", role)
	if err := r.auditLog.Log(ctx, acting.PrincipalID.String(), "admin.grant",
		audit.WithTarget(target.ID.String()),
		audit.WithResource("admin_record", target.ID.String()),
		audit.WithMetadata("role", string(role)),
	); err != nil {
		r.log.ErrorContext(ctx, "failed to write audit event", "action", "admin.grant", "error", err)
	}

	return record, nil
}

func (r *resolver) Revoke(ctx context.Context, acting *Record, targetID uuid.UUID) error {
	if !acting.IsSuperAdmin() {
		return ErrForbidden
	}
	if acting.PrincipalID == targetID {
		return ErrCannotRevokeSelf
	}

	target, err := r.store.Get(ctx, targetID)
	if err != nil {
		return err
	}
	// Refusing to revoke super_admins keeps the back-office reachable:
	// at least one super_admin always remains.
	if target.IsSuperAdmin() {
		return ErrTargetIsSuperAdmin
	}

	if err := r.store.Delete(ctx, targetID); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "admin role revoked",
		"actor", acting.PrincipalID, "target", targetID, "role", target.Role)
	if err := r.auditLog.Log(ctx, acting.PrincipalID.String(), "admin.revoke",
		audit.WithTarget(targetID.String()),
		audit.WithResource("admin_record", targetID.String()),
		audit.WithMetadata("role", string(target.Role)),
	); err != nil {
		r.log.ErrorContext(ctx, "failed to write audit event", "action", "admin.revoke", "error", err)
	}

	return nil
}

func (r *resolver) List(ctx context.Context) ([]Record, error) {
	return r.store.List(ctx)
}
