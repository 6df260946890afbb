package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fleet-scheduler/internal/domain"
)

// ProfileRepo looks up the role and home tenant of an authenticated user.
type ProfileRepo interface {
	// GetByUID returns the profile for uid.
	// Returns domain.ErrNotFound if the user has no profile.
	GetByUID(ctx context.Context, uid string) (domain.Profile, error)
}

type pgProfileRepo struct {
	db db
}

// NewProfileRepo constructs a ProfileRepo backed by the provided db connection.
func NewProfileRepo(db db) ProfileRepo {
	return &pgProfileRepo{db: db}
}

func (r *pgProfileRepo) GetByUID(ctx context.Context, uid string) (domain.Profile, error) {
	const q = `
		SELECT uid, name, email, role, tenant_id
		FROM user_profiles
		WHERE uid = @uid`

	var (
		p    domain.Profile
		role string
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"uid": uid}).Scan(&p.UID, &p.Name, &p.Email, &role, &p.TenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("repo.ProfileRepo.GetByUID: %w", err)
	}

	p.Role = domain.ParseRole(role)
	return p, nil
}
