package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
)

// UserRepository persists accounts and profiles for the auth service.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	var user models.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at, last_sign_in_at`,
		email, passwordHash).
		Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.LastSignInAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "userRepo.CreateUser"), "")
	}
	return &user, nil
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at, last_sign_in_at
		FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.LastSignInAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "userRepo.FindUserByEmail"), "user not found")
	}
	return &user, nil
}

func (r *UserRepository) RecordSignIn(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_sign_in_at = now() WHERE id = $1`, userID)
	if err != nil {
		return apperr.FromDB(errors.Wrap(err, "userRepo.RecordSignIn"), "")
	}
	return nil
}

// UpsertProfile creates or refreshes the profile row for a user. A nil
// userTypeID on update leaves the stored assignment untouched.
func (r *UserRepository) UpsertProfile(ctx context.Context, userID, handle, displayName string, userTypeID *string) (*models.Profile, error) {
	var p models.Profile
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, handle, display_name, user_type_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET handle       = EXCLUDED.handle,
		    display_name = EXCLUDED.display_name,
		    user_type_id = COALESCE(EXCLUDED.user_type_id, profiles.user_type_id),
		    updated_at   = now()
		RETURNING id, user_id, handle, display_name, avatar_url, user_type_id, created_at, updated_at`,
		userID, handle, displayName, userTypeID).
		Scan(&p.ID, &p.UserID, &p.Handle, &p.DisplayName, &p.AvatarURL, &p.UserTypeID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "userRepo.UpsertProfile"), "")
	}
	return &p, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, displayName, avatarURL *string) (*models.Profile, error) {
	var p models.Profile
	err := r.pool.QueryRow(ctx, `
		UPDATE profiles
		SET display_name = COALESCE($2, display_name),
		    avatar_url   = COALESCE($3, avatar_url),
		    updated_at   = now()
		WHERE user_id = $1
		RETURNING id, user_id, handle, display_name, avatar_url, user_type_id, created_at, updated_at`,
		userID, displayName, avatarURL).
		Scan(&p.ID, &p.UserID, &p.Handle, &p.DisplayName, &p.AvatarURL, &p.UserTypeID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "userRepo.UpdateProfile"), "profile not found")
	}
	return &p, nil
}

func (r *UserRepository) SetProfileUserType(ctx context.Context, profileID string, userTypeID *string) (*models.Profile, error) {
	var p models.Profile
	err := r.pool.QueryRow(ctx, `
		UPDATE profiles
		SET user_type_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, user_id, handle, display_name, avatar_url, user_type_id, created_at, updated_at`,
		profileID, userTypeID).
		Scan(&p.ID, &p.UserID, &p.Handle, &p.DisplayName, &p.AvatarURL, &p.UserTypeID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "userRepo.SetProfileUserType"), "profile not found")
	}
	return &p, nil
}

func (r *UserRepository) FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, handle, display_name, avatar_url, user_type_id, created_at, updated_at
		FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.ID, &p.UserID, &p.Handle, &p.DisplayName, &p.AvatarURL, &p.UserTypeID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "userRepo.FindProfileByUserID"), "profile not found")
	}
	return &p, nil
}

// FindProfileWithAccess loads a profile together with its user type, the
// type's group, and every page role granted to the type.
func (r *UserRepository) FindProfileWithAccess(ctx context.Context, userID string) (*models.ProfileAccess, error) {
	profile, err := r.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	access := &models.ProfileAccess{Profile: *profile}
	if profile.UserTypeID == nil {
		return access, nil
	}

	var ut models.UserTypeAccess
	var groupID *string
	err = r.pool.QueryRow(ctx, `
		SELECT id, name, description, is_active, user_group_id
		FROM user_types WHERE id = $1`, *profile.UserTypeID).
		Scan(&ut.ID, &ut.Name, &ut.Description, &ut.IsActive, &groupID)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "userRepo.FindProfileWithAccess.UserType"), "user type not found")
	}

	if groupID != nil {
		var group models.UserGroup
		err = r.pool.QueryRow(ctx, `
			SELECT id, name, description, created_at, updated_at
			FROM user_groups WHERE id = $1`, *groupID).
			Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt, &group.UpdatedAt)
		if err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "userRepo.FindProfileWithAccess.UserGroup"), "user group not found")
		}
		ut.UserGroup = &group
	}

	rows, err := r.pool.Query(ctx, `
		SELECT pr.id, pr.role, pg.id, pg.key, pg.name, pg.path, pg.created_at, pg.updated_at
		FROM user_type_page_roles pr
		INNER JOIN pages pg ON pg.id = pr.page_id
		WHERE pr.user_type_id = $1`, ut.ID)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "userRepo.FindProfileWithAccess.PageRoles"), "")
	}
	defer rows.Close()

	ut.PageRoles = []models.PageRoleView{}
	for rows.Next() {
		var role models.PageRoleView
		var page models.Page
		err := rows.Scan(&role.ID, &role.Role, &page.ID, &page.Key, &page.Name, &page.Path, &page.CreatedAt, &page.UpdatedAt)
		if err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "userRepo.FindProfileWithAccess.Scan"), "")
		}
		role.Page = &page
		ut.PageRoles = append(ut.PageRoles, role)
	}

	access.UserType = &ut
	return access, rows.Err()
}

func (r *UserRepository) UserTypeExists(ctx context.Context, userTypeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_types WHERE id = $1)`, userTypeID).Scan(&exists)
	if err != nil {
		return false, apperr.FromDB(errors.Wrap(err, "userRepo.UserTypeExists"), "")
	}
	return exists, nil
}
