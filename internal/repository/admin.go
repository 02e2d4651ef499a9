package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
)

// AdminRepository persists the role/permission records the auth service
// administers: pages, user groups, user types, and page-role bindings.
type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// Pages

func (r *AdminRepository) CreatePage(ctx context.Context, key, name, path string) (*models.Page, error) {
	var page models.Page
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pages (key, name, path)
		VALUES ($1, $2, $3)
		RETURNING id, key, name, path, created_at, updated_at`,
		key, name, path).
		Scan(&page.ID, &page.Key, &page.Name, &page.Path, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.CreatePage"), "")
	}
	return &page, nil
}

func (r *AdminRepository) ListPages(ctx context.Context) ([]models.Page, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, key, name, path, created_at, updated_at FROM pages ORDER BY name`)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.ListPages"), "")
	}
	defer rows.Close()

	pages := []models.Page{}
	for rows.Next() {
		var page models.Page
		if err := rows.Scan(&page.ID, &page.Key, &page.Name, &page.Path, &page.CreatedAt, &page.UpdatedAt); err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.ListPages.Scan"), "")
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func (r *AdminRepository) FindPage(ctx context.Context, id string) (*models.Page, error) {
	var page models.Page
	err := r.pool.QueryRow(ctx,
		`SELECT id, key, name, path, created_at, updated_at FROM pages WHERE id = $1`, id).
		Scan(&page.ID, &page.Key, &page.Name, &page.Path, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.FindPage"), "page not found")
	}
	return &page, nil
}

func (r *AdminRepository) UpdatePage(ctx context.Context, id string, key, name, path *string) (*models.Page, error) {
	var page models.Page
	err := r.pool.QueryRow(ctx, `
		UPDATE pages
		SET key = COALESCE($2, key), name = COALESCE($3, name), path = COALESCE($4, path), updated_at = now()
		WHERE id = $1
		RETURNING id, key, name, path, created_at, updated_at`,
		id, key, name, path).
		Scan(&page.ID, &page.Key, &page.Name, &page.Path, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.UpdatePage"), "page not found")
	}
	return &page, nil
}

func (r *AdminRepository) DeletePage(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(errors.Wrap(err, "adminRepo.DeletePage"), "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("page not found")
	}
	return nil
}

// User groups

func (r *AdminRepository) CreateUserGroup(ctx context.Context, name string, description *string) (*models.UserGroup, error) {
	var group models.UserGroup
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_groups (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at`,
		name, description).
		Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.CreateUserGroup"), "")
	}
	return &group, nil
}

func (r *AdminRepository) ListUserGroups(ctx context.Context) ([]models.UserGroup, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM user_groups ORDER BY name`)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.ListUserGroups"), "")
	}
	defer rows.Close()

	groups := []models.UserGroup{}
	for rows.Next() {
		var group models.UserGroup
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.ListUserGroups.Scan"), "")
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *AdminRepository) FindUserGroup(ctx context.Context, id string) (*models.UserGroup, error) {
	var group models.UserGroup
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM user_groups WHERE id = $1`, id).
		Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.FindUserGroup"), "user group not found")
	}
	return &group, nil
}

func (r *AdminRepository) UpdateUserGroup(ctx context.Context, id string, name, description *string) (*models.UserGroup, error) {
	var group models.UserGroup
	err := r.pool.QueryRow(ctx, `
		UPDATE user_groups
		SET name = COALESCE($2, name), description = COALESCE($3, description), updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, created_at, updated_at`,
		id, name, description).
		Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.UpdateUserGroup"), "user group not found")
	}
	return &group, nil
}

func (r *AdminRepository) DeleteUserGroup(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_groups WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(errors.Wrap(err, "adminRepo.DeleteUserGroup"), "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user group not found")
	}
	return nil
}

// User types

func (r *AdminRepository) CreateUserType(ctx context.Context, name string, description, userGroupID *string) (*models.UserType, error) {
	var ut models.UserType
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_types (name, description, user_group_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, is_active, user_group_id, created_at, updated_at`,
		name, description, userGroupID).
		Scan(&ut.ID, &ut.Name, &ut.Description, &ut.IsActive, &ut.UserGroupID, &ut.CreatedAt, &ut.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.CreateUserType"), "")
	}
	return &ut, nil
}

func (r *AdminRepository) ListUserTypes(ctx context.Context) ([]models.UserType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, is_active, user_group_id, created_at, updated_at
		FROM user_types ORDER BY name`)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.ListUserTypes"), "")
	}
	defer rows.Close()

	types := []models.UserType{}
	for rows.Next() {
		var ut models.UserType
		if err := rows.Scan(&ut.ID, &ut.Name, &ut.Description, &ut.IsActive, &ut.UserGroupID, &ut.CreatedAt, &ut.UpdatedAt); err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.ListUserTypes.Scan"), "")
		}
		types = append(types, ut)
	}
	return types, rows.Err()
}

func (r *AdminRepository) FindUserType(ctx context.Context, id string) (*models.UserType, error) {
	var ut models.UserType
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, is_active, user_group_id, created_at, updated_at
		FROM user_types WHERE id = $1`, id).
		Scan(&ut.ID, &ut.Name, &ut.Description, &ut.IsActive, &ut.UserGroupID, &ut.CreatedAt, &ut.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.FindUserType"), "user type not found")
	}
	return &ut, nil
}

func (r *AdminRepository) UpdateUserType(ctx context.Context, id string, name, description *string, isActive *bool, userGroupID *string) (*models.UserType, error) {
	var ut models.UserType
	err := r.pool.QueryRow(ctx, `
		UPDATE user_types
		SET name          = COALESCE($2, name),
		    description   = COALESCE($3, description),
		    is_active     = COALESCE($4, is_active),
		    user_group_id = COALESCE($5, user_group_id),
		    updated_at    = now()
		WHERE id = $1
		RETURNING id, name, description, is_active, user_group_id, created_at, updated_at`,
		id, name, description, isActive, userGroupID).
		Scan(&ut.ID, &ut.Name, &ut.Description, &ut.IsActive, &ut.UserGroupID, &ut.CreatedAt, &ut.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.UpdateUserType"), "user type not found")
	}
	return &ut, nil
}

func (r *AdminRepository) DeleteUserType(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_types WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(errors.Wrap(err, "adminRepo.DeleteUserType"), "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user type not found")
	}
	return nil
}

// Page-role bindings

func (r *AdminRepository) CreatePageRole(ctx context.Context, userTypeID, pageID, role string) (*models.UserTypePageRole, error) {
	var binding models.UserTypePageRole
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_type_page_roles (user_type_id, page_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, user_type_id, page_id, role, created_at`,
		userTypeID, pageID, role).
		Scan(&binding.ID, &binding.UserTypeID, &binding.PageID, &binding.Role, &binding.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.CreatePageRole"), "")
	}
	return &binding, nil
}

func (r *AdminRepository) ListPageRoles(ctx context.Context) ([]models.UserTypePageRole, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_type_id, page_id, role, created_at
		FROM user_type_page_roles ORDER BY created_at`)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.ListPageRoles"), "")
	}
	defer rows.Close()

	bindings := []models.UserTypePageRole{}
	for rows.Next() {
		var binding models.UserTypePageRole
		if err := rows.Scan(&binding.ID, &binding.UserTypeID, &binding.PageID, &binding.Role, &binding.CreatedAt); err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "adminRepo.ListPageRoles.Scan"), "")
		}
		bindings = append(bindings, binding)
	}
	return bindings, rows.Err()
}

func (r *AdminRepository) DeletePageRole(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_type_page_roles WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(errors.Wrap(err, "adminRepo.DeletePageRole"), "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("page role not found")
	}
	return nil
}
