package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"clientDirectory/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UserFilter narrows List. Username is an exact match, as in GET /users?username=.
type UserFilter struct {
	Username  string
	CompanyID *int64
	Page      Page
}

// Create inserts a new user. Role defaults to ROLE_USER.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, translateWrite("create user", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(email))
}

func (r *UserRepository) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// List returns users ordered by id.
func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]models.User, error) {
	p := f.Page.Normalize()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q := r.db.WithContext(ctx).Model(&models.User{})
	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}
	if f.CompanyID != nil {
		q = q.Where("company_id = ?", *f.CompanyID)
	}
	out := []models.User{}
	if err := q.Order("id ASC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByCompany returns the employees of a company.
func (r *UserRepository) ListByCompany(ctx context.Context, companyID int64, page Page) ([]models.User, error) {
	return r.List(ctx, UserFilter{CompanyID: &companyID, Page: page})
}

// Update persists username, email, password hash, role and company of u.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.User{ID: u.ID}).
		Select("username", "email", "password_hash", "role", "company_id", "updated_at").
		Updates(u)
	if res.Error != nil {
		return translateWrite("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRoleByUsername sets the role for the given username.
// Intended for administrative flows and tests.
func (r *UserRepository) UpdateRoleByUsername(ctx context.Context, username, role string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).
		Updates(map[string]any{"role": role, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user. Users that still own clients cannot be deleted.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return translateDelete("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// EnsureAdmin creates an administrator with the given credentials unless a user with
// that username already exists, in which case its role is promoted to admin.
// The returned bool reports whether a new row was inserted.
func (r *UserRepository) EnsureAdmin(ctx context.Context, username, email, passwordHash string) (*models.User, bool, error) {
	existing, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			if err := r.UpdateRoleByUsername(ctx, username, models.RoleAdmin); err != nil {
				return nil, false, err
			}
			existing.Role = models.RoleAdmin
		}
		return existing, false, nil
	}
	u, err := r.Create(ctx, &models.User{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
