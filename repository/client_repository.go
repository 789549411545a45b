package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clientDirectory/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// ClientFilter narrows List. UserID matches the owning user only; use FindClientsByUser
// for clients reachable through links.
type ClientFilter struct {
	UserID *int64
	Page   Page
}

// Create inserts a client and links its owner in one transaction. It fails with
// ErrInvalidReference when the user or company is missing and ErrCompanyTaken when
// another client already holds the company.
func (r *ClientRepository) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.User{}, c.UserID, "user"); err != nil {
			return err
		}
		if err := mustExist(tx, &models.Company{}, c.CompanyID, "company"); err != nil {
			return err
		}
		if err := companyFree(tx, c.CompanyID, 0); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrCompanyTaken
			}
			return translateWrite("create client", err)
		}
		return linkOwner(tx, c.ID, c.UserID)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID returns the client with its owner and company loaded.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	return r.first(ctx, "clients.id = ?", id)
}

// GetByCompanyID returns the client holding the company, if any.
func (r *ClientRepository) GetByCompanyID(ctx context.Context, companyID int64) (*models.Client, error) {
	return r.first(ctx, "clients.company_id = ?", companyID)
}

func (r *ClientRepository) first(ctx context.Context, query string, args ...any) (*models.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c models.Client
	err := r.db.WithContext(ctx).Preload("User").Preload("Company").
		Where(query, args...).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// List returns clients ordered by id.
func (r *ClientRepository) List(ctx context.Context, f ClientFilter) ([]models.Client, error) {
	p := f.Page.Normalize()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q := r.db.WithContext(ctx).Model(&models.Client{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	out := []models.Client{}
	if err := q.Order("id ASC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists name, email, phone, owner and company. A new owner is linked to the
// client. Moving a client onto a company held by another client fails with ErrCompanyTaken.
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	if c == nil {
		return errors.New("client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Client{}, c.ID, "client"); err != nil {
			if errors.Is(err, ErrInvalidReference) {
				return ErrNotFound
			}
			return err
		}
		if err := mustExist(tx, &models.User{}, c.UserID, "user"); err != nil {
			return err
		}
		if err := mustExist(tx, &models.Company{}, c.CompanyID, "company"); err != nil {
			return err
		}
		if err := companyFree(tx, c.CompanyID, c.ID); err != nil {
			return err
		}
		res := tx.Model(&models.Client{ID: c.ID}).
			Select("name", "email", "phone", "user_id", "company_id", "updated_at").
			Omit(clause.Associations).
			Updates(c)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return ErrCompanyTaken
			}
			return translateWrite("update client", res.Error)
		}
		return linkOwner(tx, c.ID, c.UserID)
	})
}

// Delete removes a client; its user links go with it.
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&models.Client{}, id)
	if res.Error != nil {
		return translateDelete("delete client", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ClientRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Client{}).Count(&n).Error
	return n, err
}

// linkOwner creates a live link between the client and its owner unless one exists.
func linkOwner(tx *gorm.DB, clientID, userID int64) error {
	var n int64
	err := tx.Model(&models.ClientUser{}).
		Where("client_id = ? AND user_id = ?", clientID, userID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	link := &models.ClientUser{ClientID: clientID, UserID: userID, Active: true}
	return translateWrite("link client owner", tx.Create(link).Error)
}

// mustExist returns ErrInvalidReference when no row of model's table has the id.
func mustExist(tx *gorm.DB, model any, id int64, what string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrInvalidReference)
	}
	return nil
}

// companyFree reports ErrCompanyTaken when a client other than exceptClientID holds the company.
func companyFree(tx *gorm.DB, companyID, exceptClientID int64) error {
	var n int64
	err := tx.Model(&models.Client{}).
		Where("company_id = ? AND id <> ?", companyID, exceptClientID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCompanyTaken
	}
	return nil
}
