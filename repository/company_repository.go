package repository

import (
	"context"
	"errors"
	"time"

	"clientDirectory/models"

	"gorm.io/gorm"
)

// CompanyRepository handles CRUD for companies. Ad hoc reads live in company_query.go.
type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// CompanyFilter narrows List.
type CompanyFilter struct {
	Industry string
	Page     Page
}

func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) (*models.Company, error) {
	if c == nil {
		return nil, errors.New("company is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, translateWrite("create company", err)
	}
	return c, nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *CompanyRepository) GetByName(ctx context.Context, name string) (*models.Company, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *CompanyRepository) first(ctx context.Context, query string, args ...any) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c models.Company
	if err := r.db.WithContext(ctx).Where(query, args...).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// List returns companies ordered by id.
func (r *CompanyRepository) List(ctx context.Context, f CompanyFilter) ([]models.Company, error) {
	p := f.Page.Normalize()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q := r.db.WithContext(ctx).Model(&models.Company{})
	if f.Industry != "" {
		q = q.Where("industry = ?", f.Industry)
	}
	out := []models.Company{}
	if err := q.Order("id ASC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CompanyRepository) Update(ctx context.Context, c *models.Company) error {
	if c == nil {
		return errors.New("company is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.Company{ID: c.ID}).
		Select("name", "employees", "industry", "revenue", "updated_at").
		Updates(c)
	if res.Error != nil {
		return translateWrite("update company", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a company. A company held by a client cannot be deleted;
// employees are detached by the schema.
func (r *CompanyRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&models.Company{}, id)
	if res.Error != nil {
		return translateDelete("delete company", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CompanyRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Company{}).Count(&n).Error
	return n, err
}
