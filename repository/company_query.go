package repository

import (
	"context"
	"fmt"
	"time"

	"clientDirectory/models"
)

// maxRevenueByIndustrySQL picks, per industry, every company whose revenue equals the
// industry maximum. Companies without an industry are not grouped.
const maxRevenueByIndustrySQL = `
SELECT c.id, c.name, c.employees, c.industry, c.revenue, c.created_at, c.updated_at
FROM companies c
JOIN (
    SELECT industry, MAX(revenue) AS max_revenue
    FROM companies
    WHERE industry <> ''
    GROUP BY industry
) max_rev ON c.industry = max_rev.industry AND c.revenue = max_rev.max_revenue
ORDER BY c.industry ASC, c.name ASC`

// FindCompaniesByEmployeeRange returns companies whose headcount lies in [min, max], ordered by
// employees then id.
func (r *CompanyRepository) FindCompaniesByEmployeeRange(ctx context.Context, min, max int) ([]models.Company, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("invalid employee range [%d, %d]", min, max)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := []models.Company{}
	err := r.db.WithContext(ctx).
		Where("employees BETWEEN ? AND ?", min, max).
		Order("employees ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MaxRevenueCompaniesByIndustry returns the top-revenue companies of each industry. Ties are all returned.
func (r *CompanyRepository) MaxRevenueCompaniesByIndustry(ctx context.Context) ([]models.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := []models.Company{}
	if err := r.db.WithContext(ctx).Raw(maxRevenueByIndustrySQL).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
