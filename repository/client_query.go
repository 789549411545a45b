package repository

import (
	"context"
	"time"

	"clientDirectory/models"
)

// FindClientsByUser returns the clients a user is linked to through live client_users rows.
// Owners are linked on creation, so owned clients are included.
func (r *ClientRepository) FindClientsByUser(ctx context.Context, userID int64) ([]models.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := []models.Client{}
	err := r.db.WithContext(ctx).
		Joins("JOIN client_users cu ON cu.client_id = clients.id AND cu.deleted_at IS NULL AND cu.active = ?", true).
		Where("cu.user_id = ?", userID).
		Order("clients.id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindClientsByCompanyName returns clients whose company name contains fragment,
// case-insensitively. Wildcards in fragment match literally.
func (r *ClientRepository) FindClientsByCompanyName(ctx context.Context, fragment string) ([]models.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pattern := "%" + escapeLike(fragment) + "%"
	out := []models.Client{}
	err := r.db.WithContext(ctx).
		Preload("Company").
		Joins("JOIN companies co ON co.id = clients.company_id").
		Where(`LOWER(co.name) LIKE LOWER(?) ESCAPE '\'`, pattern).
		Order("co.name ASC, clients.id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
