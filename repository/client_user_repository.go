package repository

import (
	"context"
	"errors"
	"time"

	"clientDirectory/models"

	"gorm.io/gorm"
)

// ClientUserRepository manages the soft-deleted links between clients and users.
type ClientUserRepository struct {
	db *gorm.DB
}

func NewClientUserRepository(db *gorm.DB) *ClientUserRepository {
	return &ClientUserRepository{db: db}
}

// Link attaches a user to a client. ErrNotFound means the client is missing,
// ErrInvalidReference the user, ErrAlreadyExists a live link.
func (r *ClientUserRepository) Link(ctx context.Context, clientID, userID int64) (*models.ClientUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	link := &models.ClientUser{ClientID: clientID, UserID: userID, Active: true}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Client{}, clientID, "client"); err != nil {
			if errors.Is(err, ErrInvalidReference) {
				return ErrNotFound
			}
			return err
		}
		if err := mustExist(tx, &models.User{}, userID, "user"); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.ClientUser{}).
			Where("client_id = ? AND user_id = ?", clientID, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyExists
		}
		return translateWrite("link user", tx.Create(link).Error)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// Unlink deactivates and soft-deletes the live link between client and user.
func (r *ClientUserRepository) Unlink(ctx context.Context, clientID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.ClientUser{}).
		Where("client_id = ? AND user_id = ?", clientID, userID).
		Updates(map[string]any{"active": false, "deleted_at": now, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns the users with a live link to the client.
func (r *ClientUserRepository) ListUsers(ctx context.Context, clientID int64) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := []models.User{}
	err := r.db.WithContext(ctx).
		Joins("JOIN client_users cu ON cu.user_id = users.id AND cu.deleted_at IS NULL AND cu.active = ?", true).
		Where("cu.client_id = ?", clientID).
		Order("users.id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListClients returns the clients with a live link to the user.
func (r *ClientUserRepository) ListClients(ctx context.Context, userID int64) ([]models.Client, error) {
	return NewClientRepository(r.db).FindClientsByUser(ctx, userID)
}

// History returns every link of a client, unlinked ones included, oldest first.
func (r *ClientUserRepository) History(ctx context.Context, clientID int64) ([]models.ClientUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := []models.ClientUser{}
	err := r.db.WithContext(ctx).Unscoped().
		Where("client_id = ?", clientID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
