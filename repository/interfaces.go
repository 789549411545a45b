package repository

import (
	"context"

	"clientDirectory/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, error)
	ListByCompany(ctx context.Context, companyID int64, page Page) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdateRoleByUsername(ctx context.Context, username, role string) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// CompanyRepositoryI defines operations on Company entities.
type CompanyRepositoryI interface {
	Create(ctx context.Context, c *models.Company) (*models.Company, error)
	GetByID(ctx context.Context, id int64) (*models.Company, error)
	GetByName(ctx context.Context, name string) (*models.Company, error)
	List(ctx context.Context, f CompanyFilter) ([]models.Company, error)
	Update(ctx context.Context, c *models.Company) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	FindCompaniesByEmployeeRange(ctx context.Context, min, max int) ([]models.Company, error)
	MaxRevenueCompaniesByIndustry(ctx context.Context) ([]models.Company, error)
}

// ClientRepositoryI defines operations on Client entities.
type ClientRepositoryI interface {
	Create(ctx context.Context, c *models.Client) (*models.Client, error)
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	GetByCompanyID(ctx context.Context, companyID int64) (*models.Client, error)
	List(ctx context.Context, f ClientFilter) ([]models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	FindClientsByUser(ctx context.Context, userID int64) ([]models.Client, error)
	FindClientsByCompanyName(ctx context.Context, fragment string) ([]models.Client, error)
}

// ClientUserRepositoryI defines operations on client/user links.
type ClientUserRepositoryI interface {
	Link(ctx context.Context, clientID, userID int64) (*models.ClientUser, error)
	Unlink(ctx context.Context, clientID, userID int64) error
	ListUsers(ctx context.Context, clientID int64) ([]models.User, error)
	ListClients(ctx context.Context, userID int64) ([]models.Client, error)
	History(ctx context.Context, clientID int64) ([]models.ClientUser, error)
}

var (
	_ UserRepositoryI       = (*UserRepository)(nil)
	_ CompanyRepositoryI    = (*CompanyRepository)(nil)
	_ ClientRepositoryI     = (*ClientRepository)(nil)
	_ ClientUserRepositoryI = (*ClientUserRepository)(nil)
)
