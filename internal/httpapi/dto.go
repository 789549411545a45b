package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"clientDirectory/models"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// CreateUserRequest is the body of POST /users. Users created without a password
// exist in the directory but cannot log in.
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50,username"`
	Email     string `json:"email" validate:"required,max=100,email_loose"`
	Password  string `json:"password" validate:"omitempty,min=8,max=72"`
	Role      string `json:"role" validate:"omitempty,role"`
	CompanyID *int64 `json:"company_id" validate:"omitempty,gt=0"`
}

// UpdateUserRequest is the body of PUT /users/{id}. Absent fields are left unchanged;
// company_id 0 detaches the user from its company.
type UpdateUserRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email     *string `json:"email" validate:"omitempty,max=100,email_loose"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role      *string `json:"role" validate:"omitempty,role"`
	CompanyID *int64  `json:"company_id" validate:"omitempty,gte=0"`
}

// CompanyRequest is the body of POST and PUT /companies.
type CompanyRequest struct {
	Name      string           `json:"name" validate:"required,min=1,max=100,nomarkup"`
	Employees int              `json:"employees" validate:"gte=0"`
	Industry  string           `json:"industry" validate:"max=100,nomarkup"`
	Revenue   *decimal.Decimal `json:"revenue" swaggertype:"string" example:"1250000.00"`
}

// ClientRequest is the body of POST and PUT /clients.
type ClientRequest struct {
	Name      string `json:"name" validate:"required,max=100,nomarkup"`
	Email     string `json:"email" validate:"required,max=100,email_loose"`
	Phone     string `json:"phone" validate:"required,max=20,phone"`
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	CompanyID int64  `json:"company_id" validate:"required,gt=0"`
}

// LinkUserRequest is the body of POST /clients/{id}/users.
type LinkUserRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// HealthResponse is returned by the probes.
type HealthResponse struct {
	Status string `json:"status"`
}
