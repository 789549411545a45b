package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is a customer account owned by a User and bound to exactly one Company.
// A company can be taken by at most one client.
type Client struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	UserID    int64     `json:"user_id"`
	CompanyID int64     `gorm:"uniqueIndex" json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// ClientUser links additional users to a client. Links are soft-deleted so the
// history of who worked with a client survives an unlink.
type ClientUser struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	ClientID  int64          `json:"client_id"`
	UserID    int64          `json:"user_id"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty" swaggertype:"string"`
}

// TableName keeps the table name stable regardless of gorm's pluralisation rules.
func (ClientUser) TableName() string { return "client_users" }
