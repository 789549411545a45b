package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is an organisation that employs users and may be held by one client.
type Company struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:100;uniqueIndex" json:"name"`
	Employees int             `json:"employees"`
	Industry  string          `gorm:"size:100" json:"industry"`
	Revenue   decimal.Decimal `gorm:"type:numeric" json:"revenue"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
