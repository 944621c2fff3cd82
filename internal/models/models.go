package models

import (
	"time"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

const (
	StatusBasket   = "basket"
	StatusNew      = "new"
	StatusDelivery = "delivery"
	StatusFinish   = "finish"
	StatusCanceled = "canceled"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName    string `gorm:"not null"                 json:"first_name"`
	LastName     string `gorm:"not null"                 json:"last_name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Phone        string `gorm:"unique;not null"          json:"phone"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:buyer"   json:"role"`
	Active       bool   `gorm:"default:false"            json:"active"`
}

// ConfirmEmailToken activates an account exactly once; the row is deleted on use.
type ConfirmEmailToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	Key       string    `gorm:"unique;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	Key       string    `gorm:"unique;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

// Contact is a free-text delivery address. House and flat stay strings:
// house numbers carry letters and building suffixes.
type Contact struct {
	ID       uint   `gorm:"primaryKey"     json:"id"`
	UserID   uint   `gorm:"index;not null" json:"user_id"`
	Region   string `gorm:"not null"       json:"region"`
	City     string `gorm:"not null"       json:"city"`
	Street   string `gorm:"not null"       json:"street"`
	House    string `gorm:"not null"       json:"house"`
	Flat     string `json:"flat"`
	Comments string `json:"comments"`
}

// Shop.Opened carries no column default: a default tag makes gorm drop the
// zero value on insert, so a shop created closed would come back open.
type Shop struct {
	ID     uint   `gorm:"primaryKey"  json:"id"`
	Name   string `gorm:"not null"    json:"name"`
	UserID uint   `gorm:"uniqueIndex" json:"user_id"`
	Opened bool   `json:"opened"`
	URL    string `json:"url"`
}

type Category struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Name  string  `gorm:"not null"   json:"name"`
	Shops []*Shop `gorm:"many2many:shop_categories" json:"-"`
}

type Product struct {
	ID         uint      `gorm:"primaryKey"     json:"id"`
	Name       string    `gorm:"not null"       json:"name"`
	CategoryID uint      `gorm:"index;not null" json:"category_id"`
	Category   *Category `json:"category,omitempty"`
}

// ProductInfo is one shop's priced, stocked listing of a product. Rows for a
// shop are wholesale-replaced on every catalog import.
type ProductInfo struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	ExternalID uint               `gorm:"not null;uniqueIndex:uniq_product_info" json:"external_id"`
	Model      string             `json:"model"`
	ProductID  uint               `gorm:"not null;uniqueIndex:uniq_product_info" json:"product_id"`
	Product    *Product           `json:"product,omitempty"`
	ShopID     uint               `gorm:"not null;uniqueIndex:uniq_product_info" json:"shop_id"`
	Shop       *Shop              `json:"shop,omitempty"`
	Quantity   uint               `json:"quantity"`
	Price      uint               `gorm:"not null" json:"price"`
	PriceRRC   uint               `json:"price_rrc"`
	Parameters []ProductParameter `gorm:"foreignKey:ProductInfoID" json:"parameters,omitempty"`
}

// Parameter is the global dictionary of attribute names.
type Parameter struct {
	ID   uint   `gorm:"primaryKey"      json:"id"`
	Name string `gorm:"unique;not null" json:"name"`
}

type ProductParameter struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ProductInfoID uint       `gorm:"not null;uniqueIndex:uniq_product_parameter" json:"product_info_id"`
	ParameterID   uint       `gorm:"not null;uniqueIndex:uniq_product_parameter" json:"parameter_id"`
	Parameter     *Parameter `json:"parameter,omitempty"`
	Value         string     `gorm:"not null" json:"value"`
}

type Order struct {
	ID        uint        `gorm:"primaryKey"     json:"id"`
	UserID    uint        `gorm:"index;not null" json:"user_id"`
	Status    string      `gorm:"not null"       json:"status"`
	ContactID *uint       `json:"contact_id"`
	Contact   *Contact    `json:"contact,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

type OrderItem struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	OrderID       uint         `gorm:"not null;uniqueIndex:uniq_order_item" json:"order_id"`
	ProductInfoID uint         `gorm:"not null;uniqueIndex:uniq_order_item" json:"product_info_id"`
	ProductInfo   *ProductInfo `json:"product_info,omitempty"`
	Quantity      uint         `gorm:"not null" json:"quantity"`
}
