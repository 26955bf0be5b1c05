package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"         json:"id"`
	Name          string     `gorm:"uniqueIndex;not null"         json:"name"`
	Description   string     `gorm:"not null;default:''"          json:"description"`
	ParentID      *uuid.UUID `gorm:"type:uuid;index"              json:"parent_id"`
	Icon          string     `gorm:"not null;default:''"          json:"icon"`
	Color         string     `gorm:"not null;default:''"          json:"color"`
	ProductCount  int        `gorm:"not null;default:0"           json:"product_count"`
	ChildrenCount int        `gorm:"not null;default:0"           json:"children_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Category) TableName() string {
	return "categories"
}

// CategoryNode is a category with its direct children attached, recursively for tree output.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

type Product struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"                        json:"id"`
	Article       int64      `gorm:"uniqueIndex;not null"                        json:"article"`
	Title         string     `gorm:"not null;index"                              json:"title"`
	Description   string     `gorm:"not null;default:''"                         json:"description"`
	Price         float64    `gorm:"not null;check:price >= 0"                   json:"price"`
	CategoryID    *uuid.UUID `gorm:"type:uuid;index"                             json:"category_id"`
	ImageURLs     StringList `gorm:"type:text;not null;default:'[]'"             json:"image_urls"`
	StockQuantity int        `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.ImageURLs == nil {
		p.ImageURLs = StringList{}
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}

// ProductView is a product joined with its category name.
type ProductView struct {
	Product
	CategoryName *string `json:"category_name"`
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                              json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product;not null" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0"             json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

// CartLine is a cart item joined with the product fields shown in the cart.
type CartLine struct {
	ProductID   uuid.UUID
	Title       string
	Description string
	Price       float64
	ImageURLs   StringList
	Quantity    int
}

type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                   json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_favorite_user_product;not null" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_favorite_user_product;not null" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (Favorite) TableName() string {
	return "favorites"
}

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string     `gorm:"not null"             json:"name"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone          *string    `json:"phone"`
	HashedPassword string     `gorm:"not null"             json:"-"`
	IsSuperuser    bool       `gorm:"not null;default:false" json:"is_superuser"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	TokenHash string    `gorm:"uniqueIndex;not null"   json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
	IsRevoked bool      `gorm:"not null;default:false" json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// Valid reports whether the token can still be exchanged at the given instant.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

// StringList is stored as a JSON array in a text column so it works on postgres and sqlite alike.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("string list: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	*l = out
	return nil
}

// First returns the first URL, or nil when the list is empty.
func (l StringList) First() *string {
	if len(l) == 0 {
		return nil
	}
	s := l[0]
	return &s
}
