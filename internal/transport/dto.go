package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/lapcraft/internal/models"
)

type CreateCategoryRequest struct {
	Name        string     `json:"name"        validate:"required,max=100"`
	Description string     `json:"description" validate:"max=1000"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Icon        string     `json:"icon"        validate:"max=100"`
	Color       string     `json:"color"       validate:"max=32"`
}

type UpdateCategoryRequest struct {
	Name        *string      `json:"name"        validate:"omitempty,min=1,max=100"`
	Description *string      `json:"description" validate:"omitempty,max=1000"`
	ParentID    OptionalUUID `json:"parent_id"`
	Icon        *string      `json:"icon"        validate:"omitempty,max=100"`
	Color       *string      `json:"color"       validate:"omitempty,max=32"`
}

type CreateProductRequest struct {
	Article       *int64     `json:"article"        validate:"omitempty,gte=1"`
	Title         string     `json:"title"          validate:"required,max=200"`
	Description   string     `json:"description"    validate:"max=5000"`
	Price         float64    `json:"price"          validate:"gte=0"`
	CategoryID    *uuid.UUID `json:"category_id"`
	ImageURLs     []string   `json:"image_urls"     validate:"omitempty,dive,url"`
	StockQuantity int        `json:"stock_quantity" validate:"gte=0"`
}

type UpdateProductRequest struct {
	Article       *int64       `json:"article"        validate:"omitempty,gte=1"`
	Title         *string      `json:"title"          validate:"omitempty,min=1,max=200"`
	Description   *string      `json:"description"    validate:"omitempty,max=5000"`
	Price         *float64     `json:"price"          validate:"omitempty,gte=0"`
	CategoryID    OptionalUUID `json:"category_id"`
	ImageURLs     *[]string    `json:"image_urls"     validate:"omitempty,dive,url"`
	StockQuantity *int         `json:"stock_quantity" validate:"omitempty,gte=0"`
}

type ProductListResponse struct {
	Products []models.ProductView `json:"products"`
	Page     int                  `json:"page"`
	Count    int                  `json:"count"`
	Total    int64                `json:"total"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity"   validate:"omitempty,gte=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type CartItemResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ImageURL    *string   `json:"image_url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Count       int       `json:"count"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	Total      float64            `json:"total"`
	ItemsCount int64              `json:"items_count"`
}

type CartSummaryResponse struct {
	TotalPrice float64 `json:"total_price"`
	ItemsCount int64   `json:"items_count"`
}

type FavoriteResponse struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	ProductID uuid.UUID           `json:"product_id"`
	Product   *models.ProductView `json:"product"`
}

type FavoritesResponse struct {
	Favorites []FavoriteResponse `json:"favorites"`
	Total     int64              `json:"total"`
}

type RegisterRequest struct {
	Name     string  `json:"name"     validate:"required,max=100"`
	Email    string  `json:"email"    validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Phone    *string `json:"phone"    validate:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type MeResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone"`
	IsSuperuser bool      `json:"is_superuser"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewCartLines(lines []models.CartLine) []CartItemResponse {
	out := make([]CartItemResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartItemResponse{
			ProductID:   l.ProductID,
			ImageURL:    l.ImageURLs.First(),
			Title:       l.Title,
			Description: l.Description,
			Price:       l.Price,
			Count:       l.Quantity,
		})
	}
	return out
}
