package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lapcraft/pkg/db"
	authmw "github.com/Skotchmaster/lapcraft/pkg/middleware/auth"
)

type Deps struct {
	DB         *gorm.DB
	Auth       *authmw.BearerMiddleware
	Categories *CategoryHTTP
	Products   *ProductHTTP
	Cart       *CartHTTP
	Favorites  *FavoriteHTTP
	AuthHTTP   *AuthHTTP
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	v1 := e.Group("/api/v1")
	admin := d.Auth.RequireSuperuser

	products := v1.Group("/products")
	products.GET("", d.Products.List)
	products.GET("/search", d.Products.Search)
	products.GET("/article/:article", d.Products.GetByArticle)
	products.GET("/:id", d.Products.Get, d.Auth.OptionalAuth)
	products.POST("", d.Products.Create, admin)
	products.PUT("/:id", d.Products.Update, admin)
	products.DELETE("/:id", d.Products.Delete, admin)

	categories := v1.Group("/categories")
	categories.GET("", d.Categories.List)
	categories.GET("/tree", d.Categories.Tree)
	categories.GET("/root", d.Categories.Roots)
	categories.GET("/search/:term", d.Categories.Search)
	categories.GET("/:id", d.Categories.Get)
	categories.GET("/:id/children", d.Categories.Children)
	categories.GET("/:id/products", d.Categories.Products)
	categories.POST("", d.Categories.Create, admin)
	categories.PUT("/:id", d.Categories.Update, admin)
	categories.DELETE("/:id", d.Categories.Delete, admin)
	categories.POST("/update-all-counters", d.Categories.UpdateAllCounters, admin)
	categories.POST("/:id/update-counters", d.Categories.UpdateCounters, admin)

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHTTP.Register)
	auth.POST("/login", d.AuthHTTP.Login)
	auth.POST("/refresh", d.AuthHTTP.Refresh)
	auth.POST("/logout", d.AuthHTTP.Logout)
	auth.GET("/me", d.AuthHTTP.Me, d.Auth.RequireAuth)

	cart := v1.Group("/cart", d.Auth.RequireAuth)
	cart.GET("", d.Cart.Get)
	cart.DELETE("", d.Cart.Clear)
	cart.GET("/summary", d.Cart.Summary)
	cart.POST("/items", d.Cart.Add)
	cart.PUT("/items/:product_id", d.Cart.UpdateQuantity)
	cart.DELETE("/items/:product_id", d.Cart.Remove)

	favorites := v1.Group("/favorites", d.Auth.RequireAuth)
	favorites.GET("", d.Favorites.List)
	favorites.DELETE("", d.Favorites.Clear)
	favorites.GET("/check/:product_id", d.Favorites.Check)
	favorites.POST("/:product_id", d.Favorites.Add)
	favorites.DELETE("/:product_id", d.Favorites.Remove)
}
