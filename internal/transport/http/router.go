package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/handlers"
	"github.com/grishakov/marketplace/internal/service/token"
)

type Deps struct {
	DB              *gorm.DB
	Tokens          *token.Service
	AuthHandler     *handlers.AuthHandler
	PasswordHandler *handlers.PasswordHandler
	ContactHandler  *handlers.ContactHandler
	PartnerHandler  *handlers.PartnerHandler
	MarketHandler   *handlers.MarketHandler
	BasketHandler   *handlers.BasketHandler
	OrderHandler    *handlers.OrderHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = errorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	user := v1.Group("/user")
	user.POST("/register", d.AuthHandler.Register)
	user.POST("/confirm", d.AuthHandler.Confirm)
	user.POST("/login", d.AuthHandler.Login)
	user.POST("/password_reset", d.PasswordHandler.ResetRequest)
	user.POST("/password_reset/confirm", d.PasswordHandler.ResetConfirm)

	contacts := user.Group("/contacts", d.Tokens.RequireAuth)
	contacts.GET("", d.ContactHandler.List)
	contacts.POST("", d.ContactHandler.Create)
	contacts.PATCH("", d.ContactHandler.Update)
	contacts.DELETE("", d.ContactHandler.Delete)

	seller := v1.Group("/seller", d.Tokens.RequireSeller)
	seller.POST("/update", d.PartnerHandler.Update)
	seller.GET("/state", d.PartnerHandler.GetState)
	seller.POST("/state", d.PartnerHandler.SetState)
	seller.GET("/orders", d.PartnerHandler.Orders)
	seller.PATCH("/orders/:id", d.PartnerHandler.SetOrderStatus)

	market := v1.Group("/market")
	market.GET("/shops", d.MarketHandler.Shops)
	market.GET("/categories", d.MarketHandler.Categories)
	market.GET("/products", d.MarketHandler.Products)
	market.GET("/products/search", d.MarketHandler.Search)

	basket := market.Group("/basket", d.Tokens.RequireAuth)
	basket.GET("", d.BasketHandler.Get)
	basket.POST("", d.BasketHandler.Add)
	basket.PATCH("", d.BasketHandler.UpdateQuantity)
	basket.DELETE("", d.BasketHandler.Remove)

	orders := market.Group("/orders", d.Tokens.RequireAuth)
	orders.GET("", d.OrderHandler.List)
	orders.POST("", d.OrderHandler.Checkout)
}

// errorHandler keeps middleware failures in the same envelope the handlers use.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	code := handlers.CodeInternal
	switch status {
	case http.StatusBadRequest:
		code = handlers.CodeValidation
	case http.StatusUnauthorized:
		code = handlers.CodeUnauthorized
	case http.StatusForbidden:
		code = handlers.CodeForbidden
	case http.StatusNotFound:
		code = handlers.CodeNotFound
	case http.StatusConflict:
		code = handlers.CodeConflict
	}

	_ = c.JSON(status, handlers.ErrorBody{Status: false, Code: code, Error: msg})
}
