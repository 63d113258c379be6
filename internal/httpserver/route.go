package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pay2me/storefront/internal/authz"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/middleware/auth"
)

type Deps struct {
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Payment  *PaymentHTTP
	Address  *AddressHTTP
	Orders   *OrderHTTP
	Coupons  *CouponHTTP
	Wishlist *WishlistHTTP
	Reviews  *ReviewHTTP
	Contact  *ContactHTTP

	Auth    *auth.AutoRefreshMiddleware
	Session echo.MiddlewareFunc
	CSRF    echo.MiddlewareFunc

	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_failed", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	products := e.Group("/api/v1/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.GET("/:id/reviews", d.Reviews.ForProduct)

	// the gateway posts here without a browser session
	e.POST("/payment/webhook", d.Payment.Webhook)

	shop := present(d.Session, d.CSRF)

	// a signed-in shopper's cart additions also clear their wishlist
	cart := e.Group("/cart", append(shop, d.Auth.Optional)...)
	cart.GET("", d.Cart.GetCart)
	cart.POST("/add/:id", d.Cart.AddToCart)
	cart.POST("/update/:id", d.Cart.UpdateCart)
	cart.POST("/remove/:id", d.Cart.RemoveFromCart)

	buyer := d.Auth.Require(authz.ActionShop)

	checkout := e.Group("/checkout", append(shop, buyer)...)
	checkout.GET("", d.Checkout.Summary)
	checkout.POST("", d.Checkout.PlaceOrder)
	checkout.POST("/coupon", d.Checkout.PreviewCoupon)

	payment := e.Group("/payment", shop...)
	payment.GET("/execute", d.Payment.Execute, buyer)
	payment.GET("/cancel", d.Payment.Cancel)

	addresses := e.Group("/addresses", append(shop, buyer)...)
	addresses.GET("", d.Address.List)
	addresses.POST("", d.Address.Create)
	addresses.PUT("/:id", d.Address.Update)
	addresses.DELETE("/:id", d.Address.Delete)

	wishes := e.Group("/wishlist", append(shop, buyer)...)
	wishes.GET("", d.Wishlist.List)
	wishes.POST("/add/:id", d.Wishlist.Add)
	wishes.POST("/remove/:id", d.Wishlist.Remove)

	e.POST("/reviews/:id", d.Reviews.Submit, append(shop, buyer)...)
	e.POST("/contact", d.Contact.Submit, shop...)

	e.POST("/orders/track", d.Orders.Track)
	orders := e.Group("/orders", d.Auth.Require(authz.ActionViewOwnOrders))
	orders.GET("", d.Orders.MyOrders)
	orders.GET("/:id", d.Orders.MyOrder)
	orders.GET("/:id/confirmation", d.Orders.Confirmation)

	admin := e.Group("/admin")
	adminOrders := admin.Group("/orders")
	adminOrders.GET("", d.Orders.AdminList, d.Auth.Require(authz.ActionViewAllOrders))
	adminOrders.GET("/:id", d.Orders.AdminGet, d.Auth.Require(authz.ActionViewAllOrders))
	adminOrders.POST("/:id", d.Orders.AdminUpdate, d.Auth.Require(authz.ActionUpdateOrders))

	coupons := admin.Group("/coupons", d.Auth.Require(authz.ActionManageCoupons))
	coupons.GET("", d.Coupons.List)
	coupons.POST("", d.Coupons.Create)
	coupons.PATCH("/:id", d.Coupons.Update)
	coupons.DELETE("/:id", d.Coupons.Delete)

	inbox := admin.Group("/contact", d.Auth.Require(authz.ActionManageContact))
	inbox.GET("", d.Contact.List)
	inbox.GET("/:id", d.Contact.Get)
	inbox.POST("/:id/reply", d.Contact.Reply)

	adminProducts := admin.Group("/products", d.Auth.Require(authz.ActionManageProducts))
	adminProducts.POST("", d.Catalog.CreateProduct)
	adminProducts.PATCH("/:id", d.Catalog.PatchProduct)
}

func present(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
