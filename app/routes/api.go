// Package routes declares every HTTP endpoint of the API.
package routes

import (
	"time"

	"github.com/artisansally/ally/app/controllers"
	"github.com/artisansally/ally/app/integrations/ebay"
	"github.com/artisansally/ally/app/integrations/openai"
	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/ctx"
	"github.com/artisansally/ally/pkg/database"
	"github.com/artisansally/ally/pkg/middleware"
	"github.com/artisansally/ally/pkg/router"
)

// RegisterAPI wires controllers to database.DB and the configured
// integrations. It must run after database.Connect, except for route
// listing where handlers are never invoked.
func RegisterAPI(r *router.Router) {
	db := database.DB
	mailer := services.NewMailer()

	client := ebay.NewClient(ebay.ConfigFromEnv(), ebay.NewSharedTokenCache())
	publisher := ebay.NewPublisher(client, ebay.PoliciesFromEnv())

	authCtl := controllers.NewAuthController(services.NewAuthService(db, mailer))
	workshopCtl := controllers.NewWorkshopController(services.NewWorkshopService(db))
	marketCtl := controllers.NewMarketController(services.NewMarketService(client))
	ebayCtl := controllers.NewEbayController(services.NewPublisherService(db, client, publisher))
	contentCtl := controllers.NewContentController(services.NewContentService(openai.NewClient(openai.ConfigFromEnv())))
	uploadCtl := controllers.NewUploadController(services.NewUploadService(nil))
	contactCtl := controllers.NewContactController(mailer)

	// Credential and mail endpoints get a tighter budget than the global one.
	strict := middleware.RateLimit(middleware.NewLimiter(10, time.Minute))

	api := r.Group("/api")

	api.Post("/register", "auth.register", ctx.Wrap(authCtl.Register), strict)
	api.Post("/login", "auth.login", ctx.Wrap(authCtl.Login), strict)
	api.Get("/check_session", "auth.check_session", ctx.Wrap(authCtl.CheckSession))
	api.Get("/verify-email/{token}", "auth.verify_email", ctx.Wrap(authCtl.VerifyEmail))
	api.Post("/resend-verification", "auth.resend_verification", ctx.Wrap(authCtl.ResendVerification), strict)
	api.Post("/forgot-password", "auth.forgot_password", ctx.Wrap(authCtl.ForgotPassword), strict)
	api.Post("/reset-password", "auth.reset_password", ctx.Wrap(authCtl.ResetPassword), strict)

	api.Get("/analyse", "market.analyse", ctx.Wrap(marketCtl.Analyse))
	api.Get("/related-items/{item_id}", "market.related", ctx.Wrap(marketCtl.RelatedItems))
	api.Get("/ebay/callback", "ebay.callback", ctx.Wrap(ebayCtl.Callback))
	api.Post("/contact", "contact.send", ctx.Wrap(contactCtl.Send), strict)

	auth := api.Group("", middleware.RequireLogin)

	auth.Post("/logout", "auth.logout", ctx.Wrap(authCtl.Logout))
	auth.Put("/user/change-password", "user.change_password", ctx.Wrap(authCtl.ChangePassword))
	auth.Put("/user/settings", "user.settings", ctx.Wrap(authCtl.UpdateSettings))
	auth.Delete("/user", "user.destroy", ctx.Wrap(authCtl.DeleteAccount))

	auth.Get("/workshop", "workshop.index", ctx.Wrap(workshopCtl.Index))
	auth.Post("/materials", "materials.store", ctx.Wrap(workshopCtl.StoreMaterial))
	auth.Put("/materials/{id}", "materials.update", ctx.Wrap(workshopCtl.UpdateMaterial))
	auth.Delete("/materials/{id}", "materials.destroy", ctx.Wrap(workshopCtl.DestroyMaterial))
	auth.Post("/products", "products.store", ctx.Wrap(workshopCtl.StoreProduct))
	auth.Put("/products/{id}", "products.update", ctx.Wrap(workshopCtl.UpdateProduct))
	auth.Delete("/products/{id}", "products.destroy", ctx.Wrap(workshopCtl.DestroyProduct))

	auth.Post("/generate-content", "content.generate", ctx.Wrap(contentCtl.Generate))
	auth.Post("/uploads", "uploads.store", ctx.Wrap(uploadCtl.Store))

	auth.Get("/ebay/get-auth-url", "ebay.auth_url", ctx.Wrap(ebayCtl.AuthURL))
	auth.Post("/ebay/create-draft", "ebay.create_draft", ctx.Wrap(ebayCtl.CreateDraft))
}
