package http

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRouter настраивает маршрутизацию.
func SetupRouter(app *fiber.App, service Service) {
	handler := NewHandler(service)

	app.Use(NewLoggerMiddleware())
	app.Use(NewRecoveryMiddleware())

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", handler.Register)
	authRoutes.Post("/login", handler.Login)
	authRoutes.Post("/refresh", handler.RefreshTokens)
	authRoutes.Post("/logout", handler.Logout)

	noteRoutes := api.Group("/notes", NewAuthMiddleware(service))
	noteRoutes.Get("/", handler.ListNotes)
	noteRoutes.Post("/", handler.CreateNote)
	noteRoutes.Get("/:id", handler.GetNote)
	noteRoutes.Put("/:id", handler.UpdateNote)
	noteRoutes.Delete("/:id", handler.DeleteNote)

	app.Use(NotFound)
}
