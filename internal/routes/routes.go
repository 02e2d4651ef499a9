package routes

import (
	"github.com/gofiber/fiber/v2"

	"koalitos/backend/internal/handlers"
	"koalitos/backend/internal/middleware"
	"koalitos/backend/internal/utils"
)

// APIDeps are the constructed handlers the api service routes to.
type APIDeps struct {
	JWT  *utils.JWT
	Chat *handlers.ChatHandler
	Math *handlers.MathHandler
	WS   *handlers.WebSocketHandler
}

// SetupAPIRoutes configures the api service's routes.
func SetupAPIRoutes(app *fiber.App, deps APIDeps) {
	api := app.Group("/api/v1")
	auth := middleware.Auth(deps.JWT)

	api.Get("/health", handlers.Health("api"))

	math := api.Group("/math", auth)
	math.Post("/add", deps.Math.Add)

	chat := api.Group("/chat", auth)
	chat.Post("/rooms", deps.Chat.CreateRoom)
	chat.Get("/rooms", deps.Chat.ListRooms)
	chat.Post("/direct/:handle", deps.Chat.StartDirectChat)
	chat.Post("/direct/:handle/messages", deps.Chat.SendDirectMessage)
	chat.Get("/direct/:handle/messages", deps.Chat.GetDirectMessages)
	chat.Post("/rooms/:roomId/messages", deps.Chat.SendMessage)
	chat.Get("/rooms/:roomId/messages", deps.Chat.GetMessages)
	chat.Patch("/rooms/:roomId/messages/:messageId/read", deps.Chat.MarkMessageAsRead)

	api.Get("/ws", auth, deps.WS.Upgrade, deps.WS.Serve())
	api.Get("/ws/stats", auth, deps.WS.Stats)
}

// AuthDeps are the constructed handlers the auth service routes to.
type AuthDeps struct {
	JWT         *utils.JWT
	AdminAPIKey string
	Auth        *handlers.AuthHandler
	Profiles    *handlers.ProfileHandler
	Admin       *handlers.AdminHandler
}

// SetupAuthRoutes configures the auth service's routes.
func SetupAuthRoutes(app *fiber.App, deps AuthDeps) {
	api := app.Group("/api/v1")
	auth := middleware.Auth(deps.JWT)
	adminKey := middleware.AdminKey(deps.AdminAPIKey)

	api.Get("/health", handlers.Health("auth"))

	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.StrictRateLimiter(), deps.Auth.Register)
	authGroup.Post("/login", middleware.StrictRateLimiter(), deps.Auth.Login)

	profiles := api.Group("/profiles")
	profiles.Get("/me", auth, deps.Profiles.GetMe)
	profiles.Patch("/me", auth, deps.Profiles.UpdateMe)
	profiles.Patch("/:profileId/user-type", adminKey, deps.Profiles.SetUserType)

	pages := api.Group("/pages", adminKey)
	pages.Post("/", deps.Admin.CreatePage)
	pages.Get("/", deps.Admin.ListPages)
	pages.Get("/:pageId", deps.Admin.GetPage)
	pages.Patch("/:pageId", deps.Admin.UpdatePage)
	pages.Delete("/:pageId", deps.Admin.DeletePage)

	groups := api.Group("/user-groups", adminKey)
	groups.Post("/", deps.Admin.CreateUserGroup)
	groups.Get("/", deps.Admin.ListUserGroups)
	groups.Get("/:groupId", deps.Admin.GetUserGroup)
	groups.Patch("/:groupId", deps.Admin.UpdateUserGroup)
	groups.Delete("/:groupId", deps.Admin.DeleteUserGroup)

	types := api.Group("/user-types", adminKey)
	types.Post("/", deps.Admin.CreateUserType)
	types.Get("/", deps.Admin.ListUserTypes)
	types.Get("/:typeId", deps.Admin.GetUserType)
	types.Patch("/:typeId", deps.Admin.UpdateUserType)
	types.Delete("/:typeId", deps.Admin.DeleteUserType)

	roles := api.Group("/user-type-page-roles", adminKey)
	roles.Post("/", deps.Admin.CreatePageRole)
	roles.Get("/", deps.Admin.ListPageRoles)
	roles.Delete("/:roleId", deps.Admin.DeletePageRole)
}
