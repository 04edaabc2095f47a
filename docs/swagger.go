// Package docs AshaSetu API documentation
package docs

// Swagger documentation info
// @title AshaSetu API
// @version 1.0
// @description Blood donation coordination backend - connects blood requesters with nearby donors

// @contact.name API Support
// @contact.email support@ashasetu.org

// @host localhost:9000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// @tag.name auth
// @tag.description Registration, login and profile management

// @tag.name blood
// @tag.description Blood request lifecycle

// @tag.name donations
// @tag.description Donation responses to blood requests

// @tag.name notifications
// @tag.description Persisted and realtime workflow notifications
