package service

import (
	"github.com/clerk/clerk-sdk-go/v2"

	"github.com/deppfellow/gitminer/internal/server"
)

// AuthService configures Clerk when a secret key is set. Without one,
// mutating routes stay open.
type AuthService struct {
	server *server.Server
}

func NewAuthService(s *server.Server) *AuthService {
	if s.Config.Auth.Enabled() {
		clerk.SetKey(s.Config.Auth.SecretKey)
	}
	return &AuthService{
		server: s,
	}
}
