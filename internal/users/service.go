package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

// Store persists accounts. InsertUser returns model.ErrDuplicate for a taken
// username; FindUserByUsername returns nil, nil when there is no such user.
type Store interface {
	InsertUser(ctx context.Context, u model.User) (model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	HasAdmin(ctx context.Context) (bool, error)
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	FullName string `json:"full_name" form:"full_name" binding:"required"`
	Role     string `json:"role" form:"role" binding:"omitempty,oneof=admin teacher"`
}

// Service owns credential checks and account creation.
type Service struct {
	store Store
	cost  int
}

// NewService creates a service. A cost <= 0 uses bcrypt.DefaultCost.
func NewService(store Store, cost int) *Service {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: store, cost: cost}
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (model.User, error) {
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return model.User{}, apperr.Validation("%v", err)
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return model.User{}, apperr.Validation("username and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.store.InsertUser(ctx, model.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         role,
	})
	if errors.Is(err, model.ErrDuplicate) {
		return model.User{}, apperr.Conflict("Username already registered")
	}
	return u, err
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	u, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return model.User{}, apperr.Unauthorized("Incorrect username or password")
	}
	return *u, nil
}

// Resolve turns a token subject into the caller identity.
func (s *Service) Resolve(ctx context.Context, username string) (model.Identity, error) {
	u, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return model.Identity{}, err
	}
	if u == nil {
		return model.Identity{}, apperr.Unauthorized("Could not validate credentials")
	}
	if u.Disabled {
		return model.Identity{}, apperr.Forbidden("Inactive user")
	}
	return model.Identity{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// EnsureAdmin creates the given admin account when no admin exists yet.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	ok, err := s.store.HasAdmin(ctx)
	if err != nil || ok {
		return false, err
	}
	if username == "" || password == "" {
		return false, errors.New("no admin account exists and ADMIN_USERNAME/ADMIN_PASSWORD are not set")
	}
	_, err = s.Register(ctx, RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
		FullName: "System Admin",
		Role:     string(model.RoleAdmin),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
