package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bizkit/internal/apperr"
	"bizkit/internal/mailer"
	"bizkit/internal/model"
	"bizkit/internal/repository"
	"bizkit/internal/util"
)

type SignupInput struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type AuthService struct {
	userRepo  repository.UserStore
	jwtSecret string
	ttl       time.Duration
}

func NewAuthService(userRepo repository.UserStore, jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		ttl:       ttl,
	}
}

// Signup creates a new user and returns a session token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.FullName == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, apperr.Validation("All fields are required.")
	}
	if !mailer.IsValidAddress(in.Email) {
		return nil, apperr.Validation("Invalid email address.")
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperr.Validation("Passwords do not match.")
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, dbErr(err)
	}
	if existing != nil {
		return nil, apperr.New(apperr.KindConflict, "User already exists.")
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Server error.", err)
	}

	u := &model.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		// lost a race with a concurrent signup for the same address
		if repository.IsUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "User already exists.")
		}
		return nil, dbErr(err)
	}

	return s.issue(u)
}

// Signin checks credentials. Unknown email and wrong password look the same.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required.")
	}
	u, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.Validation("Invalid credentials.")
	}
	if err != nil {
		return nil, dbErr(err)
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return nil, apperr.Validation("Invalid credentials.")
	}
	return s.issue(u)
}

// Me loads the user a token was issued for.
func (s *AuthService) Me(ctx context.Context, userID int) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "User not found.")
	}
	if err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}

// ParseToken validates a bearer token and returns its user id.
func (s *AuthService) ParseToken(token string) (int, error) {
	id, err := util.ParseJWT(token, s.jwtSecret)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindUnauthorized, "Invalid or expired token", err)
	}
	return id, nil
}

func (s *AuthService) issue(u *model.User) (*AuthResult, error) {
	token, err := util.GenerateJWT(u.ID, s.jwtSecret, s.ttl)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Server error.", err)
	}
	return &AuthResult{User: u, Token: token}, nil
}
