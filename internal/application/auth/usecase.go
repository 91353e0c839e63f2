package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// UseCase casos de uso de autenticación: registro de cuenta y login.
type UseCase struct {
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	jwtCfg      JWTConfig
}

// NewUseCase construye el caso de uso de auth.
func NewUseCase(userRepo repository.UserRepository, accountRepo repository.AccountRepository, jwtCfg JWTConfig) *UseCase {
	return &UseCase{userRepo: userRepo, accountRepo: accountRepo, jwtCfg: jwtCfg}
}

// Register crea una cuenta (tenant) con su primer usuario: hashea el password
// con bcrypt y persiste ambos. Devuelve ErrEmailAlreadyExists si el email ya existe.
func (uc *UseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if in.AccountName == "" || in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	account := &entity.Account{
		ID:        uuid.New().String(),
		Name:      in.AccountName,
		CreatedAt: now,
	}
	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	name := in.Name
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		AccountID:    account.ID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &dto.RegisterResponse{AccountID: account.ID, UserID: user.ID}, nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *UseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	user, err := uc.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.AccountID, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User: dto.UserResponse{
			ID:        user.ID,
			AccountID: user.AccountID,
			Email:     user.Email,
			Name:      user.Name,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}
