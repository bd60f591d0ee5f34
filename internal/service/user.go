package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

type userRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type UserService struct {
	users   userRepo
	wallets walletRepo
}

func NewUserService(users userRepo, wallets walletRepo) *UserService {
	return &UserService{users: users, wallets: wallets}
}

// Register creates a user and their wallet. Every user gets exactly one
// wallet, opened at registration with a zero balance.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*domain.User, *domain.Wallet, error) {
	log := logging.FromContext(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("Register: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("Register: %w", err)
	}

	wallet := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   &user.ID,
		Kind:      domain.WalletKindUser,
		Balance:   0,
		Version:   1,
		CreatedAt: now,
	}
	if err := s.wallets.Create(ctx, wallet); err != nil {
		return nil, nil, fmt.Errorf("Register: wallet: %w", err)
	}

	log.Info("user registered", "user_id", user.ID, "wallet_id", wallet.ID)
	return user, wallet, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return user, nil
}
