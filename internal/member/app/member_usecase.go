package app

import (
	"context"
	"errors"
	"time"

	"realtime_chat_service/internal/member/domain"
	"realtime_chat_service/internal/member/repository"
	"realtime_chat_service/pkg/encrypt"
	"realtime_chat_service/pkg/logger"
	token "realtime_chat_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberUseCase exposes registration, login and lookup.
type MemberUseCase interface {
	Register(ctx context.Context, username, email, password string) (*domain.Member, error)
	Login(ctx context.Context, email, password string) (string, error)
	FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error)
}

type memberUseCase struct {
	memberRepo repository.MemberRepository
	tokenTTL   time.Duration
}

// NewMemberUseCase create a MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository, tokenTTL time.Duration) MemberUseCase {
	return &memberUseCase{
		memberRepo: memberRepo,
		tokenTTL:   tokenTTL,
	}
}

func (m *memberUseCase) Register(ctx context.Context, username, email, password string) (*domain.Member, error) {
	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email}); err == nil {
		return nil, errors.New("email already exists")
	}
	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Username: &username}); err == nil {
		return nil, errors.New("username already exists")
	}

	pw, err := encrypt.HashPassword(password)
	if err != nil {
		return nil, err
	}

	member := domain.Member{
		MemberID:  uuid.New().String(),
		Username:  username,
		Email:     email,
		Password:  pw,
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
	}

	logger.Log.Info("usecase Register", zap.String("member_id", member.MemberID), zap.String("username", username))

	if err := m.memberRepo.CreateMember(ctx, &member); err != nil {
		return nil, err
	}

	return &member, nil
}

func (m *memberUseCase) Login(ctx context.Context, email, password string) (string, error) {
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		logger.Log.Error("login: email not found")
		return "", errors.New("incorrect email or password")
	}

	if err = member.IsPasswordMatch(password); err != nil {
		logger.Log.Error("login: password mismatch", zap.String("member_id", member.MemberID))
		return "", errors.New("incorrect email or password")
	}

	if !member.IsActive {
		return "", errors.New("account is disabled")
	}

	return token.GenerateJWTWrapper(member.MemberID, string(token.RoleMember), m.tokenTTL)
}

// FindMember looks a member up by any MemberQuery condition.
func (m *memberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	return m.memberRepo.FindByMember(ctx, param)
}
