package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"realtime_chat_service/internal/member/domain"
	"realtime_chat_service/pkg/encrypt"
	"realtime_chat_service/pkg/logger"
	token "realtime_chat_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMemberRepo Mock MemberRepository
type MockMemberRepo struct {
	mock.Mock
}

// CreateMember mock create member
func (m *MockMemberRepo) CreateMember(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

// FindByMember mock find by member
func (m *MockMemberRepo) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	args := m.Called(ctx, memberQuery)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestMemberUseCase_Register(t *testing.T) {
	ctx := context.Background()
	username := "alice"
	email := "alice@example.com"
	password := "Securepassword111"

	logger.SetNewNop()

	t.Run("register succeeds", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("not found")).Once()
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Username: &username}).Return(nil, errors.New("not found")).Once()
		mockRepo.On("CreateMember", ctx, mock.Anything).Return(nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		member, err := uc.Register(ctx, username, email, password)

		assert.NoError(t, err)
		assert.NotEmpty(t, member.MemberID)
		assert.True(t, member.IsActive)
		assert.NotEqual(t, password, member.Password)
		mockRepo.AssertExpectations(t)
	})

	t.Run("email already exists", func(t *testing.T) {
		existing := &domain.Member{ID: 1, MemberID: "AAA", Email: email}
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(existing, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		_, err := uc.Register(ctx, username, email, password)

		assert.Error(t, err)
		assert.Equal(t, "email already exists", err.Error())
		mockRepo.AssertExpectations(t)
	})

	t.Run("username already exists", func(t *testing.T) {
		existing := &domain.Member{ID: 1, MemberID: "AAA", Username: username}
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("not found")).Once()
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Username: &username}).Return(existing, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		_, err := uc.Register(ctx, username, email, password)

		assert.Error(t, err)
		assert.Equal(t, "username already exists", err.Error())
	})

	t.Run("create member fails", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, mock.Anything).Return(nil, errors.New("not found")).Twice()
		mockRepo.On("CreateMember", ctx, mock.Anything).Return(errors.New("db error")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		_, err := uc.Register(ctx, username, email, password)

		assert.Error(t, err)
		assert.Equal(t, "db error", err.Error())
	})
}

func TestMemberUseCase_Login(t *testing.T) {
	ctx := context.Background()
	email := "alice@example.com"
	password := "Securepassword111"
	hashed, _ := encrypt.HashPassword(password)

	logger.SetNewNop()

	t.Run("login returns a token", func(t *testing.T) {
		member := &domain.Member{MemberID: "AAA", Email: email, Password: hashed, IsActive: true}
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(member, nil).Once()

		orig := token.GenerateJWTFunc
		token.GenerateJWTFunc = func(memberID, role string, ttl time.Duration) (string, error) {
			assert.Equal(t, "AAA", memberID)
			return "fake-token", nil
		}
		defer func() { token.GenerateJWTFunc = orig }()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		tok, err := uc.Login(ctx, email, password)

		assert.NoError(t, err)
		assert.Equal(t, "fake-token", tok)
	})

	t.Run("unknown email and bad password share one error", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("not found")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		_, err := uc.Login(ctx, email, password)
		assert.Equal(t, "incorrect email or password", err.Error())

		member := &domain.Member{MemberID: "AAA", Email: email, Password: hashed, IsActive: true}
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(member, nil).Once()
		_, err = uc.Login(ctx, email, "WrongPassword1")
		assert.Equal(t, "incorrect email or password", err.Error())
	})

	t.Run("disabled account cannot log in", func(t *testing.T) {
		member := &domain.Member{MemberID: "AAA", Email: email, Password: hashed, IsActive: false}
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(member, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		_, err := uc.Login(ctx, email, password)

		assert.Equal(t, "account is disabled", err.Error())
	})
}

func TestMemberUseCase_FindMember(t *testing.T) {
	ctx := context.Background()
	email := "alice@example.com"

	logger.SetNewNop()

	t.Run("member found", func(t *testing.T) {
		existing := &domain.Member{ID: 1, MemberID: "AAA", Email: email}
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(existing, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		member, err := uc.FindMember(ctx, &domain.MemberQuery{Email: &email})

		assert.NoError(t, err)
		assert.Equal(t, existing, member)
	})

	t.Run("member missing", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("no member found with given criteria")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour)
		_, err := uc.FindMember(ctx, &domain.MemberQuery{Email: &email})

		assert.Error(t, err)
	})
}
