package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/dto"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
)

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrDoctorNotFound   = errors.New("医生不存在")
	ErrPatientNotFound  = errors.New("患者不存在")
	ErrEmailExists      = errors.New("邮箱已被注册")
	ErrInvalidRole      = errors.New("无效的用户角色")
	ErrPasswordTooShort = errors.New("密码长度不能少于 8 位")
)

// UserService 用户业务接口
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetUser(ctx context.Context, id string) (*dto.UserResponse, error)
	ListDoctors(ctx context.Context) ([]dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────── Create ──────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	switch req.Role {
	case model.RoleAdmin, model.RoleDoctor, model.RolePatient:
	default:
		return nil, ErrInvalidRole
	}
	if len(req.Password) < 8 {
		return nil, ErrPasswordTooShort
	}

	user, err := createAccount(ctx, s.repo, s.logger, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("创建用户成功",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
	)
	resp := toUserResponse(user)
	return &resp, nil
}

// ────── Read ──────

func (s *userService) GetUser(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) ListDoctors(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.User.ListByRole(ctx, model.RoleDoctor)
	if err != nil {
		s.logger.Error("查询医生列表失败", zap.Error(err))
		return nil, err
	}
	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, toUserResponse(&users[i]))
	}
	return list, nil
}

// ────── 内部方法 ──────

// createAccount 校验邮箱唯一并以 bcrypt 哈希保存密码
func createAccount(ctx context.Context, repo *repository.Repository, logger *zap.Logger, req *dto.CreateUserRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("查询邮箱失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// lookupUserWithRole 按 id 查询指定角色的有效用户，不存在时返回 notFound
func lookupUserWithRole(ctx context.Context, repo *repository.Repository, id, role string, notFound error) (*model.User, error) {
	user, err := repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, err
	}
	if user.Role != role || !user.IsActive {
		return nil, notFound
	}
	return user, nil
}

func lookupDoctor(ctx context.Context, repo *repository.Repository, id string) (*model.User, error) {
	return lookupUserWithRole(ctx, repo, id, model.RoleDoctor, ErrDoctorNotFound)
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.UserID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: formatTimestamp(u.CreatedAt),
	}
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, Name: u.FullName()}
}
