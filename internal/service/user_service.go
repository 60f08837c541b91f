package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"academic-scheduler/internal/dto"
	"academic-scheduler/internal/model"
	"academic-scheduler/internal/repository"
	pkgerrors "academic-scheduler/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound       = pkgerrors.New(pkgerrors.KindNotFound, "user", "用户不存在")
	ErrEmailExists        = pkgerrors.New(pkgerrors.KindValidation, "duplicate_email", "邮箱已被使用")
	ErrUserSelfRoleChange = pkgerrors.New(pkgerrors.KindValidation, "self_role_change", "不能修改自己的角色")
	ErrUserSelfDelete     = pkgerrors.New(pkgerrors.KindValidation, "self_delete", "不能删除自己")
	ErrUserStale          = pkgerrors.New(pkgerrors.KindStore, "stale", "用户信息已被其他操作修改，请刷新后重试")
	ErrInvalidCourseList  = pkgerrors.New(pkgerrors.KindReferential, "course", "可授课程列表中存在无效课程")
)

// UserService 用户业务接口
type UserService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// EnsureAdmin 邮箱不存在时创建管理员账号，已存在则不做任何修改
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

type userService struct {
	repo       *repository.Repository
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, bcryptCost int, logger *zap.Logger) UserService {
	return &userService{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx, req.Role)
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			s.logger.Error("密码加密失败", zap.Error(err))
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.Role != nil && *req.Role != user.Role {
		if id == callerID {
			return nil, ErrUserSelfRoleChange
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if callerID != "" {
		user.UpdatedBy = &callerID
	}

	var courses []model.Course
	if req.CoursesCanTeach != nil {
		courses, err = resolveCourseList(ctx, s.repo.Course, *req.CoursesCanTeach)
		if err != nil {
			return nil, err
		}
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Update(ctx, user); err != nil {
			return err
		}
		if req.CoursesCanTeach == nil {
			return nil
		}
		return tx.User.ReplaceCourses(ctx, user.UserID, courseIDs(courses))
	})
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, ErrUserStale
		case errors.Is(err, pkgerrors.ErrDuplicateKey):
			return nil, ErrEmailExists
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if req.CoursesCanTeach != nil {
		user.CoursesCanTeach = courses
	}

	return toUserResponse(user), nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}

	deleted, err := s.repo.User.Delete(ctx, id, callerID)
	if err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}

// ────────────────────── EnsureAdmin ──────────────────────

func (s *userService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		s.logger.Info("管理员账号已存在，跳过", zap.String("email", email))
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		return false, err
	}

	admin := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, admin); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return false, nil
		}
		s.logger.Error("创建管理员失败", zap.Error(err))
		return false, err
	}

	s.logger.Info("管理员账号已创建", zap.String("email", email), zap.String("id", admin.UserID))
	return true, nil
}

// ── 内部辅助方法 ──

func (s *userService) ensureEmailFree(ctx context.Context, email string) error {
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.Error(err))
		return err
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// resolveCourseList 去重去空白后逐一确认课程存在
func resolveCourseList(ctx context.Context, courses repository.CourseRepository, ids []string) ([]model.Course, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	found, err := courses.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		return nil, ErrInvalidCourseList
	}
	return found, nil
}

func courseIDs(courses []model.Course) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.CourseID)
	}
	return ids
}

func toUserResponse(user *model.User) *dto.UserResponse {
	courses := make([]dto.CourseBriefResponse, 0, len(user.CoursesCanTeach))
	for i := range user.CoursesCanTeach {
		courses = append(courses, *toCourseBrief(&user.CoursesCanTeach[i]))
	}
	return &dto.UserResponse{
		ID:              user.UserID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		IsActive:        user.IsActive,
		CoursesCanTeach: courses,
		CreatedAt:       user.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
