package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"academic-scheduler/internal/model"
	pkgerrors "academic-scheduler/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, role string) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	ReplaceCourses(ctx context.Context, userID string, courseIDs []string) error
	Delete(ctx context.Context, id string, deletedBy string) (bool, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return mapPGError(r.db.WithContext(ctx).Omit("CoursesCanTeach.*").Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("CoursesCanTeach").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, notFoundOnInvalidInput(err)
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, notFoundOnInvalidInput(err)
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx).Preload("CoursesCanTeach")
	if role != "" {
		db = db.Where("role = ?", role)
	}
	err := db.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"name":          user.Name,
			"email":         strings.ToLower(strings.TrimSpace(user.Email)),
			"password_hash": user.PasswordHash,
			"role":          user.Role,
			"is_active":     user.IsActive,
			"updated_by":    user.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return mapPGError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

// ReplaceCourses 覆盖教师可讲授课程列表
func (r *userRepo) ReplaceCourses(ctx context.Context, userID string, courseIDs []string) error {
	courses := make([]model.Course, 0, len(courseIDs))
	for _, id := range courseIDs {
		courses = append(courses, model.Course{CourseID: id})
	}
	user := &model.User{UserID: userID}
	return mapPGError(r.db.WithContext(ctx).
		Model(user).
		Association("CoursesCanTeach").
		Replace(courses))
}

func (r *userRepo) Delete(ctx context.Context, id string, deletedBy string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(softDeleteUpdates(deletedBy))
	if result.Error != nil {
		if isInvalidInput(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
