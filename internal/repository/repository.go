package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User      UserRepository
	Course    CourseRepository
	Classroom ClassroomRepository
	Schedule  ScheduleRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:        db,
		User:      NewUserRepo(db),
		Course:    NewCourseRepo(db),
		Classroom: NewClassroomRepo(db),
		Schedule:  NewScheduleRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		// 测试中以内存实现组装的聚合没有底层连接，直接执行
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// softDeleteUpdates 软删除字段；deletedBy 为空时不记录操作人
func softDeleteUpdates(deletedBy string) map[string]interface{} {
	updates := map[string]interface{}{
		"deleted_at": gorm.Expr("NOW()"),
	}
	if deletedBy != "" {
		updates["deleted_by"] = deletedBy
	}
	return updates
}
