package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "academic-scheduler/pkg/errors"
)

// PostgreSQL SQLSTATE
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateInvalidTextRepr     = "22P02"
)

// mapPGError 把约束类错误映射为领域哨兵错误，其余原样返回
func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			return fmt.Errorf("%w: %s", pkgerrors.ErrDuplicateKey, pgErr.ConstraintName)
		case sqlStateForeignKeyViolation:
			return fmt.Errorf("%w: %s", pkgerrors.ErrForeignKey, pgErr.ConstraintName)
		}
	}
	return err
}

// isInvalidInput 参数无法转换为列类型（如非法 UUID），按查无记录处理
func isInvalidInput(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateInvalidTextRepr
}

// notFoundOnInvalidInput 把非法主键统一转换为 gorm.ErrRecordNotFound
func notFoundOnInvalidInput(err error) error {
	if isInvalidInput(err) {
		return gorm.ErrRecordNotFound
	}
	return err
}
