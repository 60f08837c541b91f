package errors

import "errors"

// Kind 业务错误分类，供调用方机器识别
type Kind string

const (
	KindReferential Kind = "referential" // 引用的课程/教师/教室不存在
	KindValidation  Kind = "validation"  // 结构性校验失败
	KindConflict    Kind = "conflict"    // 时段冲突
	KindNotFound    Kind = "not_found"   // 目标记录不存在
	KindStore       Kind = "store"       // 存储层失败
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicateKey 唯一约束冲突（SQLSTATE 23505）
var ErrDuplicateKey = errors.New("违反唯一约束")

// ErrForeignKey 外键约束冲突（SQLSTATE 23503）
var ErrForeignKey = errors.New("违反外键约束")

// Error 带分类的业务错误
//
// Reason 细分同一 Kind 下的具体原因：校验失败时为规则名，
// 冲突时为维度名（professor | classroom | section），引用错误时为实体名。
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	// ConflictID 冲突时为已存在的那条排课记录 ID
	ConflictID string
	Err        error
}

// New 创建分类错误
func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Kind + Reason 比较；目标 Reason 为空时只比较 Kind。
// 携带 ConflictID 的副本因此仍与其哨兵错误相等。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Reason == "" || e.Reason == t.Reason
}

// WithConflict 返回携带冲突记录 ID 的副本
func (e *Error) WithConflict(id string) *Error {
	cp := *e
	cp.ConflictID = id
	return &cp
}

// Wrap 返回包裹底层原因的副本
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// Detail 形如 "conflict:professor"，无 Reason 时仅为 Kind
func (e *Error) Detail() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ":" + e.Reason
}

// KindOf 提取错误分类；非分类错误一律视为存储层错误
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// As 是 errors.As 的便捷封装
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
