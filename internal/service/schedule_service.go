package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"academic-scheduler/internal/dto"
	"academic-scheduler/internal/model"
	"academic-scheduler/internal/repository"
	pkgerrors "academic-scheduler/pkg/errors"
	"academic-scheduler/pkg/metrics"
)

// ── 排课模块业务错误 ──

var (
	ErrScheduleNotFound = pkgerrors.New(pkgerrors.KindNotFound, "schedule", "排课不存在")

	ErrCourseRefNotFound    = pkgerrors.New(pkgerrors.KindReferential, "course", "引用的课程不存在")
	ErrProfessorRefNotFound = pkgerrors.New(pkgerrors.KindReferential, "professor", "引用的教师不存在")
	ErrClassroomRefNotFound = pkgerrors.New(pkgerrors.KindReferential, "classroom", "引用的教室不存在")

	ErrScheduleStale = pkgerrors.New(pkgerrors.KindStore, "stale", "排课已被其他操作修改，请刷新后重试")
	ErrScheduleStore = pkgerrors.New(pkgerrors.KindStore, "", "排课存储操作失败")
)

// ScheduleService 排课业务接口
type ScheduleService interface {
	Create(ctx context.Context, req *dto.CreateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	Delete(ctx context.Context, id string, callerID string) (bool, error)
	List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error)
}

type scheduleService struct {
	repo      *repository.Repository
	conflicts *conflictChecker
	locker    ScopeLocker
	logger    *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
// locker 为 nil 时不对写入加锁
func NewScheduleService(repo *repository.Repository, locker ScopeLocker, logger *zap.Logger) ScheduleService {
	if locker == nil {
		locker = noopScopeLocker{}
	}
	return &scheduleService{
		repo:      repo,
		conflicts: newConflictChecker(repo.Schedule, logger),
		locker:    locker,
		logger:    logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest, callerID string) (resp *dto.ScheduleResponse, err error) {
	defer observe("create", &err)

	// 1. 引用校验
	refs, err := s.resolveRefs(ctx, req.CourseID, req.ProfessorID, req.ClassroomID)
	if err != nil {
		return nil, err
	}

	// 2. 构造候选并做结构校验
	candidate := &model.Schedule{
		CourseID:     req.CourseID,
		ProfessorID:  req.ProfessorID,
		ClassroomID:  req.ClassroomID,
		Day:          derefInt(req.Day),
		StartMinutes: derefInt(req.StartMinutes),
		EndMinutes:   derefInt(req.EndMinutes),
		Year:         derefInt(req.Year),
		Cycle:        derefInt(req.Cycle),
		Semester:     derefInt(req.Semester),
		Section:      normalizeSection(req.Section),
	}
	if err := validateSchedule(candidate); err != nil {
		return nil, err
	}
	if callerID != "" {
		candidate.CreatedBy = &callerID
		candidate.UpdatedBy = &callerID
	}

	// 3. 冲突检测 + 持久化（同一范围内串行）
	unlock, err := s.locker.Lock(ctx, scopeKey(candidate))
	if err != nil {
		s.logger.Error("获取排课互斥锁失败", zap.String("scope", scopeKey(candidate)), zap.Error(err))
		return nil, ErrScheduleStore.Wrap(err)
	}
	defer unlock()

	if err := s.conflicts.check(ctx, candidate, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Schedule.Create(ctx, candidate); err != nil {
		s.logger.Error("创建排课失败", zap.Error(err))
		return nil, ErrScheduleStore.Wrap(err)
	}

	refs.attach(candidate)
	return toScheduleResponse(candidate), nil
}

// ────────────────────── Update ──────────────────────

func (s *scheduleService) Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID string) (resp *dto.ScheduleResponse, err error) {
	defer observe("update", &err)

	existing, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排课失败", zap.String("id", id), zap.Error(err))
		return nil, ErrScheduleStore.Wrap(err)
	}

	// 1. 逐字段合并，未提供的字段沿用原值
	merged := *existing
	if req.CourseID != nil {
		merged.CourseID = *req.CourseID
	}
	if req.ProfessorID != nil {
		merged.ProfessorID = *req.ProfessorID
	}
	if req.ClassroomID != nil {
		merged.ClassroomID = *req.ClassroomID
	}
	if req.Day != nil {
		merged.Day = *req.Day
	}
	if req.StartMinutes != nil {
		merged.StartMinutes = *req.StartMinutes
	}
	if req.EndMinutes != nil {
		merged.EndMinutes = *req.EndMinutes
	}
	if req.Year != nil {
		merged.Year = *req.Year
	}
	if req.Cycle != nil {
		merged.Cycle = *req.Cycle
	}
	if req.Semester != nil {
		merged.Semester = *req.Semester
	}
	if req.Section != nil {
		merged.Section = normalizeSection(*req.Section)
	}

	// 2. 仅重新解析显式覆盖的引用
	overridden, err := s.resolveOverrides(ctx, req)
	if err != nil {
		return nil, err
	}

	// 3. 对合并后的完整记录做结构校验
	if err := validateSchedule(&merged); err != nil {
		return nil, err
	}
	if callerID != "" {
		merged.UpdatedBy = &callerID
	}

	unlock, err := s.locker.Lock(ctx, scopeKey(&merged))
	if err != nil {
		s.logger.Error("获取排课互斥锁失败", zap.String("scope", scopeKey(&merged)), zap.Error(err))
		return nil, ErrScheduleStore.Wrap(err)
	}
	defer unlock()

	// 4. 冲突检测（排除自身）
	if err := s.conflicts.check(ctx, &merged, id); err != nil {
		return nil, err
	}

	if err := s.repo.Schedule.Update(ctx, &merged); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrScheduleStale
		}
		s.logger.Error("更新排课失败", zap.String("id", id), zap.Error(err))
		return nil, ErrScheduleStore.Wrap(err)
	}

	overridden.attach(&merged)
	return toScheduleResponse(&merged), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除；记录不存在时返回 false 而非错误，不重新评估其他排课
func (s *scheduleService) Delete(ctx context.Context, id string, callerID string) (deleted bool, err error) {
	defer observe("delete", &err)

	deleted, err = s.repo.Schedule.Delete(ctx, id, callerID)
	if err != nil {
		s.logger.Error("删除排课失败", zap.String("id", id), zap.Error(err))
		return false, ErrScheduleStore.Wrap(err)
	}
	return deleted, nil
}

// ────────────────────── List ──────────────────────

func (s *scheduleService) List(ctx context.Context, req *dto.ScheduleListRequest) (result []dto.ScheduleResponse, err error) {
	defer observe("list", &err)

	schedules, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		CourseID:    req.CourseID,
		ProfessorID: req.ProfessorID,
		ClassroomID: req.ClassroomID,
		Section:     normalizeSection(req.Section),
		Day:         req.Day,
		Year:        req.Year,
		Cycle:       req.Cycle,
		Semester:    req.Semester,
	})
	if err != nil {
		s.logger.Error("列出排课失败", zap.Error(err))
		return nil, ErrScheduleStore.Wrap(err)
	}

	result = make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		result = append(result, *toScheduleResponse(&schedules[i]))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id string) (resp *dto.ScheduleResponse, err error) {
	defer observe("get", &err)

	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排课失败", zap.String("id", id), zap.Error(err))
		return nil, ErrScheduleStore.Wrap(err)
	}
	return toScheduleResponse(schedule), nil
}

// ── 引用解析 ──

// scheduleRefs 已解析的引用实体，nil 表示未解析（沿用原关联）
type scheduleRefs struct {
	course    *model.Course
	professor *model.User
	classroom *model.Classroom
}

func (r scheduleRefs) attach(s *model.Schedule) {
	if r.course != nil {
		s.Course = r.course
	}
	if r.professor != nil {
		s.Professor = r.professor
	}
	if r.classroom != nil {
		s.Classroom = r.classroom
	}
}

// resolveRefs 并发查询三个引用，按 课程 → 教师 → 教室 的顺序报告第一个缺失项
func (s *scheduleService) resolveRefs(ctx context.Context, courseID, professorID, classroomID string) (scheduleRefs, error) {
	var (
		refs               scheduleRefs
		courseErr, profErr error
		classroomErr       error
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		refs.course, courseErr = s.lookupCourse(gCtx, courseID)
		return nil
	})
	g.Go(func() error {
		refs.professor, profErr = s.lookupProfessor(gCtx, professorID)
		return nil
	})
	g.Go(func() error {
		refs.classroom, classroomErr = s.lookupClassroom(gCtx, classroomID)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{courseErr, profErr, classroomErr} {
		if err != nil {
			return scheduleRefs{}, err
		}
	}
	return refs, nil
}

// resolveOverrides 更新时只解析请求中显式给出的引用
func (s *scheduleService) resolveOverrides(ctx context.Context, req *dto.UpdateScheduleRequest) (scheduleRefs, error) {
	var (
		refs scheduleRefs
		err  error
	)
	if req.CourseID != nil {
		if refs.course, err = s.lookupCourse(ctx, *req.CourseID); err != nil {
			return scheduleRefs{}, err
		}
	}
	if req.ProfessorID != nil {
		if refs.professor, err = s.lookupProfessor(ctx, *req.ProfessorID); err != nil {
			return scheduleRefs{}, err
		}
	}
	if req.ClassroomID != nil {
		if refs.classroom, err = s.lookupClassroom(ctx, *req.ClassroomID); err != nil {
			return scheduleRefs{}, err
		}
	}
	return refs, nil
}

func (s *scheduleService) lookupCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		return nil, s.refError(err, ErrCourseRefNotFound, id)
	}
	return course, nil
}

// lookupProfessor 用户存在但角色不是教师时同样视为引用无效
func (s *scheduleService) lookupProfessor(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, s.refError(err, ErrProfessorRefNotFound, id)
	}
	if !user.IsProfessor() {
		return nil, ErrProfessorRefNotFound
	}
	return user, nil
}

func (s *scheduleService) lookupClassroom(ctx context.Context, id string) (*model.Classroom, error) {
	classroom, err := s.repo.Classroom.GetByID(ctx, id)
	if err != nil {
		return nil, s.refError(err, ErrClassroomRefNotFound, id)
	}
	return classroom, nil
}

func (s *scheduleService) refError(err error, notFound *pkgerrors.Error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	s.logger.Error("解析排课引用失败", zap.String("ref", notFound.Reason), zap.String("id", id), zap.Error(err))
	return ErrScheduleStore.Wrap(err)
}

// ── 内部辅助方法 ──

// observe 按错误分类记录操作结果
func observe(operation string, errp *error) {
	result := metrics.ResultOK
	switch pkgerrors.KindOf(*errp) {
	case "":
	case pkgerrors.KindNotFound:
		result = metrics.ResultNotFound
	case pkgerrors.KindReferential:
		result = metrics.ResultReferential
	case pkgerrors.KindValidation:
		result = metrics.ResultValidation
	case pkgerrors.KindConflict:
		result = metrics.ResultConflict
	default:
		result = metrics.ResultStore
	}
	metrics.ObserveScheduleOperation(operation, result)
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// formatMinutes 将分钟数格式化为 HH:MM
func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func toScheduleResponse(s *model.Schedule) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		ID:           s.ScheduleID,
		CourseID:     s.CourseID,
		ProfessorID:  s.ProfessorID,
		ClassroomID:  s.ClassroomID,
		Day:          s.Day,
		StartMinutes: s.StartMinutes,
		EndMinutes:   s.EndMinutes,
		StartTime:    formatMinutes(s.StartMinutes),
		EndTime:      formatMinutes(s.EndMinutes),
		Year:         s.Year,
		Cycle:        s.Cycle,
		Semester:     s.Semester,
		Section:      s.Section,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    s.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.Course != nil {
		resp.Course = toCourseBrief(s.Course)
	}
	if s.Professor != nil {
		resp.Professor = &dto.ProfessorBriefResponse{
			ID:    s.Professor.UserID,
			Name:  s.Professor.Name,
			Email: s.Professor.Email,
		}
	}
	if s.Classroom != nil {
		resp.Classroom = &dto.ClassroomBriefResponse{
			ID:       s.Classroom.ClassroomID,
			Name:     s.Classroom.Name,
			Capacity: s.Classroom.Capacity,
			Location: s.Classroom.Location,
		}
	}
	return resp
}
