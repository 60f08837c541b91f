package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"academic-scheduler/internal/model"
	"academic-scheduler/internal/repository"
	pkgerrors "academic-scheduler/pkg/errors"
	"academic-scheduler/pkg/metrics"
)

// 冲突维度
const (
	DimensionProfessor = "professor"
	DimensionClassroom = "classroom"
	DimensionSection   = "section"
)

var (
	ErrProfessorBusy = pkgerrors.New(pkgerrors.KindConflict, DimensionProfessor, "该教师在此时段已有排课")
	ErrClassroomBusy = pkgerrors.New(pkgerrors.KindConflict, DimensionClassroom, "该教室在此时段已被占用")
	ErrSectionBusy   = pkgerrors.New(pkgerrors.KindConflict, DimensionSection, "该班级在此时段已有课程")
)

// conflictDimension 一个冲突维度：如何构造查询，以及命中时返回的错误
type conflictDimension struct {
	name  string
	err   *pkgerrors.Error
	scope func(c *model.Schedule) repository.ScheduleScopeQuery
}

// 评估顺序即上报优先级：教师 → 教室 → 班级
var conflictDimensions = []conflictDimension{
	{
		name: DimensionProfessor,
		err:  ErrProfessorBusy,
		scope: func(c *model.Schedule) repository.ScheduleScopeQuery {
			return repository.ScheduleScopeQuery{ProfessorID: c.ProfessorID}
		},
	},
	{
		name: DimensionClassroom,
		err:  ErrClassroomBusy,
		scope: func(c *model.Schedule) repository.ScheduleScopeQuery {
			return repository.ScheduleScopeQuery{ClassroomID: c.ClassroomID}
		},
	},
	{
		name: DimensionSection,
		err:  ErrSectionBusy,
		scope: func(c *model.Schedule) repository.ScheduleScopeQuery {
			return repository.ScheduleScopeQuery{Section: normalizeSection(c.Section)}
		},
	},
}

// conflictChecker 同学期同一天内按维度检测时段重叠
type conflictChecker struct {
	schedules repository.ScheduleRepository
	logger    *zap.Logger
}

func newConflictChecker(schedules repository.ScheduleRepository, logger *zap.Logger) *conflictChecker {
	return &conflictChecker{schedules: schedules, logger: logger}
}

// check 三个维度的查询并发执行，全部完成后按固定顺序评估
// excludeID 非空时排除该记录（更新场景排除自身）
func (c *conflictChecker) check(ctx context.Context, candidate *model.Schedule, excludeID string) error {
	start := time.Now()
	defer func() { metrics.ObserveConflictCheck(time.Since(start).Seconds()) }()

	existing := make([][]model.Schedule, len(conflictDimensions))

	g, gCtx := errgroup.WithContext(ctx)
	for i, dim := range conflictDimensions {
		q := dim.scope(candidate)
		q.Day = candidate.Day
		q.Year = candidate.Year
		q.Cycle = candidate.Cycle
		q.Semester = candidate.Semester
		q.ExcludeID = excludeID

		i, q := i, q
		g.Go(func() error {
			rows, err := c.schedules.FindInScope(gCtx, q)
			if err != nil {
				return err
			}
			existing[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("冲突检测查询失败", zap.Error(err))
		return ErrScheduleStore.Wrap(err)
	}

	for i, dim := range conflictDimensions {
		for _, e := range existing[i] {
			if overlaps(candidate.StartMinutes, candidate.EndMinutes, e.StartMinutes, e.EndMinutes) {
				metrics.ObserveConflict(dim.name)
				c.logger.Info("排课时段冲突",
					zap.String("dimension", dim.name),
					zap.String("conflict_id", e.ScheduleID),
					zap.Int("day", candidate.Day),
					zap.Int("start_minutes", candidate.StartMinutes),
					zap.Int("end_minutes", candidate.EndMinutes),
				)
				return dim.err.WithConflict(e.ScheduleID)
			}
		}
	}
	return nil
}
