package service

import (
	"strings"

	"academic-scheduler/internal/model"
	pkgerrors "academic-scheduler/pkg/errors"
)

// ── 排课校验规则 ──

// 取值边界
const (
	minutesPerDay = 24 * 60
	minYear       = 2000
	maxYear       = 2100
	maxSemester   = 10
)

var (
	ErrSectionRequired    = pkgerrors.New(pkgerrors.KindValidation, "section_required", "班级（section）不能为空")
	ErrDayOutOfRange      = pkgerrors.New(pkgerrors.KindValidation, "day_range", "星期必须在 0-6 之间（0=周日）")
	ErrMinutesOutOfRange  = pkgerrors.New(pkgerrors.KindValidation, "minutes_range", "开始/结束时间必须在 0-1440 分钟之间")
	ErrYearOutOfRange     = pkgerrors.New(pkgerrors.KindValidation, "year_range", "学年必须在 2000-2100 之间")
	ErrCycleInvalid       = pkgerrors.New(pkgerrors.KindValidation, "cycle_value", "周期只能是 1 或 2")
	ErrSemesterOutOfRange = pkgerrors.New(pkgerrors.KindValidation, "semester_range", "学期必须在 1-10 之间")
	ErrTimeOrder          = pkgerrors.New(pkgerrors.KindValidation, "time_order", "结束时间必须晚于开始时间")
	ErrCycleParity        = pkgerrors.New(pkgerrors.KindValidation, "cycle_parity", "周期 1 只能对应奇数学期，周期 2 只能对应偶数学期")
)

// overlaps 半开区间 [aStart, aEnd) 与 [bStart, bEnd) 是否相交
// 首尾相接不算重叠。调用方统一按 (候选, 已有) 的顺序传参。
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// normalizeSection 去除首尾空白
func normalizeSection(section string) string {
	return strings.TrimSpace(section)
}

// validateSchedule 对完整的候选排课做结构性校验，不访问存储
// 按固定顺序返回第一条违反的规则
func validateSchedule(s *model.Schedule) error {
	switch {
	case normalizeSection(s.Section) == "":
		return ErrSectionRequired
	case s.Day < 0 || s.Day > 6:
		return ErrDayOutOfRange
	case s.StartMinutes < 0 || s.StartMinutes > minutesPerDay,
		s.EndMinutes < 0 || s.EndMinutes > minutesPerDay:
		return ErrMinutesOutOfRange
	case s.Year < minYear || s.Year > maxYear:
		return ErrYearOutOfRange
	case s.Cycle != 1 && s.Cycle != 2:
		return ErrCycleInvalid
	case s.Semester < 1 || s.Semester > maxSemester:
		return ErrSemesterOutOfRange
	case s.StartMinutes >= s.EndMinutes:
		return ErrTimeOrder
	case (s.Cycle == 1) != (s.Semester%2 == 1):
		return ErrCycleParity
	}
	return nil
}
