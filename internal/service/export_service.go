package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"academic-scheduler/internal/model"
	"academic-scheduler/internal/repository"
	pkgerrors "academic-scheduler/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSchedules  = pkgerrors.New(pkgerrors.KindNotFound, "export", "该学期暂无排课")
	ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindStore, "export", "生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// Excel 格式：每个班级一个 Sheet，行为时间段，列为周日至周六。
type ExportService interface {
	ExportSchedules(ctx context.Context, period model.Period) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var weekdayNames = [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// timeRange 表格中的一行
type timeRange struct {
	start, end int
}

// ExportSchedules 导出某学期全部排课
// 返回值：buf（Excel 内容）, filename（建议文件名）, error
func (s *exportService) ExportSchedules(ctx context.Context, period model.Period) (*bytes.Buffer, string, error) {
	// 1. 查询该学期排课（已按 day, start_minutes 排序）
	schedules, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		Year:     &period.Year,
		Cycle:    &period.Cycle,
		Semester: &period.Semester,
	})
	if err != nil {
		s.logger.Error("查询排课失败", zap.Error(err))
		return nil, "", err
	}
	if len(schedules) == 0 {
		return nil, "", ErrExportNoSchedules
	}

	// 2. 按班级分组
	bySection := make(map[string][]model.Schedule)
	for _, sc := range schedules {
		bySection[sc.Section] = append(bySection[sc.Section], sc)
	}
	sections := make([]string, 0, len(bySection))
	for sec := range bySection {
		sections = append(sections, sec)
	}
	sort.Strings(sections)

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	usedNames := make(map[string]bool)
	for i, sec := range sections {
		sheet := uniqueSheetName(sheetNameFor(sec), usedNames)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				s.logger.Error("重命名 Sheet 失败", zap.Error(err))
				return nil, "", ErrExportGenerateFail.Wrap(err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", sheet), zap.Error(err))
			return nil, "", ErrExportGenerateFail.Wrap(err)
		}
		writeSectionSheet(f, sheet, period, sec, bySection[sec], headerStyle, cellStyle)
	}
	f.SetActiveSheet(0)

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail.Wrap(err)
	}

	filename := fmt.Sprintf("课表_%d_%d_%d.xlsx", period.Year, period.Cycle, period.Semester)
	return buf, filename, nil
}

// writeSectionSheet 写入单个班级的周课表
func writeSectionSheet(f *excelize.File, sheet string, period model.Period, section string, items []model.Schedule, headerStyle, cellStyle int) {
	// 收集唯一时间段并排序
	seen := make(map[timeRange]bool)
	var ranges []timeRange
	for _, it := range items {
		tr := timeRange{it.StartMinutes, it.EndMinutes}
		if !seen[tr] {
			seen[tr] = true
			ranges = append(ranges, tr)
		}
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].start != ranges[j].start {
			return ranges[i].start < ranges[j].start
		}
		return ranges[i].end < ranges[j].end
	})
	rowOf := make(map[timeRange]int, len(ranges))
	for i, tr := range ranges {
		rowOf[tr] = 3 + i
	}

	// 单元格内容："timeRange:day" → 多行文本
	cells := make(map[string][]string)
	for _, it := range items {
		key := fmt.Sprintf("%d:%d:%d", it.StartMinutes, it.EndMinutes, it.Day)
		cells[key] = append(cells[key], scheduleCellText(&it))
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "H", 26)

	// 标题行
	f.SetCellValue(sheet, "A1", fmt.Sprintf("%d年 周期%d 第%d学期 · 班级 %s", period.Year, period.Cycle, period.Semester, section))
	f.MergeCell(sheet, "A1", "H1")
	f.SetCellStyle(sheet, "A1", "H1", headerStyle)

	// 表头
	f.SetCellValue(sheet, cell("A", 2), "时间")
	for d, name := range weekdayNames {
		f.SetCellValue(sheet, cell(colName(1+d), 2), name)
	}
	f.SetCellStyle(sheet, "A2", "H2", headerStyle)

	// 数据行
	for _, tr := range ranges {
		row := rowOf[tr]
		f.SetCellValue(sheet, cell("A", row), fmt.Sprintf("%s-%s", formatMinutes(tr.start), formatMinutes(tr.end)))
		for d := 0; d < 7; d++ {
			key := fmt.Sprintf("%d:%d:%d", tr.start, tr.end, d)
			text := "-"
			if lines, ok := cells[key]; ok {
				text = strings.Join(lines, "\n")
			}
			f.SetCellValue(sheet, cell(colName(1+d), row), text)
		}
	}
	if len(ranges) > 0 {
		f.SetCellStyle(sheet, "B3", cell("H", 2+len(ranges)), cellStyle)
	}
}

// scheduleCellText 课程代码 + 名称，换行后为教师与教室
func scheduleCellText(s *model.Schedule) string {
	course := s.CourseID
	if s.Course != nil {
		course = s.Course.Code + " " + s.Course.Name
	}
	professor := "-"
	if s.Professor != nil {
		professor = s.Professor.Name
	}
	classroom := "-"
	if s.Classroom != nil {
		classroom = s.Classroom.Name
	}
	return fmt.Sprintf("%s\n%s @ %s", course, professor, classroom)
}

// sheetNameFor Sheet 名最长 31 字符且不能包含 : \ / ? * [ ]
func sheetNameFor(section string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, section)
	name = "班级 " + name
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf("(%d)", i)
		runes := []rune(name)
		if len(runes)+len(suffix) > 31 {
			runes = runes[:31-len(suffix)]
		}
		candidate = string(runes) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
