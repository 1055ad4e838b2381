package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"shift-roster/config"
	"shift-roster/internal/dto"
	"shift-roster/internal/model"
	"shift-roster/internal/shift"
	pkgerrors "shift-roster/pkg/errors"
)

// ── 测试辅助 ──

var (
	adminCaller = Caller{EmployeeID: 1, IsAdmin: true}
	staffCaller = Caller{EmployeeID: 6} // 周三休
)

func testScheduleConfig() *config.ScheduleConfig {
	return &config.ScheduleConfig{
		MinManpower: 7,
		LockTTL:     time.Minute,
		LockWait:    time.Second,
	}
}

func setupTestScheduleService() (ScheduleService, *testRepos) {
	repos := newTestRepos()
	svc := NewScheduleService(testScheduleConfig(), repos.toRepository(), nil, nil, zap.NewNop())
	return svc, repos
}

// seedScenarioRoster 1 名管理员 + 8 名轮转员工（两人周日休，其余周一至周六各一人）
func seedScenarioRoster(repos *testRepos) {
	repos.employee.employees[1] = &model.Employee{ID: 1, EmpNo: "admin", Name: "Administrator", WeeklyOff: "SUN", IsAdmin: true}
	offs := []string{"SUN", "SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}
	for i, off := range offs {
		id := int64(i + 2)
		repos.employee.employees[id] = &model.Employee{
			ID:        id,
			EmpNo:     fmt.Sprintf("20009%02d", i),
			Name:      fmt.Sprintf("员工%d", i+1),
			Section:   "DISPATCH",
			WeeklyOff: off,
		}
	}
	repos.employee.nextID = 9
}

// activeByDate 按日期统计 A/B/C 人数
func activeByDate(list []dto.AssignmentResponse) map[string]int {
	out := make(map[string]int)
	for _, a := range list {
		if shift.Code(a.Shift).Active() {
			out[a.Date]++
		}
	}
	return out
}

func findAssignment(list []dto.AssignmentResponse, employeeID int64, date string) (dto.AssignmentResponse, bool) {
	for _, a := range list {
		if a.EmployeeID == employeeID && a.Date == date {
			return a, true
		}
	}
	return dto.AssignmentResponse{}, false
}

// ════════════════════════════════════════════════════════════
// Generate 测试
// ════════════════════════════════════════════════════════════

func TestScheduleService_Generate_Forbidden(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)

	_, err := svc.Generate(context.Background(), staffCaller, 2026, 2)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("期望 ErrForbidden，实际: %v", err)
	}
	if repos.assignment.writes != 0 {
		t.Errorf("拒绝后不应有任何写入，实际写入 %d 次", repos.assignment.writes)
	}
}

func TestScheduleService_Generate_InvalidMonth(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)

	_, err := svc.Generate(context.Background(), adminCaller, 2026, 13)
	ve, ok := pkgerrors.AsValidation(err)
	if !ok {
		t.Fatalf("期望校验错误，实际: %v", err)
	}
	if ve.Field != "month" {
		t.Errorf("期望字段 month，实际=%s", ve.Field)
	}
	if repos.assignment.writes != 0 {
		t.Error("校验失败不应写入")
	}
}

func TestScheduleService_Generate_ManpowerFloorScenario(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)
	ctx := context.Background()

	resp, err := svc.Generate(ctx, adminCaller, 2026, 2)
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	if resp.Days != 28 {
		t.Errorf("期望 28 天，实际=%d", resp.Days)
	}
	if resp.Count != 8*28 {
		t.Errorf("期望写入 224 条，实际=%d", resp.Count)
	}
	if len(resp.Shortfalls) != 0 {
		t.Errorf("8 名员工不应出现人力缺口: %+v", resp.Shortfalls)
	}

	list, err := svc.ListAssignments(ctx, 2026, 2)
	if err != nil {
		t.Fatalf("ListAssignments 失败: %v", err)
	}
	active := activeByDate(list)
	for d := 1; d <= 28; d++ {
		date := shift.Date(2026, 2, d)
		if active[date] < 7 {
			t.Errorf("%s 在岗 %d 人，低于 7", date, active[date])
		}
	}

	// 管理员不参与排班
	for _, a := range list {
		if a.EmployeeID == 1 {
			t.Fatalf("管理员不应被排班: %+v", a)
		}
	}

	// 覆盖明细写入审计日志
	logs := repos.changeLog.byType(model.ChangeTypeFloorOverride)
	if len(logs) != len(resp.Overrides) || len(logs) == 0 {
		t.Errorf("覆盖日志数量 %d 与覆盖明细 %d 不一致", len(logs), len(resp.Overrides))
	}
	for _, l := range logs {
		if l.OriginalShift == nil || *l.OriginalShift != "OFF" {
			t.Errorf("覆盖日志原班次应为 OFF: %+v", l)
		}
		if l.OperatorID != adminCaller.EmployeeID {
			t.Errorf("覆盖日志操作人应为管理员: %+v", l)
		}
	}
}

func TestScheduleService_Generate_Idempotent(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)
	ctx := context.Background()

	first, err := svc.Generate(ctx, adminCaller, 2026, 2)
	if err != nil {
		t.Fatalf("第一次 Generate 失败: %v", err)
	}
	before, _ := svc.ListAssignments(ctx, 2026, 2)

	second, err := svc.Generate(ctx, adminCaller, 2026, 2)
	if err != nil {
		t.Fatalf("第二次 Generate 失败: %v", err)
	}
	after, _ := svc.ListAssignments(ctx, 2026, 2)

	if first.Count != second.Count || len(before) != len(after) {
		t.Fatalf("重复生成记录数变化: %d → %d", len(before), len(after))
	}
	for _, a := range before {
		b, ok := findAssignment(after, a.EmployeeID, a.Date)
		if !ok || b.Shift != a.Shift {
			t.Errorf("员工 %d 在 %s 的班次变化: %s → %s", a.EmployeeID, a.Date, a.Shift, b.Shift)
		}
	}
}

func TestScheduleService_Generate_LeavePreserved(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)
	ctx := context.Background()

	// 员工本人登记请假
	_, err := svc.RecordLeave(ctx, staffCaller, &dto.LeaveRequest{EmployeeID: 6, Date: "2026-02-15"})
	if err != nil {
		t.Fatalf("RecordLeave 失败: %v", err)
	}
	// 管理员为自己登记请假（管理员不参与排班，但请假标记需保留）
	_, err = svc.RecordLeave(ctx, adminCaller, &dto.LeaveRequest{EmployeeID: 1, Date: "2026-02-10"})
	if err != nil {
		t.Fatalf("管理员 RecordLeave 失败: %v", err)
	}

	if _, err := svc.Generate(ctx, adminCaller, 2026, 2); err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}

	list, _ := svc.ListAssignments(ctx, 2026, 2)
	a, ok := findAssignment(list, 6, "2026-02-15")
	if !ok || a.Shift != "L" {
		t.Errorf("请假应保留为 L，实际: %+v", a)
	}
	a, ok = findAssignment(list, 1, "2026-02-10")
	if !ok || a.Shift != "L" {
		t.Errorf("管理员请假应保留为 L，实际: %+v", a)
	}

	// 其他月份不受影响
	if _, err := svc.Generate(ctx, adminCaller, 2026, 3); err != nil {
		t.Fatalf("Generate 3 月失败: %v", err)
	}
	list, _ = svc.ListAssignments(ctx, 2026, 2)
	if a, _ := findAssignment(list, 6, "2026-02-15"); a.Shift != "L" {
		t.Error("生成 3 月不应影响 2 月记录")
	}
}

func TestScheduleService_Generate_EmptyRoster(t *testing.T) {
	svc, repos := setupTestScheduleService()
	repos.employee.employees[1] = &model.Employee{ID: 1, EmpNo: "admin", WeeklyOff: "SUN", IsAdmin: true}

	resp, err := svc.Generate(context.Background(), adminCaller, 2026, 2)
	if err != nil {
		t.Fatalf("空名册不应报错: %v", err)
	}
	if resp.Count != 0 || len(resp.Shortfalls) != 0 {
		t.Errorf("空名册应无记录、无缺口: %+v", resp)
	}
}

func TestScheduleService_Generate_GeneralSection(t *testing.T) {
	repos := newTestRepos()
	seedScenarioRoster(repos)
	repos.employee.employees[10] = &model.Employee{ID: 10, EmpNo: "G-01", Section: "General", WeeklyOff: "SUN"}

	cfg := testScheduleConfig()
	cfg.GeneralSections = []string{"GENERAL"}
	svc := NewScheduleService(cfg, repos.toRepository(), nil, nil, zap.NewNop())

	if _, err := svc.Generate(context.Background(), adminCaller, 2026, 2); err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	list, _ := svc.ListAssignments(context.Background(), 2026, 2)
	for _, a := range list {
		if a.EmployeeID != 10 {
			continue
		}
		day, _ := shift.ParseDate(a.Date)
		want := "G"
		if shift.WeekdayOf(day) == "SUN" {
			want = "OFF"
		}
		if a.Shift != want {
			t.Errorf("常日班员工 %s 期望 %s，实际=%s", a.Date, want, a.Shift)
		}
	}
}

func TestScheduleService_Generate_StorageFailure(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)
	repos.assignment.batchErr = errors.New("connection reset")

	_, err := svc.Generate(context.Background(), adminCaller, 2026, 2)
	if err == nil {
		t.Fatal("存储失败时 Generate 应整体失败")
	}
	if len(repos.changeLog.logs) != 0 {
		t.Error("写入失败后不应记录覆盖日志")
	}

	// 存储恢复后重新提交即可
	repos.assignment.batchErr = nil
	if _, err := svc.Generate(context.Background(), adminCaller, 2026, 2); err != nil {
		t.Fatalf("恢复后重试应成功: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// UpdateSchedule / RecordLeave 测试
// ════════════════════════════════════════════════════════════

func TestScheduleService_UpdateSchedule_NonAdminBoundary(t *testing.T) {
	cases := []struct {
		name string
		req  dto.UpdateScheduleRequest
	}{
		{"他人记录", dto.UpdateScheduleRequest{EmployeeID: 7, Date: "2026-02-15", Shift: "L"}},
		{"非请假班次", dto.UpdateScheduleRequest{EmployeeID: 6, Date: "2026-02-15", Shift: "A"}},
		{"他人且非请假", dto.UpdateScheduleRequest{EmployeeID: 7, Date: "2026-02-15", Shift: "OFF"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repos := setupTestScheduleService()
			seedScenarioRoster(repos)

			_, err := svc.UpdateSchedule(context.Background(), staffCaller, &tc.req)
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("期望 ErrForbidden，实际: %v", err)
			}
			if repos.assignment.writes != 0 || repos.assignment.count() != 0 {
				t.Error("拒绝后不应发生任何写入")
			}
			if len(repos.changeLog.logs) != 0 {
				t.Error("拒绝后不应记录变更日志")
			}
		})
	}
}

func TestScheduleService_UpdateSchedule_Validation(t *testing.T) {
	cases := []struct {
		name  string
		req   dto.UpdateScheduleRequest
		field string
	}{
		{"日期格式", dto.UpdateScheduleRequest{EmployeeID: 6, Date: "2026/02/15", Shift: "L"}, "date"},
		{"日期不存在", dto.UpdateScheduleRequest{EmployeeID: 6, Date: "2026-02-30", Shift: "L"}, "date"},
		{"班次小写", dto.UpdateScheduleRequest{EmployeeID: 6, Date: "2026-02-15", Shift: "l"}, "shift"},
		{"未知班次", dto.UpdateScheduleRequest{EmployeeID: 6, Date: "2026-02-15", Shift: "X"}, "shift"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repos := setupTestScheduleService()
			seedScenarioRoster(repos)

			_, err := svc.UpdateSchedule(context.Background(), adminCaller, &tc.req)
			ve, ok := pkgerrors.AsValidation(err)
			if !ok {
				t.Fatalf("期望校验错误，实际: %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("期望字段 %s，实际=%s", tc.field, ve.Field)
			}
			if repos.assignment.writes != 0 {
				t.Error("校验失败不应写入")
			}
		})
	}
}

func TestScheduleService_UpdateSchedule_EmployeeNotFound(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)

	_, err := svc.UpdateSchedule(context.Background(), adminCaller, &dto.UpdateScheduleRequest{
		EmployeeID: 999, Date: "2026-02-15", Shift: "A",
	})
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
	if repos.assignment.writes != 0 {
		t.Error("员工不存在时不应写入")
	}
}

func TestScheduleService_UpdateSchedule_UpsertSemantics(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)
	ctx := context.Background()

	first, err := svc.UpdateSchedule(ctx, adminCaller, &dto.UpdateScheduleRequest{EmployeeID: 3, Date: "2026-02-20", Shift: "A"})
	if err != nil {
		t.Fatalf("第一次更新失败: %v", err)
	}
	second, err := svc.UpdateSchedule(ctx, adminCaller, &dto.UpdateScheduleRequest{EmployeeID: 3, Date: "2026-02-20", Shift: "B"})
	if err != nil {
		t.Fatalf("第二次更新失败: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("同一 (员工, 日期) 应为同一行: %d vs %d", first.ID, second.ID)
	}
	if repos.assignment.count() != 1 {
		t.Fatalf("期望 1 行，实际=%d", repos.assignment.count())
	}
	list, _ := svc.ListAssignments(ctx, 2026, 2)
	if a, _ := findAssignment(list, 3, "2026-02-20"); a.Shift != "B" {
		t.Errorf("期望保留后写入的 B，实际=%s", a.Shift)
	}

	logs := repos.changeLog.byType(model.ChangeTypeAdminModify)
	if len(logs) != 2 {
		t.Fatalf("期望 2 条 admin_modify 日志，实际=%d", len(logs))
	}
	if logs[0].OriginalShift != nil {
		t.Error("首次写入原班次应为空")
	}
	if logs[1].OriginalShift == nil || *logs[1].OriginalShift != "A" {
		t.Error("第二次写入原班次应为 A")
	}
}

func TestScheduleService_RecordLeave_Self(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)

	resp, err := svc.RecordLeave(context.Background(), staffCaller, &dto.LeaveRequest{EmployeeID: 6, Date: "2026-02-15"})
	if err != nil {
		t.Fatalf("RecordLeave 失败: %v", err)
	}
	if resp.Shift != "L" || resp.EmployeeID != 6 {
		t.Errorf("返回记录不符: %+v", resp)
	}

	logs := repos.changeLog.byType(model.ChangeTypeLeaveRequest)
	if len(logs) != 1 || logs[0].OperatorID != 6 {
		t.Errorf("应记录 1 条本人 leave_request 日志: %+v", logs)
	}
}

func TestScheduleService_UpdateSchedule_ConcurrentSameKey(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)

	codes := []string{"A", "B", "C", "OFF", "L"}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.UpdateSchedule(context.Background(), adminCaller, &dto.UpdateScheduleRequest{
				EmployeeID: 4, Date: "2026-02-18", Shift: codes[i%len(codes)],
			})
			if err != nil {
				t.Errorf("并发更新失败: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if repos.assignment.count() != 1 {
		t.Errorf("并发写同一键后应只有 1 行，实际=%d", repos.assignment.count())
	}
}

// ════════════════════════════════════════════════════════════
// 查询测试
// ════════════════════════════════════════════════════════════

func TestScheduleService_ListAssignments(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)
	ctx := context.Background()

	_, _ = svc.UpdateSchedule(ctx, adminCaller, &dto.UpdateScheduleRequest{EmployeeID: 2, Date: "2026-01-31", Shift: "A"})
	_, _ = svc.UpdateSchedule(ctx, adminCaller, &dto.UpdateScheduleRequest{EmployeeID: 2, Date: "2026-02-01", Shift: "C"})

	all, err := svc.ListAssignments(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListAssignments(全部) 失败: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("期望全部 2 条，实际=%d", len(all))
	}

	feb, _ := svc.ListAssignments(ctx, 2026, 2)
	if len(feb) != 1 || feb[0].Date != "2026-02-01" {
		t.Errorf("2 月应仅 1 条: %+v", feb)
	}

	_, err = svc.ListAssignments(ctx, 2026, 0)
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("仅提供年份应校验失败，实际: %v", err)
	}
}

func TestScheduleService_ListChangeLogs(t *testing.T) {
	svc, repos := setupTestScheduleService()
	seedScenarioRoster(repos)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, adminCaller, 2026, 2); err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}

	req := &dto.ChangeLogListRequest{Year: 2026, Month: 2, PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2}}
	_, _, err := svc.ListChangeLogs(ctx, staffCaller, req)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("非管理员应被拒绝，实际: %v", err)
	}

	list, total, err := svc.ListChangeLogs(ctx, adminCaller, req)
	if err != nil {
		t.Fatalf("ListChangeLogs 失败: %v", err)
	}
	if total != int64(len(repos.changeLog.logs)) {
		t.Errorf("total 不符: %d vs %d", total, len(repos.changeLog.logs))
	}
	if total >= 2 && len(list) != 2 {
		t.Errorf("分页大小 2，实际返回 %d 条", len(list))
	}
}
