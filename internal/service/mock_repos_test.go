package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"shift-roster/internal/model"
	"shift-roster/internal/repository"
	"shift-roster/internal/shift"
	pkgerrors "shift-roster/pkg/errors"
)

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[int64]*model.Employee
	nextID    int64
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[int64]*model.Employee)}
}

func (m *mockEmployeeRepo) List(_ context.Context) ([]model.Employee, error) {
	result := make([]model.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id int64) (*model.Employee, error) {
	if e, ok := m.employees[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByEmpNo(_ context.Context, empNo string) (*model.Employee, error) {
	for _, e := range m.employees {
		if e.EmpNo == empNo {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) Create(_ context.Context, employee *model.Employee) error {
	for _, e := range m.employees {
		if e.EmpNo == employee.EmpNo {
			return pkgerrors.ErrConflict
		}
	}
	if employee.ID == 0 {
		m.nextID++
		employee.ID = m.nextID
	}
	m.employees[employee.ID] = employee
	return nil
}

func (m *mockEmployeeRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.employees)), nil
}

// ── Mock AssignmentRepository ──

// mockAssignmentRepo 以 (employee_id, date) 为键的内存存储，upsert 语义与数据库一致
type mockAssignmentRepo struct {
	mu     sync.Mutex
	rows   map[string]*model.Assignment
	nextID int64

	// 错误注入
	batchErr error
	writes   int // 发生过的写操作次数
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{rows: make(map[string]*model.Assignment)}
}

func assignmentKey(employeeID int64, date string) string {
	return date + "#" + strconv.FormatInt(employeeID, 10)
}

func (m *mockAssignmentRepo) sorted(match func(*model.Assignment) bool) []model.Assignment {
	var result []model.Assignment
	for _, a := range m.rows {
		if match(a) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result
}

func (m *mockAssignmentRepo) ListByMonth(_ context.Context, year, month int) ([]model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := shift.MonthPrefix(year, month) + "-"
	return m.sorted(func(a *model.Assignment) bool { return strings.HasPrefix(a.Date, prefix) }), nil
}

func (m *mockAssignmentRepo) ListAll(_ context.Context) ([]model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*model.Assignment) bool { return true }), nil
}

func (m *mockAssignmentRepo) Get(_ context.Context, employeeID int64, date string) (*model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.rows[assignmentKey(employeeID, date)]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) upsert(employeeID int64, date, code string) *model.Assignment {
	now := time.Now().UTC()
	key := assignmentKey(employeeID, date)
	if a, ok := m.rows[key]; ok {
		a.Shift = code
		a.UpdatedAt = now
		return a
	}
	m.nextID++
	a := &model.Assignment{
		ID:         m.nextID,
		EmployeeID: employeeID,
		Date:       date,
		Shift:      code,
		BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	m.rows[key] = a
	return a
}

func (m *mockAssignmentRepo) Upsert(_ context.Context, employeeID int64, date string, code shift.Code) (*model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	cp := *m.upsert(employeeID, date, string(code))
	return &cp, nil
}

func (m *mockAssignmentRepo) BatchUpsert(_ context.Context, assignments []model.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchErr != nil {
		return m.batchErr
	}
	m.writes++
	for _, a := range assignments {
		m.upsert(a.EmployeeID, a.Date, a.Shift)
	}
	return nil
}

func (m *mockAssignmentRepo) ClearMonth(_ context.Context, year, month int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	prefix := shift.MonthPrefix(year, month) + "-"
	var n int64
	for k, a := range m.rows {
		if strings.HasPrefix(a.Date, prefix) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

// count 当前存储行数
func (m *mockAssignmentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ── Mock AssignmentChangeLogRepository ──

type mockChangeLogRepo struct {
	mu   sync.Mutex
	logs []model.AssignmentChangeLog
}

func newMockChangeLogRepo() *mockChangeLogRepo {
	return &mockChangeLogRepo{}
}

func (m *mockChangeLogRepo) BatchCreate(_ context.Context, logs []model.AssignmentChangeLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range logs {
		l.ID = int64(len(m.logs) + 1)
		l.CreatedAt = time.Now().UTC()
		m.logs = append(m.logs, l)
	}
	return nil
}

func (m *mockChangeLogRepo) ListByMonth(_ context.Context, year, month, offset, limit int) ([]model.AssignmentChangeLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := shift.MonthPrefix(year, month) + "-"
	var matched []model.AssignmentChangeLog
	for _, l := range m.logs {
		if strings.HasPrefix(l.Date, prefix) {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockChangeLogRepo) byType(changeType string) []model.AssignmentChangeLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AssignmentChangeLog
	for _, l := range m.logs {
		if l.ChangeType == changeType {
			out = append(out, l)
		}
	}
	return out
}

// ── 聚合 ──

type testRepos struct {
	employee   *mockEmployeeRepo
	assignment *mockAssignmentRepo
	changeLog  *mockChangeLogRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		employee:   newMockEmployeeRepo(),
		assignment: newMockAssignmentRepo(),
		changeLog:  newMockChangeLogRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Employee:   r.employee,
		Assignment: r.assignment,
		ChangeLog:  r.changeLog,
	}
}
