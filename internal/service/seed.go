package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"shift-roster/internal/model"
	"shift-roster/internal/repository"
	"shift-roster/internal/shift"
	pkgerrors "shift-roster/pkg/errors"
)

// RosterFile 初始名册 YAML 结构
type RosterFile struct {
	Employees []RosterEntry `yaml:"employees"`
}

// RosterEntry 名册条目
type RosterEntry struct {
	EmpNo        string `yaml:"emp_no"`
	Name         string `yaml:"name"`
	Section      string `yaml:"section"`
	WeeklyOff    string `yaml:"weekly_off"`
	Password     string `yaml:"password"`
	IsAdmin      bool   `yaml:"is_admin"`
	GeneralShift bool   `yaml:"general_shift"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
}

// ParseRoster 解析并校验名册
func ParseRoster(r io.Reader) (*RosterFile, error) {
	var roster RosterFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&roster); err != nil {
		if errors.Is(err, io.EOF) {
			return &roster, nil
		}
		return nil, fmt.Errorf("解析名册失败: %w", err)
	}

	seen := make(map[string]bool, len(roster.Employees))
	for i, e := range roster.Employees {
		if strings.TrimSpace(e.EmpNo) == "" {
			return nil, fmt.Errorf("名册第 %d 条: emp_no 不能为空", i+1)
		}
		if seen[e.EmpNo] {
			return nil, fmt.Errorf("名册第 %d 条: emp_no %q 重复", i+1, e.EmpNo)
		}
		seen[e.EmpNo] = true
		if _, err := shift.ParseWeekday(e.WeeklyOff); err != nil {
			return nil, fmt.Errorf("名册第 %d 条: %w", i+1, err)
		}
		if e.Password == "" {
			return nil, fmt.Errorf("名册第 %d 条: password 不能为空", i+1)
		}
	}
	return &roster, nil
}

// Seeder 初始名册导入
type Seeder struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSeeder 创建 Seeder
func NewSeeder(repo *repository.Repository, logger *zap.Logger) *Seeder {
	return &Seeder{repo: repo, logger: logger}
}

// SeedFile 员工表为空时从 YAML 文件导入名册，返回导入人数
func (s *Seeder) SeedFile(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("打开名册文件失败: %w", err)
	}
	defer f.Close()

	roster, err := ParseRoster(f)
	if err != nil {
		return 0, err
	}
	return s.Seed(ctx, roster)
}

// Seed 员工表为空时导入名册；重复工号跳过
func (s *Seeder) Seed(ctx context.Context, roster *RosterFile) (int, error) {
	total, err := s.repo.Employee.Count(ctx)
	if err != nil {
		return 0, err
	}
	if total > 0 {
		s.logger.Info("员工表非空，跳过名册导入", zap.Int64("total", total))
		return 0, nil
	}

	created := 0
	for _, e := range roster.Employees {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, fmt.Errorf("密码加密失败: %w", err)
		}
		employee := &model.Employee{
			EmpNo:        e.EmpNo,
			Name:         e.Name,
			Section:      e.Section,
			WeeklyOff:    e.WeeklyOff,
			IsAdmin:      e.IsAdmin,
			GeneralShift: e.GeneralShift,
			PasswordHash: string(hash),
			Email:        e.Email,
			Phone:        e.Phone,
		}
		if err := s.repo.Employee.Create(ctx, employee); err != nil {
			if errors.Is(err, pkgerrors.ErrConflict) {
				s.logger.Warn("工号已存在，跳过", zap.String("emp_no", e.EmpNo))
				continue
			}
			return created, err
		}
		created++
	}

	s.logger.Info("名册导入完成", zap.Int("created", created))
	return created, nil
}
