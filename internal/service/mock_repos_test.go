package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// ── Mock ReportRunRepository ──

type mockReportRunRepo struct {
	mu        sync.Mutex
	runs      map[string]*model.ReportRun
	createErr error
}

func newMockReportRunRepo() *mockReportRunRepo {
	return &mockReportRunRepo{runs: make(map[string]*model.ReportRun)}
}

func (m *mockReportRunRepo) CreateWithRecords(_ context.Context, run *model.ReportRun, shifts []model.ShiftEntry, swaps []model.SwapRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.RunID]; ok {
		return errors.New("duplicate key")
	}
	run.CreatedAt = time.Date(2025, 1, 20, 8, 0, 0, 0, time.UTC).Add(time.Duration(len(m.runs)) * time.Minute)
	stored := *run
	stored.Shifts = append([]model.ShiftEntry(nil), shifts...)
	stored.Swaps = append([]model.SwapRecord(nil), swaps...)
	for i := range stored.Shifts {
		stored.Shifts[i].RunID = run.RunID
	}
	for i := range stored.Swaps {
		stored.Swaps[i].RunID = run.RunID
	}
	m.runs[run.RunID] = &stored
	return nil
}

func (m *mockReportRunRepo) GetByID(_ context.Context, id string) (*model.ReportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReportRunRepo) List(_ context.Context, offset, limit int) ([]model.ReportRun, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.ReportRun, 0, len(m.runs))
	for _, r := range m.runs {
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.ReportRun{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockReportRunRepo) ListShiftsByPerson(_ context.Context, runID, person string) ([]model.ShiftEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var out []model.ShiftEntry
	for _, e := range r.Shifts {
		if e.PersonName == person {
			out = append(out, e)
		}
	}
	return out, nil
}
