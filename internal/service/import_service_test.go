package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/dto"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/repository"
	apperrors "github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/errors"
)

func newTestImportService(repo *mockReportRunRepo) ImportService {
	var r *repository.Repository
	if repo != nil {
		r = &repository.Repository{ReportRun: repo}
	}
	return NewImportService(newTestConfig(), r, staticRoster, nil, zap.NewNop())
}

func TestImportService_Import(t *testing.T) {
	repo := newMockReportRunRepo()
	svc := newTestImportService(repo)

	resp, err := svc.Import(context.Background(), twoDocuments())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "2025-01-06", resp.MinDate)
	assert.Equal(t, "2025-01-13", resp.MaxDate)
	assert.Equal(t, 2, resp.DocumentCount)
	assert.Equal(t, 6, resp.ShiftCount)
	assert.Equal(t, 1, resp.SwapCount)
	assert.Equal(t, 1, resp.DuplicatesDropped)
	assert.NotEmpty(t, resp.CreatedAt)

	stored := repo.runs[resp.RunID]
	require.NotNil(t, stored)
	assert.Len(t, stored.Shifts, 6)
	for _, e := range stored.Shifts {
		assert.Equal(t, resp.RunID, e.RunID)
	}
}

func TestImportService_PersonModeKeepsSharedSlots(t *testing.T) {
	// 同一 (date, code) 两个人：slot 模式只剩一条，入库保留两条
	doc := SourceDocument{Name: "r_2025-01-13.txt", Text: `Inventory Services Weekly Schedule 13/Jan/2025
D101 07:00 15:00 Smith, John
D101 07:00 15:00 Doe, Jane
`}
	repo := newMockReportRunRepo()
	resp, err := newTestImportService(repo).Import(context.Background(), []SourceDocument{doc})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ShiftCount)
}

func TestImportService_GetAndList(t *testing.T) {
	repo := newMockReportRunRepo()
	svc := newTestImportService(repo)

	first, err := svc.Import(context.Background(), twoDocuments())
	require.NoError(t, err)
	second, err := svc.Import(context.Background(), twoDocuments()[:1])
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	detail, err := svc.GetRun(context.Background(), first.RunID)
	require.NoError(t, err)
	assert.Len(t, detail.Shifts, 6)
	assert.Len(t, detail.Swaps, 1)
	assert.Equal(t, "2025-01-06", detail.Shifts[0].Date)

	list, total, err := svc.ListRuns(context.Background(), &dto.PaginationRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, second.RunID, list[0].RunID, "按创建时间倒序")

	page, _, err := svc.ListRuns(context.Background(), &dto.PaginationRequest{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.RunID, page[0].RunID)

	_, err = svc.GetRun(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, ErrReportRunNotFound))
}

func TestImportService_ListRunShifts(t *testing.T) {
	repo := newMockReportRunRepo()
	svc := newTestImportService(repo)
	run, err := svc.Import(context.Background(), twoDocuments())
	require.NoError(t, err)

	shifts, err := svc.ListRunShifts(context.Background(), run.RunID, "  Doe,   Jane ")
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, "2025-01-06", shifts[0].Date)
	assert.Equal(t, "2025-01-13", shifts[1].Date)
	for _, s := range shifts {
		assert.Equal(t, "Doe, Jane", s.PersonName)
	}

	_, err = svc.ListRunShifts(context.Background(), run.RunID, "Nobody, X")
	assert.ErrorIs(t, err, ErrPersonNotFound)
	_, err = svc.ListRunShifts(context.Background(), "missing", "Doe, Jane")
	assert.ErrorIs(t, err, ErrReportRunNotFound)
}

func TestImportService_Errors(t *testing.T) {
	disabled := newTestImportService(nil)
	_, err := disabled.Import(context.Background(), twoDocuments())
	assert.True(t, errors.Is(err, apperrors.ErrStorageDisabled))
	_, _, err = disabled.ListRuns(context.Background(), &dto.PaginationRequest{})
	assert.True(t, errors.Is(err, apperrors.ErrStorageDisabled))
	_, err = disabled.GetRun(context.Background(), "x")
	assert.True(t, errors.Is(err, apperrors.ErrStorageDisabled))
	_, err = disabled.ListRunShifts(context.Background(), "x", "Doe, Jane")
	assert.True(t, errors.Is(err, apperrors.ErrStorageDisabled))

	repo := newMockReportRunRepo()
	svc := newTestImportService(repo)
	_, err = svc.Import(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoDocuments))
	_, err = svc.Import(context.Background(), []SourceDocument{{Name: "x.txt", Text: "nothing"}})
	assert.True(t, errors.Is(err, ErrNoValidShifts))

	repo.createErr = errors.New("写入失败")
	_, err = svc.Import(context.Background(), twoDocuments())
	assert.ErrorIs(t, err, repo.createErr)
	assert.Empty(t, repo.runs)
}
