package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procure-mr-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMaterialRequestRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO material_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO material_request_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO material_request_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.MaterialRequest{
		DocNo:           "HO-MR-000001",
		Series:          "MR",
		Type:            models.RequestTypeItem,
		BusinessUnitID:  "bu-1",
		DepartmentID:    "dept-1",
		RequesterID:     "user-req",
		RecApproverID:   "user-rec",
		FinalApproverID: "user-fin",
		RequiredDate:    time.Now().AddDate(0, 0, 14),
		Freight:         decimal.RequireFromString("25.50"),
		Discount:        decimal.RequireFromString("10.00"),
		Items: []models.MaterialRequestItem{
			{Description: "Cement", Unit: "bag", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(250)},
			{Description: "Gravel", Unit: "cu.m", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(900)},
		},
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.StatusDraft, request.Status)
	require.True(t, request.Total.Equal(decimal.RequireFromString("4315.50")))
	require.Equal(t, 1, request.Items[0].LineNo)
	require.Equal(t, 2, request.Items[1].LineNo)
	require.True(t, request.Items[1].LineTotal.Equal(decimal.NewFromInt(1800)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRequestRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	columns := []string{"id", "doc_no", "series", "type", "status", "business_unit_id", "department_id", "requester_id",
		"rec_approver_id", "final_approver_id", "prepared_date", "required_date", "approved_date", "posted_date",
		"freight", "discount", "total", "remarks", "created_at", "updated_at"}
	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow("req-1", "HO-MR-000001", "MR", "ITEM", "FOR_REC_APPROVAL", "bu-1", "dept-1", "user-req",
			"user-rec", "user-fin", now, now, nil, nil, "0", "0", "2500", nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, doc_no, series")).
		WithArgs("bu-1", "FOR_REC_APPROVAL", "FOR_FINAL_APPROVAL", "user-rec").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("bu-1", "FOR_REC_APPROVAL", "FOR_FINAL_APPROVAL", "user-rec").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.MaterialRequestFilter{
		BusinessUnitID: "bu-1",
		Status:         []models.RequestStatus{models.StatusForRecApproval, models.StatusForFinalApproval},
		ApproverID:     "user-rec",
	})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "req-1", requests[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRequestRepositoryUpdateStatusGuard(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE material_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	request := &models.MaterialRequest{ID: "req-1", DepartmentID: "dept-1"}
	err := repo.Update(context.Background(), request, false)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRequestRepositoryTransition(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE material_requests SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("req-1", "DRAFT", "FOR_REC_APPROVAL", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Transition(context.Background(), TransitionParams{
		ID:         "req-1",
		FromStatus: models.StatusDraft,
		ToStatus:   models.StatusForRecApproval,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRequestRepositoryTransitionStaleRow(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE material_requests SET status = $3")).
		WithArgs("req-1", "FOR_REC_APPROVAL", "REC_APPROVED", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Transition(context.Background(), TransitionParams{
		ID:         "req-1",
		FromStatus: models.StatusForRecApproval,
		ToStatus:   models.StatusRecApproved,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRequestRepositoryTransitionApprovedDate(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("approved_date = $5")).
		WithArgs("req-1", "FOR_FINAL_APPROVAL", "FINAL_APPROVED", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Transition(context.Background(), TransitionParams{
		ID:           "req-1",
		FromStatus:   models.StatusForFinalApproval,
		ToStatus:     models.StatusFinalApproved,
		ApprovedDate: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRequestRepositoryTransitionClearDates(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("approved_date = NULL, posted_date = NULL")).
		WithArgs("req-1", "FOR_FINAL_APPROVAL", "FOR_EDIT", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Transition(context.Background(), TransitionParams{
		ID:         "req-1",
		FromStatus: models.StatusForFinalApproval,
		ToStatus:   models.StatusForEdit,
		ClearDates: true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRequestRepositoryDeleteNonDraft(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM material_requests WHERE id = $1 AND status = 'DRAFT'")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "req-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRequestRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewMaterialRequestRepository(db)
	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("DRAFT", 3).
		AddRow("POSTED", 7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM material_requests")).
		WithArgs("bu-1").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "bu-1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, models.StatusDraft, counts[0].Status)
	require.Equal(t, 7, counts[1].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
