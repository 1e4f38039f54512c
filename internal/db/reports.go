package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"gitlab.com/arkline/modguard/internal/models"
)

// Partial unique index on reports (reporter_id, target_type, target_id)
// WHERE status = 'pending'. Duplicate suppression across replicas.
const pendingReportConstraint = "reports_one_pending"

// SubmitReport files a report with status pending. Any authenticated user
// may report any target; only one pending report per (reporter, target)
// may exist at a time.
func (sdb *SharedDB) SubmitReport(ctx context.Context, reporterID int, target models.TargetRef, reason models.ReasonCode, description *string) (*models.Report, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if !reason.Valid() {
		return nil, models.ErrInvalidFormat
	}

	report := &models.Report{
		ReporterID:  reporterID,
		TargetType:  target.Type,
		TargetID:    target.ID,
		Reason:      reason,
		Description: description,
		Status:      models.ReportPending,
	}
	sql, args, _ := psql.
		Insert("reports").
		Columns("reporter_id", "target_type", "target_id", "reason", "description", "status").
		Values(report.ReporterID, report.TargetType, report.TargetID, report.Reason, report.Description, report.Status).
		Suffix("RETURNING id, created_at").
		ToSql()

	row := sdb.db.QueryRow(ctx, sql, args...)
	err := row.Scan(&report.ID, &report.CreatedAt)
	if uniqueViolation(err, pendingReportConstraint) {
		return nil, models.ErrDuplicatePending
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (sdb *SharedDB) GetReport(ctx context.Context, reportID int) (*models.Report, error) {
	sql, args, _ := psql.
		Select("*").
		From("reports").
		Where(sq.Eq{"id": reportID}).
		ToSql()

	report := &models.Report{}
	err := pgxscan.Get(ctx, sdb.db, report, sql, args...)
	if pgxscan.NotFound(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns reports newest first, optionally filtered by status.
func (sdb *SharedDB) ListReports(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	builder := psql.
		Select("*").
		From("reports").
		OrderBy("id DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}
	sql, args, _ := builder.ToSql()

	reports := []models.Report{}
	err := pgxscan.Select(ctx, sdb.db, &reports, sql, args...)
	if err != nil {
		return nil, err
	}
	return reports, nil
}
