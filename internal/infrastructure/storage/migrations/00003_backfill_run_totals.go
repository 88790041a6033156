package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upBackfillRunTotals, downBackfillRunTotals)
}

// upBackfillRunTotals repairs completed runs whose total_records was never
// written (runs completed while the counter was still optional) by counting
// their stored records.
func upBackfillRunTotals(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT r.id, COUNT(rec.id)
		FROM runs r
		JOIN records rec ON rec.run_id = r.id
		WHERE r.status = 'completed' AND r.total_records = 0
		GROUP BY r.id
	`)
	if err != nil {
		return err
	}

	type repair struct {
		id    string
		count int
	}
	var repairs []repair
	for rows.Next() {
		var rp repair
		if err := rows.Scan(&rp.id, &rp.count); err != nil {
			_ = rows.Close()
			return err
		}
		repairs = append(repairs, rp)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rp := range repairs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE runs SET total_records = ? WHERE id = ?
		`, rp.count, rp.id); err != nil {
			return err
		}
	}

	return nil
}

// downBackfillRunTotals is a no-op - the repaired counts are still correct
func downBackfillRunTotals(ctx context.Context, tx *sql.Tx) error {
	return nil
}
