// Package history stores diary submissions in the local SQLite database.
// Nothing is written unless the caller opts in.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/unowned-ai/quokka/pkg/diary"
)

var (
	ErrRecordNotFound = errors.New("history record not found")
)

const (
	createRecordStatement = `
	INSERT INTO submissions (id, diary_id, name, companion, content, compliment, quality_level, quality_message, image_url, audio_url, deleted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createRecordErrorStatement = `
	INSERT INTO submission_errors (submission_id, position, message)
	VALUES (?, ?, ?)
	`

	recordColumns = `id, diary_id, name, companion, content, compliment, quality_level, quality_message, image_url, audio_url, deleted, created_at`

	getRecordStatement = `
	SELECT ` + recordColumns + `
	FROM submissions
	WHERE id = ?
	`

	getRecordByDiaryIDStatement = `
	SELECT ` + recordColumns + `
	FROM submissions
	WHERE diary_id = ? AND diary_id != '' AND deleted = FALSE
	ORDER BY created_at DESC, rowid DESC
	LIMIT 1
	`

	listRecordsStatement = `
	SELECT ` + recordColumns + `
	FROM submissions
	WHERE deleted = FALSE OR ? = true
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?
	`

	listRecordErrorsStatement = `
	SELECT message
	FROM submission_errors
	WHERE submission_id = ?
	ORDER BY position ASC
	`

	softDeleteRecordStatement = `
	UPDATE submissions
	SET deleted = TRUE
	WHERE id = ? AND deleted = FALSE
	`

	cleanDeletedRecordsStatement = `
	DELETE FROM submissions
	WHERE deleted = TRUE
	`
)

type rowScanner interface {
	Scan(dest ...any) error
}

// RecordSubmission stores sub together with its result. The result's error
// strings are kept in order.
func RecordSubmission(ctx context.Context, db *sql.DB, name string, sub diary.Submission, res diary.Result) (Record, error) {
	if !sub.Companion.Valid() {
		return Record{}, diary.ErrInvalidCompanion
	}

	recordID := uuid.New()

	var qualityLevel, qualityMessage string
	if res.Text != nil && res.Text.QualityAnalysis != nil {
		qualityLevel = res.Text.QualityAnalysis.Level
		qualityMessage = res.Text.QualityAnalysis.Message
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		createRecordStatement,
		recordID,
		res.DiaryID(),
		name,
		string(sub.Companion),
		sub.Content,
		res.Compliment(),
		qualityLevel,
		qualityMessage,
		res.ImageURL(),
		res.AudioURL(),
		false, // deleted
	)
	if err != nil {
		return Record{}, fmt.Errorf("failed to insert submission: %w", err)
	}

	for i, msg := range res.Errors {
		if _, err := tx.ExecContext(ctx, createRecordErrorStatement, recordID, i, msg); err != nil {
			return Record{}, fmt.Errorf("failed to insert submission error %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("failed to commit submission: %w", err)
	}

	return GetRecord(ctx, db, recordID)
}

func GetRecord(ctx context.Context, db *sql.DB, id uuid.UUID) (Record, error) {
	record, err := scanRecord(db.QueryRowContext(ctx, getRecordStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}

	if record.Errors, err = listRecordErrors(ctx, db, record.ID); err != nil {
		return Record{}, err
	}
	return record, nil
}

// GetRecordByDiaryID returns the newest live record carrying diaryID.
func GetRecordByDiaryID(ctx context.Context, db *sql.DB, diaryID string) (Record, error) {
	record, err := scanRecord(db.QueryRowContext(ctx, getRecordByDiaryIDStatement, diaryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}

	if record.Errors, err = listRecordErrors(ctx, db, record.ID); err != nil {
		return Record{}, err
	}
	return record, nil
}

// ListRecords returns the newest records first. A limit of zero or less
// means no limit.
func ListRecords(ctx context.Context, db *sql.DB, limit int, includeDeleted bool) ([]Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := db.QueryContext(ctx, listRecordsStatement, includeDeleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	// Close before the per-record queries; an in-memory database has a single connection.
	rows.Close()

	for i := range records {
		if records[i].Errors, err = listRecordErrors(ctx, db, records[i].ID); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// DeleteRecord marks a record as deleted. CleanDeletedRecords removes it for good.
func DeleteRecord(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, softDeleteRecordStatement, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func CleanDeletedRecords(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, cleanDeletedRecordsStatement)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// scanRecord scans the recordColumns of one row, followed by any extra columns.
func scanRecord(row rowScanner, extra ...any) (Record, error) {
	var (
		record    Record
		companion string
		createdAt float64
	)

	dest := []any{
		&record.ID,
		&record.DiaryID,
		&record.Name,
		&companion,
		&record.Content,
		&record.Compliment,
		&record.QualityLevel,
		&record.QualityMessage,
		&record.ImageURL,
		&record.AudioURL,
		&record.Deleted,
		&createdAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Record{}, err
	}

	record.Companion = diary.Companion(companion)
	record.CreatedAt = unixFloatToTime(createdAt)
	return record, nil
}

func listRecordErrors(ctx context.Context, db *sql.DB, id uuid.UUID) ([]string, error) {
	rows, err := db.QueryContext(ctx, listRecordErrorsStatement, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query submission errors: %w", err)
	}
	defer rows.Close()

	messages := []string{}
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("failed to scan submission error: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission errors: %w", err)
	}

	return messages, nil
}
