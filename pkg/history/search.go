package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MatchedRecord is a Record with the number of search terms it matched.
type MatchedRecord struct {
	Record
	MatchCount int `json:"match_count"`
}

// SearchRecords finds live records whose diary text or compliment contains
// any of terms, case-insensitively. Records matching more terms come first,
// newest first among equals. A limit of zero or less means no limit.
func SearchRecords(ctx context.Context, db *sql.DB, terms []string, limit int) ([]MatchedRecord, error) {
	var cleaned []string
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return []MatchedRecord{}, nil
	}
	if limit <= 0 {
		limit = -1
	}

	// One 0/1 term per search word, summed into match_count.
	matchExpr := strings.TrimSuffix(strings.Repeat(
		"(instr(lower(content), ?) > 0 OR instr(lower(compliment), ?) > 0) + ", len(cleaned)), " + ")

	sqlQuery := fmt.Sprintf(`
		SELECT * FROM (
			SELECT
				%s,
				rowid AS rid,
				%s AS match_count
			FROM submissions
			WHERE deleted = FALSE
		)
		WHERE match_count > 0
		ORDER BY match_count DESC, created_at DESC, rid DESC
		LIMIT ?;
	`, recordColumns, matchExpr)

	args := make([]any, 0, 2*len(cleaned)+1)
	for _, t := range cleaned {
		args = append(args, t, t)
	}
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search query: %w", err)
	}
	defer rows.Close()

	var results []MatchedRecord
	for rows.Next() {
		var (
			mr  MatchedRecord
			rid int64
		)
		mr.Record, err = scanRecord(rows, &rid, &mr.MatchCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result row: %w", err)
		}
		results = append(results, mr)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over search results: %w", err)
	}
	rows.Close()

	for i := range results {
		if results[i].Errors, err = listRecordErrors(ctx, db, results[i].ID); err != nil {
			return nil, err
		}
	}

	return results, nil
}
