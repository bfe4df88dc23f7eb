package store

import (
	"context"
	"time"
)

// SaveAnalysis stores one completed analysis result for a user.
func (p *Postgres) SaveAnalysis(ctx context.Context, a Analysis) (Analysis, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO analyses
			(user_id, problem_name, code, language, syntax_errors,
			 time_complexity, space_complexity, explanation, improvements)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, a.UserID, a.ProblemName, a.Code, a.Language, a.SyntaxErrors,
		a.TimeComplexity, a.SpaceComplexity, a.Explanation, a.Improvements)

	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return Analysis{}, err
	}
	return a, nil
}

// AnalysisHistory returns a user's latest analyses, newest first.
func (p *Postgres) AnalysisHistory(ctx context.Context, userID string, limit int) ([]Analysis, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, user_id, problem_name, code, language, syntax_errors,
		       time_complexity, space_complexity, explanation, improvements, created_at
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProblemName, &a.Code, &a.Language,
			&a.SyntaxErrors, &a.TimeComplexity, &a.SpaceComplexity,
			&a.Explanation, &a.Improvements, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AnalysisStats reports how many analyses a user has and when the last ran.
func (p *Postgres) AnalysisStats(ctx context.Context, userID string) (count int64, last *time.Time, err error) {
	row := p.pool.QueryRow(ctx, `
		SELECT COUNT(*), MAX(created_at)
		FROM analyses
		WHERE user_id = $1
	`, userID)
	if err := row.Scan(&count, &last); err != nil {
		return 0, nil, err
	}
	return count, last, nil
}

// DeleteAnalysis removes one of the user's own records.
func (p *Postgres) DeleteAnalysis(ctx context.Context, id, userID string) error {
	ct, err := p.pool.Exec(ctx, `
		DELETE FROM analyses WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
