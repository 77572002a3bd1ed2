package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// List returns one page of recipe summaries, newest first, plus the total
// number of recipes.
func (r *Repo) List(ctx context.Context, page, pageSize int) ([]Summary, int, error) {
	return r.Search(ctx, SearchQuery{Page: page, PageSize: pageSize})
}

// Search returns the recipes matching every filter in q, newest first, plus
// the total number of matches.
func (r *Repo) Search(ctx context.Context, q SearchQuery) ([]Summary, int, error) {
	page, size := normalizePage(q.Page, q.PageSize)
	where, args := buildSearchFilter(q)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.title, r.description, r.thumbnail_url, r.total_time_mins, r.difficulty,
			r.video_platform, r.recipe_site_name, r.created_at
		FROM recipes r`+where+`
		ORDER BY r.created_at DESC, r.rowid DESC
		LIMIT ? OFFSET ?
	`, append(args, size, (page-1)*size)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search recipes: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0, size)
	for rows.Next() {
		var s Summary
		var description, thumbnail, difficulty, platform, siteName sql.NullString
		var totalTime sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Title, &description, &thumbnail, &totalTime, &difficulty,
			&platform, &siteName, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan summary: %w", err)
		}
		s.Description = description.String
		s.ThumbnailURL = thumbnail.String
		s.TotalTimeMins = int(totalTime.Int64)
		s.Difficulty = difficulty.String
		s.SourcePlatform = platform.String
		s.RecipeSiteName = siteName.String
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// buildSearchFilter returns a WHERE clause (or "") over recipes aliased r.
// Subqueries keep one row per recipe, so no DISTINCT is needed.
func buildSearchFilter(q SearchQuery) (string, []any) {
	var where []string
	var args []any

	if text := strings.TrimSpace(q.Text); text != "" {
		kw := likePattern(text)
		where = append(where, `(LOWER(r.title) LIKE ?
			OR LOWER(COALESCE(r.description, '')) LIKE ?
			OR EXISTS (SELECT 1 FROM ingredients i WHERE i.recipe_id = r.id AND LOWER(i.name) LIKE ?)
			OR EXISTS (SELECT 1 FROM tags t WHERE t.recipe_id = r.id AND LOWER(t.tag) LIKE ?))`)
		args = append(args, kw, kw, kw, kw)
	}

	for _, ing := range q.Ingredients {
		if strings.TrimSpace(ing) == "" {
			continue
		}
		where = append(where, `r.id IN (SELECT recipe_id FROM ingredients WHERE LOWER(name) LIKE ?)`)
		args = append(args, likePattern(ing))
	}

	for _, name := range q.Categories {
		if strings.TrimSpace(name) == "" {
			continue
		}
		where = append(where, `r.id IN (
			SELECT rc.recipe_id FROM recipe_categories rc
			JOIN categories c ON c.id = rc.category_id
			WHERE c.name = ?)`)
		args = append(args, strings.TrimSpace(name))
	}

	for _, tag := range q.Tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		where = append(where, `r.id IN (SELECT recipe_id FROM tags WHERE LOWER(tag) LIKE ?)`)
		args = append(args, likePattern(tag))
	}

	if d := strings.TrimSpace(q.Difficulty); d != "" {
		where = append(where, `r.difficulty = ?`)
		args = append(args, d)
	}

	if q.MaxTimeMins > 0 {
		where = append(where, `r.total_time_mins <= ?`)
		args = append(args, q.MaxTimeMins)
	}

	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}
