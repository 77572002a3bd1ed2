package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"recipe-extraction-api/internal/extractor"
	"recipe-extraction-api/internal/recipe"
	"recipe-extraction-api/internal/taxonomy"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}

func encodeInstructions(steps []string) (any, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("encode instructions: %w", err)
	}
	return string(data), nil
}

// SeedCategories fills the categories table from tax unless it already has
// rows.
func (r *Repo) SeedCategories(ctx context.Context, tax *taxonomy.Taxonomy) error {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	seeded := 0
	for _, categoryType := range tax.Types() {
		for _, name := range tax.Values(categoryType) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO categories (id, name, type) VALUES (?, ?, ?)`,
				uuid.NewString(), name, categoryType); err != nil {
				return fmt.Errorf("seed category %s/%s: %w", categoryType, name, err)
			}
			seeded++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	log.Printf("Storage: Seeded %d categories", seeded)
	return nil
}

// CreateFromExtraction stores a successful extraction result.
func (r *Repo) CreateFromExtraction(ctx context.Context, res *extractor.Result) (*Recipe, error) {
	if res == nil || !res.Success || res.Recipe == nil {
		return nil, errors.New("storage: cannot store a failed extraction")
	}
	src := res.Recipe

	title := src.Title
	if title == "" {
		title = recipe.DefaultTitle
	}
	thumbnail := res.ThumbnailURL
	if thumbnail == "" {
		thumbnail = src.ImageURL
	}
	var difficulty string
	if values := res.Categories["difficulty"]; len(values) > 0 {
		difficulty = values[0]
	}
	instructions, err := encodeInstructions(src.Instructions)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (
			id, title, description, instructions, prep_time_mins, cook_time_mins, total_time_mins,
			servings, difficulty, video_url, video_platform, recipe_page_url, recipe_site_name,
			original_caption, thumbnail_url, author_name, extraction_method, extraction_confidence,
			raw_extraction, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, title, nullString(src.Description), instructions,
		nullInt(src.PrepTimeMins), nullInt(src.CookTimeMins), nullInt(src.TotalTimeMins),
		nullString(src.Servings), nullString(difficulty),
		nullString(res.VideoURL), nullString(string(res.SourcePlatform)),
		nullString(res.RecipePageURL), nullString(res.RecipeSiteName),
		nullString(res.OriginalCaption), nullString(thumbnail), nullString(res.AuthorName),
		string(res.Method), res.Confidence, nullString(res.RawData), now, now,
	); err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}

	inputs := make([]IngredientInput, 0, len(src.Ingredients))
	for _, ing := range src.Ingredients {
		inputs = append(inputs, IngredientInput{
			Name:        ing.Name,
			Quantity:    ing.Quantity,
			Unit:        ing.Unit,
			Preparation: ing.Preparation,
			RawText:     ing.RawText,
		})
	}
	if err := insertIngredients(ctx, tx, id, inputs); err != nil {
		return nil, err
	}

	for _, tag := range res.Tags {
		source := TagSourceKeyword
		if strings.HasPrefix(tag, "#") {
			source = TagSourceHashtag
		}
		if err := insertTag(ctx, tx, id, tag, source); err != nil {
			return nil, err
		}
	}

	for categoryType, names := range res.Categories {
		for _, name := range names {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO recipe_categories (recipe_id, category_id, confidence)
				SELECT ?, id, ? FROM categories WHERE type = ? AND name = ?
			`, id, res.Confidence, categoryType, name); err != nil {
				return nil, fmt.Errorf("link category %s/%s: %w", categoryType, name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	log.Printf("Storage: Saved recipe %s (%q) via %s", id, title, res.Method)
	return r.Get(ctx, id)
}

// CreateManual stores a recipe typed in by a user.
func (r *Repo) CreateManual(ctx context.Context, in ManualRecipe) (*Recipe, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("storage: title is required")
	}
	instructions, err := encodeInstructions(in.Instructions)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (
			id, title, description, instructions, prep_time_mins, cook_time_mins, total_time_mins,
			servings, difficulty, video_url, recipe_page_url, thumbnail_url,
			extraction_method, extraction_confidence, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, in.Title, nullString(in.Description), instructions,
		nullInt(in.PrepTimeMins), nullInt(in.CookTimeMins), nullInt(in.TotalTimeMins),
		nullString(in.Servings), nullString(in.Difficulty),
		nullString(in.VideoURL), nullString(in.RecipePageURL), nullString(in.ThumbnailURL),
		string(extractor.MethodManual), 1.0, now, now,
	); err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}

	if err := insertIngredients(ctx, tx, id, in.Ingredients); err != nil {
		return nil, err
	}
	if err := replaceTags(ctx, tx, id, in.Tags, false); err != nil {
		return nil, err
	}
	if err := replaceCategories(ctx, tx, id, in.CategoryIDs, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return r.Get(ctx, id)
}

func insertIngredients(ctx context.Context, ex execer, recipeID string, ingredients []IngredientInput) error {
	for i, ing := range ingredients {
		name := ing.Name
		if name == "" {
			name = ing.RawText
		}
		if name == "" {
			continue
		}
		if _, err := ex.ExecContext(ctx, `
			INSERT INTO ingredients (id, recipe_id, name, quantity, unit, preparation, raw_text, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), recipeID, name, nullString(ing.Quantity), nullString(ing.Unit),
			nullString(ing.Preparation), nullString(ing.RawText), i); err != nil {
			return fmt.Errorf("insert ingredient: %w", err)
		}
	}
	return nil
}

func insertTag(ctx context.Context, ex execer, recipeID, tag, source string) error {
	if _, err := ex.ExecContext(ctx,
		`INSERT INTO tags (id, recipe_id, tag, source) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), recipeID, tag, source); err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func replaceTags(ctx context.Context, ex execer, recipeID string, tags []string, clear bool) error {
	if clear {
		if _, err := ex.ExecContext(ctx, `DELETE FROM tags WHERE recipe_id = ?`, recipeID); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		if err := insertTag(ctx, ex, recipeID, tag, TagSourceManual); err != nil {
			return err
		}
	}
	return nil
}

// replaceCategories links recipeID to the given category ids; unknown ids
// are ignored.
func replaceCategories(ctx context.Context, ex execer, recipeID string, ids []string, clear bool) error {
	if clear {
		if _, err := ex.ExecContext(ctx, `DELETE FROM recipe_categories WHERE recipe_id = ?`, recipeID); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
	}
	for _, categoryID := range ids {
		if _, err := ex.ExecContext(ctx, `
			INSERT OR IGNORE INTO recipe_categories (recipe_id, category_id)
			SELECT ?, id FROM categories WHERE id = ?
		`, recipeID, categoryID); err != nil {
			return fmt.Errorf("link category %s: %w", categoryID, err)
		}
	}
	return nil
}

// Update applies a partial update and returns the stored recipe.
func (r *Repo) Update(ctx context.Context, id string, upd RecipeUpdate) (*Recipe, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes WHERE id = ?`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup recipe: %w", err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", nullString(*upd.Description))
	}
	if upd.Instructions != nil {
		encoded, err := encodeInstructions(*upd.Instructions)
		if err != nil {
			return nil, err
		}
		set("instructions", encoded)
	}
	if upd.PrepTimeMins != nil {
		set("prep_time_mins", nullInt(*upd.PrepTimeMins))
	}
	if upd.CookTimeMins != nil {
		set("cook_time_mins", nullInt(*upd.CookTimeMins))
	}
	if upd.TotalTimeMins != nil {
		set("total_time_mins", nullInt(*upd.TotalTimeMins))
	}
	if upd.Servings != nil {
		set("servings", nullString(*upd.Servings))
	}
	if upd.Difficulty != nil {
		set("difficulty", nullString(*upd.Difficulty))
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx,
		`UPDATE recipes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if upd.Ingredients != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE recipe_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear ingredients: %w", err)
		}
		if err := insertIngredients(ctx, tx, id, *upd.Ingredients); err != nil {
			return nil, err
		}
	}
	if upd.Tags != nil {
		if err := replaceTags(ctx, tx, id, *upd.Tags, true); err != nil {
			return nil, err
		}
	}
	if upd.CategoryIDs != nil {
		if err := replaceCategories(ctx, tx, id, *upd.CategoryIDs, true); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return r.Get(ctx, id)
}

// Get loads a recipe with all its relations.
func (r *Repo) Get(ctx context.Context, id string) (*Recipe, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, title, description, instructions, prep_time_mins, cook_time_mins, total_time_mins,
			servings, difficulty, video_url, video_platform, recipe_page_url, recipe_site_name,
			original_caption, thumbnail_url, author_name, extraction_method, extraction_confidence,
			raw_extraction, created_at, updated_at
		FROM recipes
		WHERE id = ?
	`, id)

	var rec Recipe
	var description, instructions, servings, difficulty sql.NullString
	var videoURL, platform, pageURL, siteName sql.NullString
	var caption, thumbnail, author, method, raw sql.NullString
	var prep, cook, total sql.NullInt64
	var confidence sql.NullFloat64
	if err := row.Scan(
		&rec.ID, &rec.Title, &description, &instructions, &prep, &cook, &total,
		&servings, &difficulty, &videoURL, &platform, &pageURL, &siteName,
		&caption, &thumbnail, &author, &method, &confidence,
		&raw, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan recipe: %w", err)
	}

	rec.Description = description.String
	rec.PrepTimeMins = int(prep.Int64)
	rec.CookTimeMins = int(cook.Int64)
	rec.TotalTimeMins = int(total.Int64)
	rec.Servings = servings.String
	rec.Difficulty = difficulty.String
	rec.VideoURL = videoURL.String
	rec.VideoPlatform = platform.String
	rec.RecipePageURL = pageURL.String
	rec.RecipeSiteName = siteName.String
	rec.OriginalCaption = caption.String
	rec.ThumbnailURL = thumbnail.String
	rec.AuthorName = author.String
	rec.ExtractionMethod = method.String
	rec.ExtractionConfidence = confidence.Float64
	rec.RawExtraction = raw.String

	rec.Instructions = []string{}
	if instructions.Valid && instructions.String != "" {
		if err := json.Unmarshal([]byte(instructions.String), &rec.Instructions); err != nil {
			rec.Instructions = []string{instructions.String}
		}
	}

	var err error
	if rec.Ingredients, err = r.ingredients(ctx, id); err != nil {
		return nil, err
	}
	if rec.Categories, err = r.recipeCategories(ctx, id); err != nil {
		return nil, err
	}
	if rec.Tags, err = r.tags(ctx, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repo) ingredients(ctx context.Context, recipeID string) ([]Ingredient, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, quantity, unit, preparation, raw_text, sort_order
		FROM ingredients
		WHERE recipe_id = ?
		ORDER BY sort_order ASC
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	out := []Ingredient{}
	for rows.Next() {
		var ing Ingredient
		var quantity, unit, preparation, rawText sql.NullString
		if err := rows.Scan(&ing.ID, &ing.Name, &quantity, &unit, &preparation, &rawText, &ing.SortOrder); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		ing.Quantity = quantity.String
		ing.Unit = unit.String
		ing.Preparation = preparation.String
		ing.RawText = rawText.String
		out = append(out, ing)
	}
	return out, rows.Err()
}

func (r *Repo) recipeCategories(ctx context.Context, recipeID string) ([]Category, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.name, c.type
		FROM categories c
		JOIN recipe_categories rc ON rc.category_id = c.id
		WHERE rc.recipe_id = ?
		ORDER BY c.type, c.name
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list recipe categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *Repo) tags(ctx context.Context, recipeID string) ([]Tag, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, tag, source FROM tags WHERE recipe_id = ? ORDER BY rowid
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []Tag{}
	for rows.Next() {
		var (
			t      Tag
			source sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Tag, &source); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.Source = source.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanCategories(rows *sql.Rows) ([]Category, error) {
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a recipe and, by cascade, its relations.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns every category ordered by type, then name.
func (r *Repo) Categories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, type FROM categories ORDER BY type, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}
