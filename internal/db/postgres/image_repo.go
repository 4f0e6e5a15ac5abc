package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"Pixelbox/internal/core/images"
)

// uniqueViolation is the Postgres error code for unique constraint
// violations. Constraint failures are mapped to typed sentinels here, at the
// lowest layer, so no caller ever matches on error strings.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type postgresImageRepo struct {
	db *sql.DB
}

// NewImageRepository creates a PostgreSQL image repository.
func NewImageRepository(db *sql.DB) images.Repository {
	return &postgresImageRepo{db: db}
}

func (r *postgresImageRepo) Insert(ctx context.Context, img *images.Image) error {
	query := `
		INSERT INTO images (hash, filename, created_at, modified_at, width, height, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		img.Hash, img.Filename, img.CreatedAt, img.ModifiedAt,
		img.Width, img.Height, img.SizeBytes)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: hash %s", images.ErrDuplicate, img.Hash)
		}
		return fmt.Errorf("%w: failed to insert image: %v", images.ErrStorage, err)
	}
	return nil
}

func (r *postgresImageRepo) GetByFilename(ctx context.Context, filename string) (*images.Image, error) {
	img := &images.Image{}
	query := `
		SELECT hash, filename, created_at, modified_at, width, height, size_bytes
		FROM images WHERE filename = $1`

	err := r.db.QueryRowContext(ctx, query, filename).
		Scan(&img.Hash, &img.Filename, &img.CreatedAt, &img.ModifiedAt,
			&img.Width, &img.Height, &img.SizeBytes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", images.ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get image: %v", images.ErrStorage, err)
	}
	return img, nil
}

func (r *postgresImageRepo) SelectRandom(ctx context.Context, spec images.FilterSpec) (*images.Image, error) {
	query, args := buildRandomQuery(spec)

	img := &images.Image{}
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&img.Hash, &img.Filename, &img.CreatedAt, &img.ModifiedAt,
			&img.Width, &img.Height, &img.SizeBytes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no image matches the filter", images.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: random selection failed: %v", images.ErrStorage, err)
	}
	return img, nil
}

func (r *postgresImageRepo) Delete(ctx context.Context, filename string) (*images.Image, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", images.ErrStorage, err)
	}
	defer tx.Rollback()

	img := &images.Image{}
	err = tx.QueryRowContext(ctx, `
		SELECT hash, filename, created_at, modified_at, width, height, size_bytes
		FROM images WHERE filename = $1`, filename).
		Scan(&img.Hash, &img.Filename, &img.CreatedAt, &img.ModifiedAt,
			&img.Width, &img.Height, &img.SizeBytes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", images.ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", images.ErrStorage, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM image_tags WHERE image_hash = $1`, img.Hash); err != nil {
		return nil, fmt.Errorf("%w: failed to delete tag associations: %v", images.ErrStorage, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE hash = $1`, img.Hash); err != nil {
		return nil, fmt.Errorf("%w: failed to delete image: %v", images.ErrStorage, err)
	}
	// Prune tags left without any associated image.
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id NOT IN (SELECT DISTINCT tag_id FROM image_tags)`); err != nil {
		return nil, fmt.Errorf("%w: failed to prune orphaned tags: %v", images.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", images.ErrStorage, err)
	}
	return img, nil
}

func (r *postgresImageRepo) AddTags(ctx context.Context, hash string, tags []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", images.ErrStorage, err)
	}
	defer tx.Rollback()

	for _, tag := range tags {
		name := images.NormalizeTag(tag)
		if name == "" {
			continue
		}

		// Upsert keeps re-adding a normalized-equal tag idempotent, also
		// under concurrent calls.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("%w: failed to insert tag %q: %v", images.ErrStorage, name, err)
		}

		var tagID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM tags WHERE name = $1`, name).Scan(&tagID); err != nil {
			return fmt.Errorf("%w: failed to look up tag %q: %v", images.ErrStorage, name, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO image_tags (image_hash, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			hash, tagID); err != nil {
			return fmt.Errorf("%w: failed to associate tag %q: %v", images.ErrStorage, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", images.ErrStorage, err)
	}
	return nil
}

func (r *postgresImageRepo) RemoveTags(ctx context.Context, hash string, tags []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", images.ErrStorage, err)
	}
	defer tx.Rollback()

	for _, tag := range tags {
		name := images.NormalizeTag(tag)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM image_tags
			WHERE image_hash = $1 AND tag_id = (SELECT id FROM tags WHERE name = $2)`,
			hash, name); err != nil {
			return fmt.Errorf("%w: failed to remove tag %q: %v", images.ErrStorage, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", images.ErrStorage, err)
	}
	return nil
}

func (r *postgresImageRepo) GetTags(ctx context.Context, hash string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN image_tags it ON t.id = it.tag_id
		WHERE it.image_hash = $1
		ORDER BY t.name`, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tags: %v", images.ErrStorage, err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", images.ErrStorage, err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", images.ErrStorage, err)
	}
	return tags, nil
}

func (r *postgresImageRepo) ListTags(ctx context.Context) ([]images.TagCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.name, COUNT(it.image_hash)
		FROM tags t
		LEFT JOIN image_tags it ON t.id = it.tag_id
		GROUP BY t.name
		ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tags: %v", images.ErrStorage, err)
	}
	defer rows.Close()

	counts := []images.TagCount{}
	for rows.Next() {
		var tc images.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("%w: %v", images.ErrStorage, err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", images.ErrStorage, err)
	}
	return counts, nil
}
