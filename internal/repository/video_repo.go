package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"eduvid-backend/internal/models"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

func (r *VideoRepo) Create(ctx context.Context, v *models.Video) error {
	v.ID = uuid.New()

	query := `INSERT INTO videos (id, user_id, title, source_type, source_content, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		v.ID, v.UserID, v.Title, v.SourceType, v.SourceContent, v.Status,
	).Scan(&v.CreatedAt)
}

func (r *VideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v := &models.Video{}
	query := `SELECT id, user_id, title, source_type, source_content, thumbnail_url,
			generated_script, audio_url, status, error_message, created_at, completed_at
		FROM videos WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.UserID, &v.Title, &v.SourceType, &v.SourceContent, &v.ThumbnailURL,
		&v.GeneratedScript, &v.AudioURL, &v.Status, &v.ErrorMessage, &v.CreatedAt, &v.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VideoRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Video, error) {
	query := `SELECT id, user_id, title, source_type, source_content, thumbnail_url,
			generated_script, audio_url, status, error_message, created_at, completed_at
		FROM videos WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []*models.Video{}
	for rows.Next() {
		v := &models.Video{}
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.Title, &v.SourceType, &v.SourceContent, &v.ThumbnailURL,
			&v.GeneratedScript, &v.AudioURL, &v.Status, &v.ErrorMessage, &v.CreatedAt, &v.CompletedAt,
		); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// UpdateSourceMetadata records the title and thumbnail discovered by the
// extraction stage. The empty thumbnail case keeps the column null.
func (r *VideoRepo) UpdateSourceMetadata(ctx context.Context, id uuid.UUID, title, thumbnailURL string) error {
	var thumb *string
	if thumbnailURL != "" {
		thumb = &thumbnailURL
	}
	_, err := r.pool.Exec(ctx,
		"UPDATE videos SET title = $1, thumbnail_url = $2 WHERE id = $3",
		title, thumb, id,
	)
	return err
}

// UpdateResult writes the pipeline's final fields and terminal status.
func (r *VideoRepo) UpdateResult(ctx context.Context, id uuid.UUID, script, audioURL, status string) error {
	var scriptPtr, audioPtr *string
	if script != "" {
		scriptPtr = &script
	}
	if audioURL != "" {
		audioPtr = &audioURL
	}
	_, err := r.pool.Exec(ctx,
		"UPDATE videos SET generated_script = $1, audio_url = $2, status = $3, completed_at = $4 WHERE id = $5",
		scriptPtr, audioPtr, status, time.Now(), id,
	)
	return err
}

func (r *VideoRepo) SetFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE videos SET status = $1, error_message = $2, completed_at = $3 WHERE id = $4",
		models.StatusFailed, errMsg, time.Now(), id,
	)
	return err
}

func (r *VideoRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE videos SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *VideoRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM videos WHERE id = $1 AND user_id = $2", id, userID)
	return err
}
