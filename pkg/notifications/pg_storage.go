package notifications

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage is a Storage implementation backed by a pgx connection
// pool. The schema is managed by the migrations in pkg/pg.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a Postgres-backed store on an existing pool.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

const notificationColumns = `id, user_id, title, body, channel, status, priority, template_id, metadata, created_at, sent_at, read_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Body, &n.Channel, &n.Status,
		&n.Priority, &n.TemplateID, &n.Metadata, &n.CreatedAt, &n.SentAt, &n.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *PostgresStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrMissingID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (`+notificationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		notif.ID, notif.UserID, notif.Title, notif.Body, notif.Channel, notif.Status,
		notif.Priority, notif.TemplateID, notif.Metadata, notif.CreatedAt, notif.SentAt, notif.ReadAt,
	)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *PostgresStorage) FindByID(ctx context.Context, id string) (*Notification, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return n, nil
}

func (s *PostgresStorage) FindMany(ctx context.Context, filter Filter) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE 1=1`
	args := make([]any, 0, 2)

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += ` AND user_id = $1`
	}
	if filter.IsRead != nil {
		if *filter.IsRead {
			query += ` AND read_at IS NOT NULL`
		} else {
			query += ` AND read_at IS NULL`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.Join(ErrStorage, err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return out, nil
}

func (s *PostgresStorage) MarkRead(ctx context.Context, id string) (*Notification, error) {
	// COALESCE keeps the first read timestamp, making repeated marks no-ops.
	row := s.pool.QueryRow(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, now())
		 WHERE id = $1
		 RETURNING `+notificationColumns, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return n, nil
}

func (s *PostgresStorage) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *PostgresStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`,
		userID).Scan(&count)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return count, nil
}

func (s *PostgresStorage) FindTemplateByID(ctx context.Context, id int) (*Template, error) {
	var tpl Template
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, title, body, channel, metadata
		 FROM notification_templates WHERE id = $1`, id).
		Scan(&tpl.ID, &tpl.Name, &tpl.Title, &tpl.Body, &tpl.Channel, &tpl.Metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &tpl, nil
}

func (s *PostgresStorage) CreateTemplate(ctx context.Context, tpl Template) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notification_templates (id, name, title, body, channel, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		tpl.ID, tpl.Name, tpl.Title, tpl.Body, tpl.Channel, tpl.Metadata,
	)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}
