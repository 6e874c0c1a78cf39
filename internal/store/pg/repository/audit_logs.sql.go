package repository

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

const createAuditLog = `
INSERT INTO audit_logs (user_id, event_type, ip, ua, payload)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, event_type, ip, ua, payload, created_at
`

type CreateAuditLogParams struct {
	UserID    *string
	EventType string
	Ip        pqtype.Inet
	Ua        *string
	Payload   pqtype.NullRawMessage
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRowContext(ctx, createAuditLog,
		arg.UserID,
		arg.EventType,
		arg.Ip,
		arg.Ua,
		arg.Payload,
	)
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.EventType,
		&i.Ip,
		&i.Ua,
		&i.Payload,
		&i.CreatedAt,
	)
	return i, err
}

const listAuditLogsByUser = `
SELECT id, user_id, event_type, ip, ua, payload, created_at
FROM audit_logs
WHERE user_id = $1
ORDER BY id
`

func (q *Queries) ListAuditLogsByUser(ctx context.Context, userID string) ([]AuditLog, error) {
	rows, err := q.db.QueryContext(ctx, listAuditLogsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AuditLog
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.EventType,
			&i.Ip,
			&i.Ua,
			&i.Payload,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
