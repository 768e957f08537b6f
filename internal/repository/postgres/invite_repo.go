package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tictacduel/server/internal/domain"
)

type InviteRepo struct {
	DB *sql.DB
}

func NewInviteRepo(db *sql.DB) *InviteRepo {
	return &InviteRepo{DB: db}
}

// Insert persists a new invite.
func (r *InviteRepo) Insert(ctx context.Context, inv *domain.Invite) error {
	query := `
	INSERT INTO invites (id, from_id, from_email, to_email, message, status, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`

	_, err := r.DB.ExecContext(ctx, query,
		inv.ID, inv.FromID, inv.FromEmail, inv.ToEmail, inv.Message, inv.Status, inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert invite: %v", err)
	}
	return nil
}

// GetByID retrieves an invite. Returns (nil, nil) when absent.
func (r *InviteRepo) GetByID(ctx context.Context, id string) (*domain.Invite, error) {
	query := `
	SELECT id, from_id, from_email, to_email, message, status, game_id, expires_at, created_at
	FROM invites
	WHERE id = $1;
	`

	inv, err := scanInvite(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite by id: %v", err)
	}
	return inv, nil
}

// ListByRecipient returns invites addressed to the case-folded email, newest
// first.
func (r *InviteRepo) ListByRecipient(ctx context.Context, email string) ([]domain.Invite, error) {
	query := `
	SELECT id, from_id, from_email, to_email, message, status, game_id, expires_at, created_at
	FROM invites
	WHERE to_email = $1
	ORDER BY created_at DESC;
	`

	rows, err := r.DB.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %v", err)
	}
	defer rows.Close()

	var invites []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite row: %v", err)
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

// UpdateStatus transitions the invite from one status to another as an atomic
// conditional update. Returns false if the stored status no longer matches,
// which means a concurrent transition already won.
func (r *InviteRepo) UpdateStatus(ctx context.Context, id string, from, to domain.InviteStatus) (bool, error) {
	query := `UPDATE invites SET status = $1 WHERE id = $2 AND status = $3;`

	res, err := r.DB.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update invite status: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %v", err)
	}
	return affected == 1, nil
}

// SetGameID stores the created session id on an accepted invite.
func (r *InviteRepo) SetGameID(ctx context.Context, id, gameID string) error {
	query := `UPDATE invites SET game_id = $1 WHERE id = $2;`

	if _, err := r.DB.ExecContext(ctx, query, gameID, id); err != nil {
		return fmt.Errorf("failed to set invite game id: %v", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvite(row rowScanner) (*domain.Invite, error) {
	var inv domain.Invite
	var gameID sql.NullString
	var expiresAt sql.NullTime

	err := row.Scan(
		&inv.ID,
		&inv.FromID,
		&inv.FromEmail,
		&inv.ToEmail,
		&inv.Message,
		&inv.Status,
		&gameID,
		&expiresAt,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if gameID.Valid {
		id := gameID.String
		inv.GameID = &id
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		inv.ExpiresAt = &t
	}
	return &inv, nil
}
