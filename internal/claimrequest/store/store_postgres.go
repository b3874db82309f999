package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"claimbridge/internal/claimrequest/models"
	id "claimbridge/pkg/domain"
	"claimbridge/pkg/platform/sentinel"
	txcontext "claimbridge/pkg/platform/tx"
)

const uniqueViolation = "23505"

const selectColumns = `
	id, requester_address, issuer_address, claim_topic, message,
	document_file_id, document_name, document_content_type, document_size,
	status, signed_message, signature, requester_signature_valid,
	issuer_signed_message, issuer_signature, review_note,
	created_at, updated_at, reviewed_at`

// PostgresStore persists claim requests in PostgreSQL. When the context carries
// a transaction (see pkg/platform/tx) statements run inside it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, r *models.ClaimRequest) error {
	var (
		fileID, name, contentType sql.NullString
		size                      sql.NullInt64
	)
	if r.Document != nil {
		fileID = sql.NullString{String: r.Document.FileID, Valid: true}
		name = sql.NullString{String: r.Document.Name, Valid: true}
		contentType = sql.NullString{String: r.Document.ContentType, Valid: true}
		size = sql.NullInt64{Int64: r.Document.Size, Valid: true}
	}

	query := `
		INSERT INTO claim_requests (
			id, requester_address, issuer_address, claim_topic, message,
			document_file_id, document_name, document_content_type, document_size,
			status, signed_message, signature, requester_signature_valid,
			review_note, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		string(r.RequesterAddress),
		string(r.IssuerAddress),
		r.ClaimTopic.String(),
		r.Message,
		fileID,
		name,
		contentType,
		size,
		string(r.Status),
		r.SignedMessage,
		r.Signature,
		r.RequesterSignatureValid,
		r.ReviewNote,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert claim request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.ClaimRequest, error) {
	query := `SELECT ` + selectColumns + ` FROM claim_requests WHERE id = $1`
	r, err := scanClaimRequest(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find claim request: %w", err)
	}
	return r, nil
}

// Find lowers the typed filter into a parameterized WHERE clause.
func (s *PostgresStore) Find(ctx context.Context, filter models.ListFilter) ([]*models.ClaimRequest, error) {
	var (
		conds []string
		args  []any
	)
	if filter.RequesterAddress != nil {
		args = append(args, strings.ToLower(string(*filter.RequesterAddress)))
		conds = append(conds, fmt.Sprintf("requester_address = $%d", len(args)))
	}
	if filter.IssuerAddress != nil {
		args = append(args, strings.ToLower(string(*filter.IssuerAddress)))
		conds = append(conds, fmt.Sprintf("issuer_address = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + selectColumns + ` FROM claim_requests`)
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, seq DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := s.execer(ctx).QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query claim requests: %w", err)
	}
	defer rows.Close()

	out := []*models.ClaimRequest{}
	for rows.Next() {
		r, err := scanClaimRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim requests: %w", err)
	}
	return out, nil
}

// TransitionIfPending is a single conditional UPDATE guarded by status = 'pending'.
// Zero affected rows means either the id is unknown or another reviewer won.
func (s *PostgresStore) TransitionIfPending(ctx context.Context, requestID id.RequestID, review models.Review) (*models.ClaimRequest, error) {
	query := `
		UPDATE claim_requests
		SET status = $2,
			issuer_signed_message = $3,
			issuer_signature = $4,
			review_note = $5,
			reviewed_at = $6,
			updated_at = $6
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + selectColumns

	r, err := scanClaimRequest(s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(requestID),
		string(review.Status),
		review.IssuerSignedMessage,
		review.IssuerSignature,
		review.ReviewNote,
		review.ReviewedAt,
	))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition claim request: %w", err)
	}

	var exists bool
	err = s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM claim_requests WHERE id = $1)`, uuid.UUID(requestID),
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check claim request existence: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

func scanClaimRequest(row interface{ Scan(...any) error }) (*models.ClaimRequest, error) {
	var (
		r                                    models.ClaimRequest
		rawID                                uuid.UUID
		requester, issuer, topic, status     string
		fileID, docName, contentType         sql.NullString
		docSize                              sql.NullInt64
		issuerSignedMessage, issuerSignature sql.NullString
		reviewedAt                           sql.NullTime
		createdAt, updatedAt                 time.Time
	)
	err := row.Scan(
		&rawID, &requester, &issuer, &topic, &r.Message,
		&fileID, &docName, &contentType, &docSize,
		&status, &r.SignedMessage, &r.Signature, &r.RequesterSignatureValid,
		&issuerSignedMessage, &issuerSignature, &r.ReviewNote,
		&createdAt, &updatedAt, &reviewedAt,
	)
	if err != nil {
		return nil, err
	}

	n, err := strconv.ParseUint(topic, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse claim topic %q: %w", topic, err)
	}

	r.ID = id.RequestID(rawID)
	r.RequesterAddress = id.Address(requester)
	r.IssuerAddress = id.Address(issuer)
	r.ClaimTopic = id.ClaimTopic(n)
	r.Status = models.Status(status)
	r.IssuerSignedMessage = issuerSignedMessage.String
	r.IssuerSignature = issuerSignature.String
	r.CreatedAt = createdAt
	r.UpdatedAt = updatedAt
	if fileID.Valid {
		r.Document = &models.Document{
			FileID:      fileID.String,
			Name:        docName.String,
			ContentType: contentType.String,
			Size:        docSize.Int64,
		}
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	return &r, nil
}
