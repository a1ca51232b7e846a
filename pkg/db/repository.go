package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

const repoLogPrefix = "db:repository"

// DefaultListLimit caps ListAPIErrors when the filter sets no limit.
const DefaultListLimit = 100

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewRecordID generates a ULID for a journal record. IDs sort by creation time.
func NewRecordID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Repository provides access to the API error journal.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// InsertAPIError records one error. ID and Occurred are filled in when empty.
func (r *Repository) InsertAPIError(ctx context.Context, rec *APIErrorRecord) (*APIErrorRecord, error) {
	if rec.Occurred.IsZero() {
		rec.Occurred = time.Now().UTC()
	}
	if rec.ID == "" {
		rec.ID = NewRecordID(rec.Occurred)
	}
	slog.Debug(fmt.Sprintf("%s - InsertAPIError id=%s endpoint=%s error=%s", repoLogPrefix, rec.ID, rec.Endpoint, rec.ErrorName))

	details, err := marshalDetails(rec.ErrorDetails)
	if err != nil {
		return nil, fmt.Errorf("%s - encode error details: %w", repoLogPrefix, err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO api_errors (id, event_id, endpoint, path, http_code, http_status, error_name,
		                         error_code, error_message, error_details, cause, service, occurred)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+recordColumns,
		rec.ID, rec.EventID, rec.Endpoint, rec.Path, rec.HTTPCode, rec.HTTPStatus, rec.ErrorName,
		rec.ErrorCode, rec.ErrorMessage, details, rec.Cause, rec.Service, rec.Occurred)

	out, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("%s - insert failed: %w", repoLogPrefix, err)
	}
	return out, nil
}

// ListAPIErrors returns matching records, newest first.
func (r *Repository) ListAPIErrors(ctx context.Context, filter APIErrorFilter) ([]APIErrorRecord, error) {
	where, args := buildFilterClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit, max(filter.Offset, 0))
	query := fmt.Sprintf(`SELECT %s FROM api_errors%s ORDER BY occurred DESC, id DESC LIMIT $%d OFFSET $%d`,
		recordColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s - list failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []APIErrorRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s - scan failed: %w", repoLogPrefix, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - list failed: %w", repoLogPrefix, err)
	}
	return out, nil
}

// CountAPIErrors counts matching records. Limit and Offset are ignored.
func (r *Repository) CountAPIErrors(ctx context.Context, filter APIErrorFilter) (int, error) {
	where, args := buildFilterClause(filter)
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM api_errors`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s - count failed: %w", repoLogPrefix, err)
	}
	return n, nil
}

const recordColumns = `id, event_id, endpoint, path, http_code, http_status, error_name,
	error_code, error_message, error_details, cause, service, occurred, recorded`

func buildFilterClause(f APIErrorFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Endpoint != "" {
		add("endpoint = $%d", f.Endpoint)
	}
	if f.ErrorName != "" {
		add("error_name = $%d", f.ErrorName)
	}
	if f.HTTPCode != 0 {
		add("http_code = $%d", f.HTTPCode)
	}
	if f.Since != nil {
		add("occurred >= $%d", *f.Since)
	}
	if f.Until != nil {
		add("occurred < $%d", *f.Until)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func marshalDetails(d map[string][]string) ([]byte, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return json.Marshal(d)
}

func scanRecord(row pgx.Row) (*APIErrorRecord, error) {
	var rec APIErrorRecord
	var details []byte
	err := row.Scan(&rec.ID, &rec.EventID, &rec.Endpoint, &rec.Path, &rec.HTTPCode, &rec.HTTPStatus,
		&rec.ErrorName, &rec.ErrorCode, &rec.ErrorMessage, &details, &rec.Cause, &rec.Service,
		&rec.Occurred, &rec.Recorded)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &rec.ErrorDetails); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}
