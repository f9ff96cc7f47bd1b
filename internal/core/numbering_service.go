package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Numbering period and format bounds. Numbers past maxSequence would break
// the fixed-width format, so the sequence refuses to issue them.
const (
	minNumberingYear = 2000
	maxNumberingYear = 2100
	maxSequence      = 99999999
	numberingRetries = 3
)

// NumberingService issues unique, monotonically increasing document numbers
// scoped by (document type, year), formatted {prefix}-{year}-{padded}.
// A number is never reused, even if the document that consumed it is later
// deleted; deleting documents therefore leaves gaps, which is acceptable —
// duplicates are not.
type NumberingService interface {
	// NextNumber allocates a number in its own transaction. Allocation is the
	// one operation in this core that is retry-safe by design.
	NextNumber(ctx context.Context, docType DocType, year int) (string, error)
	// NextNumberTx allocates a number inside the caller's transaction so the
	// document insert and its number land atomically. The row lock taken on
	// the (doc_type, year) sequence row is held until the caller commits.
	NextNumberTx(ctx context.Context, tx pgx.Tx, docType DocType, year int) (string, error)
}

type numberingService struct {
	pool *pgxpool.Pool
}

func NewNumberingService(pool *pgxpool.Pool) NumberingService {
	return &numberingService{pool: pool}
}

func (s *numberingService) NextNumber(ctx context.Context, docType DocType, year int) (string, error) {
	var number string
	for attempt := 0; attempt < numberingRetries; attempt++ {
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			n, err := s.NextNumberTx(ctx, tx, docType, year)
			if err != nil {
				return err
			}
			number = n
			return nil
		})
		if err == nil {
			return number, nil
		}
		if !isSerializationFailure(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("allocating %s number for %d: %w", docType, year, ErrConcurrentModification)
}

func (s *numberingService) NextNumberTx(ctx context.Context, tx pgx.Tx, docType DocType, year int) (string, error) {
	prefix, ok := docTypePrefixes[docType]
	if !ok {
		return "", fmt.Errorf("unknown document type %q", docType)
	}
	if year < minNumberingYear || year > maxNumberingYear {
		return "", fmt.Errorf("year %d: %w", year, ErrInvalidPeriod)
	}

	// Atomic read-increment-write on the unique (doc_type, year) key. Two
	// concurrent callers serialize on the row; the second sees the first's
	// committed increment.
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO number_sequences (doc_type, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET last_number = number_sequences.last_number + 1
		RETURNING last_number
	`, string(docType), year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to increment sequence (%s, %d): %w", docType, year, err)
	}

	if lastNumber > maxSequence {
		return "", fmt.Errorf("sequence (%s, %d) reached %d: %w", docType, year, lastNumber, ErrSequenceExhausted)
	}

	return fmt.Sprintf("%s-%d-%05d", prefix, year, lastNumber), nil
}

// isSerializationFailure reports whether err is a transient store conflict
// worth retrying: serialization_failure (40001) or deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
