package shared

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RowQuerier is the subset of pgx used by the sequence generator, so it
// can run against a pool or inside an open transaction.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentSequence allocates human-readable document numbers for one
// document kind. Allocation goes through an atomic counter row, so two
// concurrent creations can never observe the same value.
type DocumentSequence struct {
	Kind   string
	Prefix string
}

// Shared sequences for the documents that carry numbers.
var (
	QuotationNumbers = DocumentSequence{Kind: "quotation", Prefix: "Q"}
	InvoiceNumbers   = DocumentSequence{Kind: "invoice", Prefix: "INV"}
	ReceiptNumbers   = DocumentSequence{Kind: "receipt", Prefix: "RC"}
)

// Next reserves the next number for this sequence. Call it inside the
// same transaction that inserts the document so an aborted insert does
// not burn a visible number.
func (s DocumentSequence) Next(ctx context.Context, q RowQuerier) (string, error) {
	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, seq)
		VALUES ($1, 1)
		ON CONFLICT (doc_type)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, s.Kind).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("sequence %s: %w", s.Kind, err)
	}
	return s.Format(seq), nil
}

// Format renders a raw counter value as a document number.
func (s DocumentSequence) Format(seq int64) string {
	return fmt.Sprintf("%s-%04d", s.Prefix, seq)
}
