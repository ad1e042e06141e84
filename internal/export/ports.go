package export

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for outbound export adapters.
type (
	// RowAppender writes one transaction as a spreadsheet row and returns
	// a reference to where it landed.
	RowAppender interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// RowDeleter removes the exported row for a transaction ID. Deleting a
	// row that was never exported is not an error.
	RowDeleter interface {
		DeleteTransaction(ctx context.Context, id int64) error
	}
)
