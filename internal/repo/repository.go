package repo

import (
	"context"
	"errors"
)

// TransactionFunc is func signature for Transaction.
type TransactionFunc func(context.Context, Repo) error

// Repo defines an interface for Repository operations.
type Repo interface {
	Create(ctx context.Context, resource Resource) error
	List(ctx context.Context, resource Resource, result any, query Query) (int, error)
	Delete(ctx context.Context, resource Resource, query Query) (bool, error)
	First(ctx context.Context, resource Resource, query Query) (bool, error)
	Patch(ctx context.Context, resource Resource, query Query) (bool, error)
	Count(ctx context.Context, resource Resource, query Query) (int, error)
	Transaction(ctx context.Context, txFunc TransactionFunc) error
}

// Resource defines the interface for Resource operations.
type Resource interface {
	TableName() string
}

const DefaultLimit = 100

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUniqueConstraint = errors.New("unique constraint violation")
	ErrCreateResource   = errors.New("failed to create resource")
	ErrUpdateResource   = errors.New("failed to update resource")
	ErrDeleteResource   = errors.New("failed to delete resource")
	ErrGetResource      = errors.New("failed to get resource")
	ErrTransaction      = errors.New("failed to execute transaction")
)

// ProcessInBatch retrieves and processes records in batches from the database
// based on the provided query parameters. It iterates through all matching
// records using pagination to avoid loading large datasets into memory.
// Processing stops immediately if processFunc returns an error.
func ProcessInBatch[T Resource](
	ctx context.Context,
	repo Repo,
	baseQuery *Query,
	batchSize int,
	processFunc func([]*T) error,
) error {
	offset := 0

	for {
		var items []*T

		query := baseQuery.SetLimit(batchSize).SetOffset(offset)

		count, err := repo.List(ctx, *new(T), &items, *query)
		if err != nil {
			return err
		}

		err = processFunc(items)
		if err != nil {
			return err
		}

		offset += batchSize

		if offset >= count {
			break
		}
	}

	return nil
}
