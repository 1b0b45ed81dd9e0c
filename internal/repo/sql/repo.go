package sql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stagepass/stagepass/internal/errs"
	"github.com/stagepass/stagepass/internal/log"
	"github.com/stagepass/stagepass/internal/repo"
	"github.com/stagepass/stagepass/internal/repo/violations"
)

var ErrUnsupportedOrderDirective = errors.New("unsupported order directive")

// ResourceRepository represents the repository for managing Resource data.
// All tables live in one schema; tenant scoping is a matter of query
// conditions on tenant_id/app_id, not of connection state.
type ResourceRepository struct {
	db *gorm.DB
}

// NewRepository creates and returns a new instance of ResourceRepository.
func NewRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{
		db: db,
	}
}

// Create adds meta information and stores a Resource.
func (r *ResourceRepository) Create(ctx context.Context, resource repo.Resource) error {
	err := r.db.WithContext(ctx).Create(resource).Error
	if err != nil {
		log.Error(ctx, "error creating resource", err)

		if errors.Is(err, gorm.ErrDuplicatedKey) || violations.IsUniqueConstraint(err) {
			return errs.Wrap(repo.ErrUniqueConstraint, err)
		}

		return errs.Wrap(repo.ErrCreateResource, err)
	}

	return nil
}

// List retrieves records from the database based on the provided query
// parameters and model. Result is an address.
func (r *ResourceRepository) List(
	ctx context.Context,
	resource repo.Resource,
	result any,
	query repo.Query,
) (int, error) {
	var count int64

	db, err := applyQuery(r.db.WithContext(ctx).Model(resource), query)
	if err != nil {
		return 0, err
	}

	db = db.Count(&count)
	if db.Error != nil {
		return 0, db.Error
	}

	for _, order := range query.OrderFields {
		switch order.Direction {
		case repo.Desc:
			db = db.Order(order.Field + " desc")
		case repo.Asc:
			db = db.Order(order.Field + " asc")
		default:
			return 0, ErrUnsupportedOrderDirective
		}
	}

	res := applyPagination(db, query).Find(result)
	if res.Error != nil {
		return 0, res.Error
	}

	return int(count), nil
}

// Delete removes the Resource.
//
// It returns true if a record was deleted successfully,
// false if there was no record to delete,
// and error if there was an error during the deletion.
// If no query is provided it deletes the item by the primary key.
func (r *ResourceRepository) Delete(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db, err := applyQuery(r.db.WithContext(ctx).Clauses(clause.Returning{}), query)
	if err != nil {
		return false, err
	}

	result := db.Delete(resource)
	if result.Error != nil {
		log.Error(ctx, "error deleting resource", result.Error)
		return false, errs.Wrap(repo.ErrDeleteResource, result.Error)
	}

	return result.RowsAffected > 0, nil
}

// First fills the given Resource with data, if found. With no query, the
// resource's primary key is used as the condition.
func (r *ResourceRepository) First(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db, err := applyQuery(r.db.WithContext(ctx).Model(resource), query)
	if err != nil {
		return false, err
	}

	res := db.First(resource)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, errs.Wrap(repo.ErrNotFound, res.Error)
		}

		log.Error(ctx, "error finding the resource", res.Error)

		return false, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Patch will patch the resource with the primary key as the where condition.
//
// It returns true if a record was patched successfully,
// and error if there was an error during the patch.
func (r *ResourceRepository) Patch(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db, err := applyQuery(r.db.WithContext(ctx).Model(resource), query)
	if err != nil {
		return false, err
	}

	res := applyUpdateQuery(db.Clauses(clause.Returning{}), query).Updates(resource)
	if res.Error != nil {
		log.Error(ctx, "error updating resource", res.Error)

		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, errs.Wrap(repo.ErrNotFound, res.Error)
		}

		if violations.IsUniqueConstraint(res.Error) ||
			errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, errs.Wrap(repo.ErrUniqueConstraint, res.Error)
		}

		return false, errs.Wrap(repo.ErrUpdateResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Count returns the number of records that match the given query.
func (r *ResourceRepository) Count(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (int, error) {
	var count int64

	db, err := applyQuery(r.db.WithContext(ctx).Model(resource), query)
	if err != nil {
		return 0, err
	}

	res := db.Count(&count)
	if res.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return int(count), nil
}

// Transaction wraps a function inside a database transaction.
// If txFunc returns no error the transaction is committed, otherwise it is
// rolled back.
// Note: please don't use goroutines inside the txFunc as this might lead to panic.
func (r *ResourceRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	err := r.db.Transaction(
		func(db *gorm.DB) error {
			errorChan := make(chan error)

			go func() {
				errorChan <- txFunc(ctx, NewRepository(db))
			}()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-errorChan:
				return err
			}
		},
	)
	if err != nil {
		return errs.Wrap(repo.ErrTransaction, err)
	}

	return nil
}

// Exec runs a raw statement and reports how many rows it touched. The cascade
// updater is the only caller; table identifiers in stmt must already be
// quoted, everything else must be a bound parameter.
func (r *ResourceRepository) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	res := r.db.WithContext(ctx).Exec(stmt, args...)
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}

// apply update operations on the db action
func applyUpdateQuery(db *gorm.DB, query repo.Query) *gorm.DB {
	if query.UpdateFields.All {
		return db.Select("*")
	}

	if len(query.UpdateFields.Fields) > 0 {
		fields := make([]any, 0, len(query.UpdateFields.Fields))
		for _, f := range query.UpdateFields.Fields {
			fields = append(fields, f)
		}

		return db.Select(query.UpdateFields.Fields[0], fields[1:]...)
	}

	return db
}

// applyQuery applies the composite key conditions to the database action.
func applyQuery(db *gorm.DB, query repo.Query) (*gorm.DB, error) {
	if len(query.CompositeKeyGroup) == 0 {
		return db, nil
	}

	baseQuery := db.Session(&gorm.Session{NewDB: true})

	for i, ck := range query.CompositeKeyGroup {
		tk, err := handleCompositeKey(db, ck.CompositeKey)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			baseQuery = baseQuery.Where(tk)
			continue
		}

		if ck.IsStrict {
			baseQuery = baseQuery.Where(tk)
		} else {
			baseQuery = baseQuery.Or(tk)
		}
	}

	return db.Where(baseQuery), nil
}

func applyPagination(db *gorm.DB, query repo.Query) *gorm.DB {
	if query.Limit <= 0 {
		query.Limit = repo.DefaultLimit
	}

	return db.Offset(query.Offset).Limit(query.Limit)
}

// handleCompositeKey applies the composite key to the query.
func handleCompositeKey(db *gorm.DB, compositeKey repo.CompositeKey) (*gorm.DB, error) {
	tx := db.Session(&gorm.Session{NewDB: true})

	for _, cond := range compositeKey.Conds {
		entry := cond.Value
		if entry.Err != nil {
			return nil, entry.Err
		}

		stmt := cond.Field + " " + string(entry.Key.Operation) + " ?"

		if compositeKey.IsStrict {
			tx = tx.Where(stmt, entry.Key.Value)
		} else {
			tx = tx.Or(stmt, entry.Key.Value)
		}
	}

	return tx, nil
}
