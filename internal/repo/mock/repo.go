package mock

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/stagepass/stagepass/internal/errs"
	"github.com/stagepass/stagepass/internal/repo"
)

var (
	ErrMustPointerToSlice = errors.New("result must be a pointer to a slice")
	ErrMissingIDField     = errors.New("resource has no string ID field")
	ErrDuplicatePrimary   = errors.New("duplicate primary key")
)

// uniqueIndexes declares the uniqueness constraints the storage layer would
// enforce. Nil pointer fields behave like SQL NULLs and never collide.
var uniqueIndexes = map[string][][]string{
	"tenants":            {{"UserID"}, {"PrimaryDomain"}},
	"tenant_memberships": {{"ViewerID", "TenantID"}},
}

// InMemoryRepository is a column-aware fake of the SQL repository used by
// unit tests. Rows are stored as struct values per table, keyed by ID.
type InMemoryRepository struct {
	mu     sync.Mutex
	tables map[string]map[string]any
	order  map[string][]string
}

// NewInMemoryRepository creates and returns a new instance of InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		tables: make(map[string]map[string]any),
		order:  make(map[string][]string),
	}
}

// Create stores a Resource, enforcing primary key and unique index constraints.
func (r *InMemoryRepository) Create(_ context.Context, resource repo.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := structValue(resource)

	id, err := primaryKey(row)
	if err != nil {
		return err
	}

	table := resource.TableName()
	rows := r.tables[table]

	if rows == nil {
		rows = make(map[string]any)
		r.tables[table] = rows
	}

	if _, exists := rows[id]; exists {
		return errs.Wrap(repo.ErrUniqueConstraint, ErrDuplicatePrimary)
	}

	err = r.checkUnique(table, id, row)
	if err != nil {
		return err
	}

	rows[id] = row.Interface()
	r.order[table] = append(r.order[table], id)

	return nil
}

// First fills the given Resource with the first row matching the query
// conditions, falling back to the resource's primary key.
func (r *InMemoryRepository) First(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := resource.TableName()

	if len(query.CompositeKeyGroup) == 0 {
		row := structValue(resource)

		id, err := primaryKey(row)
		if err != nil {
			return false, err
		}

		stored, exists := r.tables[table][id]
		if !exists {
			return false, repo.ErrNotFound
		}

		assign(resource, stored)

		return true, nil
	}

	for _, id := range r.order[table] {
		stored := r.tables[table][id]
		if matches(stored, query) {
			assign(resource, stored)
			return true, nil
		}
	}

	return false, repo.ErrNotFound
}

// List appends all matching rows to result, which must be a pointer to a
// slice of struct pointers. Order follows insertion order.
func (r *InMemoryRepository) List(
	_ context.Context,
	resource repo.Resource,
	result any,
	query repo.Query,
) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := resource.TableName()

	matched := make([]any, 0)

	for _, id := range r.order[table] {
		stored := r.tables[table][id]
		if matches(stored, query) {
			matched = append(matched, stored)
		}
	}

	err := assignList(result, paginate(matched, query))
	if err != nil {
		return 0, err
	}

	return len(matched), nil
}

// Delete removes the rows matching the query, or the row with the resource's
// primary key when no query is given.
func (r *InMemoryRepository) Delete(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := resource.TableName()
	deleted := false

	if len(query.CompositeKeyGroup) == 0 {
		row := structValue(resource)

		id, err := primaryKey(row)
		if err != nil {
			return false, err
		}

		if _, exists := r.tables[table][id]; exists {
			r.remove(table, id)

			deleted = true
		}

		return deleted, nil
	}

	for _, id := range append([]string(nil), r.order[table]...) {
		if matches(r.tables[table][id], query) {
			r.remove(table, id)

			deleted = true
		}
	}

	return deleted, nil
}

// Patch updates the stored row with the resource's primary key. Field
// selection follows the query's UpdateFields the same way the SQL repository
// does: All writes everything, a field list writes exactly those fields, and
// the default writes non-zero fields only.
func (r *InMemoryRepository) Patch(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := structValue(resource)

	id, err := primaryKey(row)
	if err != nil {
		return false, err
	}

	table := resource.TableName()

	stored, exists := r.tables[table][id]
	if !exists {
		return false, nil
	}

	updated := reflect.New(reflect.TypeOf(stored)).Elem()
	updated.Set(reflect.ValueOf(stored))

	copyFields(updated, row, query.UpdateFields)

	err = r.checkUnique(table, id, updated)
	if err != nil {
		return false, err
	}

	r.tables[table][id] = updated.Interface()
	assign(resource, updated.Interface())

	return true, nil
}

// Count returns the number of rows that match the given query.
func (r *InMemoryRepository) Count(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0

	table := resource.TableName()
	for _, id := range r.order[table] {
		if matches(r.tables[table][id], query) {
			count++
		}
	}

	return count, nil
}

// Transaction runs txFunc against the same store. The fake gives no
// atomicity; tests that need rollback semantics use a real database.
func (r *InMemoryRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	return txFunc(ctx, r)
}

func (r *InMemoryRepository) remove(table, id string) {
	delete(r.tables[table], id)

	ids := r.order[table]
	for i, existing := range ids {
		if existing == id {
			r.order[table] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

func (r *InMemoryRepository) checkUnique(table, selfID string, row reflect.Value) error {
	for _, index := range uniqueIndexes[table] {
		values, allSet := indexValues(row, index)
		if !allSet {
			continue
		}

		for _, otherID := range r.order[table] {
			if otherID == selfID {
				continue
			}

			otherValues, otherSet := indexValues(reflect.ValueOf(r.tables[table][otherID]), index)
			if otherSet && values == otherValues {
				return errs.Wrapf(repo.ErrUniqueConstraint, strings.Join(index, ","))
			}
		}
	}

	return nil
}

func indexValues(row reflect.Value, index []string) (string, bool) {
	parts := make([]string, 0, len(index))

	for _, name := range index {
		field := row.FieldByName(name)
		if !field.IsValid() {
			return "", false
		}

		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				return "", false
			}

			field = field.Elem()
		}

		parts = append(parts, fmt.Sprintf("%v", field.Interface()))
	}

	return strings.Join(parts, "\x00"), true
}

func structValue(resource repo.Resource) reflect.Value {
	v := reflect.ValueOf(resource)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	return v
}

func primaryKey(row reflect.Value) (string, error) {
	field := row.FieldByName("ID")
	if !field.IsValid() || field.Kind() != reflect.String {
		return "", ErrMissingIDField
	}

	return field.String(), nil
}

func assign(resource repo.Resource, stored any) {
	reflect.ValueOf(resource).Elem().Set(reflect.ValueOf(stored))
}

func matches(stored any, query repo.Query) bool {
	row := reflect.ValueOf(stored)

	for _, group := range query.CompositeKeyGroup {
		if !matchesCompositeKey(row, group.CompositeKey) {
			return false
		}
	}

	return true
}

func matchesCompositeKey(row reflect.Value, ck repo.CompositeKey) bool {
	if len(ck.Conds) == 0 {
		return true
	}

	for _, cond := range ck.Conds {
		ok := matchesCondition(row, cond)

		if ck.IsStrict && !ok {
			return false
		}

		if !ck.IsStrict && ok {
			return true
		}
	}

	return ck.IsStrict
}

func matchesCondition(row reflect.Value, cond repo.Condition) bool {
	field := fieldByColumn(row, cond.Field)
	if !field.IsValid() {
		return false
	}

	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return cond.Value.Key.Value == nil
		}

		field = field.Elem()
	}

	got := fmt.Sprintf("%v", field.Interface())
	want := fmt.Sprintf("%v", cond.Value.Key.Value)

	switch cond.Value.Key.Operation {
	case repo.Equal:
		return got == want
	case repo.NotEqual:
		return got != want
	case repo.GreaterThan:
		return got > want
	case repo.LessThan:
		return got < want
	}

	return false
}

// fieldByColumn resolves a snake_case column name to a struct field,
// descending into embedded structs the way gorm flattens them.
func fieldByColumn(row reflect.Value, column string) reflect.Value {
	want := strings.ReplaceAll(column, "_", "")

	for i := range row.NumField() {
		structField := row.Type().Field(i)

		if structField.Anonymous {
			if nested := fieldByColumn(row.Field(i), column); nested.IsValid() {
				return nested
			}

			continue
		}

		if strings.EqualFold(structField.Name, want) {
			return row.Field(i)
		}
	}

	return reflect.Value{}
}

func copyFields(dst, src reflect.Value, update repo.Update) {
	selected := make(map[string]struct{}, len(update.Fields))
	for _, f := range update.Fields {
		selected[strings.ToLower(strings.ReplaceAll(f, "_", ""))] = struct{}{}
	}

	copyStructFields(dst, src, update, selected)
}

func copyStructFields(dst, src reflect.Value, update repo.Update, selected map[string]struct{}) {
	for i := range src.NumField() {
		structField := src.Type().Field(i)

		if structField.Anonymous {
			copyStructFields(dst.Field(i), src.Field(i), update, selected)
			continue
		}

		if structField.Name == "ID" {
			continue
		}

		_, listed := selected[strings.ToLower(structField.Name)]

		switch {
		case update.All, listed:
			dst.Field(i).Set(src.Field(i))
		case len(selected) == 0 && !src.Field(i).IsZero():
			dst.Field(i).Set(src.Field(i))
		}
	}
}

func paginate(rows []any, query repo.Query) []any {
	offset := query.Offset
	if offset > len(rows) {
		offset = len(rows)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = repo.DefaultLimit
	}

	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}

	return rows[offset:end]
}

func assignList(result any, list []any) error {
	resultVal := reflect.ValueOf(result)
	if resultVal.Kind() != reflect.Pointer {
		return ErrMustPointerToSlice
	}

	sliceVal := resultVal.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return ErrMustPointerToSlice
	}

	elemType := sliceVal.Type().Elem()
	newSlice := reflect.MakeSlice(sliceVal.Type(), 0, len(list))

	for _, item := range list {
		itemVal := reflect.ValueOf(item)

		if elemType.Kind() == reflect.Pointer {
			ptr := reflect.New(itemVal.Type())
			ptr.Elem().Set(itemVal)
			itemVal = ptr
		}

		newSlice = reflect.Append(newSlice, itemVal)
	}

	resultVal.Elem().Set(newSlice)

	return nil
}
