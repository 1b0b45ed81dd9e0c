package repo

import (
	"errors"
	"fmt"
)

var ErrMultipleOperationsProvided = errors.New("multiple operations provided")

type (
	ComparisonOp   string
	OrderDirection string
	QueryField     = string
)

const (
	Equal       ComparisonOp = "="
	NotEqual    ComparisonOp = "!="
	GreaterThan ComparisonOp = ">"
	LessThan    ComparisonOp = "<"

	Desc OrderDirection = "desc"
	Asc  OrderDirection = "asc"

	IDField            QueryField = "id"
	UserIDField        QueryField = "user_id"
	TenantIDField      QueryField = "tenant_id"
	AppIDField         QueryField = "app_id"
	IsProField         QueryField = "is_pro"
	ProActivatedField  QueryField = "pro_activated_at"
	PrimaryDomainField QueryField = "primary_domain"
	StatusField        QueryField = "status"
	ViewerIDField      QueryField = "viewer_id"
	SourceField        QueryField = "source"
	CreatedField       QueryField = "created_at"
)

type Key struct {
	Value     any
	Operation ComparisonOp
}

// CompositeKeyEntry represents an entry in a CompositeKey,
// containing a Key and an optional error for validation or processing.
type CompositeKeyEntry struct {
	Key Key
	Err error
}

// CompositeKey is a collection of QueryField and matching value that are
// collectively used to find a record.
// IsStrict: false makes the conditions combine with OR instead of AND.
type CompositeKey struct {
	IsStrict bool
	Conds    []Condition
}

type Condition struct {
	Field QueryField
	Value CompositeKeyEntry
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s '%v'", c.Field, c.Value.Key.Operation, c.Value.Key.Value)
}

// NewCompositeKey creates and returns a new CompositeKey.
func NewCompositeKey() CompositeKey {
	return CompositeKey{
		IsStrict: true,
		Conds:    []Condition{},
	}
}

// Where adds a condition to the CompositeKey.
func (c CompositeKey) Where(q QueryField, v any,
	options ...func(v any) Key,
) CompositeKey {
	switch {
	case len(options) == 0:
		c.Conds = append(c.Conds,
			Condition{Field: q, Value: CompositeKeyEntry{Key: Key{Value: v, Operation: Equal}}})
	case len(options) > 1:
		c.Conds = append(c.Conds,
			Condition{Field: q, Value: CompositeKeyEntry{Err: ErrMultipleOperationsProvided}})
	default:
		c.Conds = append(c.Conds,
			Condition{Field: q, Value: CompositeKeyEntry{Key: options[0](v)}})
	}

	return c
}

func NotEq(v any) Key {
	return Key{Value: v, Operation: NotEqual}
}

func Gt(v any) Key {
	return Key{Value: v, Operation: GreaterThan}
}

func Lt(v any) Key {
	return Key{Value: v, Operation: LessThan}
}

type CompositeKeyGroup struct {
	CompositeKey CompositeKey
	IsStrict     bool
}

func NewCompositeKeyGroup(key CompositeKey) CompositeKeyGroup {
	return CompositeKeyGroup{
		CompositeKey: key,
		IsStrict:     true,
	}
}

// Update controls which fields a Patch writes.
// If All is true all fields will be updated, including zero values. Otherwise
// only the listed fields are written; with neither, only non-zero values are.
type Update struct {
	Fields []QueryField
	All    bool
}

type OrderField struct {
	Field     QueryField
	Direction OrderDirection
}

type Query struct {
	// Limit is a max size of returned elements.
	Limit int

	Offset int

	// CompositeKeys form the where part of the Query
	CompositeKeyGroup []CompositeKeyGroup

	UpdateFields Update

	OrderFields []OrderField
}

// NewQuery creates and returns a new empty query.
func NewQuery() *Query {
	return &Query{
		CompositeKeyGroup: make([]CompositeKeyGroup, 0),
		UpdateFields: Update{
			Fields: make([]QueryField, 0),
			All:    false,
		},
	}
}

func (q *Query) Where(conds ...CompositeKeyGroup) *Query {
	q.CompositeKeyGroup = append(q.CompositeKeyGroup, conds...)
	return q
}

func (q *Query) UpdateAll(b bool) *Query {
	q.UpdateFields.All = b
	return q
}

func (q *Query) Update(fields ...QueryField) *Query {
	q.UpdateFields.Fields = append(q.UpdateFields.Fields, fields...)
	return q
}

// SetLimit sets the limit value for the query.
func (q *Query) SetLimit(limit int) *Query {
	q.Limit = limit
	return q
}

// SetOffset sets the offset value for the query.
func (q *Query) SetOffset(offset int) *Query {
	q.Offset = offset
	return q
}

func (q *Query) Order(orderFields ...OrderField) *Query {
	q.OrderFields = append(q.OrderFields, orderFields...)
	return q
}
