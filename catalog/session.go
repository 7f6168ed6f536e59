package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hugr-lab/plancodec/logical"
)

// Session is the context a plan is decoded in: a catalog for table lookups
// and the user-defined functions visible to the caller.
//
// Session implements logical.FunctionRegistry. Lookups are safe for
// concurrent use with each other and with registration.
type Session struct {
	catalog Catalog

	mu         sync.RWMutex
	scalars    map[string]*logical.ScalarUDF
	aggregates map[string]*logical.AggregateUDF
}

var _ logical.FunctionRegistry = (*Session)(nil)

// NewSession creates a session over cat, which may be nil when only the
// function registry is needed.
func NewSession(cat Catalog) *Session {
	return &Session{
		catalog:    cat,
		scalars:    make(map[string]*logical.ScalarUDF),
		aggregates: make(map[string]*logical.AggregateUDF),
	}
}

// Catalog returns the session catalog, possibly nil.
func (s *Session) Catalog() Catalog {
	return s.catalog
}

// LoadFunctions registers the functions of every catalog schema.
// A function already registered under the same name is replaced.
func (s *Session) LoadFunctions(ctx context.Context) error {
	if s.catalog == nil {
		return nil
	}
	schemas, err := s.catalog.Schemas(ctx)
	if err != nil {
		return fmt.Errorf("failed to list schemas: %w", err)
	}
	for _, schema := range schemas {
		scalars, err := schema.ScalarFunctions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list scalar functions of %s: %w", schema.Name(), err)
		}
		for _, f := range scalars {
			if err := s.RegisterUDF(f); err != nil {
				return fmt.Errorf("schema %s: %w", schema.Name(), err)
			}
		}
		aggregates, err := schema.AggregateFunctions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list aggregate functions of %s: %w", schema.Name(), err)
		}
		for _, f := range aggregates {
			if err := s.RegisterUDAF(f); err != nil {
				return fmt.Errorf("schema %s: %w", schema.Name(), err)
			}
		}
	}
	return nil
}

// RegisterUDF registers a scalar function, replacing any function of the
// same name.
func (s *Session) RegisterUDF(f *logical.ScalarUDF) error {
	if f == nil || f.Name == "" {
		return fmt.Errorf("scalar function must have a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scalars[f.Name] = f
	return nil
}

// RegisterUDAF registers an aggregate function, replacing any function of
// the same name.
func (s *Session) RegisterUDAF(f *logical.AggregateUDF) error {
	if f == nil || f.Name == "" {
		return fmt.Errorf("aggregate function must have a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregates[f.Name] = f
	return nil
}

// DeregisterUDF removes a scalar function. It reports whether one existed.
func (s *Session) DeregisterUDF(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scalars[name]
	delete(s.scalars, name)
	return ok
}

// Names returns the sorted names of all registered functions.
func (s *Session) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.scalars)+len(s.aggregates))
	for name := range s.scalars {
		seen[name] = struct{}{}
	}
	for name := range s.aggregates {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScalarFunction implements logical.FunctionRegistry.
func (s *Session) ScalarFunction(name string) (*logical.ScalarUDF, error) {
	s.mu.RLock()
	f, ok := s.scalars[name]
	s.mu.RUnlock()
	if !ok {
		return nil, &logical.UnresolvedFunctionError{Name: name, Kind: logical.ScalarFunctionKind}
	}
	return f, nil
}

// AggregateFunction implements logical.FunctionRegistry.
func (s *Session) AggregateFunction(name string) (*logical.AggregateUDF, error) {
	s.mu.RLock()
	f, ok := s.aggregates[name]
	s.mu.RUnlock()
	if !ok {
		return nil, &logical.UnresolvedFunctionError{Name: name, Kind: logical.AggregateFunctionKind}
	}
	return f, nil
}

// ResolveTable looks a table up in the session catalog. An unqualified
// reference is resolved in DefaultSchema. Missing entities match ErrNotFound.
func (s *Session) ResolveTable(ctx context.Context, ref logical.TableReference) (Table, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("%w: session has no catalog", ErrNotFound)
	}
	schemaName := ref.Schema
	if schemaName == "" {
		schemaName = DefaultSchema
	}
	schema, err := s.catalog.Schema(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema %s: %w", schemaName, err)
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: schema %s", ErrNotFound, schemaName)
	}
	table, err := schema.Table(ctx, ref.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s.%s: %w", schemaName, ref.Table, err)
	}
	if table == nil {
		return nil, fmt.Errorf("%w: table %s.%s", ErrNotFound, schemaName, ref.Table)
	}
	return table, nil
}
