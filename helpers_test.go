package prefetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type (
	strs = []string
	vals = [][]any
)

// fakeClient is an in-memory Client that returns a fixed result
type fakeClient struct {
	columns    strs
	rows       vals
	ret        any
	count      int64
	prepareErr error
	execErr    error
	fetchErr   error

	prepared []string
	options  []DriverOptions
	executed [][]any
	closed   int
}

func (f *fakeClient) Prepare(ctx context.Context, query string, opts DriverOptions) (ClientStatement, error) {
	f.prepared = append(f.prepared, query)
	f.options = append(f.options, opts)
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}

	return &fakeStatement{client: f}, nil
}

type fakeStatement struct {
	client *fakeClient
}

func (s *fakeStatement) Execute(ctx context.Context, args ...any) (any, error) {
	s.client.executed = append(s.client.executed, args)
	if s.client.execErr != nil {
		return nil, s.client.execErr
	}

	ret := s.client.ret
	if ret == nil {
		ret = true
	}
	return ret, nil
}

func (s *fakeStatement) FetchAllRows() ([]Row, error) {
	if s.client.fetchErr != nil {
		return nil, s.client.fetchErr
	}

	rows := make([]Row, len(s.client.rows))
	for i, v := range s.client.rows {
		rows[i] = NewRow(s.client.columns, v)
	}
	return rows, nil
}

func (s *fakeStatement) RowCount() (int64, error) {
	return s.client.count, nil
}

func (s *fakeStatement) Close() error {
	s.client.closed++
	return nil
}

type codedError struct {
	code string
}

func (c codedError) Error() string    { return "coded failure " + c.code }
func (c codedError) SQLState() string { return c.code }

// recorder is an EventSink that keeps every event
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(ctx context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := make([]EventKind, len(r.events))
	for i, e := range r.events {
		k[i] = e.Kind()
	}
	return k
}

type panicSink struct{}

func (panicSink) Publish(ctx context.Context, e Event) {
	panic("sink is broken")
}

func executed(tb testing.TB, client *fakeClient, opts ...Option) *Statement {
	tb.Helper()

	s := New(client, "SELECT * FROM test", opts...)
	if _, err := s.Execute(context.Background(), nil); err != nil {
		tb.Fatalf("execute: %v", err)
	}

	return s
}

func abRows() *fakeClient {
	return &fakeClient{
		columns: strs{"a", "b"},
		rows:    vals{{1, "x"}, {2, "y"}},
	}
}

func diffErr(expected, got error) string {
	if expected == nil && got == nil {
		return ""
	}

	if expected == nil || got == nil || !errors.Is(got, expected) {
		return cmp.Diff(expected, got, cmp.Comparer(func(a, b error) bool {
			return a == b
		}))
	}

	return ""
}

type User struct {
	ID   int
	Name string
}

type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type UserWithTimestamps struct {
	User
	*Timestamps
	Nick *string
}

type Tagged struct {
	ID      int    `db:"tag_id" custom:"custom_id"`
	Name    string `db:"tag_name" custom:"custom_name"`
	Exclude int    `db:"-" custom:"-"`
}

// seenAtConstruct records the field values the constructor saw
type seenAtConstruct struct {
	Field int

	SeenField int
	Args      []any
}

func (s *seenAtConstruct) Construct(args ...any) error {
	s.SeenField = s.Field
	s.Args = args
	if len(args) > 0 {
		if n, ok := args[0].(int); ok {
			s.Field += n
		}
	}
	return nil
}

type failingConstructor struct {
	ID int
}

var errConstruct = errors.New("construct failed")

func (f *failingConstructor) Construct(args ...any) error {
	return errConstruct
}

// pair hydrates itself without reflection
type pair struct {
	Key   string
	Value any
}

func (p *pair) Hydrate(r Row) error {
	k, _ := r.At(0)
	v, _ := r.At(1)
	p.Key, _ = k.(string)
	p.Value = v
	return nil
}

func testRegistry(tb testing.TB, opts ...RegistryOption) *Registry {
	tb.Helper()

	r, err := NewRegistry(opts...)
	if err != nil {
		tb.Fatalf("registry: %v", err)
	}

	classes := map[string]any{
		"user":       User{},
		"timestamps": UserWithTimestamps{},
		"tagged":     Tagged{},
		"seen":       seenAtConstruct{},
		"failing":    &failingConstructor{},
		"pair":       pair{},
	}
	for name, proto := range classes {
		if err := r.Register(name, proto); err != nil {
			tb.Fatalf("register %s: %v", name, err)
		}
	}

	return r
}
