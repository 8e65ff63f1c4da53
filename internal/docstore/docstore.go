package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
)

// ErrNotExist is returned by backends when a document has never been written.
var ErrNotExist = errors.New("document does not exist")

// Backend stores whole documents as opaque bytes keyed by name.
type Backend interface {
	// Read returns the document bytes or ErrNotExist.
	Read(ctx context.Context, name string) ([]byte, error)
	// Write replaces the whole document.
	Write(ctx context.Context, name string, data []byte) error
	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error
}

// Store loads and saves JSON documents on top of a Backend. A missing or
// undecodable document reads as the zero value of the target type.
// Every access to a document holds that document's exclusive lock, and
// Update keeps it across the whole read-modify-write cycle.
type Store struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(b Backend) *Store {
	return &Store{backend: b, locks: map[string]*sync.Mutex{}}
}

// Backend exposes the underlying backend (readiness checks).
func (s *Store) Backend() Backend { return s.backend }

func (s *Store) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Load decodes document name into v. v is left untouched when the document
// is absent or corrupt.
func (s *Store) Load(ctx context.Context, name string, v any) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()
	return s.load(ctx, name, v)
}

// Save encodes v with 4-space indentation and overwrites document name.
func (s *Store) Save(ctx context.Context, name string, v any) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()
	return s.save(ctx, name, v)
}

func (s *Store) load(ctx context.Context, name string, v any) error {
	b, err := s.backend.Read(ctx, name)
	if errors.Is(err, ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(b) == 0 {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("load %s: target must be a non-nil pointer", name)
	}
	// decode into a scratch value so a wrong-typed field cannot leave v half filled
	fresh := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(b, fresh.Interface()); err != nil {
		// Prior contents are discarded on the next save.
		common.L().Warn("corrupt document treated as empty",
			zap.String("document", name), zap.Error(err))
		return nil
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

func (s *Store) save(ctx context.Context, name string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.backend.Write(ctx, name, b); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Read returns document name decoded as T.
func Read[T any](ctx context.Context, s *Store, name string) (T, error) {
	var v T
	err := s.Load(ctx, name, &v)
	return v, err
}

// Update loads document name as T, applies fn and saves the result while
// holding the document lock. Nothing is written when fn returns an error,
// and that error is returned unchanged.
func Update[T any](ctx context.Context, s *Store, name string, fn func(*T) error) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()
	var v T
	if err := s.load(ctx, name, &v); err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return s.save(ctx, name, &v)
}
