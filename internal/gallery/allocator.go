package gallery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/alnah/go-livepreview/internal/store"
)

// CounterKey is the storage key of the last issued identifier.
const CounterKey = "image_counter"

// MaxImages is the size of the identifier space.
const MaxImages = 999

// ErrLimitReached is returned by Next once MaxImages identifiers were issued.
var ErrLimitReached = errors.New("maximum image limit reached (999)")

// Allocator issues sequential zero-padded identifiers: 001, 002, ... 999.
// The counter is persisted in the store, so identifiers are never reused
// after a delete. Allocations through one Allocator are serialized.
type Allocator struct {
	mu    sync.Mutex
	store store.Store
}

// NewAllocator creates an allocator backed by s.
func NewAllocator(s store.Store) *Allocator {
	return &Allocator{store: s}
}

// Next persists and returns the next identifier.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, err := a.current(ctx)
	if err != nil {
		return "", err
	}
	next := current + 1
	if next > MaxImages {
		return "", ErrLimitReached
	}
	if err := a.store.Put(ctx, CounterKey, []byte(strconv.Itoa(next))); err != nil {
		return "", fmt.Errorf("saving image counter: %w", err)
	}
	return FormatID(next), nil
}

// Current returns the last issued number, 0 when none was issued.
func (a *Allocator) Current(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current(ctx)
}

// Reset sets the counter back to 0.
func (a *Allocator) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.Put(ctx, CounterKey, []byte("0")); err != nil {
		return fmt.Errorf("resetting image counter: %w", err)
	}
	return nil
}

// current reads the counter. A missing value counts as 0. An unreadable
// value falls back to the highest stored image identifier, so Next never
// reissues an identifier whose record still exists.
func (a *Allocator) current(ctx context.Context) (int, error) {
	raw, err := a.store.Get(ctx, CounterKey)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading image counter: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 0 {
		return a.highestStored(ctx)
	}
	return n, nil
}

// highestStored returns the largest identifier among the stored image
// records, 0 when there are none.
func (a *Allocator) highestStored(ctx context.Context) (int, error) {
	keys, err := a.store.List(ctx, KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("listing images: %w", err)
	}
	highest := 0
	for _, k := range keys {
		id := strings.TrimPrefix(k, KeyPrefix)
		if !ValidID(id) {
			continue
		}
		if n, _ := strconv.Atoi(id); n > highest {
			highest = n
		}
	}
	return highest, nil
}

// FormatID renders n as a three-digit identifier.
func FormatID(n int) string {
	return fmt.Sprintf("%03d", n)
}

// ValidID reports whether id has the shape of an issued identifier.
func ValidID(id string) bool {
	if len(id) != 3 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return id != "000"
}
