package op

import (
	"fmt"
	"sync"

	"github.com/loom-ml/loom/internal/kernel"
	"github.com/loom-ml/loom/internal/tensor"
)

// InferFn computes output tensors (shapes, and data when folding applies)
// for one operator invocation.
type InferFn func(o *Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error)

// CollectorFactory builds the kernel-candidate collector of an operator kind
// for a target.
type CollectorFactory func(o *Operator, target kernel.Target) kernel.Collector

// OpType is a stable integer handle into the process-wide operator table.
// Handles are cheap to hash and compare; they are meaningful only within one
// process.
type OpType struct {
	id int
}

// ID returns the table index.
func (t OpType) ID() int { return t.id }

// Name returns the registered name for this handle.
func (t OpType) Name() string {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.table[t.id].name
}

// Is reports whether the handle was interned under the given name.
func (t OpType) Is(name string) bool { return t.Name() == name }

type entry struct {
	name       string
	infer      InferFn
	collectors CollectorFactory
}

// The registry is two-phase and append-only: Register inserts into the known
// list during the initialization window; Parse interns a name into the
// indexed table on first use and is the only reader path afterwards. Indices
// are never reordered.
var repo struct {
	mu       sync.RWMutex
	table    []entry
	interned map[string]int
	known    map[string]entry
}

// Register inserts an operator kind into the known list. Registering a name
// twice fails. All Register calls must finish before the first Parse.
func Register(name string, infer InferFn, collectors CollectorFactory) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.known == nil {
		repo.known = make(map[string]entry)
	}
	if _, ok := repo.known[name]; ok {
		return fmt.Errorf("op: %q already registered", name)
	}
	if _, ok := repo.interned[name]; ok {
		return fmt.Errorf("op: %q already registered", name)
	}
	repo.known[name] = entry{name: name, infer: infer, collectors: collectors}
	return nil
}

// Parse interns a registered name, allocating a stable index on first use
// and returning the existing one afterwards. Unknown names fail.
func Parse(name string) (OpType, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if id, ok := repo.interned[name]; ok {
		return OpType{id: id}, nil
	}
	e, ok := repo.known[name]
	if !ok {
		return OpType{}, fmt.Errorf("op: unknown operator %q", name)
	}
	if repo.interned == nil {
		repo.interned = make(map[string]int)
	}
	id := len(repo.table)
	repo.table = append(repo.table, e)
	repo.interned[name] = id
	delete(repo.known, name)
	return OpType{id: id}, nil
}

// MustParse is Parse for names known to be registered; it panics otherwise.
func MustParse(name string) OpType {
	t, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return t
}

func lookup(t OpType) entry {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.table[t.id]
}
