package term

import (
	"sort"
	"sync/atomic"
)

// Dict is a tagged set of key-value pairs.  Keys are atoms or
// integers, unique, and kept in standard order.
type Dict struct {
	Tag   Term
	Pairs []DictPair
}

// DictPair is one entry of a Dict.
type DictPair struct {
	Key   Term
	Value Term
}

// DuplicateKey occurs when a dict would have the same key twice.
type DuplicateKey struct {
	Key Term
}

func (e *DuplicateKey) Error() string {
	return "duplicate dict key " + Format(e.Key)
}

// BadKey occurs when a dict key is neither an atom nor an integer.
type BadKey struct {
	Key Term
}

func (e *BadKey) Error() string {
	return "bad dict key " + Format(e.Key)
}

// NewDict makes a dict, sorting the pairs.
func NewDict(tag Term, pairs []DictPair) (*Dict, error) {
	ps := make([]DictPair, len(pairs))
	for i, p := range pairs {
		k := Resolve(p.Key)
		switch k.(type) {
		case Atom, Integer:
		default:
			return nil, &BadKey{Key: k}
		}
		ps[i] = DictPair{Key: k, Value: p.Value}
	}
	sort.SliceStable(ps, func(i, j int) bool {
		return Compare(ps[i].Key, ps[j].Key) < 0
	})
	for i := 1; i < len(ps); i++ {
		if Compare(ps[i-1].Key, ps[i].Key) == 0 {
			return nil, &DuplicateKey{Key: ps[i].Key}
		}
	}
	if tag == nil {
		tag = NewVariable()
	}
	return &Dict{Tag: tag, Pairs: ps}, nil
}

// Get looks up a key.
func (d *Dict) Get(key Term) (Term, bool) {
	key = Resolve(key)
	i := d.search(key)
	if i < len(d.Pairs) && Compare(d.Pairs[i].Key, key) == 0 {
		return d.Pairs[i].Value, true
	}
	return nil, false
}

func (d *Dict) search(key Term) int {
	return sort.Search(len(d.Pairs), func(i int) bool {
		return 0 <= Compare(d.Pairs[i].Key, key)
	})
}

// Put returns a new dict with the given pairs added or replaced.
func (d *Dict) Put(pairs ...DictPair) (*Dict, error) {
	acc := make([]DictPair, 0, len(d.Pairs)+len(pairs))
	news := make(map[int]bool, len(pairs))
	for _, p := range d.Pairs {
		replaced := false
		for j, q := range pairs {
			if Compare(p.Key, Resolve(q.Key)) == 0 {
				acc = append(acc, DictPair{Key: p.Key, Value: q.Value})
				news[j] = true
				replaced = true
				break
			}
		}
		if !replaced {
			acc = append(acc, p)
		}
	}
	for j, q := range pairs {
		if !news[j] {
			acc = append(acc, q)
		}
	}
	return NewDict(d.Tag, acc)
}

// Delete returns a new dict without the given key.
func (d *Dict) Delete(key Term) (*Dict, bool) {
	key = Resolve(key)
	i := d.search(key)
	if len(d.Pairs) <= i || Compare(d.Pairs[i].Key, key) != 0 {
		return nil, false
	}
	ps := make([]DictPair, 0, len(d.Pairs)-1)
	ps = append(ps, d.Pairs[:i]...)
	ps = append(ps, d.Pairs[i+1:]...)
	return &Dict{Tag: d.Tag, Pairs: ps}, true
}

// Blob is an opaque handle to a Go value, such as a stream or a
// clause reference.
type Blob struct {
	Type  string
	Value interface{}
	id    uint64
}

var blobCounter uint64

// NewBlob wraps a value.
func NewBlob(typ string, v interface{}) *Blob {
	return &Blob{Type: typ, Value: v, id: atomic.AddUint64(&blobCounter, 1)}
}

// Id is a unique number for the blob.
func (b *Blob) Id() uint64 {
	return b.id
}
