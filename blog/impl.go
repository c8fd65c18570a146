package blog

import (
	"container/list"
	"errors"

	"golang.org/x/exp/constraints"
)

var (
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrEmptyIterator = errors.New("iterator exhausted")
	ErrUnknownOrder  = errors.New("unknown iteration order")
)

type IterationOrder int

const (
	ByInsertion IterationOrder = iota
	ByInsertionRev
)

type Iterator[K comparable, V any] interface {
	Next() (K, V, error)
	HasNext() bool
}

type Pair[K, V any] struct {
	Key K
	Val V
}

// Collection is a keyed set of values that remembers insertion order.
// It is not safe for concurrent use.
type Collection[K constraints.Ordered, V any] struct {
	Dict map[K]*list.Element
	List *list.List
}

type ListIterator[K comparable, V any] struct {
	List  *list.List
	Order IterationOrder
	Head  *list.Element
}

func (lst *ListIterator[K, V]) Next() (K, V, error) {
	var key K
	var val V
	if lst.Head == nil {
		return key, val, ErrEmptyIterator
	}
	pair := lst.Head.Value.(Pair[K, V])
	if lst.Order == ByInsertion {
		lst.Head = lst.Head.Next()
	} else {
		lst.Head = lst.Head.Prev()
	}
	return pair.Key, pair.Val, nil
}

func (lst *ListIterator[K, V]) HasNext() bool {
	return lst.Head != nil
}

func NewCollection[K constraints.Ordered, V any]() *Collection[K, V] {
	return &Collection[K, V]{
		Dict: make(map[K]*list.Element),
		List: list.New(),
	}
}

func (col *Collection[K, V]) Len() int {
	return col.List.Len()
}

func (col *Collection[K, V]) Add(key K, value V) error {
	if _, ok := col.Dict[key]; ok {
		return ErrDuplicateKey
	}
	col.Dict[key] = col.List.PushBack(Pair[K, V]{key, value})
	return nil
}

// Replace swaps the value stored under key, keeping its position.
func (col *Collection[K, V]) Replace(key K, value V) bool {
	el, ok := col.Dict[key]
	if !ok {
		return false
	}
	el.Value = Pair[K, V]{key, value}
	return true
}

func (col *Collection[K, V]) Remove(key K) bool {
	el, ok := col.Dict[key]
	if !ok {
		return false
	}
	col.List.Remove(el)
	delete(col.Dict, key)
	return true
}

func (col *Collection[K, V]) At(key K) (V, bool) {
	var v V
	el, ok := col.Dict[key]
	if ok {
		return el.Value.(Pair[K, V]).Val, true
	}
	return v, false
}

// MaxKey returns the largest key, false when the collection is empty.
func (col *Collection[K, V]) MaxKey() (K, bool) {
	var max K
	found := false
	for key := range col.Dict {
		if !found || key > max {
			max, found = key, true
		}
	}
	return max, found
}

func (col *Collection[K, V]) IterateBy(order IterationOrder) Iterator[K, V] {
	switch order {
	case ByInsertion:
		return &ListIterator[K, V]{col.List, order, col.List.Front()}
	case ByInsertionRev:
		return &ListIterator[K, V]{col.List, order, col.List.Back()}
	default:
		panic(ErrUnknownOrder)
	}
}

// Values collects every value in the given order.
func (col *Collection[K, V]) Values(order IterationOrder) []V {
	values := make([]V, 0, col.Len())
	it := col.IterateBy(order)
	for it.HasNext() {
		_, v, _ := it.Next()
		values = append(values, v)
	}
	return values
}
