package gonumlp

import (
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

// frontier holds the open nodes of a branch and bound search.
type frontier[T any] interface {
	Push(e T, bound float64)
	Pop() T
	Size() int
}

type linkedListNode[T any] struct {
	value T
	next  *linkedListNode[T]
}

// stack pops the most recently pushed node first, giving a depth-first
// search that reaches integer leaves quickly.
type stack[T any] struct {
	head *linkedListNode[T]
	size int
}

func newStack[T any]() *stack[T] {
	return &stack[T]{}
}

func (s *stack[T]) Push(e T, _ float64) {
	s.head = &linkedListNode[T]{value: e, next: s.head}
	s.size++
}

func (s *stack[T]) Pop() T {
	if s.size == 0 {
		var zero T
		return zero
	}
	node := s.head
	s.head = node.next
	s.size--
	return node.value
}

func (s *stack[T]) Size() int {
	return s.size
}

// boundQueue pops the node with the lowest relaxation bound first.
type boundQueue[T comparable] struct {
	pq *priorityqueue.PriorityQueue[T, float64]
}

func newBoundQueue[T comparable]() *boundQueue[T] {
	return &boundQueue[T]{pq: priorityqueue.New[T, float64](priorityqueue.MinHeap)}
}

func (q *boundQueue[T]) Push(e T, bound float64) {
	q.pq.Put(e, bound)
}

func (q *boundQueue[T]) Pop() T {
	if q.pq.Len() == 0 {
		var zero T
		return zero
	}
	return q.pq.Get().Value
}

func (q *boundQueue[T]) Size() int {
	return q.pq.Len()
}
