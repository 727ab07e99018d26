// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"

	"github.com/dgpv/bsst/internal/value"
)

// Stack is a stack of symbolic values, used for both the main stack and the
// alt-stack of a traced path.  Unlike the reference interpreter's byte-array
// stack, entries here are immutable expression-tree nodes that may be shared
// freely between sibling paths; Clone is a shallow copy of the slice header,
// never of the values themselves.
type Stack struct {
	items []*value.Value
}

// Depth returns the number of items on the stack.
func (s *Stack) Depth() int { return len(s.items) }

// Push adds v to the top of the stack.
func (s *Stack) Push(v *value.Value) { s.items = append(s.items, v) }

// Peek returns the nth item from the top without removing it.
func (s *Stack) Peek(idx int) (*value.Value, error) {
	sz := len(s.items)
	if idx < 0 || idx >= sz {
		return nil, ErrStackUnderflow
	}
	return s.items[sz-idx-1], nil
}

// Pop removes and returns the top item.
func (s *Stack) Pop() (*value.Value, error) {
	return s.nip(0)
}

func (s *Stack) nip(idx int) (*value.Value, error) {
	sz := len(s.items)
	if idx < 0 || idx > sz-1 {
		return nil, ErrStackUnderflow
	}
	v := s.items[sz-idx-1]
	if idx == 0 {
		s.items = s.items[:sz-1]
	} else if idx == sz-1 {
		rest := make([]*value.Value, sz-1)
		copy(rest, s.items[1:])
		s.items = rest
	} else {
		tail := s.items[sz-idx : sz]
		s.items = s.items[:sz-idx-1]
		s.items = append(s.items, tail...)
	}
	return v, nil
}

// Nip removes the nth item from the top without returning it.
func (s *Stack) Nip(idx int) error {
	_, err := s.nip(idx)
	return err
}

// DropN removes the top n items.
func (s *Stack) DropN(n int) error {
	if n < 1 {
		return ErrStackInvalidArgs
	}
	for ; n > 0; n-- {
		if _, err := s.Pop(); err != nil {
			return err
		}
	}
	return nil
}

// DupN duplicates the top n items as a block.
func (s *Stack) DupN(n int) error {
	if n < 1 {
		return ErrStackInvalidArgs
	}
	for i := n; i > 0; i-- {
		v, err := s.Peek(n - 1)
		if err != nil {
			return err
		}
		s.Push(v)
	}
	return nil
}

// RotN rotates the top 3n items left by n.
func (s *Stack) RotN(n int) error {
	if n < 1 {
		return ErrStackInvalidArgs
	}
	entry := 3*n - 1
	for i := n; i > 0; i-- {
		v, err := s.nip(entry)
		if err != nil {
			return err
		}
		s.Push(v)
	}
	return nil
}

// SwapN swaps the top n items with the n below them.
func (s *Stack) SwapN(n int) error {
	if n < 1 {
		return ErrStackInvalidArgs
	}
	entry := 2*n - 1
	for i := n; i > 0; i-- {
		v, err := s.nip(entry)
		if err != nil {
			return err
		}
		s.Push(v)
	}
	return nil
}

// OverN copies n items, n items back, to the top.
func (s *Stack) OverN(n int) error {
	if n < 1 {
		return ErrStackInvalidArgs
	}
	entry := 2*n - 1
	for ; n > 0; n-- {
		v, err := s.Peek(entry)
		if err != nil {
			return err
		}
		s.Push(v)
	}
	return nil
}

// PickN copies the item n back to the top.
func (s *Stack) PickN(n int) error {
	v, err := s.Peek(n)
	if err != nil {
		return err
	}
	s.Push(v)
	return nil
}

// RollN moves the item n back to the top.
func (s *Stack) RollN(n int) error {
	v, err := s.nip(n)
	if err != nil {
		return err
	}
	s.Push(v)
	return nil
}

// Tuck copies the top item and inserts it before the 2nd-to-top item.
func (s *Stack) Tuck() error {
	top, err := s.Pop()
	if err != nil {
		return err
	}
	below, err := s.Pop()
	if err != nil {
		return err
	}
	s.Push(top)
	s.Push(below)
	s.Push(top)
	return nil
}

// Items returns the stack contents, bottom to top. The slice is shared and
// must not be mutated.
func (s *Stack) Items() []*value.Value { return s.items }

// Clone returns an independent copy of the stack suitable for handing to a
// forked context; the backing value nodes are shared (they are immutable).
func (s *Stack) Clone() Stack {
	cp := make([]*value.Value, len(s.items))
	copy(cp, s.items)
	return Stack{items: cp}
}

// String renders the stack bottom to top, one value per line, for debugging
// and for the report's stack-contents sections.
func (s *Stack) String() string {
	out := ""
	for _, v := range s.items {
		out += fmt.Sprintf("%s\n", v.String())
	}
	return out
}
