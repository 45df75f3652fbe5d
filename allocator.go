package vkframe

import (
	"fmt"
)

// Allocation is a range within a larger block of memory
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// End is the first offset past the allocation
func (a *Allocation) End() uint64 {
	return a.Offset + a.Size
}

type IAllocator interface {
	Free(a *Allocation)
	Allocate(size uint64, align uint64) *Allocation
}

// LinearAllocator hands out aligned ranges of a block of Size bytes, taking
// the first gap large enough. Allocations are kept sorted by offset.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	return (a - m) + align
}

func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Allocate returns a range of size bytes starting at a multiple of align, or
// nil when no gap is large enough
func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}

	var start uint64
	for i, a := range p.allocs {
		if a.Offset >= start && a.Offset-start >= size {
			na := &Allocation{Offset: start, Size: size}
			p.allocs = append(p.allocs[:i], append([]*Allocation{na}, p.allocs[i:]...)...)
			return na
		}
		start = makeAlignUp(a.End(), align)
	}

	if start > p.Size || p.Size-start < size {
		return nil
	}
	na := &Allocation{Offset: start, Size: size}
	p.allocs = append(p.allocs, na)
	return na
}

// Used is the number of bytes handed out, not counting alignment padding
func (p *LinearAllocator) Used() uint64 {
	var used uint64
	for _, a := range p.allocs {
		used += a.Size
	}
	return used
}

func (p *LinearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}
