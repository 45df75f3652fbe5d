package vkframe

import (
	"testing"
)

func TestAlign(t *testing.T) {
	if makeAlignUp(12, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 3) != 12 {
		t.Fail()
	}

}

func TestAllocator(t *testing.T) {

	a := LinearAllocator{Size: 1024}

	ra := a.Allocate(2048, 1)
	if ra != nil {
		t.Error("Failed first allocation")
	}

	ra = a.Allocate(512, 1)
	fa := ra
	if ra == nil {
		t.Error("Failed 2nd allocation")
	}

	ra = a.Allocate(768, 1)
	if ra != nil {
		t.Error("Failed 3rd allocation")
	}

	ra = a.Allocate(500, 1)
	k := ra
	if ra == nil {
		t.Error("Failed 4th allocation")
	}

	ra = a.Allocate(50, 1)
	if ra != nil {
		t.Error("Failed 5th allocation")
	}

	ra = a.Allocate(5, 1)
	if ra == nil {
		t.Error("Failed 6th allocation")
	}

	ra = a.Allocate(20, 1)
	if ra != nil {
		t.Error("Failed 7th allocation")
	}

	a.Free(k)
	ra = a.Allocate(500, 1)
	if ra == nil {
		t.Error("Failed 8th allocation")
	}

	a.Free(fa)
	ra = a.Allocate(20, 1)
	if ra == nil {
		t.Error("Failed 9th allocation")
	}

	ra = a.Allocate(40, 1)
	if ra == nil {
		t.Error("Failed 10th allocation")
	}

	ra = a.Allocate(12, 1)
	if ra == nil {
		t.Error("Failed 11th allocation")
	}
	ra = a.Allocate(500, 1)
	if ra != nil {
		t.Error("Failed 12th allocation")
	}
	ra = a.Allocate(5, 1)
	if ra == nil {
		t.Error("Failed 13th allocation")
	}
}

func TestAllocatorAlignment(t *testing.T) {
	a := LinearAllocator{Size: 256}

	first := a.Allocate(10, 16)
	if first == nil || first.Offset != 0 {
		t.Fatalf("first allocation %v", first)
	}

	second := a.Allocate(10, 16)
	if second == nil || second.Offset != 16 {
		t.Fatalf("second allocation %v, want offset 16", second)
	}

	third := a.Allocate(20, 64)
	if third == nil || third.Offset != 64 {
		t.Fatalf("third allocation %v, want offset 64", third)
	}

	a.Free(first)
	again := a.Allocate(4, 16)
	if again == nil || again.Offset != 0 {
		t.Errorf("allocation into freed head %v, want offset 0", again)
	}

	if a.Used() != 34 {
		t.Errorf("used %d, want 34", a.Used())
	}

	if a.Allocate(256, 1) != nil {
		t.Error("allocation larger than the free space succeeded")
	}
}
