package vkframe

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
)

type destroyRecorder struct {
	name string
	log  *[]string
}

func (d *destroyRecorder) Destroy() {
	*d.log = append(*d.log, d.name)
}

func TestLifetimeReleaseOrder(t *testing.T) {
	var log []string
	idleCalls := 0
	l := NewLifetime(func() error {
		idleCalls++
		log = append(log, "idle")
		return nil
	})
	for i := 0; i < 3; i++ {
		l.Own(&destroyRecorder{name: fmt.Sprintf("object %d", i), log: &log})
	}
	l.OwnFunc(func() { log = append(log, "func") })
	if l.Len() != 4 {
		t.Fatalf("%d owned, expected 4", l.Len())
	}

	if err := l.Release(); err != nil {
		t.Fatal(err)
	}
	expected := []string{"idle", "func", "object 2", "object 1", "object 0"}
	if fmt.Sprint(log) != fmt.Sprint(expected) {
		t.Errorf("release order %v, expected %v", log, expected)
	}

	if err := l.Release(); err != nil {
		t.Fatal(err)
	}
	if idleCalls != 1 || len(log) != len(expected) {
		t.Error("second release was not a no-op")
	}
}

func TestLifetimeIdleFailure(t *testing.T) {
	var log []string
	lost := errors.New("device lost")
	l := NewLifetime(func() error { return lost })
	l.Own(&destroyRecorder{name: "buffer", log: &log})

	err := l.Release()
	if errors.Cause(err) != lost {
		t.Fatalf("expected the idle error, got %v", err)
	}
	if len(log) != 0 {
		t.Errorf("destroyed %v while the device may be busy", log)
	}
	if l.Len() != 1 {
		t.Error("owned objects dropped after a failed release")
	}
}

// With every slot in flight nothing may be destroyed before the idle wait
// has retired all of them.
func TestLifetimeWaitsForFramesInFlight(t *testing.T) {
	gpu := newFakeGPU(3, 3)
	sync := newFrameSynchronizer(gpu, 3, 3, func() error { return nil })
	for i := 0; i < 3; i++ {
		idx, ok, err := sync.BeginFrame()
		if err != nil || !ok {
			t.Fatal(err)
		}
		if err := sync.SubmitFrame(nil, idx); err != nil {
			t.Fatal(err)
		}
	}
	if gpu.outstanding != 3 {
		t.Fatalf("%d frames in flight, expected 3", gpu.outstanding)
	}

	outstandingAtDestroy := -1
	l := NewLifetime(func() error {
		gpu.idle()
		return nil
	})
	l.OwnFunc(func() { outstandingAtDestroy = gpu.outstanding })

	if err := l.Release(); err != nil {
		t.Fatal(err)
	}
	if outstandingAtDestroy != 0 {
		t.Errorf("destroyed with %d frames in flight", outstandingAtDestroy)
	}
}
