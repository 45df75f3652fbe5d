package vkframe

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// fakeEncoder records the calls made on it
type fakeEncoder struct {
	id     int
	calls  []string
	err    error
	endErr error
}

func (f *fakeEncoder) VK() vk.CommandBuffer {
	var cb vk.CommandBuffer
	return cb
}

func (f *fakeEncoder) Reset() error {
	f.calls = nil
	f.calls = append(f.calls, "reset")
	return f.err
}

func (f *fakeEncoder) Begin() error {
	f.calls = append(f.calls, "begin")
	return nil
}

func (f *fakeEncoder) BeginRenderPass(renderPass vk.RenderPass, framebuffer vk.Framebuffer, extent vk.Extent2D, clearValues []vk.ClearValue) {
	f.calls = append(f.calls, fmt.Sprintf("pass %dx%d clear %d", extent.Width, extent.Height, len(clearValues)))
}

func (f *fakeEncoder) EndRenderPass() {
	f.calls = append(f.calls, "end pass")
}

func (f *fakeEncoder) End() error {
	f.calls = append(f.calls, "end")
	return f.endErr
}

func fakeEncoders(n int) ([]*fakeEncoder, []CommandEncoder) {
	fakes := make([]*fakeEncoder, n)
	ret := make([]CommandEncoder, n)
	for i := range fakes {
		fakes[i] = &fakeEncoder{id: i}
		ret[i] = fakes[i]
	}
	return fakes, ret
}

var testExtent = vk.Extent2D{Width: 640, Height: 480}

type drawLog struct {
	targets []RenderTarget
}

func (d *drawLog) draw(cmd CommandEncoder, target RenderTarget) error {
	cmd.(*fakeEncoder).calls = append(cmd.(*fakeEncoder).calls, "draw")
	d.targets = append(d.targets, target)
	return nil
}

func TestRecorderBracketsDraw(t *testing.T) {
	log := &drawLog{}
	r := NewCommandRecorder(RecordPerFrame, log.draw, ClearValues([4]float32{0, 0, 0, 1}, true))
	fakes, buffers := fakeEncoders(2)
	if err := r.Bind(vk.NullRenderPass, make([]vk.Framebuffer, 3), testExtent, buffers); err != nil {
		t.Fatal(err)
	}

	cmd, err := r.RecordFrame(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if cmd != buffers[1] {
		t.Fatal("per frame recording should use the buffer of the frame slot")
	}

	got := strings.Join(fakes[1].calls, ", ")
	expected := "reset, begin, pass 640x480 clear 2, draw, end pass, end"
	if got != expected {
		t.Errorf("calls %q, expected %q", got, expected)
	}
	if len(log.targets) != 1 || log.targets[0].FrameIndex != 1 || log.targets[0].ImageIndex != 2 {
		t.Errorf("unexpected targets %+v", log.targets)
	}
}

func TestRecorderPerImageRecordsOnce(t *testing.T) {
	log := &drawLog{}
	r := NewCommandRecorder(RecordPerImage, log.draw, ClearValues([4]float32{}, false))
	_, buffers := fakeEncoders(3)
	if err := r.Bind(vk.NullRenderPass, make([]vk.Framebuffer, 3), testExtent, buffers); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordAll(); err != nil {
		t.Fatal(err)
	}
	if len(log.targets) != 3 {
		t.Fatalf("%d recordings, expected 3", len(log.targets))
	}
	for _, target := range log.targets {
		if target.FrameIndex != -1 {
			t.Errorf("per image target has frame index %d", target.FrameIndex)
		}
	}

	for frame := 0; frame < 6; frame++ {
		img := uint32(frame % 3)
		cmd, err := r.RecordFrame(frame%2, img)
		if err != nil {
			t.Fatal(err)
		}
		if cmd != buffers[img] {
			t.Errorf("frame %d: image %d got another image's buffer", frame, img)
		}
	}
	if len(log.targets) != 3 {
		t.Errorf("%d recordings, per image buffers must not be recorded again", len(log.targets))
	}

	r.Invalidate()
	if _, err := r.RecordFrame(0, 1); err != nil {
		t.Fatal(err)
	}
	if len(log.targets) != 4 || log.targets[3].ImageIndex != 1 {
		t.Errorf("invalidated buffer was not recorded again")
	}
}

func TestRecorderPerFrameRecordsEveryFrame(t *testing.T) {
	log := &drawLog{}
	r := NewCommandRecorder(RecordPerFrame, log.draw, nil)
	_, buffers := fakeEncoders(2)
	if err := r.Bind(vk.NullRenderPass, make([]vk.Framebuffer, 3), testExtent, buffers); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordAll(); err != nil {
		t.Fatal(err)
	}
	if len(log.targets) != 0 {
		t.Fatal("RecordAll recorded in per frame mode")
	}

	for frame := 0; frame < 5; frame++ {
		if _, err := r.RecordFrame(frame%2, uint32(frame%3)); err != nil {
			t.Fatal(err)
		}
	}
	if len(log.targets) != 5 {
		t.Errorf("%d recordings, expected one per frame", len(log.targets))
	}

	if _, err := r.RecordFrame(2, 0); err == nil {
		t.Error("frame index beyond the buffers should fail")
	}
	if _, err := r.RecordFrame(0, 3); err == nil {
		t.Error("image index beyond the framebuffers should fail")
	}
}

func TestRecorderBind(t *testing.T) {
	r := NewCommandRecorder(RecordPerImage, nil, nil)
	_, buffers := fakeEncoders(2)
	if err := r.Bind(vk.NullRenderPass, make([]vk.Framebuffer, 3), testExtent, buffers); err == nil {
		t.Error("per image recorder accepted fewer buffers than images")
	}
	if err := r.Bind(vk.NullRenderPass, make([]vk.Framebuffer, 3), testExtent, nil); err == nil {
		t.Error("recorder accepted no buffers")
	}

	if n := r.BufferCount(3, 2); n != 3 {
		t.Errorf("per image buffer count %d, expected 3", n)
	}
	r = NewCommandRecorder(RecordPerFrame, nil, nil)
	if n := r.BufferCount(3, 2); n != 2 {
		t.Errorf("per frame buffer count %d, expected 2", n)
	}
}

func TestRecorderDrawError(t *testing.T) {
	fail := errors.New("draw failed")
	r := NewCommandRecorder(RecordPerImage, func(cmd CommandEncoder, target RenderTarget) error {
		return fail
	}, nil)
	fakes, buffers := fakeEncoders(1)
	if err := r.Bind(vk.NullRenderPass, make([]vk.Framebuffer, 1), testExtent, buffers); err != nil {
		t.Fatal(err)
	}

	_, err := r.RecordFrame(0, 0)
	if errors.Cause(err) != fail {
		t.Fatalf("expected draw error, got %v", err)
	}
	got := strings.Join(fakes[0].calls, ", ")
	if !strings.HasSuffix(got, "end pass, end") {
		t.Errorf("render pass and buffer left open after a draw error: %s", got)
	}

	// a failed recording is never handed out as recorded
	_, err = r.RecordFrame(0, 0)
	if err == nil {
		t.Error("failed recording was cached")
	}
}

func TestRecorderDrawErrorKeepsEndError(t *testing.T) {
	fail := errors.New("draw failed")
	r := NewCommandRecorder(RecordPerFrame, func(cmd CommandEncoder, target RenderTarget) error {
		return fail
	}, nil)
	fakes, buffers := fakeEncoders(1)
	fakes[0].endErr = errors.New("device lost")
	if err := r.Bind(vk.NullRenderPass, make([]vk.Framebuffer, 1), testExtent, buffers); err != nil {
		t.Fatal(err)
	}

	_, err := r.RecordFrame(0, 0)
	if errors.Cause(err) != fail {
		t.Fatalf("expected draw error, got %v", err)
	}
	if !strings.Contains(err.Error(), "device lost") {
		t.Errorf("end failure dropped from %q", err.Error())
	}
}

func TestRecorderSetClearValues(t *testing.T) {
	r := NewCommandRecorder(RecordPerImage, nil, ClearValues([4]float32{}, false))
	fakes, buffers := fakeEncoders(1)
	if err := r.Bind(vk.NullRenderPass, make([]vk.Framebuffer, 1), testExtent, buffers); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordAll(); err != nil {
		t.Fatal(err)
	}

	r.SetClearValues(ClearValues([4]float32{1, 0, 0, 1}, true))
	if _, err := r.RecordFrame(0, 0); err != nil {
		t.Fatal(err)
	}
	if fakes[0].calls[2] != "pass 640x480 clear 2" {
		t.Errorf("buffer not recorded again with the new clear values: %v", fakes[0].calls)
	}
}

func TestRecordModeString(t *testing.T) {
	if RecordPerImage.String() == RecordPerFrame.String() {
		t.Error("record modes share a name")
	}
}
