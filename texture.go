package vkframe

import (
	"image"
	"io"
	"math/bits"
	"os"

	// Register the decoders accepted by DecodeImage
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// TextureFormat is the format sampled textures are created with
const TextureFormat = vk.FormatR8g8b8a8Srgb

// Texture is a sampled image with a view and sampler covering its mip chain
type Texture struct {
	Image   *Image
	View    *ImageView
	Sampler *Sampler
}

// DescriptorInfo describes the texture for a combined image sampler descriptor
func (t *Texture) DescriptorInfo() vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		Sampler:     t.Sampler.VKSampler,
		ImageView:   t.View.VKImageView,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
}

// DecodeImage decodes a png, jpeg, bmp or tiff image into tightly packed RGBA
func DecodeImage(r io.Reader) (*image.RGBA, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return toRGBA(src), nil
}

// toRGBA returns img as RGBA with its origin at zero and no row padding,
// copying only when needed
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// MipLevels is the length of a full mip chain for a width by height image
func MipLevels(width, height uint32) uint32 {
	m := width
	if height > m {
		m = height
	}
	if m == 0 {
		return 1
	}
	return uint32(bits.Len32(m))
}

// GenerateMipChain returns img followed by levels-1 successively halved
// copies, each at least one pixel wide and high
func GenerateMipChain(img *image.RGBA, levels uint32) []*image.RGBA {
	if levels == 0 {
		levels = 1
	}
	chain := make([]*image.RGBA, 0, levels)
	chain = append(chain, toRGBA(img))
	for l := uint32(1); l < levels; l++ {
		prev := chain[l-1]
		pb := prev.Bounds()
		w, h := pb.Dx()/2, pb.Dy()/2
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Bounds(), prev, pb, draw.Src, nil)
		chain = append(chain, next)
	}
	return chain
}

// CreateTexture uploads img, and when mipmapped its full mip chain, into a
// device local image ready for sampling
func (r *ResourceManager) CreateTexture(img *image.RGBA, mipmapped bool) (*Texture, error) {
	b := img.Bounds()
	extent := vk.Extent2D{Width: uint32(b.Dx()), Height: uint32(b.Dy())}

	levels := uint32(1)
	if mipmapped {
		levels = MipLevels(extent.Width, extent.Height)
	}

	texImage, err := r.CreateImage(ImageOptions{
		Extent:    extent,
		Format:    TextureFormat,
		Usage:     vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageTransferSrcBit | vk.ImageUsageSampledBit),
		Tiling:    vk.ImageTilingOptimal,
		MipLevels: levels,
	}, DeviceLocal)
	if err != nil {
		return nil, errors.Wrap(err, "texture image")
	}

	chain := GenerateMipChain(img, levels)
	pixels := make([][]byte, len(chain))
	for i, level := range chain {
		pixels[i] = level.Pix
	}

	err = r.Uploader.UploadImage(texImage, pixels...)
	if err != nil {
		return nil, errors.Wrap(err, "upload texture")
	}

	view, err := r.CreateImageView(texImage)
	if err != nil {
		return nil, errors.Wrap(err, "texture view")
	}

	sampler, err := r.CreateSampler(levels, r.MaxAnisotropy)
	if err != nil {
		return nil, errors.Wrap(err, "texture sampler")
	}

	return &Texture{Image: texImage, View: view, Sampler: sampler}, nil
}

// CreateTextureFromFile decodes and uploads the image stored at path
func (r *ResourceManager) CreateTextureFromFile(path string, mipmapped bool) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open texture")
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return nil, errors.Wrapf(err, "texture %s", path)
	}
	return r.CreateTexture(img, mipmapped)
}
