package vkframe

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SPIRVMagic is the first word of every SPIR-V module
const SPIRVMagic = 0x07230203

// ShaderLoader fetches compiled shader binaries by name
type ShaderLoader interface {
	Load(name string) ([]byte, error)
}

// FileShaderLoader loads shaders from the filesystem, relative names are
// resolved against Dir
type FileShaderLoader struct {
	Dir string
}

func (f FileShaderLoader) Load(name string) ([]byte, error) {
	path := name
	if f.Dir != "" && !filepath.IsAbs(name) {
		path = filepath.Join(f.Dir, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load shader")
	}
	return data, nil
}

// SPIRVWords checks that code looks like a SPIR-V module and returns it as
// the little endian words vulkan expects
func SPIRVWords(code []byte) ([]uint32, error) {
	if len(code) == 0 {
		return nil, errors.Wrap(ErrMalformedShaderBinary, "empty")
	}
	if len(code)%4 != 0 {
		return nil, errors.Wrapf(ErrMalformedShaderBinary, "length %d is not a multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != SPIRVMagic {
		return nil, errors.Wrapf(ErrMalformedShaderBinary, "bad magic %#08x", words[0])
	}
	return words, nil
}

type ShaderModule struct {
	Device         *Device
	Name           string
	VKShaderModule vk.ShaderModule
}

// CreateShaderModule validates code and creates a shader module from it
func (d *Device) CreateShaderModule(name string, code []byte) (*ShaderModule, error) {
	words, err := SPIRVWords(code)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", name)
	}

	var module vk.ShaderModule
	err = vk.Error(vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}, nil, &module))
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module %s", name)
	}

	return &ShaderModule{Device: d, Name: name, VKShaderModule: module}, nil
}

// LoadShaderModule loads name through loader and creates a module from it
func (d *Device) LoadShaderModule(loader ShaderLoader, name string) (*ShaderModule, error) {
	code, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	return d.CreateShaderModule(name, code)
}

func (s *ShaderModule) VKPipelineShaderStageCreateInfo(stage vk.ShaderStageFlagBits, entryPoint string) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: s.VKShaderModule,
		PName:  safeString(entryPoint),
	}
}

func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.Device.VKDevice, s.VKShaderModule, nil)
}
