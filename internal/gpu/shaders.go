//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/coverage.wgsl
var coverageShaderSource string

//go:embed shaders/resolve.wgsl
var resolveShaderSource string

// ShaderFormat selects how WGSL sources are handed to the HAL.
type ShaderFormat int

const (
	// ShaderFormatWGSL passes WGSL text; the backend compiles it.
	ShaderFormatWGSL ShaderFormat = iota
	// ShaderFormatSPIRV compiles WGSL with naga ahead of time.
	ShaderFormatSPIRV
)

// String implements fmt.Stringer.
func (f ShaderFormat) String() string {
	switch f {
	case ShaderFormatWGSL:
		return "wgsl"
	case ShaderFormatSPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("ShaderFormat(%d)", int(f))
	}
}

// errBadSPIRV is returned when naga output is not a whole number of words.
var errBadSPIRV = errors.New("gpu: SPIR-V output is not word aligned")

func shaderSource(wgsl string, format ShaderFormat) (hal.ShaderSource, error) {
	if format != ShaderFormatSPIRV {
		return hal.ShaderSource{WGSL: wgsl}, nil
	}

	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return hal.ShaderSource{}, fmt.Errorf("compile WGSL to SPIR-V: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return hal.ShaderSource{}, errBadSPIRV
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return hal.ShaderSource{SPIRV: words}, nil
}

func (g *Gfx) createShaderModule(name, wgsl string, format ShaderFormat) (hal.ShaderModule, error) {
	src, err := shaderSource(wgsl, format)
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", name, err)
	}
	module, err := g.Device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  g.label(name + "_shader"),
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s shader module: %w", name, err)
	}
	return module, nil
}
