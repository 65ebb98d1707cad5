// Package wgpuexport converts flattened shader layouts into WebGPU
// bind-group-layout entries, for engines that build their pipelines on
// gogpu/wgpu.
//
// WebGPU's vocabulary is narrower than the engine's: only vertex, fragment
// and compute stages have visibility flags, 1D array textures have no view
// dimension, and storage textures cannot use cube views. Conversions outside
// the vocabulary fail instead of guessing.
package wgpuexport

import (
	"fmt"

	types "github.com/gogpu/gputypes"

	"github.com/Mcgode/KryneEngineTools/layout"
)

// Visibility maps an engine shader stage onto WebGPU visibility flags.
func Visibility(stage layout.ShaderStage) (types.ShaderStage, error) {
	switch stage {
	case layout.StageVertex:
		return types.ShaderStageVertex, nil
	case layout.StageFragment:
		return types.ShaderStageFragment, nil
	case layout.StageCompute:
		return types.ShaderStageCompute, nil
	default:
		return 0, fmt.Errorf("shader stage %s has no WebGPU visibility", stage)
	}
}

// viewDimension maps a texture binding's dimensionality onto a WebGPU view
// dimension. 1D array textures are the one engine dimensionality WebGPU does
// not define.
func viewDimension(d layout.TextureDimensionality) (types.TextureViewDimension, error) {
	switch d {
	case layout.DimSingle1D:
		return types.TextureViewDimension1D, nil
	case layout.DimSingle2D:
		return types.TextureViewDimension2D, nil
	case layout.DimSingle3D:
		return types.TextureViewDimension3D, nil
	case layout.DimSingleCube:
		return types.TextureViewDimensionCube, nil
	case layout.DimArray2D:
		return types.TextureViewDimension2DArray, nil
	case layout.DimArrayCube:
		return types.TextureViewDimensionCubeArray, nil
	default:
		return 0, fmt.Errorf("dimensionality %s has no WebGPU view dimension", d)
	}
}

// BindGroupLayoutEntries builds the bind-group-layout entries of one
// descriptor set, with visibility taken from the owning entry point.
// setIndex is an index into l.Sets and must lie within the entry point's
// set range.
func BindGroupLayoutEntries(l *layout.ShaderLayout, epIndex, setIndex int) ([]types.BindGroupLayoutEntry, error) {
	if epIndex < 0 || epIndex >= len(l.EntryPoints) {
		return nil, fmt.Errorf("entry point index %d out of range [0,%d)", epIndex, len(l.EntryPoints))
	}
	ep := &l.EntryPoints[epIndex]
	if setIndex < int(ep.Sets.Begin) || setIndex >= int(ep.Sets.End) {
		return nil, fmt.Errorf("set index %d outside entry point %q range [%d,%d)",
			setIndex, ep.Name, ep.Sets.Begin, ep.Sets.End)
	}

	visibility, err := Visibility(ep.Stage)
	if err != nil {
		return nil, fmt.Errorf("entry point %q: %w", ep.Name, err)
	}

	set := &l.Sets[setIndex]
	entries := make([]types.BindGroupLayoutEntry, 0, set.Bindings.Len())

	for i := set.Bindings.Begin; i < set.Bindings.End; i++ {
		binding := &l.Bindings[i]
		entry := types.BindGroupLayoutEntry{
			Binding:    binding.BindingIndex,
			Visibility: visibility,
		}

		switch binding.Kind {
		case layout.KindConstantBuffer:
			entry.Buffer = &types.BufferBindingLayout{
				Type: types.BufferBindingTypeUniform,
			}

		case layout.KindStorageReadOnlyBuffer:
			entry.Buffer = &types.BufferBindingLayout{
				Type: types.BufferBindingTypeReadOnlyStorage,
			}

		case layout.KindStorageReadWriteBuffer:
			entry.Buffer = &types.BufferBindingLayout{
				Type: types.BufferBindingTypeStorage,
			}

		case layout.KindSampler:
			entry.Sampler = &types.SamplerBindingLayout{
				Type: types.SamplerBindingTypeFiltering,
			}

		case layout.KindSampledTexture, layout.KindStorageReadOnlyTexture:
			dim, err := viewDimension(binding.Dimensionality)
			if err != nil {
				return nil, fmt.Errorf("binding %q: %w", binding.Name, err)
			}
			entry.Texture = &types.TextureBindingLayout{
				SampleType:    types.TextureSampleTypeFloat,
				ViewDimension: dim,
			}

		case layout.KindStorageReadWriteTexture:
			dim, err := viewDimension(binding.Dimensionality)
			if err != nil {
				return nil, fmt.Errorf("binding %q: %w", binding.Name, err)
			}
			if dim == types.TextureViewDimensionCube || dim == types.TextureViewDimensionCubeArray {
				return nil, fmt.Errorf("binding %q: storage textures cannot use %s views",
					binding.Name, binding.Dimensionality)
			}
			entry.StorageTexture = &types.StorageTextureBindingLayout{
				Access:        types.StorageTextureAccessReadWrite,
				Format:        types.TextureFormatRGBA8Unorm,
				ViewDimension: dim,
			}

		default:
			return nil, fmt.Errorf("binding %q: unknown binding kind %d", binding.Name, binding.Kind)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
