// Package layout flattens shader reflection trees into the contiguous,
// range-addressed descriptor layout the engine serializes and loads.
//
// The package has two stages: Classify maps one resource declaration's type
// layout to a binding kind (plus a dimensionality for texture-like kinds),
// and Flatten walks a whole reflection tree, merging module-scope resources
// into every entry point and emitting three flat sequences where parents
// reference contiguous sub-ranges of their children instead of holding
// pointers.
package layout

// BindingKind identifies the engine-facing kind of one descriptor binding.
//
// The declaration order is load-bearing: the contiguous run
// [KindSampledTexture, KindStorageReadWriteTexture] is the texture-like
// range, the only kinds for which a TextureDimensionality is meaningful.
type BindingKind uint8

const (
	KindSampler BindingKind = iota
	KindSampledTexture
	KindStorageReadOnlyTexture
	KindStorageReadWriteTexture
	KindConstantBuffer
	KindStorageReadOnlyBuffer
	KindStorageReadWriteBuffer
)

// IsTexture reports whether the kind lies in the texture-like range.
func (k BindingKind) IsTexture() bool {
	return k >= KindSampledTexture && k <= KindStorageReadWriteTexture
}

func (k BindingKind) String() string {
	switch k {
	case KindSampler:
		return "sampler"
	case KindSampledTexture:
		return "sampled texture"
	case KindStorageReadOnlyTexture:
		return "read-only storage texture"
	case KindStorageReadWriteTexture:
		return "read/write storage texture"
	case KindConstantBuffer:
		return "constant buffer"
	case KindStorageReadOnlyBuffer:
		return "read-only storage buffer"
	case KindStorageReadWriteBuffer:
		return "read/write storage buffer"
	default:
		return "unknown"
	}
}

// TextureDimensionality tags a texture-like binding's dimensionality and
// array-ness. For every other kind the field is unused and holds
// DimSingle2D.
type TextureDimensionality uint8

const (
	DimSingle1D TextureDimensionality = iota
	DimSingle2D
	DimSingle3D
	DimSingleCube
	DimArray1D
	DimArray2D
	DimArrayCube
)

func (d TextureDimensionality) String() string {
	switch d {
	case DimSingle1D:
		return "1D"
	case DimSingle2D:
		return "2D"
	case DimSingle3D:
		return "3D"
	case DimSingleCube:
		return "cube"
	case DimArray1D:
		return "1D array"
	case DimArray2D:
		return "2D array"
	case DimArrayCube:
		return "cube array"
	default:
		return "unknown"
	}
}

// ShaderStage is the engine's entry point stage.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageTesselationControl
	StageTesselationEvaluation
	StageGeometry
	StageFragment
	StageCompute
	StageMesh
	StageTask
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageTesselationControl:
		return "tesselation control"
	case StageTesselationEvaluation:
		return "tesselation evaluation"
	case StageGeometry:
		return "geometry"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	case StageMesh:
		return "mesh"
	case StageTask:
		return "task"
	default:
		return "unknown"
	}
}
