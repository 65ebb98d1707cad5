package layout

import (
	"github.com/Mcgode/KryneEngineTools/reflection"
)

// Classify decides the binding kind of one resource declaration's type
// layout and, for texture-like kinds, its dimensionality.
//
// Constant-buffer and sampler kinds resolve directly from the type kind.
// Everything else resolves from the resource shape's base component combined
// with the declared access mode. Base shapes the taxonomy does not model
// classify as a 2D sampled texture.
//
// Classify is a pure function; a failure means the declaration cannot be
// represented and the caller must abort the run.
func Classify(t *reflection.TypeLayout) (BindingKind, TextureDimensionality, error) {
	switch t.Kind {
	case reflection.KindConstantBuffer:
		return KindConstantBuffer, DimSingle2D, nil
	case reflection.KindSamplerState:
		return KindSampler, DimSingle2D, nil
	}

	base := t.Shape.Base()

	var kind BindingKind
	switch base {
	case reflection.ShapeTexture1D, reflection.ShapeTexture2D,
		reflection.ShapeTexture3D, reflection.ShapeTextureCube:
		switch t.Access {
		case reflection.AccessRead:
			kind = KindSampledTexture
		case reflection.AccessWrite, reflection.AccessReadWrite:
			kind = KindStorageReadWriteTexture
		default:
			return 0, 0, &UnsupportedAccessError{Shape: t.Shape, Access: t.Access}
		}

	case reflection.ShapeStructuredBuffer, reflection.ShapeByteAddressBuffer:
		switch t.Access {
		case reflection.AccessRead:
			kind = KindStorageReadOnlyBuffer
		case reflection.AccessWrite, reflection.AccessReadWrite:
			kind = KindStorageReadWriteBuffer
		default:
			return 0, 0, &UnsupportedAccessError{Shape: t.Shape, Access: t.Access}
		}

	default:
		// Unmodeled shape: permissive fallback policy.
		return KindSampledTexture, DimSingle2D, nil
	}

	dim := DimSingle2D
	if kind.IsTexture() {
		arrayed := t.Shape.Arrayed()
		switch base {
		case reflection.ShapeTexture1D:
			dim = DimSingle1D
			if arrayed {
				dim = DimArray1D
			}
		case reflection.ShapeTexture2D:
			dim = DimSingle2D
			if arrayed {
				dim = DimArray2D
			}
		case reflection.ShapeTexture3D:
			// No array variant.
			dim = DimSingle3D
		case reflection.ShapeTextureCube:
			dim = DimSingleCube
			if arrayed {
				dim = DimArrayCube
			}
		default:
			return 0, 0, &UnreachableShapeError{Shape: t.Shape}
		}
	}

	return kind, dim, nil
}
