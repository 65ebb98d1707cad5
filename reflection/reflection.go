// Package reflection defines a compiler-agnostic view of shader reflection
// metadata.
//
// The tree mirrors what a shader compiler's reflection API exposes once a
// module has been compiled: module-scope parameters, entry points with their
// own parameters, and per-parameter type layouts answering kind, resource
// shape, resource access, binding index, and byte size queries.
//
// Front ends (see the wgslfront package) translate their compiler's native
// metadata into this model; the layout package consumes it without knowing
// which compiler produced it. The tree is treated as read-only after
// construction.
package reflection

// Shader is the root of one compiled shader's reflection tree.
type Shader struct {
	// Parameters holds module-scope parameters in declaration order.
	Parameters []Parameter

	// EntryPoints holds the shader's entry points in declaration order.
	EntryPoints []EntryPointDecl
}

// EntryPointDecl describes one entry point and its own parameters.
type EntryPointDecl struct {
	Name       string
	Stage      Stage
	Parameters []Parameter
}

// Parameter is one declared parameter: a module-scope resource, an
// entry-point-scope resource, or a struct field inside a parameter block.
type Parameter struct {
	Name         string
	BindingIndex uint32
	Category     ParameterCategory
	Type         *TypeLayout
}

// TypeLayout describes the laid-out type of a parameter.
type TypeLayout struct {
	Kind   TypeKind
	Shape  ResourceShape
	Access ResourceAccess

	// Element is the wrapped element type for container kinds
	// (parameter blocks, constant buffers).
	Element *TypeLayout

	// Fields holds struct fields in declaration order.
	Fields []Parameter

	// ByteSize is the laid-out size of the type in bytes, where the
	// source compiler provides one (uniform and push-constant data).
	ByteSize uint32
}

// ElementTypeLayout returns the wrapped element type for container kinds,
// or the layout itself when there is no wrapping.
func (t *TypeLayout) ElementTypeLayout() *TypeLayout {
	if t == nil {
		return nil
	}
	if t.Element != nil {
		return t.Element
	}
	return t
}

// FieldCount returns the number of struct fields.
func (t *TypeLayout) FieldCount() int {
	if t == nil {
		return 0
	}
	return len(t.Fields)
}

// Field returns the i-th struct field.
func (t *TypeLayout) Field(i int) *Parameter {
	return &t.Fields[i]
}

// SizeOf returns the type's byte size at the given binding category.
func (t *TypeLayout) SizeOf(ParameterCategory) uint32 {
	if t == nil {
		return 0
	}
	return t.ByteSize
}

// Stage is the source compiler's entry point stage tag.
type Stage uint8

const (
	StageNone Stage = iota
	StageVertex
	StageHull
	StageDomain
	StageGeometry
	StageFragment
	StageCompute
	StageMesh
	StageAmplification
	StageRayGeneration
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageVertex:
		return "vertex"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageGeometry:
		return "geometry"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	case StageMesh:
		return "mesh"
	case StageAmplification:
		return "amplification"
	case StageRayGeneration:
		return "ray generation"
	default:
		return "unknown"
	}
}

// TypeKind is the declared kind of a type layout.
type TypeKind uint8

const (
	KindNone TypeKind = iota
	KindStruct
	KindConstantBuffer
	KindParameterBlock
	KindSamplerState
	KindResource
)

func (k TypeKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStruct:
		return "struct"
	case KindConstantBuffer:
		return "constant buffer"
	case KindParameterBlock:
		return "parameter block"
	case KindSamplerState:
		return "sampler state"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// ResourceShape encodes a resource type's shape: a base shape in the low
// bits plus flag bits such as ShapeArrayFlag.
type ResourceShape uint32

const (
	ShapeNone ResourceShape = iota
	ShapeTexture1D
	ShapeTexture2D
	ShapeTexture3D
	ShapeTextureCube
	ShapeStructuredBuffer
	ShapeByteAddressBuffer
)

const (
	// ShapeBaseMask selects the base shape component.
	ShapeBaseMask ResourceShape = 0x0F

	// ShapeArrayFlag marks texture array shapes.
	ShapeArrayFlag ResourceShape = 0x40
)

// Base returns the shape's base component.
func (s ResourceShape) Base() ResourceShape {
	return s & ShapeBaseMask
}

// Arrayed reports whether the array flag is set.
func (s ResourceShape) Arrayed() bool {
	return s&ShapeArrayFlag != 0
}

func (s ResourceShape) String() string {
	base := ""
	switch s.Base() {
	case ShapeNone:
		base = "none"
	case ShapeTexture1D:
		base = "texture 1D"
	case ShapeTexture2D:
		base = "texture 2D"
	case ShapeTexture3D:
		base = "texture 3D"
	case ShapeTextureCube:
		base = "texture cube"
	case ShapeStructuredBuffer:
		base = "structured buffer"
	case ShapeByteAddressBuffer:
		base = "byte-address buffer"
	default:
		base = "unknown"
	}
	if s.Arrayed() {
		return base + " array"
	}
	return base
}

// ResourceAccess is a resource type's declared access mode.
type ResourceAccess uint8

const (
	AccessNone ResourceAccess = iota
	AccessRead
	AccessWrite
	AccessReadWrite

	// Append and Consume exist in source languages but have no engine
	// binding kind; classifying them is an error.
	AccessAppend
	AccessConsume
)

func (a ResourceAccess) String() string {
	switch a {
	case AccessNone:
		return "none"
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read-write"
	case AccessAppend:
		return "append"
	case AccessConsume:
		return "consume"
	default:
		return "unknown"
	}
}

// ParameterCategory is the binding category a parameter was laid out in.
type ParameterCategory uint8

const (
	CategoryNone ParameterCategory = iota
	CategoryDescriptorTableSlot
	CategoryUniform
	CategoryPushConstant
)

func (c ParameterCategory) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryDescriptorTableSlot:
		return "descriptor table slot"
	case CategoryUniform:
		return "uniform"
	case CategoryPushConstant:
		return "push constant"
	default:
		return "unknown"
	}
}
