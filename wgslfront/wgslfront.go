// Package wgslfront adapts WGSL shaders into reflection trees.
//
// It drives the naga compiler front end (parse, then lower to IR) and
// translates the lowered module's resource globals and entry points into the
// reflection model: each @group becomes a parameter block whose fields are
// the group's members in declaration order, and push_constant globals become
// push constant parameters.
package wgslfront

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/Mcgode/KryneEngineTools/reflection"
)

// Reflect compiles WGSL source and returns its reflection tree.
func Reflect(source string) (*reflection.Shader, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}
	return fromModule(module)
}

// fromModule translates a lowered module into a reflection tree.
func fromModule(module *ir.Module) (*reflection.Shader, error) {
	shader := &reflection.Shader{}

	// Group resource globals by @group in first-appearance order; the
	// order decides descriptor set order in the flattened output.
	var groupOrder []uint32
	groupMembers := make(map[uint32][]reflection.Parameter)

	for i := range module.GlobalVariables {
		g := &module.GlobalVariables[i]

		if g.Space == ir.SpacePushConstant {
			shader.Parameters = append(shader.Parameters, reflection.Parameter{
				Name:     g.Name,
				Category: reflection.CategoryPushConstant,
				Type: &reflection.TypeLayout{
					Kind:     reflection.KindConstantBuffer,
					ByteSize: typeSize(module, g.Type),
				},
			})
			continue
		}

		// Private, workgroup and function-space globals are not
		// bindable resources.
		if g.Binding == nil {
			continue
		}

		typeLayout, err := resourceTypeLayout(module, g)
		if err != nil {
			return nil, err
		}

		group := g.Binding.Group
		if _, seen := groupMembers[group]; !seen {
			groupOrder = append(groupOrder, group)
		}
		groupMembers[group] = append(groupMembers[group], reflection.Parameter{
			Name:         g.Name,
			BindingIndex: g.Binding.Binding,
			Category:     reflection.CategoryDescriptorTableSlot,
			Type:         typeLayout,
		})
	}

	for _, group := range groupOrder {
		shader.Parameters = append(shader.Parameters, reflection.Parameter{
			Name:         fmt.Sprintf("group%d", group),
			BindingIndex: group,
			Category:     reflection.CategoryDescriptorTableSlot,
			Type: &reflection.TypeLayout{
				Kind: reflection.KindParameterBlock,
				Element: &reflection.TypeLayout{
					Kind:   reflection.KindStruct,
					Fields: groupMembers[group],
				},
			},
		})
	}

	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		stage, err := stageFor(ep)
		if err != nil {
			return nil, err
		}
		shader.EntryPoints = append(shader.EntryPoints, reflection.EntryPointDecl{
			Name:  ep.Name,
			Stage: stage,
		})
	}

	return shader, nil
}

func stageFor(ep *ir.EntryPoint) (reflection.Stage, error) {
	switch ep.Stage {
	case ir.StageVertex:
		return reflection.StageVertex, nil
	case ir.StageFragment:
		return reflection.StageFragment, nil
	case ir.StageCompute:
		return reflection.StageCompute, nil
	case ir.StageMesh:
		return reflection.StageMesh, nil
	case ir.StageTask:
		return reflection.StageAmplification, nil
	default:
		return reflection.StageNone, fmt.Errorf("entry point %q: unknown stage tag %d", ep.Name, ep.Stage)
	}
}

// resourceTypeLayout builds the type layout of one bindable global.
func resourceTypeLayout(module *ir.Module, g *ir.GlobalVariable) (*reflection.TypeLayout, error) {
	switch t := typeInner(module, g.Type).(type) {
	case ir.SamplerType:
		return &reflection.TypeLayout{Kind: reflection.KindSamplerState}, nil

	case ir.ImageType:
		shape, err := imageShape(t)
		if err != nil {
			return nil, fmt.Errorf("global %q: %w", g.Name, err)
		}
		access := reflection.AccessRead
		if t.Class == ir.ImageClassStorage {
			switch t.StorageAccess {
			case ir.StorageAccessRead:
				access = reflection.AccessRead
			case ir.StorageAccessWrite:
				access = reflection.AccessWrite
			default:
				access = reflection.AccessReadWrite
			}
		}
		return &reflection.TypeLayout{
			Kind:   reflection.KindResource,
			Shape:  shape,
			Access: access,
		}, nil
	}

	switch g.Space {
	case ir.SpaceUniform:
		return &reflection.TypeLayout{
			Kind:     reflection.KindConstantBuffer,
			ByteSize: typeSize(module, g.Type),
		}, nil

	case ir.SpaceStorage:
		access := reflection.AccessReadWrite
		if g.Access == ir.StorageRead {
			access = reflection.AccessRead
		}
		return &reflection.TypeLayout{
			Kind:     reflection.KindResource,
			Shape:    reflection.ShapeStructuredBuffer,
			Access:   access,
			ByteSize: typeSize(module, g.Type),
		}, nil
	}

	return nil, fmt.Errorf("global %q: address space %d is not a bindable resource", g.Name, g.Space)
}

func imageShape(t ir.ImageType) (reflection.ResourceShape, error) {
	var shape reflection.ResourceShape
	switch t.Dim {
	case ir.Dim1D:
		shape = reflection.ShapeTexture1D
	case ir.Dim2D:
		shape = reflection.ShapeTexture2D
	case ir.Dim3D:
		shape = reflection.ShapeTexture3D
	case ir.DimCube:
		shape = reflection.ShapeTextureCube
	default:
		return 0, fmt.Errorf("unknown image dimension %d", t.Dim)
	}
	if t.Arrayed {
		shape |= reflection.ShapeArrayFlag
	}
	return shape, nil
}

func typeInner(module *ir.Module, handle ir.TypeHandle) ir.TypeInner {
	if int(handle) >= len(module.Types) {
		return nil
	}
	return module.Types[handle].Inner
}

// typeSize computes the laid-out byte size of a type. Runtime-sized arrays
// report the size of zero elements.
func typeSize(module *ir.Module, handle ir.TypeHandle) uint32 {
	switch t := typeInner(module, handle).(type) {
	case ir.ScalarType:
		return uint32(t.Width)
	case ir.VectorType:
		return uint32(t.Size) * uint32(t.Scalar.Width)
	case ir.MatrixType:
		return uint32(t.Columns) * uint32(t.Rows) * uint32(t.Scalar.Width)
	case ir.AtomicType:
		return uint32(t.Scalar.Width)
	case ir.ArrayType:
		if t.Size.Constant != nil {
			return t.Stride * *t.Size.Constant
		}
		return 0
	case ir.StructType:
		return t.Span
	default:
		return 0
	}
}
