package layout

import (
	"fmt"

	"github.com/Mcgode/KryneEngineTools/reflection"
)

// Range is a half-open [Begin,End) window into one of the flat sequences.
type Range struct {
	Begin uint32
	End   uint32
}

// Len returns the number of elements the range covers.
func (r Range) Len() int {
	return int(r.End - r.Begin)
}

// DescriptorBinding is one resource slot within a descriptor set.
type DescriptorBinding struct {
	Name         string
	BindingIndex uint32
	Kind         BindingKind

	// Dimensionality is meaningful only when Kind.IsTexture().
	Dimensionality TextureDimensionality
}

// DescriptorSet is a named, indexed group of bindings. Bindings indexes
// into ShaderLayout.Bindings.
type DescriptorSet struct {
	Name         string
	BindingIndex uint32
	Bindings     Range
}

// PushConstant describes an entry point's push constant block.
type PushConstant struct {
	Name string
	Size uint32
}

// EntryPoint is one flattened entry point. Sets indexes into
// ShaderLayout.Sets.
type EntryPoint struct {
	Name         string
	Stage        ShaderStage
	Sets         Range
	PushConstant *PushConstant
}

// ShaderLayout is the flattened result of one reflection tree: three flat
// sequences in which parents reference contiguous child ranges. Module-scope
// descriptor sets are duplicated into every entry point's range rather than
// shared, so each entry point's window is self-contained.
//
// A ShaderLayout is immutable once produced.
type ShaderLayout struct {
	EntryPoints []EntryPoint
	Sets        []DescriptorSet
	Bindings    []DescriptorBinding
}

// stageTable maps source stage tags onto engine stages. A tag outside the
// table fails the whole run.
var stageTable = map[reflection.Stage]ShaderStage{
	reflection.StageVertex:        StageVertex,
	reflection.StageHull:          StageTesselationControl,
	reflection.StageDomain:        StageTesselationEvaluation,
	reflection.StageGeometry:      StageGeometry,
	reflection.StageFragment:      StageFragment,
	reflection.StageCompute:       StageCompute,
	reflection.StageMesh:          StageMesh,
	reflection.StageAmplification: StageTask,
}

// entryPointScan is the per-entry-point result of the sizing pass.
type entryPointScan struct {
	stage        ShaderStage
	sets         []*reflection.Parameter
	pushConstant *PushConstant
}

// Flatten walks the reflection tree and produces its flattened layout.
//
// The walk is two-pass: a sizing pass resolves each entry point's stage and
// push constant, merges module-scope parameter blocks ahead of entry-point
// ones, and counts the totals used to pre-size the flat sequences; a
// population pass then classifies every binding and appends records in
// entry-point order, recording each record's child range.
//
// Traversal follows declaration order throughout, so an unchanged tree
// always flattens to an identical layout. Any failure aborts the run with
// no partial output.
func Flatten(shader *reflection.Shader) (*ShaderLayout, error) {
	// Module-scope scan: parameter blocks and push constant candidates.
	var globalSets []*reflection.Parameter
	var globalPushConstants []*reflection.Parameter
	for i := range shader.Parameters {
		p := &shader.Parameters[i]
		switch {
		case p.Type != nil && p.Type.Kind == reflection.KindParameterBlock:
			globalSets = append(globalSets, p)
		case p.Category == reflection.CategoryPushConstant ||
			(p.Type != nil && p.Type.Kind == reflection.KindConstantBuffer):
			globalPushConstants = append(globalPushConstants, p)
		}
	}

	// Sizing pass.
	scans := make([]entryPointScan, 0, len(shader.EntryPoints))
	totalSets := 0
	totalBindings := 0

	for i := range shader.EntryPoints {
		ep := &shader.EntryPoints[i]

		stage, ok := stageTable[ep.Stage]
		if !ok {
			return nil, &UnsupportedStageError{EntryPoint: ep.Name, Stage: ep.Stage}
		}

		scan := entryPointScan{stage: stage}
		scan.sets = append(scan.sets, globalSets...)
		pushConstants := append([]*reflection.Parameter(nil), globalPushConstants...)

		for j := range ep.Parameters {
			p := &ep.Parameters[j]
			switch {
			case p.Type != nil && p.Type.Kind == reflection.KindParameterBlock:
				scan.sets = append(scan.sets, p)
			case p.Category == reflection.CategoryUniform ||
				p.Category == reflection.CategoryPushConstant:
				pushConstants = append(pushConstants, p)
			}
		}

		if len(pushConstants) > 1 {
			names := make([]string, len(pushConstants))
			for k, p := range pushConstants {
				names[k] = p.Name
			}
			return nil, &MultiplePushConstantsError{EntryPoint: ep.Name, Names: names}
		}
		if len(pushConstants) == 1 {
			p := pushConstants[0]
			scan.pushConstant = &PushConstant{
				Name: p.Name,
				Size: p.Type.SizeOf(p.Category),
			}
		}

		for _, set := range scan.sets {
			totalSets++
			totalBindings += set.Type.ElementTypeLayout().FieldCount()
		}

		scans = append(scans, scan)
	}

	// Population pass. Records index into the flat sequences, so the
	// ranges stay valid regardless of the backing arrays' addresses.
	out := &ShaderLayout{
		EntryPoints: make([]EntryPoint, 0, len(shader.EntryPoints)),
		Sets:        make([]DescriptorSet, 0, totalSets),
		Bindings:    make([]DescriptorBinding, 0, totalBindings),
	}

	for i := range shader.EntryPoints {
		ep := &shader.EntryPoints[i]
		scan := &scans[i]

		setBegin := uint32(len(out.Sets))
		for _, set := range scan.sets {
			bindingBegin := uint32(len(out.Bindings))

			element := set.Type.ElementTypeLayout()
			for f := 0; f < element.FieldCount(); f++ {
				field := element.Field(f)
				kind, dim, err := Classify(field.Type)
				if err != nil {
					return nil, fmt.Errorf("entry point %q: set %q: binding %q: %w",
						ep.Name, set.Name, field.Name, err)
				}
				out.Bindings = append(out.Bindings, DescriptorBinding{
					Name:           field.Name,
					BindingIndex:   field.BindingIndex,
					Kind:           kind,
					Dimensionality: dim,
				})
			}

			out.Sets = append(out.Sets, DescriptorSet{
				Name:         set.Name,
				BindingIndex: set.BindingIndex,
				Bindings:     Range{Begin: bindingBegin, End: uint32(len(out.Bindings))},
			})
		}

		out.EntryPoints = append(out.EntryPoints, EntryPoint{
			Name:         ep.Name,
			Stage:        scan.stage,
			Sets:         Range{Begin: setBegin, End: uint32(len(out.Sets))},
			PushConstant: scan.pushConstant,
		})
	}

	return out, nil
}
