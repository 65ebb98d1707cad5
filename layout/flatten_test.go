package layout

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Mcgode/KryneEngineTools/reflection"
)

// Tree-building helpers shared by the flattener tests.

func sampledTexture2D() *reflection.TypeLayout {
	return &reflection.TypeLayout{
		Kind:   reflection.KindResource,
		Shape:  reflection.ShapeTexture2D,
		Access: reflection.AccessRead,
	}
}

func samplerState() *reflection.TypeLayout {
	return &reflection.TypeLayout{Kind: reflection.KindSamplerState}
}

func structuredBuffer(access reflection.ResourceAccess) *reflection.TypeLayout {
	return &reflection.TypeLayout{
		Kind:   reflection.KindResource,
		Shape:  reflection.ShapeStructuredBuffer,
		Access: access,
	}
}

func uniformBlock(size uint32) *reflection.TypeLayout {
	return &reflection.TypeLayout{Kind: reflection.KindConstantBuffer, ByteSize: size}
}

func field(name string, binding uint32, tl *reflection.TypeLayout) reflection.Parameter {
	return reflection.Parameter{
		Name:         name,
		BindingIndex: binding,
		Category:     reflection.CategoryDescriptorTableSlot,
		Type:         tl,
	}
}

func parameterBlock(name string, setIndex uint32, fields ...reflection.Parameter) reflection.Parameter {
	return reflection.Parameter{
		Name:         name,
		BindingIndex: setIndex,
		Category:     reflection.CategoryDescriptorTableSlot,
		Type: &reflection.TypeLayout{
			Kind: reflection.KindParameterBlock,
			Element: &reflection.TypeLayout{
				Kind:   reflection.KindStruct,
				Fields: fields,
			},
		},
	}
}

// TestFlattenGlobalBlockSingleEntryPoint is the baseline scenario: one
// global parameter block with a texture and a sampler, one fragment entry
// point with nothing of its own.
func TestFlattenGlobalBlockSingleEntryPoint(t *testing.T) {
	shader := &reflection.Shader{
		Parameters: []reflection.Parameter{
			parameterBlock("G", 0,
				field("tex", 0, sampledTexture2D()),
				field("smp", 1, samplerState()),
			),
		},
		EntryPoints: []reflection.EntryPointDecl{
			{Name: "main", Stage: reflection.StageFragment},
		},
	}

	l, err := Flatten(shader)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if len(l.EntryPoints) != 1 {
		t.Fatalf("expected 1 entry point, got %d", len(l.EntryPoints))
	}
	ep := l.EntryPoints[0]
	if ep.Name != "main" {
		t.Errorf("entry point name: got %q, want %q", ep.Name, "main")
	}
	if ep.Stage != StageFragment {
		t.Errorf("stage: got %v, want %v", ep.Stage, StageFragment)
	}
	if ep.PushConstant != nil {
		t.Errorf("expected no push constant, got %+v", ep.PushConstant)
	}
	if ep.Sets.Len() != 1 {
		t.Fatalf("set range length: got %d, want 1", ep.Sets.Len())
	}

	set := l.Sets[ep.Sets.Begin]
	if set.Name != "G" {
		t.Errorf("set name: got %q, want %q", set.Name, "G")
	}
	if set.Bindings.Len() != 2 {
		t.Fatalf("binding range length: got %d, want 2", set.Bindings.Len())
	}

	tex := l.Bindings[set.Bindings.Begin]
	if tex.Kind != KindSampledTexture || tex.Dimensionality != DimSingle2D || tex.BindingIndex != 0 {
		t.Errorf("texture binding: got %+v", tex)
	}
	smp := l.Bindings[set.Bindings.Begin+1]
	if smp.Kind != KindSampler || smp.BindingIndex != 1 {
		t.Errorf("sampler binding: got %+v", smp)
	}
}

// TestFlattenDeterminism checks that flattening an unchanged tree twice
// yields structurally identical output.
func TestFlattenDeterminism(t *testing.T) {
	shader := &reflection.Shader{
		Parameters: []reflection.Parameter{
			parameterBlock("globals", 0,
				field("tex", 0, sampledTexture2D()),
				field("smp", 1, samplerState()),
				field("data", 2, structuredBuffer(reflection.AccessReadWrite)),
			),
		},
		EntryPoints: []reflection.EntryPointDecl{
			{Name: "vs_main", Stage: reflection.StageVertex},
			{Name: "fs_main", Stage: reflection.StageFragment},
		},
	}

	first, err := Flatten(shader)
	if err != nil {
		t.Fatalf("first Flatten failed: %v", err)
	}
	second, err := Flatten(shader)
	if err != nil {
		t.Fatalf("second Flatten failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("flattening is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// TestFlattenGlobalMerge checks that a global parameter block is duplicated
// into every entry point's range, ahead of entry-point-local sets.
func TestFlattenGlobalMerge(t *testing.T) {
	shader := &reflection.Shader{
		Parameters: []reflection.Parameter{
			parameterBlock("shared", 0, field("tex", 0, sampledTexture2D())),
		},
		EntryPoints: []reflection.EntryPointDecl{
			{
				Name:  "vs_main",
				Stage: reflection.StageVertex,
				Parameters: []reflection.Parameter{
					parameterBlock("vsOnly", 1, field("bones", 0, structuredBuffer(reflection.AccessRead))),
				},
			},
			{
				Name:  "fs_main",
				Stage: reflection.StageFragment,
				Parameters: []reflection.Parameter{
					parameterBlock("fsOnly", 1, field("lights", 0, structuredBuffer(reflection.AccessRead))),
				},
			},
		},
	}

	l, err := Flatten(shader)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if len(l.Sets) != 4 {
		t.Fatalf("expected 4 sets (global duplicated per entry point), got %d", len(l.Sets))
	}

	for i, wantLocal := range []string{"vsOnly", "fsOnly"} {
		ep := l.EntryPoints[i]
		if ep.Sets.Len() != 2 {
			t.Fatalf("entry point %q: set range length %d, want 2", ep.Name, ep.Sets.Len())
		}
		if got := l.Sets[ep.Sets.Begin].Name; got != "shared" {
			t.Errorf("entry point %q: first set %q, want %q", ep.Name, got, "shared")
		}
		if got := l.Sets[ep.Sets.Begin+1].Name; got != wantLocal {
			t.Errorf("entry point %q: second set %q, want %q", ep.Name, got, wantLocal)
		}
	}
}

// TestFlattenRangeValidity checks range invariants across a multi-entry
// multi-set layout: bounds, monotonicity, no overlap.
func TestFlattenRangeValidity(t *testing.T) {
	shader := &reflection.Shader{
		Parameters: []reflection.Parameter{
			parameterBlock("g0", 0,
				field("a", 0, sampledTexture2D()),
				field("b", 1, samplerState()),
			),
			parameterBlock("g1", 1,
				field("c", 0, structuredBuffer(reflection.AccessRead)),
			),
		},
		EntryPoints: []reflection.EntryPointDecl{
			{Name: "one", Stage: reflection.StageCompute},
			{
				Name:  "two",
				Stage: reflection.StageCompute,
				Parameters: []reflection.Parameter{
					parameterBlock("local", 2,
						field("d", 0, structuredBuffer(reflection.AccessReadWrite)),
						field("e", 1, uniformBlock(64)),
					),
				},
			},
		},
	}

	l, err := Flatten(shader)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	prevEnd := uint32(0)
	for _, ep := range l.EntryPoints {
		if ep.Sets.Begin > ep.Sets.End || ep.Sets.End > uint32(len(l.Sets)) {
			t.Errorf("entry point %q: invalid set range [%d,%d) against %d sets",
				ep.Name, ep.Sets.Begin, ep.Sets.End, len(l.Sets))
		}
		if ep.Sets.Begin != prevEnd {
			t.Errorf("entry point %q: set range starts at %d, want %d (contiguous)",
				ep.Name, ep.Sets.Begin, prevEnd)
		}
		prevEnd = ep.Sets.End
	}
	if prevEnd != uint32(len(l.Sets)) {
		t.Errorf("entry point ranges cover %d sets, want %d", prevEnd, len(l.Sets))
	}

	prevEnd = 0
	for _, set := range l.Sets {
		if set.Bindings.Begin > set.Bindings.End || set.Bindings.End > uint32(len(l.Bindings)) {
			t.Errorf("set %q: invalid binding range [%d,%d) against %d bindings",
				set.Name, set.Bindings.Begin, set.Bindings.End, len(l.Bindings))
		}
		if set.Bindings.Begin != prevEnd {
			t.Errorf("set %q: binding range starts at %d, want %d (contiguous)",
				set.Name, set.Bindings.Begin, prevEnd)
		}
		prevEnd = set.Bindings.End
	}
	if prevEnd != uint32(len(l.Bindings)) {
		t.Errorf("set ranges cover %d bindings, want %d", prevEnd, len(l.Bindings))
	}
}

// TestFlattenPushConstant checks that exactly one uniform-category parameter
// resolves to a push constant with the parameter's byte size.
func TestFlattenPushConstant(t *testing.T) {
	shader := &reflection.Shader{
		EntryPoints: []reflection.EntryPointDecl{
			{
				Name:  "main",
				Stage: reflection.StageVertex,
				Parameters: []reflection.Parameter{
					{
						Name:     "transform",
						Category: reflection.CategoryUniform,
						Type:     uniformBlock(128),
					},
				},
			},
		},
	}

	l, err := Flatten(shader)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	pc := l.EntryPoints[0].PushConstant
	if pc == nil {
		t.Fatal("expected push constant, got nil")
	}
	if pc.Name != "transform" {
		t.Errorf("push constant name: got %q, want %q", pc.Name, "transform")
	}
	if pc.Size != 128 {
		t.Errorf("push constant size: got %d, want 128", pc.Size)
	}
}

// TestFlattenMultiplePushConstants checks that two entry-point-scope
// uniform parameters fail the run.
func TestFlattenMultiplePushConstants(t *testing.T) {
	shader := &reflection.Shader{
		EntryPoints: []reflection.EntryPointDecl{
			{
				Name:  "main",
				Stage: reflection.StageFragment,
				Parameters: []reflection.Parameter{
					{Name: "first", Category: reflection.CategoryUniform, Type: uniformBlock(16)},
					{Name: "second", Category: reflection.CategoryUniform, Type: uniformBlock(32)},
				},
			},
		},
	}

	l, err := Flatten(shader)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if l != nil {
		t.Errorf("expected nil layout on failure, got %+v", l)
	}
	var pcErr *MultiplePushConstantsError
	if !errors.As(err, &pcErr) {
		t.Fatalf("expected MultiplePushConstantsError, got %T: %v", err, err)
	}
	if pcErr.EntryPoint != "main" {
		t.Errorf("error entry point: got %q, want %q", pcErr.EntryPoint, "main")
	}
	if len(pcErr.Names) != 2 {
		t.Errorf("error names: got %v, want 2 entries", pcErr.Names)
	}
}

// TestFlattenGlobalPushConstantConflicts checks that a global push constant
// plus an entry-point uniform also exceeds the cardinality limit.
func TestFlattenGlobalPushConstantConflicts(t *testing.T) {
	shader := &reflection.Shader{
		Parameters: []reflection.Parameter{
			{Name: "globalPC", Category: reflection.CategoryPushConstant, Type: uniformBlock(16)},
		},
		EntryPoints: []reflection.EntryPointDecl{
			{
				Name:  "main",
				Stage: reflection.StageCompute,
				Parameters: []reflection.Parameter{
					{Name: "localPC", Category: reflection.CategoryUniform, Type: uniformBlock(32)},
				},
			},
		},
	}

	_, err := Flatten(shader)
	var pcErr *MultiplePushConstantsError
	if !errors.As(err, &pcErr) {
		t.Fatalf("expected MultiplePushConstantsError, got %v", err)
	}
}

// TestFlattenGlobalPushConstantMerges checks that a lone global push
// constant reaches every entry point.
func TestFlattenGlobalPushConstantMerges(t *testing.T) {
	shader := &reflection.Shader{
		Parameters: []reflection.Parameter{
			{Name: "pc", Category: reflection.CategoryPushConstant, Type: uniformBlock(48)},
		},
		EntryPoints: []reflection.EntryPointDecl{
			{Name: "vs_main", Stage: reflection.StageVertex},
			{Name: "fs_main", Stage: reflection.StageFragment},
		},
	}

	l, err := Flatten(shader)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	for _, ep := range l.EntryPoints {
		if ep.PushConstant == nil {
			t.Fatalf("entry point %q: expected merged push constant", ep.Name)
		}
		if ep.PushConstant.Name != "pc" || ep.PushConstant.Size != 48 {
			t.Errorf("entry point %q: push constant %+v", ep.Name, ep.PushConstant)
		}
	}
}

// TestFlattenUnsupportedStage checks that an unmapped stage aborts the run.
func TestFlattenUnsupportedStage(t *testing.T) {
	shader := &reflection.Shader{
		EntryPoints: []reflection.EntryPointDecl{
			{Name: "trace", Stage: reflection.StageRayGeneration},
		},
	}

	l, err := Flatten(shader)
	if l != nil {
		t.Errorf("expected nil layout, got %+v", l)
	}
	var stageErr *UnsupportedStageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected UnsupportedStageError, got %v", err)
	}
	if stageErr.EntryPoint != "trace" {
		t.Errorf("error entry point: got %q, want %q", stageErr.EntryPoint, "trace")
	}
}

// TestFlattenStageTable checks the full fixed stage mapping.
func TestFlattenStageTable(t *testing.T) {
	tests := []struct {
		in   reflection.Stage
		want ShaderStage
	}{
		{reflection.StageVertex, StageVertex},
		{reflection.StageHull, StageTesselationControl},
		{reflection.StageDomain, StageTesselationEvaluation},
		{reflection.StageGeometry, StageGeometry},
		{reflection.StageFragment, StageFragment},
		{reflection.StageCompute, StageCompute},
		{reflection.StageMesh, StageMesh},
		{reflection.StageAmplification, StageTask},
	}

	for _, tt := range tests {
		shader := &reflection.Shader{
			EntryPoints: []reflection.EntryPointDecl{{Name: "main", Stage: tt.in}},
		}
		l, err := Flatten(shader)
		if err != nil {
			t.Fatalf("stage %v: Flatten failed: %v", tt.in, err)
		}
		if got := l.EntryPoints[0].Stage; got != tt.want {
			t.Errorf("stage %v: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestFlattenReadWriteBuffer is the storage buffer scenario: a read-write
// structured buffer at binding 3.
func TestFlattenReadWriteBuffer(t *testing.T) {
	shader := &reflection.Shader{
		Parameters: []reflection.Parameter{
			parameterBlock("data", 0,
				field("particles", 3, structuredBuffer(reflection.AccessReadWrite)),
			),
		},
		EntryPoints: []reflection.EntryPointDecl{
			{Name: "main", Stage: reflection.StageCompute},
		},
	}

	l, err := Flatten(shader)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	b := l.Bindings[0]
	if b.Kind != KindStorageReadWriteBuffer {
		t.Errorf("kind: got %v, want %v", b.Kind, KindStorageReadWriteBuffer)
	}
	if b.BindingIndex != 3 {
		t.Errorf("binding index: got %d, want 3", b.BindingIndex)
	}
	if b.Dimensionality != DimSingle2D {
		t.Errorf("dimensionality should stay at the default, got %v", b.Dimensionality)
	}
}

// TestFlattenClassifierFailurePropagates checks that a classification error
// aborts the run with entry point and resource context attached.
func TestFlattenClassifierFailurePropagates(t *testing.T) {
	bad := &reflection.TypeLayout{
		Kind:   reflection.KindResource,
		Shape:  reflection.ShapeTexture2D,
		Access: reflection.AccessConsume,
	}
	shader := &reflection.Shader{
		Parameters: []reflection.Parameter{
			parameterBlock("G", 0, field("weird", 0, bad)),
		},
		EntryPoints: []reflection.EntryPointDecl{
			{Name: "main", Stage: reflection.StageFragment},
		},
	}

	l, err := Flatten(shader)
	if l != nil {
		t.Errorf("expected nil layout, got %+v", l)
	}
	var accessErr *UnsupportedAccessError
	if !errors.As(err, &accessErr) {
		t.Fatalf("expected wrapped UnsupportedAccessError, got %v", err)
	}
	for _, want := range []string{"main", "G", "weird"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err.Error(), want)
		}
	}
}

// TestFlattenEmptyShader checks the degenerate input.
func TestFlattenEmptyShader(t *testing.T) {
	l, err := Flatten(&reflection.Shader{})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if len(l.EntryPoints) != 0 || len(l.Sets) != 0 || len(l.Bindings) != 0 {
		t.Errorf("expected empty layout, got %+v", l)
	}
}
