package layout

import (
	"fmt"
	"strings"

	"github.com/Mcgode/KryneEngineTools/reflection"
)

// UnsupportedAccessError reports a texture or buffer resource whose access
// mode is outside the modeled read/write/read-write set.
type UnsupportedAccessError struct {
	Shape  reflection.ResourceShape
	Access reflection.ResourceAccess
}

func (e *UnsupportedAccessError) Error() string {
	return fmt.Sprintf("unsupported access %s for %s resource", e.Access, e.Shape)
}

// UnsupportedStageError reports an entry point whose stage tag has no engine
// stage mapping.
type UnsupportedStageError struct {
	EntryPoint string
	Stage      reflection.Stage
}

func (e *UnsupportedStageError) Error() string {
	return fmt.Sprintf("entry point %q: unsupported stage %s", e.EntryPoint, e.Stage)
}

// MultiplePushConstantsError reports an entry point that resolved more than
// one push constant candidate. An entry point carries at most one.
type MultiplePushConstantsError struct {
	EntryPoint string
	Names      []string
}

func (e *MultiplePushConstantsError) Error() string {
	return fmt.Sprintf("entry point %q: multiple push constant candidates (%s), only one is supported",
		e.EntryPoint, strings.Join(e.Names, ", "))
}

// UnreachableShapeError reports a texture-like binding that reached
// dimensionality derivation with an unrecognized base shape. The classifier
// guards against this; the error exists as a defensive check only.
type UnreachableShapeError struct {
	Shape reflection.ResourceShape
}

func (e *UnreachableShapeError) Error() string {
	return fmt.Sprintf("texture-like binding with unrecognized base shape %s", e.Shape)
}
