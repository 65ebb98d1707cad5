package layout

import (
	"fmt"
	"strings"
)

// Report renders the layout as a human-readable listing: each entry point
// with its descriptor sets, their bindings, and its push constant.
func (l *ShaderLayout) Report() string {
	var sb strings.Builder

	sb.WriteString("Entry points:\n")
	for i := range l.EntryPoints {
		ep := &l.EntryPoints[i]
		fmt.Fprintf(&sb, "- %s (%s):\n", ep.Name, ep.Stage)

		if ep.Sets.Len() == 0 {
			sb.WriteString("\tNo descriptor sets\n")
		} else {
			sb.WriteString("\tDescriptor sets:\n")
			for s := ep.Sets.Begin; s < ep.Sets.End; s++ {
				set := &l.Sets[s]
				fmt.Fprintf(&sb, "\t - `%s`: set %d\n", set.Name, set.BindingIndex)
				for b := set.Bindings.Begin; b < set.Bindings.End; b++ {
					binding := &l.Bindings[b]
					if binding.Kind.IsTexture() {
						fmt.Fprintf(&sb, "\t\t- `%s`: %s (%s), binding %d\n",
							binding.Name, binding.Kind, binding.Dimensionality, binding.BindingIndex)
					} else {
						fmt.Fprintf(&sb, "\t\t- `%s`: %s, binding %d\n",
							binding.Name, binding.Kind, binding.BindingIndex)
					}
				}
			}
		}

		if ep.PushConstant == nil {
			sb.WriteString("\tNo push constants\n")
		} else {
			fmt.Fprintf(&sb, "\tPush constants: `%s` (size %d)\n",
				ep.PushConstant.Name, ep.PushConstant.Size)
		}
	}

	return sb.String()
}
