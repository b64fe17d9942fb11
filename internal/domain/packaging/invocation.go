package packaging

import "slices"

// BuildToken is the argument that marks a native build pass.
const BuildToken = "build"

// InvocationContext is the view of the process arguments the driver decides on.
type InvocationContext struct {
	// Arguments are the invocation arguments in their original order.
	Arguments []string
	// IsBuildPass is true when BuildToken appears among Arguments.
	IsBuildPass bool
}

// NewInvocationContext captures the arguments of a single run.
// Only exact BuildToken matches count; position does not matter.
func NewInvocationContext(args []string) *InvocationContext {
	return &InvocationContext{
		Arguments:   slices.Clone(args),
		IsBuildPass: slices.Contains(args, BuildToken),
	}
}
