// Package paramenv binds the arguments of a module instantiation to the
// module's declared parameters and interns the result.
//
// A ParamEnv is a small handle; two instantiations whose bindings are
// structurally equal always receive the same handle, so downstream passes
// can use it as a map key when specializing module instances. Resolve a
// handle to its bindings through the Table that issued it.
package paramenv
