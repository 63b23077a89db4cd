// Package condition compiles declarative "wait for" trees into a single
// awaitable event.
//
// A tree is built from five variants: Signal (a raw event), All, Any,
// ContainerState (a container reaching full or empty) and ActivityDone (every
// activity registered under a key has completed). The variant set is sealed;
// Resolver.Compile handles exactly these types and rejects anything else with
// an INVALID_EXPRESSION_KIND error.
//
// Parse converts decoded YAML or CUE values into trees:
//
//	"ready"                                  -> Signal bound to "ready"
//	["a", "b"]                               -> All{a, b}
//	{and: [...]} / {or: [...]}               -> All / Any
//	{container: barge, state: full, id: x}   -> ContainerState
//	{activity: dig}                          -> ActivityDone{"dig"}
//	{type: activity, state: done, name: dig} -> ActivityDone{"dig"}
package condition
