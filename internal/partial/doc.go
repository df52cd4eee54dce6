// Package partial obtains partial-evaluation results from the policy engine.
//
// The engine's compile API evaluates a policy query as far as the known input
// allows and returns the residual queries over the declared unknowns. This
// package hides how that happens behind the Evaluator interface:
//
//   - HTTPEvaluator calls a running engine's POST /v1/compile endpoint.
//   - FileEvaluator serves responses recorded earlier, for tests and offline
//     use of the CLI.
//
// Transport and protocol failures are reported as *EvalError. They are
// external errors and never translation errors.
package partial
