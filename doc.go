// Package typeforge compiles structured-schema documents (JSON Schema,
// OpenAPI, GraphQL SDL, or sample data) into statically typed data-model
// source text in several output dialects.
//
// The compilation pipeline is:
//
//	ingest -> resolve -> synthesize -> name -> plan -> emit
//
// with every stage consuming the complete output of the previous one. All
// behavior knobs live in a single immutable Config passed by value into
// Run; nothing in the engine reads global state, so concurrent runs with
// different policies are safe.
//
// Design policy:
//   - Keep only public APIs in the root package; put stage implementations under internal/.
//   - Format front-ends live under internal/frontend and stay thin: they
//     parse documents into raw nodes and never make typing decisions.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	cfg := typeforge.DefaultConfig()
//	cfg.Dialect = typeforge.DialectPydantic
//	res, err := typeforge.Run(ctx, []typeforge.Input{{Ref: "api.yaml"}}, cfg)
//	for _, u := range res.Units {
//		// u.Path, u.Text
//	}
package typeforge
