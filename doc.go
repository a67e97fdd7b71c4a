package polyskema

// Package polyskema provides:
//
// - A tagged-union dispatch schema (OneOf) that multiplexes several single-shape
//   handlers by a discriminator field ("type" by default)
// - Tag injection on Dump and tag consumption on Load, with only/exclude
//   projections narrowed per variant at construction time
// - A stable error model via Issues (JSON Pointer, code, message), PartialError
//   for partially valid items, and BatchError aggregated by input index
// - Source-driven loading (JSON/YAML) with duplicate-key/depth/size enforcement
//
// Design policy:
// - The dispatch core is pure: no I/O, no logging, no state mutated after New.
// - Handlers are external collaborators reached only through Handler/HandlerSpec.
//   The dsl package ships a reference handler engine.
// - Keep only public APIs in the root package; put details under internal/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := polyskema.MustNew(map[polyskema.TypeTag]polyskema.HandlerSpec{
//	    "foo": fooSpec,
//	    "bar": barSpec,
//	}, polyskema.WithResolver(resolver))
//
//	recs, err := s.Dump(ctx, []any{Foo{Foo: "hello"}, Bar{Bar: 123}})
//	// => [{"type":"foo","foo":"hello"}, {"type":"bar","bar":123}]
//
//	v, err := s.LoadOne(ctx, map[string]any{"type": "foo", "foo": "hello"})
//	msgs := s.Validate(ctx, []any{rec1, rec2})
