// Package dsl builds record handlers for polyskema dispatch schemas.
//
//	circle := dsl.Object().
//		Field("radius", dsl.Float()).Require("radius").
//		Make(func(ctx context.Context, r polyskema.Record) (any, error) {
//			return Circle{Radius: r["radius"].(float64)}, nil
//		}).
//		MustBuild()
//
// An ObjectSpec is a polyskema.HandlerSpec: it advertises its field names so
// the dispatch layer can narrow only/exclude projections, and builds one
// handler per configured projection.
package dsl
