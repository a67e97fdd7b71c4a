package polyskema

import (
	"strconv"

	js "github.com/reoring/polyskema/jsonschema"
)

// JSONSchema projects the dispatch schema into a JSON Schema "oneOf". Each
// variant is the handler's own schema (an open object when the handler cannot
// describe itself) with the discriminator pinned to its tag.
func (s *OneOf) JSONSchema() (*js.Schema, error) {
	tags := s.Tags()
	out := &js.Schema{
		OneOf: make([]*js.Schema, 0, len(tags)),
		Discriminator: &js.Discriminator{
			PropertyName: s.typeField,
			Mapping:      make(map[string]string, len(tags)),
		},
	}
	for i, tag := range tags {
		var vs *js.Schema
		if d, ok := s.handlers[tag].(JSONSchemaer); ok {
			sch, err := d.JSONSchema()
			if err != nil {
				return nil, err
			}
			vs = sch.Clone()
		}
		if vs == nil {
			vs = &js.Schema{Type: "object"}
		}
		if vs.Properties == nil {
			vs.Properties = map[string]*js.Schema{}
		}
		vs.Title = tag
		vs.Properties[s.typeField] = &js.Schema{Type: "string", Const: tag}
		if !contains(vs.Required, s.typeField) {
			vs.Required = append([]string{s.typeField}, vs.Required...)
		}
		out.OneOf = append(out.OneOf, vs)
		out.Discriminator.Mapping[tag] = "#/oneOf/" + strconv.Itoa(i)
	}
	return out, nil
}
