package jsonschema

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Const       any    `json:"const,omitempty"`
	Default     any    `json:"default,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// Union
	OneOf         []*Schema      `json:"oneOf,omitempty"`
	Discriminator *Discriminator `json:"discriminator,omitempty"`
}

// Discriminator follows the OpenAPI discriminator object: the property that
// selects a variant and an optional tag -> reference mapping.
type Discriminator struct {
	PropertyName string            `json:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty"`
}

// Clone returns a deep copy of the object-level parts of s (properties,
// required, oneOf). Leaf values such as Const/Default are shared.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	if s.Properties != nil {
		out.Properties = make(map[string]*Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v.Clone()
		}
	}
	if s.Required != nil {
		out.Required = append([]string{}, s.Required...)
	}
	out.Items = s.Items.Clone()
	if s.OneOf != nil {
		out.OneOf = make([]*Schema, len(s.OneOf))
		for i, v := range s.OneOf {
			out.OneOf[i] = v.Clone()
		}
	}
	if s.Discriminator != nil {
		d := *s.Discriminator
		if d.Mapping != nil {
			d.Mapping = make(map[string]string, len(s.Discriminator.Mapping))
			for k, v := range s.Discriminator.Mapping {
				d.Mapping[k] = v
			}
		}
		out.Discriminator = &d
	}
	return &out
}
