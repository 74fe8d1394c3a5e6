package validation

// FieldSchema names a field and the ordered rules applied to it.
type FieldSchema struct {
	Name  string
	Rules []Rule
}

// FormSchema is an ordered list of field schemas. Evaluation order is the
// schema order, deterministically.
type FormSchema struct {
	Fields []FieldSchema
}

func (s FormSchema) field(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// ValidateField runs the field's rules against the resolved value. Pure and
// synchronous. Unknown fields validate clean.
func ValidateField(name string, value any, schema FormSchema) Result {
	field, ok := schema.field(name)
	if !ok {
		return Result{}
	}
	var result Result
	for _, rule := range field.Rules {
		result.merge(rule(value))
	}
	return result
}

// FormResult aggregates per-field results in schema order.
type FormResult struct {
	Fields map[string]Result
	Order  []string
}

// Valid reports whether no field carries an error.
func (r FormResult) Valid() bool {
	for _, result := range r.Fields {
		if !result.Valid() {
			return false
		}
	}
	return true
}

// ValidateForm validates every schema field against the given values.
func ValidateForm(values map[string]any, schema FormSchema) FormResult {
	result := FormResult{Fields: make(map[string]Result, len(schema.Fields))}
	for _, field := range schema.Fields {
		result.Fields[field.Name] = ValidateField(field.Name, values[field.Name], schema)
		result.Order = append(result.Order, field.Name)
	}
	return result
}
