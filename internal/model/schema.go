package model

// Kind is the JSON type a field must carry.
type Kind int

const (
	KindString  Kind = iota // JSON string
	KindNumber              // any JSON number
	KindInteger             // JSON number with no fractional part
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	}
	return "string"
}

// IDPolicy decides where an entity's identifier comes from.
type IDPolicy int

const (
	// CallerSupplied requires the identifier in the request body.
	CallerSupplied IDPolicy = iota
	// Generated always mints "<Collection><N>" from the collection's
	// counter; a supplied identifier is ignored.
	Generated
	// OptionalGenerated uses the supplied identifier when present and
	// mints one otherwise.
	OptionalGenerated
)

// Field describes one attribute of a collection.
//
// Fields:
//  Name     – JSON key in the request body and in the stored document.
//  Kind     – required JSON type.
//  Required – create fails when the key is missing or null.
//  Ref      – target collection when the field references another entity.
//  Rules    – go-playground/validator tag applied to the value, e.g.
//             "email" or "gte=0".
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Ref      string
	Rules    string
}

// IsRef reports whether the field holds a reference.
func (f Field) IsRef() bool { return f.Ref != "" }

// Schema is the full description of a collection: its name, identity
// field, identity policy and attributes.  Entity services are generic over
// Schema so that each collection is a table row rather than a type.
type Schema struct {
	Collection string
	IDField    string
	IDPolicy   IDPolicy
	Fields     []Field
}

// Field looks up an attribute by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// References returns the attributes that point at other collections.
func (s Schema) References() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.IsRef() {
			out = append(out, f)
		}
	}
	return out
}

// Sequence is the counter name used to mint identifiers.
func (s Schema) Sequence() string { return s.Collection }

// Schemas lists every collection served by the API in registration order.
func Schemas() []Schema {
	return []Schema{Film, Theatre, Screening, Booking, Ticket, TicketType}
}

// Lookup finds a schema by collection name.
func Lookup(collection string) (Schema, bool) {
	for _, s := range Schemas() {
		if s.Collection == collection {
			return s, true
		}
	}
	return Schema{}, false
}
