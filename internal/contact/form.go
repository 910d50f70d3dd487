// Package contact holds the contact form controller: field state, validation,
// the verification gate and the submission lifecycle.
package contact

// Field identifies one of the four contact form inputs.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldSubject
	FieldMessage
)

var fieldNames = [...]string{
	FieldName:    "name",
	FieldEmail:   "email",
	FieldSubject: "subject",
	FieldMessage: "message",
}

// Fields returns every field in form order.
func Fields() []Field {
	return []Field{FieldName, FieldEmail, FieldSubject, FieldMessage}
}

// ParseField maps a wire name ("name", "email", ...) to its Field.
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

func (f Field) Valid() bool {
	return f >= FieldName && f <= FieldMessage
}

func (f Field) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return fieldNames[f]
}

// MarshalText lets Errors encode with wire names as JSON keys.
func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Form is the current value of every field.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Value returns the value held for field.
func (f Form) Value(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldSubject:
		return f.Subject
	case FieldMessage:
		return f.Message
	}
	return ""
}

func (f *Form) set(field Field, value string) {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldSubject:
		f.Subject = value
	case FieldMessage:
		f.Message = value
	}
}

// Errors maps a field to its validation message. A missing key means the
// field passed.
type Errors map[Field]string

// Get returns the message for field, or "" if it is valid.
func (e Errors) Get(field Field) string {
	return e[field]
}

// Any reports whether at least one field failed.
func (e Errors) Any() bool {
	return len(e) > 0
}

// ByName keys the errors by wire name, for templates and JSON.
func (e Errors) ByName() map[string]string {
	out := make(map[string]string, len(e))
	for f, msg := range e {
		out[f.String()] = msg
	}
	return out
}

func (e Errors) clone() Errors {
	out := make(Errors, len(e))
	for f, msg := range e {
		out[f] = msg
	}
	return out
}
