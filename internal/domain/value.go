package domain

// NoData is the sentinel used for an absent or unextractable signal.
// It is distinct from the empty string.
const NoData = "no data"

// Value is an optional string. The zero Value is absent.
type Value struct {
	text    string
	present bool
}

// Some wraps a present string, which may be empty.
func Some(s string) Value {
	return Value{text: s, present: true}
}

// None returns an absent value.
func None() Value {
	return Value{}
}

// Present reports whether the value exists.
func (v Value) Present() bool {
	return v.present
}

// Text returns the wrapped string and whether it is present.
func (v Value) Text() (string, bool) {
	return v.text, v.present
}

// Or returns the wrapped string, or fallback when absent.
func (v Value) Or(fallback string) string {
	if !v.present {
		return fallback
	}
	return v.text
}
