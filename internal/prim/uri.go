package prim

import (
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/writer"
)

// URI is a named string type identifying a member dispatched through
// the URI codec rather than through the plain string
// formatter, giving it a distinct type identity in internal/formatter's
// dispatch even though the wire representation is identical to a string.
type URI string

// WriteURI writes u verbatim as a JSON string: a URI is stored as its
// string form, subject to the string codec.
func WriteURI[S sym.Symbol](w *writer.Writer[S], u string) {
	w.WriteString(u)
}

// ReadURI reads the current TokenString as a URI's string form. No
// further grammar is imposed beyond the string codec itself.
func ReadURI[S sym.Symbol](r *reader.Reader[S]) (string, error) {
	return r.StringValue()
}
