package prim

import (
	"github.com/google/uuid"

	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/writer"
)

// WriteGUID writes u in the 36-char hyphenated form.
func WriteGUID[S sym.Symbol](w *writer.Writer[S], u uuid.UUID) {
	w.WriteString(u.String())
}

// ReadGUID reads the current TokenString as a 36-char hyphenated GUID,
// delegating grammar and byte layout to google/uuid.
func ReadGUID[S sym.Symbol](r *reader.Reader[S]) (uuid.UUID, error) {
	s, err := r.StringValue()
	if err != nil {
		return uuid.UUID{}, err
	}
	u, perr := uuid.Parse(s)
	if perr != nil {
		return uuid.UUID{}, jsonerr.ErrInvalidGUID.At(r.Offset())
	}
	return u, nil
}
