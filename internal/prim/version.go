package prim

import (
	"strconv"
	"strings"

	"github.com/elemjson/elemjson/internal/jsonerr"
	"github.com/elemjson/elemjson/internal/reader"
	"github.com/elemjson/elemjson/internal/sym"
	"github.com/elemjson/elemjson/internal/writer"
)

// Version is a `major.minor[.build[.revision]]` value.
// Build and Revision are -1 when absent from the source text.
type Version struct {
	Major, Minor, Build, Revision int
}

// ParseVersion parses the 2-, 3-, or 4-component grammar.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return Version{}, jsonerr.ErrInvalidVersion
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, jsonerr.ErrInvalidVersion
		}
		nums[i] = n
	}
	v := Version{Build: -1, Revision: -1}
	v.Major, v.Minor = nums[0], nums[1]
	if len(nums) > 2 {
		v.Build = nums[2]
	}
	if len(nums) > 3 {
		v.Revision = nums[3]
	}
	return v, nil
}

// Format renders v with exactly the components it was parsed with
// (Build/Revision omitted when -1).
func (v Version) Format() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(v.Major))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.Minor))
	if v.Build >= 0 {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(v.Build))
	}
	if v.Revision >= 0 {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(v.Revision))
	}
	return b.String()
}

// WriteVersion writes v in its canonical dotted form.
func WriteVersion[S sym.Symbol](w *writer.Writer[S], v Version) {
	w.WriteString(v.Format())
}

// ReadVersion reads the current TokenString as a Version.
func ReadVersion[S sym.Symbol](r *reader.Reader[S]) (Version, error) {
	s, err := r.StringValue()
	if err != nil {
		return Version{}, err
	}
	v, perr := ParseVersion(s)
	if perr != nil {
		return Version{}, jsonerr.ErrInvalidVersion.At(r.Offset())
	}
	return v, nil
}
