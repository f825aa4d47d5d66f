package request

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mcncl/skjson/internal/errors"
)

// Method is a supported request method
type Method int

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodPatch
	// MethodMock builds a request that is never sent
	MethodMock
)

var methodNames = map[Method]string{
	MethodGet:    http.MethodGet,
	MethodPost:   http.MethodPost,
	MethodPut:    http.MethodPut,
	MethodDelete: http.MethodDelete,
	MethodHead:   http.MethodHead,
	MethodPatch:  http.MethodPatch,
	MethodMock:   "MOCK",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts a method name, ignoring case
func ParseMethod(s string) (Method, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == upper {
			return m, nil
		}
	}
	return 0, errors.NewHTTPError(fmt.Sprintf("unknown request method '%s'", s), errors.ErrHTTP)
}

// acceptsBody reports whether the JSON content is sent with the method
func (m Method) acceptsBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// acceptsAttachments reports whether attachments switch the body to multipart
func (m Method) acceptsAttachments() bool {
	return m == MethodPost || m == MethodPut
}
