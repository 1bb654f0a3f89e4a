package serializers

import (
	"errors"
	"net/http"

	"feedflow/internal/services"
)

// Problem is the error body returned to API clients.
type Problem struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

var statusByKind = map[services.Kind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindForbidden:  http.StatusForbidden,
	services.KindNotFound:   http.StatusNotFound,
	services.KindConflict:   http.StatusConflict,
	services.KindCascade:    http.StatusInternalServerError,
	services.KindInternal:   http.StatusInternalServerError,
}

// NewProblem maps err to a stable status and code. Server-side failures never
// expose their cause.
func NewProblem(err error) Problem {
	kind := services.KindOf(err)
	p := Problem{Status: statusByKind[kind], Code: kind.String()}

	var e *services.Error
	switch {
	case kind == services.KindInternal || kind == services.KindCascade:
		p.Detail = http.StatusText(p.Status)
	case errors.As(err, &e) && e.Msg != "":
		p.Detail = e.Msg
	default:
		p.Detail = kind.String()
	}
	return p
}
