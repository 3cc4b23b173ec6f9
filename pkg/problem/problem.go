// Package problem holds the typed failures surfaced to API callers.
// Every variant renders as an RFC 7807 style document:
//
//	{"type": "...", "title": "...", "status": 404, "detail": "...", "instance": "...", ...extra}
package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable machine-readable tag API consumers branch on.
type Kind string

const (
	KindNotFound           Kind = "not-found"
	KindConflict           Kind = "conflict"
	KindInternal           Kind = "internal-server-error"
	KindRoleNotFound       Kind = "role-not-found"
	KindEmailAlreadyExists Kind = "email-already-exists"
	KindInvalidPayload     Kind = "invalid-payload"
	KindRateLimited        Kind = "rate-limited"
)

const defaultInternalDetail = "Unexpected server error."

// Problem is a closed set of failure variants, distinguished by Kind.
type Problem struct {
	Kind     Kind
	Title    string
	Status   int
	Detail   string
	Instance string
	Extra    map[string]any
}

func (p *Problem) Error() string {
	return fmt.Sprintf("%s (%d): %s", p.Kind, p.Status, p.Detail)
}

// WithInstance returns a copy of p bound to the given request identifier.
func (p *Problem) WithInstance(instance string) *Problem {
	cp := *p
	cp.Instance = instance
	return &cp
}

// Map flattens p into the wire document. Extra keys never override the
// standard members.
func (p *Problem) Map() map[string]any {
	out := make(map[string]any, 5+len(p.Extra))
	for k, v := range p.Extra {
		out[k] = v
	}
	out["type"] = string(p.Kind)
	out["title"] = p.Title
	out["status"] = p.Status
	out["detail"] = p.Detail
	if p.Instance != "" {
		out["instance"] = p.Instance
	} else {
		delete(out, "instance")
	}
	return out
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// NotFound builds a 404. An empty kind falls back to KindNotFound.
func NotFound(detail string, kind Kind, extra map[string]any) *Problem {
	if kind == "" {
		kind = KindNotFound
	}
	return &Problem{Kind: kind, Title: "Resource not found", Status: http.StatusNotFound, Detail: detail, Extra: extra}
}

// Conflict builds a 409. An empty kind falls back to KindConflict.
func Conflict(detail string, kind Kind, extra map[string]any) *Problem {
	if kind == "" {
		kind = KindConflict
	}
	return &Problem{Kind: kind, Title: "Resource conflict", Status: http.StatusConflict, Detail: detail, Extra: extra}
}

// Internal builds the generic 500. It never carries internal detail unless
// the caller passes one explicitly.
func Internal(detail string) *Problem {
	if detail == "" {
		detail = defaultInternalDetail
	}
	return &Problem{Kind: KindInternal, Title: "Internal server error", Status: http.StatusInternalServerError, Detail: detail}
}

func RoleNotFound(roleID int64) *Problem {
	return NotFound(fmt.Sprintf("Role with id '%d' was not found", roleID), KindRoleNotFound, map[string]any{"role_id": roleID})
}

func EmailAlreadyExists(email string) *Problem {
	return Conflict(fmt.Sprintf("Email '%s' is already registered", email), KindEmailAlreadyExists, map[string]any{"email": email})
}

// InvalidPayload is a 422 carrying per-field messages under "errors".
func InvalidPayload(details map[string]string) *Problem {
	return &Problem{
		Kind:   KindInvalidPayload,
		Title:  "Invalid payload",
		Status: http.StatusUnprocessableEntity,
		Detail: "Request body failed validation.",
		Extra:  map[string]any{"errors": details},
	}
}

func RateLimited(retryAfterSec int) *Problem {
	return &Problem{
		Kind:   KindRateLimited,
		Title:  "Too many requests",
		Status: http.StatusTooManyRequests,
		Detail: "Rate limit exceeded, retry later.",
		Extra:  map[string]any{"retry_after": retryAfterSec},
	}
}

// From extracts a Problem from err. Anything else becomes the generic
// internal error; the second result reports whether err was a Problem.
func From(err error) (*Problem, bool) {
	var p *Problem
	if errors.As(err, &p) {
		return p, true
	}
	return Internal(""), false
}

// Is reports whether err carries a Problem of the given kind.
func Is(err error, kind Kind) bool {
	var p *Problem
	if errors.As(err, &p) {
		return p.Kind == kind
	}
	return false
}
