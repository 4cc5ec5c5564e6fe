// Package gitkit provides typed, safe Git repository operations over go-git.
// This file contains the translation of engine failures into the closed
// error taxonomy defined in errors.go.
package gitkit

import (
	"errors"
	"net"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// errCtx carries call-site context into translation. The fallback kind is
// used when classification finds neither a known engine sentinel nor an
// authentication signal, so each operation fails as itself ("push failed",
// "pull failed") rather than as a generic error.
type errCtx struct {
	fallback Kind

	path   string
	key    string
	remote string
	branch string
	target string
}

// fail builds a taxonomy error of a known kind. Used when the call site
// already knows what failed (HEAD lookup, index access, tree write) and no
// classification is wanted.
func fail(kind Kind, cause error, c errCtx) *Error {
	e := &Error{
		Kind:   kind,
		Path:   c.path,
		Key:    c.key,
		Remote: c.remote,
		Branch: c.branch,
		Target: c.target,
		cause:  cause,
	}
	if cause != nil {
		e.Detail = cause.Error()
		e.Code = statusCode(cause.Error())
	}
	return e
}

// translate classifies an engine failure into the taxonomy: well-known
// sentinels first, then the authentication message heuristic, then the call
// site's fallback kind. Translating nil returns nil; translating an already
// classified *Error returns it unchanged, so translation is idempotent.
func translate(cause error, c errCtx) *Error {
	if cause == nil {
		return nil
	}

	var already *Error
	if errors.As(cause, &already) {
		return already
	}

	kind, code := classify(cause)
	if kind == KindOperationFailed && c.fallback != KindOperationFailed {
		kind = c.fallback
	}

	return &Error{
		Kind:   kind,
		Path:   c.path,
		Key:    c.key,
		Remote: c.remote,
		Branch: c.branch,
		Target: c.target,
		Code:   code,
		Detail: cause.Error(),
		cause:  cause,
	}
}

// classify maps an engine error to a taxonomy kind. Sentinel checks come
// first; the message heuristic only runs when no sentinel matched, because
// the engine does not surface a distinct sentinel for every authentication
// failure over network transports. The heuristic is best-effort
// classification, not a security boundary.
func classify(err error) (Kind, int) {
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists),
		errors.Is(err, transport.ErrRepositoryNotFound):
		return KindRepositoryNotFound, 0

	case errors.Is(err, git.ErrRemoteNotFound):
		return KindRemoteNotFound, 0

	case errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, plumbing.ErrObjectNotFound):
		return KindInvalidReference, 0

	case errors.Is(err, git.ErrEmptyCommit):
		return KindNothingToCommit, 0

	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, ErrNoCredential):
		return KindAuthentication, statusCode(err.Error())
	}

	msg := err.Error()
	if code := statusCode(msg); isAuthMessage(msg) {
		return KindAuthentication, code
	} else if code != 0 {
		return KindNetwork, code
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork, 0
	}

	return KindOperationFailed, 0
}

// authKeywords is the fixed keyword list used to reclassify generic network
// failures as authentication errors. Matching is case-insensitive substring
// matching over the whole message.
var authKeywords = []string{
	"authentication",
	"auth",
	"credential",
	"permission",
	"denied",
	"unauthorized",
	"401",
	"403",
	"forbidden",
}

func isAuthMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range authKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// statusCode extracts a trailing HTTP status from messages shaped like the
// engine's "... status code: 403". Returns zero when no status is present.
func statusCode(msg string) int {
	const marker = "status code: "

	i := strings.LastIndex(strings.ToLower(msg), marker)
	if i < 0 {
		return 0
	}

	code := 0
	for _, r := range msg[i+len(marker):] {
		if r < '0' || r > '9' {
			break
		}
		code = code*10 + int(r-'0')
	}
	return code
}
