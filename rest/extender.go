package rest

import (
	"bytes"
	"net/http"
)

// Extender is a hook the Builder runs while it assembles a request.
//
// RequiresBody reports whether ExtendRequest needs the serialized body. It must
// not have side effects: the Builder may call it several times per build.
//
// ExtendRequest mutates the draft request in place. req carries the verb
// (req.Method), the URL and the headers; its body is not attached yet. body is
// non-nil only when the body was materialized because this or another extender
// required it. Returning an error aborts the whole build.
//
// The Builder locates registered extenders by identity, so implementations must
// be comparable (pointer types in practice).
type Extender interface {
	RequiresBody() bool
	ExtendRequest(req *http.Request, body *bytes.Buffer) error
}

func anyRequiresBody(extenders []Extender) bool {
	for _, ext := range extenders {
		if ext.RequiresBody() {
			return true
		}
	}
	return false
}
