// Package rest builds HTTP requests against a base URL and runs a chain of
// request extenders while doing so.
//
// A Builder collects the verb, path segments, query parameters, headers and a
// logical body. Build turns that into an *http.Request; Send also executes it.
// Extenders registered with AddExtender are invoked in order on every build
// and may rewrite the verb, URL and headers. The body is serialized before the
// extenders run only if one of them reports RequiresBody, and never more than
// once per build.
//
//	req, err := rest.NewBuilder("https://api.example.com", nil).
//	    SetVerb(http.MethodPost).
//	    AddPath("items").
//	    SetJSONBody(item).
//	    AddExtender(signer).
//	    Build(ctx)
package rest
