package calomeal

import (
	"context"
	"io"
	"net/http"
)

type subjectKey struct{}

// WithSubject binds the subject whose credentials authorize requests made with ctx.
func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subjectID)
}

func subjectFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok && s != ""
}

// Transport adds the subject's bearer token to each request. A 401 triggers
// one forced refresh and one retry; a second 401 is returned as is.
type Transport struct {
	Source TokenSource
	Base   http.RoundTripper
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	subject, ok := subjectFrom(ctx)
	if !ok {
		return nil, ErrNoToken
	}
	token, err := t.Source.Token(ctx, subject)
	if err != nil {
		return nil, err
	}

	r := cloneRequest(req)
	r.Header.Set("Authorization", "Bearer "+token)
	resp, err := t.base().RoundTrip(r)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// The body can only be replayed when the request knows how to rebuild it.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token, err = t.Source.ForceRefresh(ctx, subject)
	if err != nil {
		return nil, err
	}
	r = cloneRequest(req)
	if req.GetBody != nil {
		if r.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return t.base().RoundTrip(r)
}

// cloneRequest returns a shallow copy of r with its own header map.
func cloneRequest(r *http.Request) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.Header = make(http.Header, len(r.Header))
	for k, s := range r.Header {
		r2.Header[k] = append([]string(nil), s...)
	}
	return r2
}
