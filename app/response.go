package app

import (
	"bytes"
	"net/http"
)

// Response buffers what a view writes so after handlers and error
// handlers can change it before it reaches the client.
type Response struct {
	StatusCode int
	Body       bytes.Buffer

	header      http.Header
	wroteHeader bool
	handled     bool
}

func newResponse() *Response {
	return &Response{StatusCode: http.StatusOK, header: http.Header{}}
}

func (r *Response) Header() http.Header {
	return r.header
}

func (r *Response) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.StatusCode = code
	r.wroteHeader = true
}

func (r *Response) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(r.StatusCode)
	}
	return r.Body.Write(b)
}

// reset discards the body and headers, keeping cookies, so that an error
// handler can write a fresh response with code as its default status.
func (r *Response) reset(code int) {
	cookies := r.header.Values("Set-Cookie")
	r.header = http.Header{}
	for _, c := range cookies {
		r.header.Add("Set-Cookie", c)
	}
	r.Body.Reset()
	r.StatusCode = code
	r.wroteHeader = false
}

func (r *Response) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range r.header {
		// Cookies set by outer middleware stay alongside the view's.
		if k == "Set-Cookie" {
			dst[k] = append(dst[k], v...)
			continue
		}
		dst[k] = v
	}
	w.WriteHeader(r.StatusCode)
	w.Write(r.Body.Bytes())
}
