package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// requestDecoder chains body handling steps for a handler. The first
// failing step records a status and message; later steps are skipped and
// RespondError writes the failure.
type requestDecoder struct {
	s      *Server
	w      http.ResponseWriter
	r      *http.Request
	status int
	err    error
}

func (s *Server) newRequestDecoder(w http.ResponseWriter, r *http.Request) *requestDecoder {
	return &requestDecoder{s: s, w: w, r: r}
}

func (rd *requestDecoder) failed() bool { return rd.err != nil }

// DecodeJSON strictly decodes the body into v: unknown fields and anything
// after the first value are errors.
func (rd *requestDecoder) DecodeJSON(v any) *requestDecoder {
	if rd.failed() {
		return rd
	}
	dec := json.NewDecoder(rd.r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		rd.readFailed(err)
		return rd
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		rd.readFailed(errors.New("unexpected data after JSON body"))
	}
	return rd
}

// ReadAll stores the raw body in out.
func (rd *requestDecoder) ReadAll(out *[]byte) *requestDecoder {
	if rd.failed() {
		return rd
	}
	data, err := io.ReadAll(rd.r.Body)
	if err != nil {
		rd.readFailed(err)
		return rd
	}
	*out = data
	return rd
}

// Validate turns an error from fn into a 400.
func (rd *requestDecoder) Validate(fn func() error) *requestDecoder {
	if rd.failed() {
		return rd
	}
	if err := fn(); err != nil {
		rd.status, rd.err = http.StatusBadRequest, err
	}
	return rd
}

func (rd *requestDecoder) readFailed(err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		rd.status = http.StatusRequestEntityTooLarge
		rd.err = fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		return
	}
	rd.status = http.StatusBadRequest
	rd.err = fmt.Errorf("invalid request body: %w", err)
}

// RespondError writes the recorded failure, if any, and reports whether it
// did.
func (rd *requestDecoder) RespondError() bool {
	if !rd.failed() {
		return false
	}
	rd.s.respondError(rd.w, rd.status, rd.err.Error())
	return true
}
