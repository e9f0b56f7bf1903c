package lrclient

import (
	"encoding/json"
	"io"
	"net/http"
)

// An LRError reprensents an HTTP error returned by lorepo server.
type LRError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"errors"`
	Tag        string `json:"tag"`
}

func parseLRError(r io.Reader, code int) error {
	lrerr := LRError{StatusCode: code}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&lrerr); err != nil {
		lrerr.Message = http.StatusText(code)
	}
	return &lrerr
}

func (e *LRError) Error() string {
	return e.Message
}
