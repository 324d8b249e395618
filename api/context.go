package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	jsoniter "github.com/json-iterator/go"
)

type ContextFn func(ctx Context)

var (
	json    = jsoniter.ConfigCompatibleWithStandardLibrary
	decoder = newQueryDecoder()
)

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type Context interface {
	Created() Context
	NoContent() Context
	BadRequest() Context
	NotFound() Context
	RequestEntityTooLarge() Context
	InternalError() Context

	RequestContext() context.Context

	ResponseWriter() http.ResponseWriter
	Request() *http.Request

	Bind(interface{}) error
	BindQuery(i interface{}) error

	ParamInt(key string) (int, error)

	JSON(interface{}) error
	// StatusJSON writes the content type before the status line so error bodies keep it.
	StatusJSON(code int, i interface{}) error
}

type ctx struct {
	writer  http.ResponseWriter
	request *http.Request
}

func (c ctx) status(code int) Context {
	c.writer.WriteHeader(code)
	return c
}

func (c ctx) Created() Context {
	return c.status(http.StatusCreated)
}

func (c ctx) NoContent() Context {
	return c.status(http.StatusNoContent)
}

func (c ctx) BadRequest() Context {
	return c.status(http.StatusBadRequest)
}

func (c ctx) NotFound() Context {
	return c.status(http.StatusNotFound)
}

func (c ctx) RequestEntityTooLarge() Context {
	return c.status(http.StatusRequestEntityTooLarge)
}

func (c ctx) InternalError() Context {
	return c.status(http.StatusInternalServerError)
}

// Bind reads the whole body before decoding so body limit errors reach the caller untouched.
func (c ctx) Bind(i interface{}) error {
	data, err := io.ReadAll(c.request.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, i)
}

func (c ctx) BindQuery(i interface{}) error {
	values := c.request.URL.Query()
	if len(values) == 0 {
		return nil
	}

	return decoder.Decode(i, values)
}

func (c ctx) ResponseWriter() http.ResponseWriter {
	return c.writer
}

func (c ctx) Request() *http.Request {
	return c.request
}

func (c ctx) ParamInt(key string) (int, error) {
	return strconv.Atoi(chi.URLParam(c.request, key))
}

func (c ctx) JSON(i interface{}) error {
	c.writer.Header().Set("Content-Type", "application/json")

	b, err := json.Marshal(i)
	if err != nil {
		return err
	}

	_, err = c.writer.Write(b)

	return err
}

func (c ctx) StatusJSON(code int, i interface{}) error {
	b, err := json.Marshal(i)
	if err != nil {
		return err
	}

	c.writer.Header().Set("Content-Type", "application/json")
	c.writer.WriteHeader(code)

	_, err = c.writer.Write(b)

	return err
}

func (c ctx) RequestContext() context.Context {
	return c.request.Context()
}
