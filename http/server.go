// Package http is a thin layer over net/http: handlers return a Result and an
// error, and errors are answered with a status derived from their kind.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/httpmiddlewares"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// json decodes numbers into any as json.Number, so large integers survive
// binding untouched.
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

type Result struct {
	Body   any
	Status int
	Header http.Header
}

// ErrorBody is what a failed handler answers with.
type ErrorBody struct {
	Error string      `json:"error"`
	Kind  errors.Kind `json:"kind,omitempty"`
}

type Request struct {
	*http.Request
}

// Bind fills v's fields tagged `query:"..."` and `path:"..."` from the URL
// and then decodes the body into v.
func (r *Request) Bind(v any) error {
	rvPtr := reflect.ValueOf(v)
	if rvPtr.Kind() != reflect.Ptr || rvPtr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("input should be a pointer to a struct for Bind")
	}
	rv := rvPtr.Elem()
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		qp := rt.Field(i).Tag.Get("query")
		if qp == "" {
			continue
		}
		q := r.URL.Query().Get(qp)
		if q == "" {
			continue
		}
		if err := setWithProperType(q, rv.Field(i)); err != nil {
			return errors.E(errors.KindInvalidArgument, "query parameter %s: %w", qp, err)
		}
	}
	for i := 0; i < rv.NumField(); i++ {
		pp := rt.Field(i).Tag.Get("path")
		if pp == "" {
			continue
		}
		q := r.PathValue(pp)
		if q == "" {
			continue
		}
		if err := setWithProperType(q, rv.Field(i)); err != nil {
			return errors.E(errors.KindInvalidArgument, "path parameter %s: %w", pp, err)
		}
	}

	return r.BindBody(v)
}

// BindBody decodes a JSON body into v. An empty body leaves v untouched.
func (r *Request) BindBody(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return fmt.Errorf("input should be a pointer for Bind")
	}
	contentType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	if contentType == "" {
		contentType = "application/json"
	}
	switch strings.TrimSpace(contentType) {
	case "application/json":
		err := json.NewDecoder(r.Body).Decode(v)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.E(errors.KindInvalidArgument, "cannot decode request body: %w", err)
		}
		return nil
	default:
		return errors.E(errors.KindInvalidArgument, "Content-Type '%s' is not supported", contentType)
	}
}

func setWithProperType(value string, field reflect.Value) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// StatusFor maps an error's kind to an HTTP status.
func StatusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindInvalidArgument:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type HandlerFunc func(*Request) (Result, error)

func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := h(&Request{r})
	if err != nil {
		status := res.Status
		if status == 0 {
			status = StatusFor(err)
		}
		level := slog.LevelWarn
		if status >= 500 {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "error in http handler",
			"uri", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", status,
			"err", err,
		)
		res = Result{Status: status, Header: res.Header, Body: ErrorBody{Error: err.Error(), Kind: errors.KindOf(err)}}
	}
	if res.Status == 0 {
		res.Status = http.StatusOK
	}

	for k, vs := range res.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	switch body := res.Body.(type) {
	case nil:
		w.WriteHeader(res.Status)
	case io.Reader:
		w.WriteHeader(res.Status)
		io.Copy(w, body)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(res.Status)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("error in writing response to ResponseWriter", "err", err)
		}
	}
}

type ServeMux struct {
	*http.ServeMux
	middlewares []httpmiddlewares.Middleware
}

func NewServeMux() *ServeMux {
	return &ServeMux{ServeMux: http.NewServeMux()}
}

// UseMiddlewares applies middlewares to every route registered afterwards.
func (s *ServeMux) UseMiddlewares(middlewares ...httpmiddlewares.Middleware) {
	s.middlewares = append(s.middlewares, middlewares...)
}

func (s *ServeMux) MapPrometheusEndpoint(path string, g prometheus.Gatherer) {
	s.Handle("GET "+path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

func (s *ServeMux) Handle(pattern string, handler http.Handler, middlewares ...httpmiddlewares.Middleware) {
	handler = httpmiddlewares.Chain(append(s.middlewares, middlewares...)...)(handler)
	s.ServeMux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, httpmiddlewares.WithPattern(r, pattern))
	}))
}

// HandleFunc registers handler, which must be one of
//
//	func(*Request) (Result, error)
//	func(http.ResponseWriter, *Request)
//	func(*Request, *INPUT) (OUTPUT, error)
//
// In the last form INPUT is filled by Request.Bind and OUTPUT is encoded as
// JSON.
func (s *ServeMux) HandleFunc(pattern string, handler any, middlewares ...httpmiddlewares.Middleware) {
	t := reflect.TypeOf(handler)
	v := reflect.ValueOf(handler)
	if t == nil || t.Kind() != reflect.Func {
		panic("handler input of HandleFunc should be a function type")
	}

	switch handler := handler.(type) {
	case func(*Request) (Result, error):
		s.Handle(pattern, HandlerFunc(handler), middlewares...)
		return
	case func(http.ResponseWriter, *Request):
		s.Handle(pattern, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			handler(rw, &Request{r})
		}), middlewares...)
		return
	}

	if t.NumIn() != 2 || t.NumOut() != 2 {
		panic(fmt.Sprintf("%T is not supported, input of HandleFunc should be either:\n%s\n%s\n%s\n", handler, "func(*http.Request) (Result, error)", "func(http.ResponseWriter, *http.Request)", "func(*http.Request, INPUTTYPE) (OUTPUTTYPE, error)"))
	}
	if t.In(0) != reflect.TypeOf(&Request{}) {
		panic("first input of handler should be *http.Request, got " + t.In(0).String())
	}
	if t.In(1).Kind() != reflect.Ptr {
		panic("second input of handler should be a pointer, got " + t.In(1).String())
	}
	if t.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
		panic("second output of handler should be error")
	}

	s.Handle(pattern, HandlerFunc(func(r *Request) (Result, error) {
		req := reflect.New(t.In(1).Elem())
		err := r.Bind(req.Interface())
		if err != nil {
			return Result{}, err
		}
		res := v.Call([]reflect.Value{reflect.ValueOf(r), req})
		if errI := res[1].Interface(); errI != nil {
			return Result{}, errI.(error)
		}
		return Result{Body: res[0].Interface()}, nil
	}), middlewares...)
}
