// Package testutil provides an in-memory incident API and helpers for
// exercising the console against it.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// maxReported caps how much of a body or error ends up in a test failure.
const maxReported = 300

// Contract checks exchanges with the incident API against its OpenAPI document.
type Contract struct {
	router routers.Router
}

// Exchange is one recorded request/response pair.
type Exchange struct {
	Method      string
	Path        string
	Query       string
	Header      http.Header
	RequestBody []byte

	Status       int
	RespHeader   http.Header
	ResponseBody []byte
}

// LoadContract parses and validates the document at path.
func LoadContract(path string) (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load contract %s: %w", path, err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid contract: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build contract router: %w", err)
	}
	return &Contract{router: router}, nil
}

// MustLoadContract is LoadContract for tests.
func MustLoadContract(t testing.TB, path string) *Contract {
	t.Helper()

	c, err := LoadContract(path)
	if err != nil {
		t.Fatalf("%v", err)
	}
	return c
}

// Check reports every mismatch between ex and the contract as a test error.
// Paths outside /api/ are not covered by the contract and are ignored.
func (c *Contract) Check(t testing.TB, ex Exchange) {
	t.Helper()

	if !strings.HasPrefix(ex.Path, "/api/") {
		return
	}

	input, err := c.requestInput(ex)
	if err != nil {
		t.Errorf("contract: %s %s: %v", ex.Method, ex.Path, err)
		return
	}

	opts := &openapi3filter.Options{MultiError: true}
	input.Options = opts
	if err := openapi3filter.ValidateRequest(context.Background(), input); err != nil {
		t.Errorf("contract: request %s %s: %s", ex.Method, ex.Path, clip(err.Error()))
	}

	resp := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 ex.Status,
		Header:                 ex.RespHeader,
		Body:                   io.NopCloser(bytes.NewReader(ex.ResponseBody)),
		Options:                opts,
	}
	if err := openapi3filter.ValidateResponse(context.Background(), resp); err != nil {
		t.Errorf("contract: response %s %s (%d): %s\nbody: %s",
			ex.Method, ex.Path, ex.Status, clip(err.Error()), clip(string(ex.ResponseBody)))
	}
}

// requestInput rebuilds the request relative to the document's server root
// and resolves its operation.
func (c *Contract) requestInput(ex Exchange) (*openapi3filter.RequestValidationInput, error) {
	target := ex.Path
	if ex.Query != "" {
		target += "?" + ex.Query
	}
	req, err := http.NewRequest(ex.Method, target, bytes.NewReader(ex.RequestBody))
	if err != nil {
		return nil, err
	}
	req.Header = ex.Header.Clone()

	route, params, err := c.router.FindRoute(req)
	if err != nil {
		return nil, fmt.Errorf("no operation: %w", err)
	}
	return &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: params,
		Route:      route,
	}, nil
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxReported {
		return s[:maxReported] + "..."
	}
	return s
}
