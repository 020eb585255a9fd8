package errx

import (
	"fmt"
	"sort"
	"sync"
)

// ErrorCode is a catalogued error: a stable code plus its defaults.
type ErrorCode struct {
	Code       string
	Type       Type
	HTTPStatus int
	Message    string
}

// Registry is the code catalogue of one module. Codes are prefixed with the
// module name, e.g. MARKET_BID_NOT_FOUND.
type Registry struct {
	prefix string
	mu     sync.RWMutex
	codes  map[string]*ErrorCode
}

var (
	registriesMu sync.Mutex
	registries   []*Registry
)

// NewRegistry creates a registry and adds it to the process-wide catalogue.
func NewRegistry(prefix string) *Registry {
	r := &Registry{prefix: prefix, codes: make(map[string]*ErrorCode)}

	registriesMu.Lock()
	registries = append(registries, r)
	registriesMu.Unlock()
	return r
}

// Registries returns every registry created so far.
func Registries() []*Registry {
	registriesMu.Lock()
	defer registriesMu.Unlock()
	return append([]*Registry(nil), registries...)
}

func (r *Registry) Prefix() string { return r.prefix }

// Register catalogues code. A zero httpStatus takes the type's default.
// Registering the same code twice is a programming error and panics.
func (r *Registry) Register(code string, errType Type, httpStatus int, message string) *ErrorCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.codes[code]; dup {
		panic(fmt.Sprintf("errx: %s_%s registered twice", r.prefix, code))
	}
	if httpStatus == 0 {
		httpStatus = errType.HTTPStatus()
	}

	ec := &ErrorCode{
		Code:       r.prefix + "_" + code,
		Type:       errType,
		HTTPStatus: httpStatus,
		Message:    message,
	}
	r.codes[code] = ec
	return ec
}

func (r *Registry) New(code *ErrorCode) *Error {
	return r.NewWithMessage(code, code.Message)
}

// NewWithMessage overrides the catalogued message, keeping the code.
func (r *Registry) NewWithMessage(code *ErrorCode, message string) *Error {
	return &Error{
		Code:       code.Code,
		Message:    message,
		Type:       code.Type,
		HTTPStatus: code.HTTPStatus,
		Details:    make(map[string]any),
	}
}

func (r *Registry) NewWithCause(code *ErrorCode, cause error) *Error {
	e := r.New(code)
	e.Err = cause
	return e
}

// Get looks a code up by its unprefixed name.
func (r *Registry) Get(code string) (*ErrorCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ec, ok := r.codes[code]
	return ec, ok
}

// Codes returns the catalogued codes sorted by full code.
func (r *Registry) Codes() []*ErrorCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ErrorCode, 0, len(r.codes))
	for _, ec := range r.codes {
		out = append(out, ec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// IsCode reports whether err carries code anywhere in its chain.
func IsCode(err error, code *ErrorCode) bool {
	if err == nil || code == nil {
		return false
	}
	var e *Error
	for As(err, &e) {
		if e.Code == code.Code {
			return true
		}
		if e.Err == nil {
			return false
		}
		err = e.Err
	}
	return false
}
