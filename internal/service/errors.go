package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

type ErrorType int

const (
	ErrValidation ErrorType = iota
	ErrNotFound
	ErrConflict
	ErrParse
	ErrBackendUnavailable
	ErrTranslationBackend
	ErrFileWrite
	ErrConfig
	ErrUnknown
)

type SubTransError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *SubTransError {
	return &SubTransError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *SubTransError {
	return &SubTransError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *SubTransError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		sort.Strings(ctxParts)
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *SubTransError) Unwrap() error {
	return e.Cause
}

func (e *SubTransError) WithContext(key string, value any) *SubTransError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrValidation:
		return "Validation"
	case ErrNotFound:
		return "NotFound"
	case ErrConflict:
		return "Conflict"
	case ErrParse:
		return "Parse"
	case ErrBackendUnavailable:
		return "BackendUnavailable"
	case ErrTranslationBackend:
		return "TranslationBackend"
	case ErrFileWrite:
		return "FileWrite"
	case ErrConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

type ErrorHandler interface {
	Handle(err error) bool
	GetAdvice(err *SubTransError) string
}

type DefaultErrorHandler struct{}

func NewDefaultErrorHandler() ErrorHandler {
	return &DefaultErrorHandler{}
}

func (h *DefaultErrorHandler) Handle(err error) bool {
	var stErr *SubTransError
	if !errors.As(err, &stErr) {
		log.Error("Unknown Error: %v", err)
		return false
	}

	advice := h.GetAdvice(stErr)
	log.Error("Error Detail: %v\n advice: %s", err, advice)

	return true
}

// GetAdvice returns error handling advice
func (h *DefaultErrorHandler) GetAdvice(err *SubTransError) string {
	switch err.Type {
	case ErrValidation:
		return "Please check the request: a target language, a model and a valid line range are required"
	case ErrNotFound:
		return "Please reload the subtitle list, the entry may belong to a previous file"
	case ErrConflict:
		return "Please wait for the running translation to finish or cancel it first"
	case ErrParse:
		return "Please verify the file is a well-formed SRT, WebVTT, ASS or TTML subtitle"
	case ErrBackendUnavailable:
		return "Please make sure the translation server is running and LLM_API_URL points to it"
	case ErrTranslationBackend:
		return "The translation server rejected a request; check the selected model is loaded or raise max tokens"
	case ErrFileWrite:
		return "Please ensure the target directory exists and has write permissions"
	case ErrConfig:
		return "Please check that configuration files or environment variables are set correctly"
	default:
		return "Please review detailed error information and check relevant configuration and files"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var stErr *SubTransError
	if errors.As(err, &stErr) {
		return stErr.Type == errorType
	}
	return false
}

// TypeOf returns the type of the first SubTransError in err's chain.
func TypeOf(err error) ErrorType {
	var stErr *SubTransError
	if errors.As(err, &stErr) {
		return stErr.Type
	}
	return ErrUnknown
}

func WrapError(err error, errorType ErrorType, message string) *SubTransError {
	return NewErrorWithCause(errorType, message, err)
}

func SafeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(ErrUnknown, fmt.Sprintf("runtime error: %v", r))
		}
	}()

	return fn()
}
