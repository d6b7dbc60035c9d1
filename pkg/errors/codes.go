package errors

import (
	"net/http"
	"sort"
)

// ErrorCode identifies a failure category. Codes carry a module prefix and a
// three digit sequence, e.g. MATCH_001, and are stable across releases since
// clients switch on them.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_014"
)

// Molecule codes.
const (
	ErrCodeMoleculeInvalidFormat ErrorCode = "MOL_003"
	ErrCodeMoleculeNotFound      ErrorCode = "MOL_004"
	ErrCodeMoleculeParsingFailed ErrorCode = "MOL_006"
)

// Matching codes.
const (
	ErrCodeInvalidGraph       ErrorCode = "MATCH_001"
	ErrCodeMatchConfigInvalid ErrorCode = "MATCH_002"
	ErrCodeMatchFailed        ErrorCode = "MATCH_003"
	ErrCodeJobNotFound        ErrorCode = "MATCH_004"
	ErrCodeJobPayloadInvalid  ErrorCode = "MATCH_005"
)

// Pseudo codes returned by GetCode; they never appear on the wire.
const (
	CodeUnknown = ErrorCode("UNKNOWN")
	CodeOK      = ErrorCode("OK")
)

// ─────────────────────────────────────────────────────────────────────────────
// Code table
// ─────────────────────────────────────────────────────────────────────────────

type codeInfo struct {
	status  int
	message string
	// input marks failures caused by the submitted molecules themselves.
	// Retrying them cannot succeed.
	input bool
}

var codeTable = map[ErrorCode]codeInfo{
	ErrCodeInternal:           {http.StatusInternalServerError, "internal server error", false},
	ErrCodeBadRequest:         {http.StatusBadRequest, "bad request", false},
	ErrCodeNotFound:           {http.StatusNotFound, "resource not found", false},
	ErrCodeConflict:           {http.StatusConflict, "resource conflict", false},
	ErrCodeTooManyRequests:    {http.StatusTooManyRequests, "too many requests", false},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "service unavailable", false},
	ErrCodeValidation:         {http.StatusUnprocessableEntity, "validation failed", true},
	ErrCodeSerialization:      {http.StatusInternalServerError, "serialization failed", false},
	ErrCodeStorageError:       {http.StatusInternalServerError, "object storage error", false},
	ErrCodeCacheError:         {http.StatusInternalServerError, "cache error", false},
	ErrCodeMessageQueueError:  {http.StatusServiceUnavailable, "message queue error", false},

	ErrCodeMoleculeInvalidFormat: {http.StatusBadRequest, "unsupported molecule format", true},
	ErrCodeMoleculeNotFound:      {http.StatusNotFound, "molecule not found", false},
	ErrCodeMoleculeParsingFailed: {http.StatusUnprocessableEntity, "failed to parse molecule", true},

	ErrCodeInvalidGraph:       {http.StatusUnprocessableEntity, "invalid molecular graph", true},
	ErrCodeMatchConfigInvalid: {http.StatusBadRequest, "invalid match configuration", false},
	ErrCodeMatchFailed:        {http.StatusInternalServerError, "match execution failed", false},
	ErrCodeJobNotFound:        {http.StatusNotFound, "match job not found", false},
	ErrCodeJobPayloadInvalid:  {http.StatusBadRequest, "invalid match job payload", false},
}

// Known reports whether code is part of the public catalogue.
func Known(code ErrorCode) bool {
	_, ok := codeTable[code]
	return ok
}

// Codes lists the catalogue in code order.
func Codes() []ErrorCode {
	out := make([]ErrorCode, 0, len(codeTable))
	for c := range codeTable {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HTTPStatusForCode returns the HTTP status for code, 500 for unknown codes.
func HTTPStatusForCode(code ErrorCode) int {
	if info, ok := codeTable[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the message shown when the real one is masked.
func DefaultMessageForCode(code ErrorCode) string {
	if info, ok := codeTable[code]; ok {
		return info.message
	}
	return "unknown error"
}

// IsInputCode reports whether code blames the submitted molecule.
func IsInputCode(code ErrorCode) bool {
	return codeTable[code].input
}

//Personal.AI order the ending
