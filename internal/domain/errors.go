package domain

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classes surfaced by the card core.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindMissingAsset       Kind = "missing_asset"
	KindAsset              Kind = "asset"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindCorruptStore       Kind = "corrupt_store"
	KindNotFound           Kind = "not_found"
	KindDuplicateID        Kind = "duplicate_id"
)

// AssetReason narrows a KindAsset failure.
type AssetReason string

const (
	ReasonSizeLimit   AssetReason = "size_limit"
	ReasonType        AssetReason = "type"
	ReasonPartial     AssetReason = "partial"
	ReasonNoFile      AssetReason = "no_file"
	ReasonWriteFailed AssetReason = "write_failed"
	ReasonTransport   AssetReason = "transport"
)

// Error is the single error type returned by the repository, the asset
// store and the services. Callers match it with errors.Is against the
// sentinels below or switch on Kind.
type Error struct {
	Kind   Kind
	Field  string
	Reason AssetReason
	Limit  int64
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind, and on Reason when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrMissingAsset       = &Error{Kind: KindMissingAsset}
	ErrAsset              = &Error{Kind: KindAsset}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
	ErrCorruptStore       = &Error{Kind: KindCorruptStore}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrDuplicateID        = &Error{Kind: KindDuplicateID}

	ErrAssetTooLarge = &Error{Kind: KindAsset, Reason: ReasonSizeLimit}
	ErrAssetType     = &Error{Kind: KindAsset, Reason: ReasonType}
)

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func MissingAsset(field string) *Error {
	return &Error{Kind: KindMissingAsset, Field: field, Msg: fmt.Sprintf("no %s provided", field)}
}

func AssetFailure(reason AssetReason, msg string, err error) *Error {
	return &Error{Kind: KindAsset, Reason: reason, Msg: msg, Err: err}
}

func StorageUnavailable(msg string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Msg: msg, Err: err}
}

func CorruptStore(path string, err error) *Error {
	return &Error{Kind: KindCorruptStore, Msg: "card store is corrupt", Err: fmt.Errorf("%s: %w", path, err)}
}

func NotFound(id string) *Error {
	return &Error{Kind: KindNotFound, Field: "id", Msg: fmt.Sprintf("card %q not found", id)}
}

func DuplicateID(id string) *Error {
	return &Error{Kind: KindDuplicateID, Field: "id", Msg: fmt.Sprintf("card %q already exists", id)}
}

// WithField returns a copy of err tagged with field when err is a *Error
// without one. Other errors are returned unchanged.
func WithField(err error, field string) error {
	var de *Error
	if !errors.As(err, &de) || de.Field != "" {
		return err
	}
	cp := *de
	cp.Field = field
	return &cp
}

// KindOf reports the Kind of err, or "" for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
