package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"marketplace/internal/validator"
)

const (
	CodeUnauthenticated    = "unauthenticated"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeValidation         = "validation"
	CodeInsufficientStock  = "insufficient_stock"
	CodeProductUnavailable = "product_unavailable"
	CodeNeedsAddress       = "needs_address"
	CodeCartEmpty          = "cart_empty"
	CodeNoPendingOrders    = "no_pending_orders"
	CodeDuplicateUsername  = "duplicate_username"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAlreadyReviewed    = "already_reviewed"
	CodeReviewNotAllowed   = "review_not_allowed"
	CodeInvalidTransition  = "invalid_transition"
	CodeAddressInUse       = "address_in_use"
	CodeFileTooLarge       = "file_too_large"
	CodeUnsupportedFile    = "unsupported_file"
	CodeInternal           = "internal"
)

// AppError はHandlerでそのままレスポンスに変換されるエラー
type AppError struct {
	Status  int
	Code    string
	Message string
	// 500のときだけ入る。利用者には返さずログに出す
	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status int, code, message string) error {
	return &AppError{Status: status, Code: code, Message: message}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func Unauthenticated() error {
	return NewAppError(http.StatusUnauthorized, CodeUnauthenticated, "please log in")
}

func Forbidden() error {
	return NewAppError(http.StatusForbidden, CodeForbidden, "no permission")
}

// 他人のリソースも「存在しない扱い」にする
func NotFound() error {
	return NewAppError(http.StatusNotFound, CodeNotFound, "not found")
}

func Invalid(message string) error {
	return NewAppError(http.StatusBadRequest, CodeValidation, message)
}

func Conflict(code, message string) error {
	return NewAppError(http.StatusConflict, code, message)
}

func Unprocessable(code, message string) error {
	return NewAppError(http.StatusUnprocessableEntity, code, message)
}

// 想定外のエラー。opはログで追えるように付ける
func Internal(op string, err error) error {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "please try again later",
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// 最初の入力エラーをメッセージにする
func validate(in interface{}) error {
	err := validator.Default().Struct(in)
	if err == nil {
		return nil
	}
	var fe *validator.FieldError
	if errors.As(err, &fe) {
		return Invalid(fe.Message)
	}
	return Internal("validate", err)
}

// トランザクション内で作ったAppErrorはそのまま返す
func passOrInternal(op string, err error) error {
	if _, ok := AsAppError(err); ok {
		return err
	}
	return Internal(op, err)
}
