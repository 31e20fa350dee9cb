package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPErrorはhandlerでそのままステータスに変換する入力エラー
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 入力エラー。違反した項目を全部返す
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

func NewValidationError(fields ...string) error {
	return &ValidationError{Fields: fields}
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func productNotFound(id int64) error {
	return &NotFoundError{Kind: "product", ID: fmt.Sprint(id)}
}

func orderNotFound(id int64) error {
	return &NotFoundError{Kind: "order", ID: fmt.Sprint(id)}
}

type InsufficientStockError struct {
	ProductID int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// 注文確定の進み具合
type PlacementStage string

const (
	StageValidating     PlacementStage = "validating"
	StageReservingStock PlacementStage = "reserving_stock"
	StagePersisting     PlacementStage = "persisting"
	StageClearingCart   PlacementStage = "clearing_cart"
	StageComplete       PlacementStage = "complete"
)

// 在庫確保以降のインフラ障害。クライアントには中身を見せない
type OrderPlacementError struct {
	Stage PlacementStage
	Err   error
}

func (e *OrderPlacementError) Error() string {
	return fmt.Sprintf("order placement failed at %s: %v", e.Stage, e.Err)
}

func (e *OrderPlacementError) Unwrap() error {
	return e.Err
}

// handler用。型付きエラーをステータスとメッセージに変換する
func StatusOf(err error) (int, string) {
	var (
		he *HTTPError
		ve *ValidationError
		ne *NotFoundError
		se *InsufficientStockError
		pe *OrderPlacementError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "Missing or invalid required fields"
	case errors.As(err, &ne):
		return http.StatusNotFound, ne.Error()
	case errors.As(err, &se):
		return http.StatusBadRequest, se.Error()
	case errors.As(err, &pe):
		return http.StatusInternalServerError, "Failed to place order"
	case errors.As(err, &he):
		return he.Status, he.Message
	}
	return http.StatusInternalServerError, "internal server error"
}
