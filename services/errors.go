package services

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrorCode is the stable identifier returned to callers for every core failure.
type ErrorCode string

// Not found.
const (
	CodeCustomerNotFound    ErrorCode = "CUSTOMER_NOT_FOUND"
	CodeServiceNotFound     ErrorCode = "SERVICE_NOT_FOUND"
	CodeOptionNotFound      ErrorCode = "OPTION_NOT_FOUND"
	CodeWalletNotFound      ErrorCode = "WALLET_NOT_FOUND"
	CodeOfferNotFound       ErrorCode = "OFFER_NOT_FOUND"
	CodeSalonNotFound       ErrorCode = "SALON_NOT_FOUND"
	CodeArtistNotFound      ErrorCode = "ARTIST_NOT_FOUND"
	CodeAppointmentNotFound ErrorCode = "APPOINTMENT_NOT_FOUND"
)

// Validation.
const (
	CodeServicesRequired         ErrorCode = "SERVICES_REQUIRED"
	CodeOfferDateRequired        ErrorCode = "OFFER_APPOINTMENT_DATE_REQUIRED"
	CodeOfferInvalidData         ErrorCode = "OFFER_INVALID_DATA"
	CodeInvalidAppointmentTime   ErrorCode = "INVALID_APPOINTMENT_TIME"
	CodeInvalidAmount            ErrorCode = "INVALID_AMOUNT"
	CodeInvalidOffer             ErrorCode = "INVALID_OFFER"
	CodeInvalidServiceDefinition ErrorCode = "INVALID_SERVICE"
	CodeInvalidWorkingHours      ErrorCode = "INVALID_WORKING_HOURS"
	CodeInvalidCustomer          ErrorCode = "INVALID_CUSTOMER"
)

// Business rules.
const (
	CodeOfferExpired        ErrorCode = "OFFER_EXPIRED"
	CodeOfferNotStarted     ErrorCode = "OFFER_NOT_STARTED"
	CodeOfferAlreadyUsed    ErrorCode = "OFFER_ALREADY_USED"
	CodeOfferInvalidDay     ErrorCode = "OFFER_INVALID_DAY"
	CodeOfferCodeTaken      ErrorCode = "OFFER_CODE_TAKEN"
	CodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	CodeSlotConflict        ErrorCode = "SLOT_CONFLICT"
	CodeInvalidStatus       ErrorCode = "INVALID_STATUS"
	CodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	CodeAlreadyCancelled    ErrorCode = "ALREADY_CANCELLED"
	CodeAlreadyCompleted    ErrorCode = "ALREADY_COMPLETED"
	CodeOutsideHours        ErrorCode = "OUTSIDE_WORKING_HOURS"
	CodeServiceLocked       ErrorCode = "SERVICE_LOCKED"
	CodeAmountMismatch      ErrorCode = "PAYMENT_AMOUNT_MISMATCH"
	CodeInvalidPaymentState ErrorCode = "INVALID_PAYMENT_STATE"
	CodeBookingInProgress   ErrorCode = "BOOKING_IN_PROGRESS"
	CodeCustomerExists      ErrorCode = "CUSTOMER_EXISTS"
)

// Internal.
const CodeCalculationError ErrorCode = "CALCULATION_ERROR"

// BookingError is the typed failure returned across the core boundary.
type BookingError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Offer marks failures a quote may degrade from by recomputing without the offer.
	Offer bool `json:"isOfferError"`
	cause error
}

func (e *BookingError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error { return e.cause }

func (e *BookingError) IsOfferError() bool { return e.Offer }

// HTTPStatus maps the error kind onto a response status.
func (e *BookingError) HTTPStatus() int {
	switch e.Code {
	case CodeCustomerNotFound, CodeServiceNotFound, CodeOptionNotFound, CodeWalletNotFound,
		CodeOfferNotFound, CodeSalonNotFound, CodeArtistNotFound, CodeAppointmentNotFound:
		return http.StatusNotFound
	case CodeServicesRequired, CodeOfferDateRequired, CodeOfferInvalidData, CodeInvalidAppointmentTime,
		CodeInvalidAmount, CodeInvalidOffer, CodeInvalidServiceDefinition, CodeInvalidStatus,
		CodeInvalidWorkingHours, CodeInvalidCustomer:
		return http.StatusBadRequest
	case CodeSlotConflict, CodeOfferAlreadyUsed, CodeAlreadyCancelled, CodeAlreadyCompleted,
		CodeInvalidTransition, CodeServiceLocked, CodeBookingInProgress, CodeInvalidPaymentState,
		CodeOfferCodeTaken, CodeCustomerExists:
		return http.StatusConflict
	case CodeCalculationError:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func newError(code ErrorCode, format string, args ...interface{}) *BookingError {
	return &BookingError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func offerError(code ErrorCode, format string, args ...interface{}) *BookingError {
	e := newError(code, format, args...)
	e.Offer = true
	return e
}

func internalError(err error, msg string) *BookingError {
	return &BookingError{Code: CodeCalculationError, Message: msg, cause: errors.WithStack(err)}
}

// AsBookingError returns err as a *BookingError, wrapping anything else as CALCULATION_ERROR.
func AsBookingError(err error) *BookingError {
	if err == nil {
		return nil
	}
	var be *BookingError
	if errors.As(err, &be) {
		return be
	}
	return internalError(err, "unexpected failure")
}

// HasCode reports whether err is a BookingError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var be *BookingError
	return errors.As(err, &be) && be.Code == code
}
