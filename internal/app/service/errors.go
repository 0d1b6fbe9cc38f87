package service

import (
	"errors"
	"fmt"
)

var (
	ErrSubmissionInProgress  = errors.New("a review submission is already in progress")
	ErrRestaurantNotFound    = errors.New("restaurant not found")
	ErrRestaurantUnavailable = errors.New("restaurant unavailable")
	ErrPendingNotFound       = errors.New("pending review not found")
	ErrPendingNotRejected    = errors.New("pending review is still awaiting delivery")
	ErrReviewRejected        = errors.New("review rejected by backend")
)

// User-facing notice texts.
const (
	MsgEmptyName             = "Please enter your name."
	MsgEmptyComment          = "Please enter review."
	MsgInvalidRating         = "Please choose a rating."
	MsgBusy                  = "Your review is already being submitted."
	MsgQueued                = "No Network! Your review will be added when network is available."
	MsgQueueFailed           = "Error! Your review could not be saved."
	MsgSubmitted             = "Thanks! Your review has been posted."
	MsgRejected              = "Your review was not accepted. Please check it and try again."
	MsgRestaurantUnavailable = "Restaurant details are unavailable right now."
)

// ValidationError rejects a submission before any storage or network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StorageError is a local cache failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("local storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NoticeFor returns the toast that goes with an error from this package.
func NoticeFor(err error) Notice {
	var validationErr *ValidationError
	var storageErr *StorageError
	switch {
	case err == nil:
		return Notice{}
	case errors.As(err, &validationErr):
		return ErrorNotice(validationErr.Message)
	case errors.As(err, &storageErr):
		return ErrorNotice(MsgQueueFailed)
	case errors.Is(err, ErrSubmissionInProgress):
		return InfoNotice(MsgBusy)
	case errors.Is(err, ErrReviewRejected):
		return ErrorNotice(MsgRejected)
	case errors.Is(err, ErrRestaurantNotFound), errors.Is(err, ErrRestaurantUnavailable):
		return ErrorNotice(MsgRestaurantUnavailable)
	default:
		return ErrorNotice(MsgQueueFailed)
	}
}
