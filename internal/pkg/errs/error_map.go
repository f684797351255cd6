/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses, realtime error events and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx
	ErrUserNotFound:          {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrChatNotFound:          {Code: ErrChatNotFound, Message: "Chat not found.", Status: http.StatusNotFound},
	ErrSelfChat:              {Code: ErrSelfChat, Message: "Cannot start chat with yourself.", Status: http.StatusBadRequest},
	ErrReceiverMismatch:      {Code: ErrReceiverMismatch, Message: "Receiver is not a participant of this chat.", Status: http.StatusBadRequest},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrMessageTypeInvalid:    {Code: ErrMessageTypeInvalid, Message: "Unsupported message type.", Status: http.StatusBadRequest},
	ErrMessageSendFailed:     {Code: ErrMessageSendFailed, Message: "Failed to send message", Status: http.StatusInternalServerError},
	ErrMarkReadFailed:        {Code: ErrMarkReadFailed, Message: "Failed to mark messages as read", Status: http.StatusInternalServerError},
	ErrUnknownEvent:          {Code: ErrUnknownEvent, Message: "Unsupported event.", Status: http.StatusBadRequest},

	// 3xxx
	ErrUnauthorized:     {Code: ErrUnauthorized, Message: "Access denied. No token provided.", Status: http.StatusUnauthorized},
	ErrNotIdentified:    {Code: ErrNotIdentified, Message: "Connection has not announced a user.", Status: http.StatusUnauthorized},
	ErrNotParticipant:   {Code: ErrNotParticipant, Message: "Not authorized to access this chat.", Status: http.StatusForbidden},
	ErrIdentityMismatch: {Code: ErrIdentityMismatch, Message: "Announced user does not match the token.", Status: http.StatusForbidden},

	// 5xxx
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
