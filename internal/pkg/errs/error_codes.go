/*
Package errs provides custom error types and application-level error code constants.

These error codes identify business and system errors both inside the server and on the
wire, where they travel as the "code" field of REST responses and chat-error events.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat and Message Errors
const (
	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = 2102

	// ErrChatNotFound indicates that the referenced conversation does not exist.
	ErrChatNotFound = 2103

	// ErrSelfChat indicates an attempt to open a conversation with oneself.
	ErrSelfChat = 2104

	// ErrReceiverMismatch indicates that the receiver is not the other participant of the chat.
	ErrReceiverMismatch = 2105

	// ErrMessageContentTooLong indicates that the message body exceeded the maximum length.
	ErrMessageContentTooLong = 2201

	// ErrMessageTypeInvalid indicates an unknown message kind.
	ErrMessageTypeInvalid = 2202

	// ErrMessageSendFailed indicates the message could not be persisted.
	ErrMessageSendFailed = 2203

	// ErrMarkReadFailed indicates the read receipts could not be persisted.
	ErrMarkReadFailed = 2204

	// ErrUnknownEvent indicates the client sent an event name the server does not handle.
	ErrUnknownEvent = 2301
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates that the caller presented no valid identity.
	ErrUnauthorized = 3001

	// ErrNotIdentified indicates that a realtime event arrived before user-connect.
	ErrNotIdentified = 3002

	// ErrNotParticipant indicates that the caller is not a participant of the conversation.
	ErrNotParticipant = 3003

	// ErrIdentityMismatch indicates that user-connect announced an identity other than the token's.
	ErrIdentityMismatch = 3004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
