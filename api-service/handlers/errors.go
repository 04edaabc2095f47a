package handlers

import "errors"

// Sentinel errors used inside transactions so the handler can map the
// outcome onto the response taxonomy after rollback.
var (
	errForbidden           = errors.New("forbidden")
	errRequestNotActive    = errors.New("request not active")
	errOwnRequest          = errors.New("own request")
	errDuplicateResponse   = errors.New("duplicate response")
	errOnlyDonorCancel     = errors.New("only donor may cancel")
	errOnlyRequesterAccept = errors.New("only requester may confirm")
)
