package models

// OutboundMessageRequest is a text notification pushed to a WhatsApp number.
type OutboundMessageRequest struct {
	To         string
	Message    string
	PreviewURL bool
}
