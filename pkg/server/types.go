package server

import (
	"context"
	"time"

	"github.com/fikri/sela/pkg/agent"
)

// Options configures the HTTP server.
type Options struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	Payment         PaymentOptions
}

// PaymentOptions configures the payment gate in front of the chat endpoint.
// Verification of submitted payments is delegated; the gate only enforces
// presence and well-formedness of the payment header.
type PaymentOptions struct {
	Disabled bool
	Price    string // decimal amount in the asset's units
	PayTo    string // receiving address
	Network  string // payment network identifier
	Asset    string // asset contract address, optional
}

// TurnRunner executes one conversational turn. Satisfied by agent.Runner.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID, userMessage string) (agent.RunResult, error)
}

// chatRequest is the POST body of the chat endpoint.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// paymentRequirements describes one way to pay for the gated resource.
type paymentRequirements struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	Resource          string `json:"resource"`
	Description       string `json:"description"`
	MimeType          string `json:"mimeType"`
	PayTo             string `json:"payTo"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
	Asset             string `json:"asset,omitempty"`
}

// paymentRequiredResponse is the 402 body.
type paymentRequiredResponse struct {
	Error   string                `json:"error"`
	Accepts []paymentRequirements `json:"accepts"`
}
