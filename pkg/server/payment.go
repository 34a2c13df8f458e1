package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// paymentHeader carries the client's payment authorization, base64-encoded
// JSON per the exact-payment scheme.
const paymentHeader = "X-Payment"

// withPaymentGate enforces the configured price strictly before the core
// runs. Gating is header-level only: a present, well-formed payment header
// passes; settlement belongs to an external facilitator.
func (s *Server) withPaymentGate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.options.Payment.Disabled || s.options.Payment.Price == "" || s.options.Payment.Price == "0" {
			next(w, r)
			return
		}

		payment := r.Header.Get(paymentHeader)
		if payment == "" {
			s.writePaymentRequired(w, r, "payment required")
			return
		}

		raw, err := base64.StdEncoding.DecodeString(payment)
		if err != nil {
			s.writePaymentRequired(w, r, "malformed payment header")
			return
		}
		var envelope map[string]any
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.writePaymentRequired(w, r, "malformed payment payload")
			return
		}

		next(w, r)
	}
}

func (s *Server) writePaymentRequired(w http.ResponseWriter, r *http.Request, reason string) {
	s.logger.Debug().
		Str("path", r.URL.Path).
		Str("reason", reason).
		Msg("Payment gate rejected request")

	writeJSON(w, http.StatusPaymentRequired, paymentRequiredResponse{
		Error: reason,
		Accepts: []paymentRequirements{{
			Scheme:            "exact",
			Network:           s.options.Payment.Network,
			MaxAmountRequired: s.options.Payment.Price,
			Resource:          resolveRequestURL(r),
			Description:       "One conversational agent turn",
			MimeType:          "application/json",
			PayTo:             s.options.Payment.PayTo,
			MaxTimeoutSeconds: 60,
			Asset:             s.options.Payment.Asset,
		}},
	})
}
