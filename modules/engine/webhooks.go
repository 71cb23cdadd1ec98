package engine

import (
	"io"
	"net/http"

	"github.com/aidehq/aide/pkg/logger"
)

// paddleSignatureHeader carries the webhook HMAC from the billing provider.
const paddleSignatureHeader = "Paddle-Signature"

// maxWebhookBody bounds webhook payloads; Paddle events are small.
const maxWebhookBody = 1 << 20

// billingWebhook ingests raw provider events. Unlike the rest of the API it
// is unauthenticated; the payload signature is the credential. Replayed and
// out-of-order events are acknowledged with 200 so the provider stops
// retrying them.
func (s *service) billingWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.log.WarnContext(r.Context(), "failed to read webhook body",
			logger.Error(err),
			logger.Component("engine"),
		)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := s.subscriptions.HandleWebhook(r.Context(), payload, r.Header.Get(paddleSignatureHeader)); err != nil {
		renderError(w, r, s.log, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
