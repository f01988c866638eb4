package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/harvest-estate/gateway/services"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto the response envelope: validation
// failures are 400, missing entities 404, an unreachable settlement gateway
// 502, anything else a logged 500.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		body := map[string]any{"ok": false, "error": validation.Code}
		if validation.Detail != "" {
			body["detail"] = validation.Detail
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": notFound.Code})
		return
	}

	var gateway *services.GatewayError
	if errors.As(err, &gateway) {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"ok":     false,
			"error":  services.CodeSe7enUnreachable,
			"detail": gateway.Err.Error(),
		})
		return
	}

	log.Error().Err(err).Msg("unhandled service error")
	writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal_error"})
}

// decodeBody decodes a JSON request body. Numbers are kept as json.Number
// so monetary values reach the decimal parser with their textual form
// intact. An empty body decodes to the zero request.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
