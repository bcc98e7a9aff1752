package bridge

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const TextCodePayloadMalformed = "PAYLOAD_MALFORMED"

func payloadError(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryBadInput, "bridge: malformed webhook payload").
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodePayloadMalformed)
}

// classify returns log fields describing err.
func classify(err error) []any {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return []any{"error", err.Error()}
	}
	return []any{
		"error", err.Error(),
		"category", rich.Category,
		"code", rich.Code,
		"text_code", rich.TextCode,
	}
}
