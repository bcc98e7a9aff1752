package msgtask

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeSignatureInvalid = "SIGNATURE_INVALID"
	TextCodeReplyFailed      = "REPLY_FAILED"
)

func signatureError(message string) error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(TextCodeSignatureInvalid)
}

func replyError(source error, message string, status int, metadata map[string]any) error {
	code := status
	if code == 0 {
		code = http.StatusBadGateway
	}
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryExternal)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	}
	err = err.WithCode(code).WithTextCode(TextCodeReplyFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
