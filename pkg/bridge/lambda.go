package bridge

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/qq8244353/lineWorkflowBridge/pkg/msgtask"
)

// HandleAPIGateway is the Lambda entry point behind API Gateway. It never
// returns an error so the platform never sees a failed delivery.
func (h *Handler) HandleAPIGateway(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			h.logger.Warn("decode base64 webhook body failed", "error", err)
			return events.APIGatewayProxyResponse{Body: "", StatusCode: http.StatusOK}, nil
		}
		body = decoded
	}
	h.Handle(ctx, body, msgtask.HeaderValue(req.Headers, msgtask.HeaderSignature))
	return events.APIGatewayProxyResponse{
		Body:       "",
		StatusCode: http.StatusOK,
	}, nil
}
