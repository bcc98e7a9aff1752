package bridge

import (
	"io"
	"net/http"

	"github.com/qq8244353/lineWorkflowBridge/pkg/msgtask"
)

const maxBodyBytes = 1 << 20

// ServeHTTP acknowledges every POST with 200 and an empty body, whatever
// happened to the delivery.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("read webhook body failed", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	h.Handle(r.Context(), body, r.Header.Get(msgtask.HeaderSignature))
	w.WriteHeader(http.StatusOK)
}
