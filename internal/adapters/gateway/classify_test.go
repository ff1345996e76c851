package gateway_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kurniadi/customs_declaration_app/internal/adapters/gateway"
	"github.com/stretchr/testify/assert"
)

func TestClassify_PortalCodeWinsOverStatus(t *testing.T) {
	// CE-4290 is a retry code even though a 400-class status would normally
	// mean "fix submission".
	c := gateway.Classify(http.StatusTooManyRequests, "CE-4290")
	assert.Equal(t, gateway.ActionRetryLater, c.Action)

	c = gateway.Classify(http.StatusBadRequest, "CE-4001")
	assert.Equal(t, gateway.ActionFixSubmission, c.Action)
}

func TestClassify_StatusFallback(t *testing.T) {
	tests := []struct {
		status int
		want   gateway.RecommendedAction
	}{
		{status: 0, want: gateway.ActionRetryLater},
		{status: http.StatusUnauthorized, want: gateway.ActionContactSupport},
		{status: http.StatusForbidden, want: gateway.ActionContactSupport},
		{status: http.StatusTooManyRequests, want: gateway.ActionRetryLater},
		{status: http.StatusBadRequest, want: gateway.ActionFixSubmission},
		{status: http.StatusBadGateway, want: gateway.ActionRetryLater},
		{status: http.StatusServiceUnavailable, want: gateway.ActionRetryLater},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			c := gateway.Classify(tt.status, "UNKNOWN-CODE")
			assert.Equal(t, tt.want, c.Action)
			assert.NotEmpty(t, c.UserMessage)
		})
	}
}

func TestClassifyErr(t *testing.T) {
	gwErr := &gateway.Error{HTTPStatus: http.StatusServiceUnavailable, Code: "CE-5001", Message: "maintenance"}
	c := gateway.ClassifyErr(fmt.Errorf("leg failed: %w", gwErr))
	assert.Equal(t, gateway.ActionRetryLater, c.Action)

	// Plain errors (timeouts, refused connections) are retriable.
	c = gateway.ClassifyErr(errors.New("dial tcp: i/o timeout"))
	assert.Equal(t, gateway.ActionRetryLater, c.Action)
}
