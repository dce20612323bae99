package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUnavailableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"remote unavailable", ErrRemoteUnavailable, true},
		{"malformed response", ErrMalformedResponse, true},
		// Errors arrive at the frontend wrapped by the service and
		// controller layers; classification must survive the chain.
		{
			"wrapped through navigation",
			fmt.Errorf("open folder /T-100/Bid: %w",
				fmt.Errorf("list contents: %w", ErrRemoteUnavailable)),
			true,
		},
		{"transport refused", errors.New("dial tcp: connection refused"), true},
		{"transport timeout", errors.New("context deadline exceeded: timeout"), true},
		{"programming error", errors.New("nil descriptor"), false},
		{"folder not found", fmt.Errorf("folder %q not found under /", "Bid"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUnavailable(tc.err); got != tc.want {
				t.Errorf("IsUnavailable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
