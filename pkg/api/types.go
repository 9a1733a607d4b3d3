package api

import (
	"github.com/uhyunpark/ledgerreplay/pkg/app/core/account"
	"github.com/uhyunpark/ledgerreplay/pkg/app/engine"
)

// ReplayResponse is the JSON body returned by POST /api/v1/replay
type ReplayResponse struct {
	Accounts []account.Account `json:"accounts"` // Ordered by client id
	Stats    engine.Stats      `json:"stats"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
