package sdk

import (
	"encoding/json"
	"time"

	"github.com/ethanbaker/api/pkg/api_types"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  api_types.StatusType `json:"status"`          // Status message
	Code    int                  `json:"code"`            // Status code
	Message string               `json:"message"`         // Human-readable message
	Data    T                    `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any                  `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a JSON string
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	if e, ok := err.(error); ok {
		err = e.Error()
	}

	return ApiResponse[any]{
		Status:  api_types.StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Responses */

// Inventory is what the bot is currently holding
type Inventory struct {
	Items []string `json:"items"`
	Size  int      `json:"size"`
}

// Factoid is a stored factoid as exposed over the API
type Factoid struct {
	ID        uint   `json:"id"`
	Fact      string `json:"fact"`
	Verb      string `json:"verb"`
	Tidbit    string `json:"tidbit"`
	Protected bool   `json:"protected"`
	Literal   string `json:"literal"` // "#id - fact verb tidbit"
}

// Friend is the reputation record of a nick
type Friend struct {
	Nick     string    `json:"nick"`
	Friendly int32     `json:"friendly"`
	LastSeen time.Time `json:"last_seen"`
}
