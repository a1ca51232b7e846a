package db

import "time"

// APIErrorRecord represents a row in the api_errors table.
type APIErrorRecord struct {
	ID           string              `json:"id"`
	EventID      string              `json:"event_id"`
	Endpoint     string              `json:"endpoint"`
	Path         string              `json:"path"`
	HTTPCode     int                 `json:"http_code"`
	HTTPStatus   string              `json:"http_status"`
	ErrorName    string              `json:"error_name"`
	ErrorCode    int                 `json:"error_code"`
	ErrorMessage string              `json:"error_message"`
	ErrorDetails map[string][]string `json:"error_details,omitempty"`
	Cause        string              `json:"cause,omitempty"`
	Service      string              `json:"service,omitempty"`
	Occurred     time.Time           `json:"occurred"`
	Recorded     time.Time           `json:"recorded"`
}

// APIErrorFilter narrows ListAPIErrors and CountAPIErrors. Zero values match everything.
type APIErrorFilter struct {
	Endpoint  string
	ErrorName string
	HTTPCode  int
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}
