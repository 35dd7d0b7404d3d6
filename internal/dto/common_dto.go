package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	// Fields lists per-field validation failures.
	Fields map[string]string `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Search    string `json:"search"`
}

type ReindexResponse struct {
	Indexed int `json:"indexed"`
}
