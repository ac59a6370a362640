package model

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question string `json:"question"`
}
