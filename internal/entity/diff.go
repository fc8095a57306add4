package entity

import "time"

// DiffRequest holds the two input urls. They are not validated: an empty or
// malformed url fails at fetch time.
type DiffRequest struct {
	BeforePNG string `json:"before_png"`
	AfterPNG  string `json:"after_png"`
}

type DiffResponse struct {
	ResultURL string `json:"result_url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Artifact is a persisted diff image. Name is "<uuid>.png", Path is the
// route-relative location ("assets/<name>") used to build result urls.
type Artifact struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type DiffCreatedEvent struct {
	Artifact  string    `json:"artifact"`
	ResultURL string    `json:"result_url"`
	BeforePNG string    `json:"before_png"`
	AfterPNG  string    `json:"after_png"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}
