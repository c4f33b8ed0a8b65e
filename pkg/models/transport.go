package models

import "time"

// ImagesRequest loads the pair to compare. Second may be omitted to compare
// an image with itself.
type ImagesRequest struct {
	First  string `json:"first" binding:"required"`
	Second string `json:"second,omitempty"`
}

// ProcessRequest runs one processor on the displayed pair. Properties
// override the processor defaults by property name.
type ProcessRequest struct {
	Processor  string            `json:"processor" binding:"required"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Rect is a selection in image coordinates, max exclusive.
type Rect struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// SelectionRequest runs the comparator bound to Hotkey on a selected area
type SelectionRequest struct {
	Hotkey string `json:"hotkey" binding:"required"`
	Rect   Rect   `json:"rect"`
}

// EnabledRequest toggles batch participation of a comparator
type EnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ReportRequest runs the batch pipeline. OutputDir is honoured by the local
// report backend only.
type ReportRequest struct {
	OutputDir string `json:"output_dir,omitempty"`
}

// PairResponse describes a displayed pair.
type PairResponse struct {
	FirstPath  string `json:"first_path"`
	SecondPath string `json:"second_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	First      string `json:"first,omitempty"`
	Second     string `json:"second,omitempty"`
}

// ProcessResponse is the outcome of a processing request. Image fields hold
// base64 encoded PNG data.
type ProcessResponse struct {
	Processor         string        `json:"processor"`
	Route             string        `json:"route"`
	Image             string        `json:"image,omitempty"`
	FileName          string        `json:"file_name,omitempty"`
	Text              string        `json:"text,omitempty"`
	Pair              *PairResponse `json:"pair,omitempty"`
	ProcessingTimeSec float64       `json:"processing_time_sec"`
}

// LastResultResponse carries the reopened comparison image.
type LastResultResponse struct {
	Image    string `json:"image"`
	FileName string `json:"file_name"`
}

// ReportEntry is one comparator of a batch report.
type ReportEntry struct {
	Processor string  `json:"processor"`
	Artifact  string  `json:"artifact,omitempty"`
	Error     string  `json:"error,omitempty"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

// ReportResponse summarises a batch report
type ReportResponse struct {
	Location  string        `json:"location"`
	Outcome   string        `json:"outcome"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Cancelled bool          `json:"cancelled"`
	Entries   []ReportEntry `json:"entries"`
	Timestamp time.Time     `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
