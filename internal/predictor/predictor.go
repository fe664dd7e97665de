package predictor

import "context"

// UploadedFile is the image the user selected for classification.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Prediction is the top-ranked entry returned by the classification service.
type Prediction struct {
	Breed            string  `json:"breed"`
	Confidence       float64 `json:"confidence"`
	ExampleImage     string  `json:"example_image,omitempty"`
	ShortDescription string  `json:"short_description,omitempty"`
}

// ReportRequest carries everything the report service needs for one upload cycle.
type ReportRequest struct {
	UploadID   string
	Breed      string
	Confidence float64
	File       UploadedFile
}

// Report points at the generated document.
type Report struct {
	URL string
}

// Client exposes the two remote calls used by the upload flow.
type Client interface {
	Classify(ctx context.Context, uploadID string, file UploadedFile) (*Prediction, error)
	GenerateReport(ctx context.Context, req ReportRequest) (*Report, error)
}
