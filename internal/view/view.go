package view

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/example/pawprint/internal/session"
)

const (
	PlaceholderImage = "static/placeholder.png"
	LoadingMessage   = "Uploading and predicting..."
	ReportLabel      = "PRINT REPORT"
	GeneratingLabel  = "GENERATING..."
)

// ReportAction describes the report trigger.
type ReportAction struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Display is everything a front-end needs to draw the current state.
type Display struct {
	State        string        `json:"state"`
	Message      string        `json:"message,omitempty"`
	BreedName    string        `json:"breed_name,omitempty"`
	Percent      int           `json:"percent"`
	Description  string        `json:"description,omitempty"`
	Summary      string        `json:"summary,omitempty"`
	ExampleImage string        `json:"example_image,omitempty"`
	Report       *ReportAction `json:"report,omitempty"`
}

// Render maps a session snapshot to its display. It has no side effects.
func Render(snap session.Snapshot) Display {
	d := Display{State: snap.State.String()}

	switch snap.State {
	case session.Loading:
		d.Message = LoadingMessage
	case session.Error:
		d.Message = "Error: " + snap.ErrorMessage
	case session.Result:
		if snap.Prediction == nil {
			break
		}
		p := snap.Prediction
		d.Percent = Percent(p.Confidence)
		d.BreedName = BreedName(p.Breed)
		d.Description = fmt.Sprintf("Prediction confidence: %d%%. This is the model's best guess based on visual features.", d.Percent)
		d.Summary = p.ShortDescription
		d.ExampleImage = lo.CoalesceOrEmpty(p.ExampleImage, PlaceholderImage)
		d.Report = &ReportAction{Label: ReportLabel, Enabled: true}
		if snap.ReportPending {
			d.Report = &ReportAction{Label: GeneratingLabel, Enabled: false}
		}
	}
	return d
}

// BreedName turns a breed identifier into its display form.
func BreedName(breed string) string {
	return strings.ToUpper(strings.ReplaceAll(breed, "_", " "))
}

// Percent converts a confidence in [0,1] to a rounded percentage.
func Percent(confidence float64) int {
	return int(math.Floor(confidence*100 + 0.5))
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ReportFileName derives the local file name of a breed's PDF report.
func ReportFileName(breed string) string {
	safe := unsafeNameChars.ReplaceAllString(breed, "_")
	if safe == "" {
		safe = "unknown"
	}
	return safe + "_report.pdf"
}
