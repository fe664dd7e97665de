package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/pawprint/internal/logging"
	"github.com/example/pawprint/internal/predictor"
	"github.com/example/pawprint/internal/session"
	"github.com/example/pawprint/internal/view"
)

var (
	// ErrSuperseded is returned when a newer upload replaced the one being classified.
	ErrSuperseded = errors.New("upload superseded by a newer selection")
	// ErrReportInProgress is returned when the report action is already disabled.
	ErrReportInProgress = errors.New("report generation already in progress")
)

// Notifier presents modal alerts to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Alert(message string) { f(message) }

// ReportOutcome describes a downloaded report.
type ReportOutcome struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

// UploadClient orchestrates the upload, classify, display and report flow.
type UploadClient struct {
	session    *session.Session
	client     predictor.Client
	downloader Downloader
	notifier   Notifier
	logger     *zap.Logger
}

// NewUploadClient constructs the controller around sess.
func NewUploadClient(sess *session.Session, client predictor.Client, downloader Downloader, notifier Notifier, logger *zap.Logger) *UploadClient {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &UploadClient{
		session:    sess,
		client:     client,
		downloader: downloader,
		notifier:   notifier,
		logger:     logger.Named("upload_client"),
	}
}

// Display renders the current session.
func (uc *UploadClient) Display() view.Display {
	return view.Render(uc.session.Snapshot())
}

// SubmitImage starts a new upload cycle for file and classifies it.
// The returned display is the one produced by this call, or the current one
// when the result was superseded.
func (uc *UploadClient) SubmitImage(ctx context.Context, file predictor.UploadedFile) (view.Display, error) {
	ticket := uc.session.Begin(file)
	opLogger := logging.WithOperation(uc.logger, "usecase.submit_image", ticket.UploadID)
	opLogger.Info("classifying upload", zap.String("file", file.Name), zap.Int("bytes", len(file.Data)))

	pred, err := uc.client.Classify(ctx, ticket.UploadID, file)
	if err != nil {
		if !uc.session.Fail(ticket, predictor.UserMessage(err)) {
			opLogger.Info("discarding stale classification failure", zap.Error(err))
			return uc.Display(), ErrSuperseded
		}
		wrapped := logging.NewOperationError("usecase.submit_image", ticket.UploadID, err)
		opLogger.Error("prediction failed", zap.Error(wrapped), zap.String("kind", predictor.KindOf(err).String()))
		return uc.Display(), wrapped
	}

	if !uc.session.Resolve(ticket, *pred) {
		opLogger.Info("discarding stale prediction", zap.String("breed", pred.Breed))
		return uc.Display(), ErrSuperseded
	}
	return uc.Display(), nil
}

// RequestReport generates and downloads the PDF report for the current prediction.
func (uc *UploadClient) RequestReport(ctx context.Context) (*ReportOutcome, error) {
	req, err := uc.session.ReportRequest()
	if err != nil {
		uc.notifier.Alert(predictor.UserMessage(err))
		return nil, err
	}

	release, ok := uc.session.AcquireReport()
	if !ok {
		return nil, ErrReportInProgress
	}
	defer release()

	opLogger := logging.WithOperation(uc.logger, "usecase.request_report", req.UploadID)

	outcome, err := uc.generate(ctx, req)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.request_report", req.UploadID, err)
		opLogger.Error("PDF generation failed", zap.Error(wrapped))
		uc.notifier.Alert(ReportAlert(err))
		return nil, wrapped
	}

	opLogger.Info("report downloaded", zap.String("path", outcome.Path))
	return outcome, nil
}

func (uc *UploadClient) generate(ctx context.Context, req predictor.ReportRequest) (*ReportOutcome, error) {
	report, err := uc.client.GenerateReport(ctx, req)
	if err != nil {
		return nil, err
	}

	fileName := view.ReportFileName(req.Breed)
	path, err := uc.downloader.Download(ctx, report.URL, fileName)
	if err != nil {
		return nil, err
	}
	return &ReportOutcome{URL: report.URL, FileName: fileName, Path: path}, nil
}

// ReportAlert is the alert text shown when report generation fails.
func ReportAlert(err error) string {
	msg := predictor.UserMessage(err)
	if msg == "" {
		msg = "Server error"
	}
	return "Error generating PDF report: " + msg
}
