package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/example/pawprint/internal/logging"
	"github.com/example/pawprint/internal/predictor"
)

const maxResponseBytes = 4 << 20

// Client talks to the classification and report services over HTTP.
type Client struct {
	predictURL string
	reportURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// New returns a ready-to-use client. A nil httpClient uses http.DefaultClient.
func New(predictURL, reportURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		predictURL: predictURL,
		reportURL:  reportURL,
		httpClient: httpClient,
		logger:     logger.Named("httpclient"),
	}
}

type classifyResponse struct {
	Predictions []predictor.Prediction `json:"predictions"`
}

// Classify posts the image to the classification service and returns its top prediction.
func (c *Client) Classify(ctx context.Context, uploadID string, file predictor.UploadedFile) (*predictor.Prediction, error) {
	opLogger := logging.WithOperation(c.logger, "httpclient.classify", uploadID)

	body, contentType, err := encodeForm(nil, file)
	if err != nil {
		return nil, logging.NewOperationError("httpclient.classify", uploadID, err)
	}

	payload, err := c.post(ctx, c.predictURL, body, contentType)
	if err != nil {
		opLogger.Warn("classification request failed", zap.Error(err))
		return nil, err
	}

	if msg, failed := errorField(payload); failed {
		opLogger.Warn("classification service reported an error", zap.String("error", msg))
		return nil, predictor.NewPayloadError(msg, nil)
	}

	var resp classifyResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, predictor.NewPayloadError(err.Error(), err)
	}
	if len(resp.Predictions) == 0 {
		return nil, predictor.NewPayloadError("no predictions returned", nil)
	}
	top := resp.Predictions[0]
	if top.Breed == "" {
		return nil, predictor.NewPayloadError("prediction is missing a breed", nil)
	}

	opLogger.Info("classification complete",
		zap.String("breed", top.Breed),
		zap.Float64("confidence", top.Confidence),
		zap.Int("candidates", len(resp.Predictions)),
	)
	return &top, nil
}

// GenerateReport asks the report service for a PDF and returns where it lives.
func (c *Client) GenerateReport(ctx context.Context, req predictor.ReportRequest) (*predictor.Report, error) {
	opLogger := logging.WithOperation(c.logger, "httpclient.generate_report", req.UploadID)

	fields := [][2]string{
		{"breed", req.Breed},
		{"confidence", strconv.FormatFloat(req.Confidence, 'f', -1, 64)},
	}
	body, contentType, err := encodeForm(fields, req.File)
	if err != nil {
		return nil, logging.NewOperationError("httpclient.generate_report", req.UploadID, err)
	}

	payload, err := c.post(ctx, c.reportURL, body, contentType)
	if err != nil {
		opLogger.Warn("report request failed", zap.Error(err))
		return nil, err
	}

	if msg, failed := errorField(payload); failed {
		return nil, predictor.NewPayloadError(msg, nil)
	}
	pdfURL := strings.TrimSpace(gjson.GetBytes(payload, "pdf_url").String())
	if pdfURL == "" {
		return nil, predictor.NewPayloadError("no report URL returned", nil)
	}

	resolved, err := c.resolve(pdfURL)
	if err != nil {
		return nil, predictor.NewPayloadError(fmt.Sprintf("invalid report URL %q", pdfURL), err)
	}
	opLogger.Info("report generated", zap.String("pdf_url", resolved))
	return &predictor.Report{URL: resolved}, nil
}

// CheckHealth probes the root of the classification service.
func (c *Client) CheckHealth(ctx context.Context) error {
	base, err := url.Parse(c.predictURL)
	if err != nil {
		return err
	}
	root := base.ResolveReference(&url.URL{Path: "/"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return predictor.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("classification service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body *bytes.Buffer, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, predictor.NewNetworkError(err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, predictor.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, predictor.NewServerError(resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, predictor.NewNetworkError(err)
	}
	if !gjson.ValidBytes(payload) {
		return nil, predictor.NewPayloadError("response is not valid JSON", nil)
	}
	return payload, nil
}

func (c *Client) resolve(ref string) (string, error) {
	target, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if target.IsAbs() {
		return target.String(), nil
	}
	base, err := url.Parse(c.reportURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(target).String(), nil
}

// errorField reports whether payload carries a truthy top-level "error" field.
func errorField(payload []byte) (string, bool) {
	field := gjson.GetBytes(payload, "error")
	if !field.Exists() {
		return "", false
	}
	switch field.Type {
	case gjson.Null, gjson.False:
		return "", false
	case gjson.Number:
		return field.String(), field.Num != 0
	case gjson.String:
		return field.Str, field.Str != ""
	default:
		return field.String(), true
	}
}

func encodeForm(fields [][2]string, file predictor.UploadedFile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field[0], err)
		}
	}

	name := file.Name
	if name == "" {
		name = "upload"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
