package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/pawprint/internal/handlers"
	"github.com/example/pawprint/internal/httpclient"
	"github.com/example/pawprint/internal/session"
	"github.com/example/pawprint/internal/usecase"
	"github.com/example/pawprint/internal/view"
)

// fakeBackend mimics the classification and report services.
func fakeBackend(t *testing.T, predictStarted chan<- struct{}, releasePredict <-chan struct{}) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		if predictStarted != nil {
			select {
			case predictStarted <- struct{}{}:
			default:
			}
		}
		if releasePredict != nil {
			<-releasePredict
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[{"breed":"golden_retriever","confidence":0.87}]}`))
	})
	mux.HandleFunc("/generate_pdf", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("breed") != "golden_retriever" {
			http.Error(w, `{"error":"bad breed"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pdf_url":"/reports/golden_retriever_report.pdf"}`))
	})
	mux.HandleFunc("/reports/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, backend *httptest.Server, reportDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	client := httpclient.New(backend.URL+"/predict", backend.URL+"/generate_pdf", backend.Client(), logger)
	downloader := usecase.NewFileDownloader(backend.Client(), reportDir)
	uc := usecase.NewUploadClient(session.New(), client, downloader, nil, logger)

	router := gin.New()
	router.MaxMultipartMemory = handlers.MaxUploadSize
	handlers.RegisterRoutes(router, uc, reportDir)
	return router
}

func imageForm(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "dog.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("\xff\xd8\xff fake jpeg"))
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadAndReportEndToEnd(t *testing.T) {
	backend := fakeBackend(t, nil, nil)
	reportDir := t.TempDir()
	router := newTestApp(t, backend, reportDir)

	body, contentType := imageForm(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", resp.Code, resp.Body.String())
	}
	var display view.Display
	if err := json.Unmarshal(resp.Body.Bytes(), &display); err != nil {
		t.Fatalf("decode display: %v", err)
	}
	if display.BreedName != "GOLDEN RETRIEVER" || display.Percent != 87 {
		t.Fatalf("unexpected display %+v", display)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/report", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("report failed: %d %s", resp.Code, resp.Body.String())
	}

	data, err := os.ReadFile(filepath.Join(reportDir, "golden_retriever_report.pdf"))
	if err != nil {
		t.Fatalf("expected report on disk: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected report contents %q", data)
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	logger := zap.NewNop()

	requestStarted := make(chan struct{}, 1)
	releaseRequest := make(chan struct{})
	defer func() {
		select {
		case <-releaseRequest:
		default:
			close(releaseRequest)
		}
	}()

	backend := fakeBackend(t, requestStarted, releaseRequest)
	router := newTestApp(t, backend, t.TempDir())

	t.Log("creating listener")
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	server := &http.Server{Handler: router}

	signalCh := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- serveHTTPServerWithOptions(server, 2*time.Second, logger, listener, signalCh)
	}()

	addr := listener.Addr().String()
	t.Logf("listening on %s", addr)
	waitForServer(t, addr)

	client := &http.Client{Timeout: 2 * time.Second}
	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	body, contentType := imageForm(t)
	go func() {
		t.Log("sending request")
		resp, err := client.Post("http://"+addr+"/upload", contentType, body)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	select {
	case <-requestStarted:
		t.Log("request started")
	case <-time.After(2 * time.Second):
		t.Fatal("request did not start in time")
	}

	t.Log("sending signal")
	signalCh <- syscall.SIGTERM

	time.Sleep(50 * time.Millisecond)
	close(releaseRequest)
	t.Log("released request")

	select {
	case resp := <-respCh:
		t.Cleanup(func() { resp.Body.Close() })
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			t.Fatalf("unexpected status: %d body: %s", resp.StatusCode, string(body))
		}
	case err := <-errCh:
		t.Fatalf("request failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server did not shutdown cleanly: %v", err)
		}
		t.Log("server shutdown complete")
	case <-time.After(2 * time.Second):
		t.Fatal("server did not exit after shutdown")
	}
}

func TestReadUploadKeepsFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rex.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nrest"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	file, err := readUpload(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Name != "rex.png" || file.ContentType != "image/png" {
		t.Fatalf("unexpected upload %+v", file)
	}
	if _, err := readUpload(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server %s did not become ready", addr)
}
