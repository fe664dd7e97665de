package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/pawprint/internal/config"
	"github.com/example/pawprint/internal/handlers"
	"github.com/example/pawprint/internal/httpclient"
	"github.com/example/pawprint/internal/logging"
	"github.com/example/pawprint/internal/predictor"
	"github.com/example/pawprint/internal/session"
	"github.com/example/pawprint/internal/terminal"
	"github.com/example/pawprint/internal/usecase"
)

const usage = `usage:
  pawprint serve [-addr :8080]
  pawprint classify [-report] [-v] <image>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		err = runServe(cfg, os.Args[2:])
	case "classify":
		err = runClassify(cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindEndpointFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.PredictURL, "predict-url", cfg.PredictURL, "classification endpoint")
	fs.StringVar(&cfg.ReportURL, "report-url", cfg.ReportURL, "report endpoint")
	fs.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "directory for downloaded reports")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request timeout")
}

func runServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	bindEndpointFlags(fs, cfg)
	fs.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return logging.NewOperationError("config.validate", "", err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	client := httpclient.New(cfg.PredictURL, cfg.ReportURL, httpClient, logger)

	healthCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.CheckHealth(healthCtx); err != nil {
		logger.Warn("classification service not available", zap.Error(err), zap.String("predict_url", cfg.PredictURL))
	}
	cancel()

	notifier := usecase.NotifierFunc(func(message string) {
		logger.Info("alert", zap.String("message", message))
	})
	downloader := usecase.NewFileDownloader(httpClient, cfg.ReportDir)
	uc := usecase.NewUploadClient(session.New(), client, downloader, notifier, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())
	r.MaxMultipartMemory = handlers.MaxUploadSize
	handlers.RegisterRoutes(r, uc, cfg.ReportDir)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	logger.Info("PawPrint client listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("predict_url", cfg.PredictURL),
		zap.String("report_url", cfg.ReportURL),
	)
	return serveHTTPServer(server, 15*time.Second, logger)
}

func runClassify(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	bindEndpointFlags(fs, cfg)
	report := fs.Bool("report", false, "generate and download the PDF report")
	verbose := fs.Bool("v", false, "log to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New(usage)
	}
	if err := cfg.Validate(); err != nil {
		return logging.NewOperationError("config.validate", "", err)
	}

	logger, err := logging.NewConsoleLogger(*verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	file, err := readUpload(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	client := httpclient.New(cfg.PredictURL, cfg.ReportURL, httpClient, logger)
	renderer := terminal.New(os.Stdout, nil)
	downloader := usecase.NewFileDownloader(httpClient, cfg.ReportDir)
	uc := usecase.NewUploadClient(session.New(), client, downloader, renderer, logger)

	stopSpinner := renderer.Loading(ctx)
	display, submitErr := uc.SubmitImage(ctx, file)
	stopSpinner()

	if err := renderer.Render(ctx, display); err != nil {
		return err
	}
	if submitErr != nil {
		return errors.New("classification failed")
	}

	if !*report {
		return nil
	}
	outcome, err := uc.RequestReport(ctx)
	if err != nil {
		return errors.New("report generation failed")
	}
	fmt.Fprintf(os.Stdout, "Report saved to %s\n", outcome.Path)
	return nil
}

func readUpload(path string) (predictor.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return predictor.UploadedFile{}, logging.NewOperationError("classify.read_image", "", err)
	}
	return predictor.UploadedFile{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
