package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/example/pawprint/internal/predictor"
	"github.com/example/pawprint/internal/usecase"
)

// MaxUploadSize bounds the multipart memory buffer; larger files spill to disk.
const MaxUploadSize = 10 << 20

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.UploadClient, reportDir string) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/view", func(c *gin.Context) {
		c.JSON(http.StatusOK, uc.Display())
	})

	router.POST("/upload", func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}

		upload := predictor.UploadedFile{
			Name:        file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Data:        data,
		}

		// A dropped browser connection must not turn the upload into an error.
		ctx := context.WithoutCancel(c.Request.Context())
		display, err := uc.SubmitImage(ctx, upload)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, display)
		case errors.Is(err, usecase.ErrSuperseded):
			c.JSON(http.StatusConflict, display)
		default:
			c.JSON(http.StatusBadGateway, display)
		}
	})

	router.POST("/report", func(c *gin.Context) {
		ctx := context.WithoutCancel(c.Request.Context())
		outcome, err := uc.RequestReport(ctx)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{
				"file_name": outcome.FileName,
				"url":       outcome.URL,
				"path":      outcome.Path,
				"href":      path.Join("/reports", outcome.FileName),
			})
		case errors.Is(err, predictor.ErrNoUpload):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": predictor.UserMessage(err)})
		case errors.Is(err, usecase.ErrReportInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": usecase.ReportAlert(err)})
		}
	})

	if reportDir != "" {
		router.Static("/reports", reportDir)
	}
}
