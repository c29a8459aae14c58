package handlers

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/hirematch/internal/models"
	"alfredoptarigan/hirematch/internal/services"
)

type UploadHandler struct {
	pdfParser   services.PDFParserService
	maxFileSize int64
	errors      *ErrorReporter
}

func NewUploadHandler(
	pdfParser services.PDFParserService,
	maxFileSize int64,
	reporter *ErrorReporter,
) *UploadHandler {
	return &UploadHandler{
		pdfParser:   pdfParser,
		maxFileSize: maxFileSize,
		errors:      reporter,
	}
}

// HandleResumeParse handles POST /ai/resume/parse. The upload is parsed in
// memory and never stored.
func (h *UploadHandler) HandleResumeParse(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "Please upload the resume as the 'resume' form field")
	}

	if file.Size > h.maxFileSize {
		return h.errors.ClientError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize))
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "Only PDF files are accepted")
	}

	f, err := file.Open()
	if err != nil {
		return h.errors.ServerError(c, fiber.StatusInternalServerError, "Failed to read upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return h.errors.ServerError(c, fiber.StatusInternalServerError, "Failed to read upload", err)
	}

	content, err := h.pdfParser.ExtractText(data)
	if err != nil {
		if errors.Is(err, services.ErrNoPDFText) {
			return h.errors.ClientError(c, fiber.StatusUnprocessableEntity, "No text could be extracted from the PDF")
		}
		return h.errors.ClientError(c, fiber.StatusBadRequest, "File is not a readable PDF")
	}

	return c.JSON(models.ResumeParseResponse{
		Text:  content.Text,
		Pages: content.PageCount,
	})
}
