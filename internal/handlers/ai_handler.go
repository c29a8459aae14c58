package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/hirematch/internal/models"
	"alfredoptarigan/hirematch/internal/services"
)

type Embedder interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

type AIHandler struct {
	aiService        services.AIService
	embedder         Embedder
	maxEmbeddingText int
	errors           *ErrorReporter
}

func NewAIHandler(
	aiService services.AIService,
	embedder Embedder,
	maxEmbeddingText int,
	reporter *ErrorReporter,
) *AIHandler {
	return &AIHandler{
		aiService:        aiService,
		embedder:         embedder,
		maxEmbeddingText: maxEmbeddingText,
		errors:           reporter,
	}
}

// HandleJobDescription handles POST /ai/job-description
func (h *AIHandler) HandleJobDescription(c *fiber.Ctx) error {
	var req models.JobDescriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if strings.TrimSpace(req.Title) == "" {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "title is required")
	}

	description, err := h.aiService.GenerateJobDescription(c.UserContext(), req)
	if err != nil {
		return h.errors.ServerError(c, fiber.StatusBadGateway, "Failed to generate job description", err)
	}

	return c.JSON(models.JobDescriptionResponse{Description: description})
}

// HandleJobAssist handles POST /ai/job-assist
func (h *AIHandler) HandleJobAssist(c *fiber.Ctx) error {
	var req models.JobAssistRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Description) == "" {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "title or description is required")
	}

	tips, err := h.aiService.JobAssist(c.UserContext(), req)
	if err != nil {
		return h.errors.ServerError(c, fiber.StatusBadGateway, "Failed to generate job tips", err)
	}

	return c.JSON(models.JobAssistResponse{Tips: tips})
}

// HandleEmbedding handles POST /ai/embedding
func (h *AIHandler) HandleEmbedding(c *fiber.Ctx) error {
	var req models.EmbeddingRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if strings.TrimSpace(req.Text) == "" {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "text is required")
	}
	if utf8.RuneCountInString(req.Text) > h.maxEmbeddingText {
		return h.errors.ClientError(c, fiber.StatusBadRequest,
			fmt.Sprintf("text must be at most %d characters", h.maxEmbeddingText))
	}

	embedding, err := h.embedder.Generate(c.UserContext(), req.Text)
	if err != nil {
		return h.errors.ServerError(c, fiber.StatusBadGateway, "Failed to generate embedding", err)
	}

	return c.JSON(models.EmbeddingResponse{
		Embedding:  embedding,
		Dimensions: len(embedding),
	})
}

// HandleStructured returns the handler for one structured-output AI task,
// e.g. POST /ai/resume-analysis.
func (h *AIHandler) HandleStructured(task string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.StructuredRequest
		if err := c.BodyParser(&req); err != nil {
			return h.errors.ClientError(c, fiber.StatusBadRequest, "Invalid request payload")
		}

		if strings.TrimSpace(req.Prompt) == "" {
			return h.errors.ClientError(c, fiber.StatusBadRequest, "prompt is required")
		}

		result, err := h.aiService.GenerateStructured(c.UserContext(), task, req)
		if err != nil {
			if errors.Is(err, services.ErrInvalidSchema) {
				return h.errors.ClientError(c, fiber.StatusBadRequest, "schema is not a valid JSON schema")
			}
			return h.errors.ServerError(c, fiber.StatusBadGateway, fmt.Sprintf("Failed to generate %s", task), err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(result)
	}
}
