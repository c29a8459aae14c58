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

type Searcher interface {
	SearchJobs(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
	SearchCandidates(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}

type SearchHandler struct {
	searcher    Searcher
	maxQueryLen int
	errors      *ErrorReporter
}

func NewSearchHandler(searcher Searcher, maxQueryLen int, reporter *ErrorReporter) *SearchHandler {
	return &SearchHandler{
		searcher:    searcher,
		maxQueryLen: maxQueryLen,
		errors:      reporter,
	}
}

// HandleSearchJobs handles POST /search/jobs
func (h *SearchHandler) HandleSearchJobs(c *fiber.Ctx) error {
	return h.handle(c, h.searcher.SearchJobs)
}

// HandleSearchCandidates handles POST /search/candidates
func (h *SearchHandler) HandleSearchCandidates(c *fiber.Ctx) error {
	return h.handle(c, h.searcher.SearchCandidates)
}

func (h *SearchHandler) handle(c *fiber.Ctx, search func(context.Context, models.SearchRequest) (*models.SearchResponse, error)) error {
	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "query is required")
	}
	if h.maxQueryLen > 0 && utf8.RuneCountInString(req.Query) > h.maxQueryLen {
		return h.errors.ClientError(c, fiber.StatusBadRequest,
			fmt.Sprintf("query must be at most %d characters", h.maxQueryLen))
	}
	if req.Limit < 0 {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "limit must not be negative")
	}

	resp, err := search(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyQuery):
			return h.errors.ClientError(c, fiber.StatusBadRequest, "query is required")
		case errors.Is(err, services.ErrDimensionMismatch),
			errors.Is(err, services.ErrEmbeddingProvider),
			errors.Is(err, services.ErrUpstream):
			return h.errors.ServerError(c, fiber.StatusBadGateway, "Search backend failed", err)
		default:
			return h.errors.ServerError(c, fiber.StatusInternalServerError, "Search failed", err)
		}
	}

	return c.JSON(resp)
}
