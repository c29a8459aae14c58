package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/hirematch/internal/models"
	"alfredoptarigan/hirematch/internal/services"
)

type MarketHandler struct {
	marketService services.MarketService
	errors        *ErrorReporter
}

func NewMarketHandler(marketService services.MarketService, reporter *ErrorReporter) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
		errors:        reporter,
	}
}

// HandleSalary handles GET /market/salary?title=&location=
func (h *MarketHandler) HandleSalary(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.Query("title"))
	location := strings.TrimSpace(c.Query("location"))

	if title == "" {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "title is required")
	}

	histogram, err := h.marketService.SalaryHistogram(c.UserContext(), title, location)
	if err != nil {
		return h.errors.ServerError(c, fiber.StatusBadGateway, "Failed to fetch salary data", err)
	}

	return c.JSON(models.SalaryResponse{
		Title:     title,
		Location:  location,
		Histogram: histogram,
	})
}
