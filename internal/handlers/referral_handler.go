package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/hirematch/internal/middleware"
	"alfredoptarigan/hirematch/internal/models"
	"alfredoptarigan/hirematch/internal/repositories"
)

type ReferralHandler struct {
	ledgerRepo repositories.LedgerRepository
	errors     *ErrorReporter
}

func NewReferralHandler(ledgerRepo repositories.LedgerRepository, reporter *ErrorReporter) *ReferralHandler {
	return &ReferralHandler{
		ledgerRepo: ledgerRepo,
		errors:     reporter,
	}
}

// HandleRedeem handles POST /referrals/redeem
func (h *ReferralHandler) HandleRedeem(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)

	var req models.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if req.Amount <= 0 {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "amount must be a positive number of points")
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if req.Reason != "" {
		metadata["reason"] = req.Reason
	}

	return h.adjust(c, user.ID, -req.Amount, models.LedgerTypeRedemption, metadata)
}

// HandleAdjust handles POST /admin/referrals/adjust
func (h *ReferralHandler) HandleAdjust(c *fiber.Ctx) error {
	admin := middleware.UserFromCtx(c)

	var req models.AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if strings.TrimSpace(req.UserID) == "" {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "user_id is required")
	}
	if req.Delta == 0 {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "delta must not be zero")
	}

	txType := req.Type
	if txType == "" {
		txType = models.LedgerTypeAdjustment
	}
	if !models.ValidLedgerType(txType) {
		return h.errors.ClientError(c, fiber.StatusBadRequest, fmt.Sprintf("unknown ledger type %q", req.Type))
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["adjusted_by"] = admin.ID

	return h.adjust(c, req.UserID, req.Delta, txType, metadata)
}

func (h *ReferralHandler) adjust(c *fiber.Ctx, userID string, delta int64, txType string, metadata map[string]interface{}) error {
	balance, err := h.ledgerRepo.TryAdjust(c.UserContext(), userID, delta, txType, metadata)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientBalance):
			return h.errors.ClientError(c, fiber.StatusConflict, "Insufficient referral balance")
		case errors.Is(err, repositories.ErrBalanceOverflow):
			return h.errors.ClientError(c, fiber.StatusBadRequest, "Adjustment exceeds the maximum referral balance")
		case errors.Is(err, repositories.ErrUserNotFound):
			return h.errors.ClientError(c, fiber.StatusNotFound, "User not found")
		default:
			return h.errors.ServerError(c, fiber.StatusInternalServerError, "Failed to update referral balance", err)
		}
	}

	return c.JSON(models.BalanceResponse{
		UserID:  userID,
		Balance: balance,
	})
}

// HandleLedger handles GET /referrals/ledger
func (h *ReferralHandler) HandleLedger(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)

	limit := c.QueryInt("limit", 50)
	if limit <= 0 {
		return h.errors.ClientError(c, fiber.StatusBadRequest, "limit must be positive")
	}

	entries, err := h.ledgerRepo.History(c.UserContext(), user.ID, limit)
	if err != nil {
		return h.errors.ServerError(c, fiber.StatusInternalServerError, "Failed to load referral ledger", err)
	}

	return c.JSON(fiber.Map{
		"user_id": user.ID,
		"balance": user.ReferralPoints,
		"entries": entries,
	})
}
