package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
	"github.com/comanda-app/comanda-api/utils"
)

// PaymentController exposes settlement and payment reporting
type PaymentController struct {
	payments *services.PaymentService
}

// NewPaymentController creates a payment controller
func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// SplitRequest is one payer's declared share in a settlement request
type SplitRequest struct {
	PayerName string  `json:"payer_name" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required"`
}

// ProcessPaymentRequest represents the request body for settling an order.
// Amounts arrive as floats from the client and are converted to decimals at
// this boundary; reconciliation happens in the service.
type ProcessPaymentRequest struct {
	OrderID uint           `json:"order_id" binding:"required"`
	Amount  float64        `json:"amount" binding:"required,gt=0"`
	Method  string         `json:"method"`
	Tip     float64        `json:"tip" binding:"omitempty,gte=0"`
	Notes   string         `json:"notes"`
	Splits  []SplitRequest `json:"splits" binding:"omitempty,dive"`
}

// Process handles POST /api/v1/payments - settles an order (cashiers only)
func (ctl *PaymentController) Process(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleCashier, models.RoleAdmin) {
		return
	}

	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}
	if len(req.Splits) == 0 && req.Method == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "A payment method is required unless splits are provided",
			},
		})
		return
	}

	splits := make([]services.SplitInput, 0, len(req.Splits))
	for _, s := range req.Splits {
		splits = append(splits, services.SplitInput{
			PayerName: s.PayerName,
			Amount:    utils.MoneyFromFloat(s.Amount),
			Method:    s.Method,
		})
	}

	payment, err := ctl.payments.ProcessPayment(c.Request.Context(), services.ProcessPaymentInput{
		OrderID:   req.OrderID,
		CashierID: user.ID,
		Amount:    utils.MoneyFromFloat(req.Amount),
		Method:    req.Method,
		TipAmount: utils.MoneyFromFloat(req.Tip),
		Notes:     req.Notes,
		Splits:    splits,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    payment,
	})
}

// Settleable handles GET /api/v1/payments/settleable - delivered orders
// waiting for a cashier
func (ctl *PaymentController) Settleable(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleCashier, models.RoleAdmin) {
		return
	}

	orders, err := ctl.payments.GetSettleable(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// History handles GET /api/v1/payments/history?from=&to= - completed
// payments in a window (defaults to the current day)
func (ctl *PaymentController) History(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleCashier, models.RoleAdmin) {
		return
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "from must be an RFC3339 timestamp",
				},
			})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "to must be an RFC3339 timestamp",
				},
			})
			return
		}
		to = parsed
	}

	payments, err := ctl.payments.History(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payments,
	})
}
