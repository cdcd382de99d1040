package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/angohost/payref/internal/app/service/records"
	models "github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/pkg/response"
	"github.com/angohost/payref/pkg/types"
)

type ListRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

func (r *ListRequest) toScan() *records.ScanRequest {
	return &records.ScanRequest{Filters: r.Filters, From: r.From, Size: r.Size, SortBy: r.SortBy, SortOrder: r.SortOrder}
}

type PaymentReferenceItem struct {
	ID        string                        `json:"id"`
	OrderID   string                        `json:"order_id"`
	InvoiceID *string                       `json:"invoice_id"`
	UserID    string                        `json:"user_id"`
	Provider  types.PaymentProvider         `json:"provider"`
	Reference string                        `json:"reference"`
	Amount    int64                         `json:"amount"`
	Status    models.PaymentReferenceStatus `json:"status"`
	ExpiresAt *time.Time                    `json:"expires_at"`
	CreatedAt time.Time                     `json:"created_at"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

func toPaymentReferenceItem(m *models.PaymentReference) *PaymentReferenceItem {
	return &PaymentReferenceItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		InvoiceID: m.InvoiceID,
		UserID:    m.UserID,
		Provider:  m.Provider,
		Reference: m.Reference,
		Amount:    m.Amount,
		Status:    m.Status,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type ListPaymentReferencesResponse struct {
	Items []*PaymentReferenceItem `json:"items"`
	Total int64                   `json:"total"`
}

// ApiListPaymentReferences handles POST /api/v1/admin/list_payment_references
func ApiListPaymentReferences(svc *records.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanReferences(c.Request.Context(), req.toScan())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.PaymentReference, _ int) *PaymentReferenceItem { return toPaymentReferenceItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListPaymentReferencesResponse{Items: items, Total: res.Total}))
	}
}

type ListPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

// ApiListPayments handles POST /api/v1/admin/list_payments
func ApiListPayments(svc *records.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanPayments(c.Request.Context(), req.toScan())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ListPaymentsResponse{Items: res.Items, Total: res.Total}))
	}
}

type ListCallbackLogsResponse struct {
	Items []*models.CallbackLog `json:"items"`
	Total int64                 `json:"total"`
}

// ApiListCallbackLogs handles POST /api/v1/admin/list_callback_logs.
// Filter on status=unmatched to get the manual-review queue.
func ApiListCallbackLogs(svc *records.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanCallbackLogs(c.Request.Context(), req.toScan())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ListCallbackLogsResponse{Items: res.Items, Total: res.Total}))
	}
}

func RegisterAdminRoutes(r gin.IRouter, svc *records.Service) {
	r.POST("/list_payment_references", ApiListPaymentReferences(svc))
	r.POST("/list_payments", ApiListPayments(svc))
	r.POST("/list_callback_logs", ApiListCallbackLogs(svc))
}
