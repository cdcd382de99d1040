package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	walletsvc "github.com/angohost/payref/internal/app/service/wallet"
	"github.com/angohost/payref/pkg/logctx"
	"github.com/angohost/payref/pkg/response"
)

// ApiCheckPending settles any issued wallet-deposit invoices for the
// authenticated user. Safe to call repeatedly; settled invoices are
// skipped.
func ApiCheckPending(svc *walletsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
			return
		}

		res, err := svc.CheckPending(c.Request.Context(), userID)
		if err != nil {
			logctx.FromGin(c, log).Errorw("check_pending failed", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterWalletRoutes(r gin.IRouter, svc *walletsvc.Service, log *zap.SugaredLogger) {
	r.POST("/check_pending", ApiCheckPending(svc, log))
}
