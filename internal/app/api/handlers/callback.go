package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/angohost/payref/internal/app/service/callback"
)

// RegisterCallbackRoutes mounts the provider callback endpoint. Both
// verbs are registered because Multicaixa redelivers as GET with query
// parameters while AppyPay POSTs JSON; the handler probes either shape.
// No auth: providers cannot carry our tokens.
func RegisterCallbackRoutes(r gin.IRouter, h *callback.Handler) {
	r.GET("/callback/:provider", h.Handle)
	r.POST("/callback/:provider", h.Handle)
}
