package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quickbite/internal/mail"
)

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// Contact relays a contact-form submission to the support inbox. Mail is
// fire-and-forget; a send failure is logged inside the mail service.
func Contact(mailer *mail.Service, inbox string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if inbox == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "contact inbox not configured"})
			return
		}

		go mailer.RelayContactMessage(inbox, strings.TrimSpace(req.Email),
			strings.TrimSpace(req.Name), strings.TrimSpace(req.Message))

		c.JSON(http.StatusOK, gin.H{"message": "message received"})
	}
}
