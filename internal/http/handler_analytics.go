package http

import (
	"net/http"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handlers) Dashboard(c *gin.Context) {
	snapshot, err := h.dashboard.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handlers) GeneralAnalytics(c *gin.Context) {
	report, err := h.analytics.General(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UserAnalytics reports on an arbitrary user. A malformed id is a 400
// validation failure here, unlike issue endpoints where it maps to 404.
func (h *Handlers) UserAnalytics(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Field: "userId", Msg: "invalid user id"}}})
		return
	}
	report, err := h.analytics.ForUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
