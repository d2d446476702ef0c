package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/Ashen-sam/issue-tracker-api/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createIssueRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Severity    string `json:"severity"`
	AssignedTo  string `json:"assignedTo"`
}

type updateIssueRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Severity    *string `json:"severity"`
	AssignedTo  *string `json:"assignedTo"`
}

// issueID parses the :id path parameter. A malformed id maps to 404 on
// issue endpoints, matching the contract of "no such issue".
func issueID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handlers) ListIssues(c *gin.Context) {
	q := domain.ListQuery{
		Status:    domain.Status(c.Query("status")),
		Priority:  domain.Priority(c.Query("priority")),
		Severity:  domain.Severity(c.Query("severity")),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	q.Page, _ = strconv.ParseInt(c.Query("page"), 10, 64)
	q.Limit, _ = strconv.ParseInt(c.Query("limit"), 10, 64)
	issues, pagination, statusCounts, err := h.issues.List(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"issues":       issues,
		"pagination":   pagination,
		"statusCounts": statusCounts,
	})
}

func (h *Handlers) GetIssue(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	issue, err := h.issues.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *Handlers) CreateIssue(c *gin.Context) {
	var req createIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Msg: "invalid request body"}}})
		return
	}
	var fes []domain.FieldError
	if strings.TrimSpace(req.Title) == "" {
		fes = append(fes, domain.FieldError{Field: "title", Msg: "title is required"})
	}
	if strings.TrimSpace(req.Description) == "" {
		fes = append(fes, domain.FieldError{Field: "description", Msg: "description is required"})
	}
	if req.Status != "" && !domain.Status(req.Status).IsValid() {
		fes = append(fes, domain.FieldError{Field: "status", Msg: "invalid status"})
	}
	if req.Priority != "" && !domain.Priority(req.Priority).IsValid() {
		fes = append(fes, domain.FieldError{Field: "priority", Msg: "invalid priority"})
	}
	if req.Severity != "" && !domain.Severity(req.Severity).IsValid() {
		fes = append(fes, domain.FieldError{Field: "severity", Msg: "invalid severity"})
	}
	var assignee *primitive.ObjectID
	if req.AssignedTo != "" {
		id, err := primitive.ObjectIDFromHex(req.AssignedTo)
		if err != nil {
			fes = append(fes, domain.FieldError{Field: "assignedTo", Msg: "assignedTo must be a valid user id"})
		} else {
			assignee = &id
		}
	}
	if len(fes) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fes})
		return
	}
	issue, err := h.issues.Create(c.Request.Context(), currentUser(c), services.NewIssue{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.Status(req.Status),
		Priority:    domain.Priority(req.Priority),
		Severity:    domain.Severity(req.Severity),
		AssignedTo:  assignee,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *Handlers) UpdateIssue(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	var req updateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Msg: "invalid request body"}}})
		return
	}
	var fes []domain.FieldError
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		fes = append(fes, domain.FieldError{Field: "title", Msg: "title cannot be empty"})
	}
	if req.Status != nil && !domain.Status(*req.Status).IsValid() {
		fes = append(fes, domain.FieldError{Field: "status", Msg: "invalid status"})
	}
	if req.Priority != nil && !domain.Priority(*req.Priority).IsValid() {
		fes = append(fes, domain.FieldError{Field: "priority", Msg: "invalid priority"})
	}
	if req.Severity != nil && !domain.Severity(*req.Severity).IsValid() {
		fes = append(fes, domain.FieldError{Field: "severity", Msg: "invalid severity"})
	}
	upd := domain.IssueUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	// "" clears the assignee, anything else must be a well-formed id.
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			upd.ClearAssignee = true
		} else if uid, err := primitive.ObjectIDFromHex(*req.AssignedTo); err != nil {
			fes = append(fes, domain.FieldError{Field: "assignedTo", Msg: "assignedTo must be a valid user id"})
		} else {
			upd.Assignee = &uid
		}
	}
	if len(fes) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fes})
		return
	}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		upd.Status = &st
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		upd.Priority = &p
	}
	if req.Severity != nil {
		sev := domain.Severity(*req.Severity)
		upd.Severity = &sev
	}
	issue, err := h.issues.Update(c.Request.Context(), id, upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *Handlers) DeleteIssue(c *gin.Context) {
	id, ok := issueID(c)
	if !ok {
		return
	}
	if err := h.issues.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "issue deleted"})
}
