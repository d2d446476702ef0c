package http

import (
	"net/http"
	"strings"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func authResponse(token string, u domain.User) gin.H {
	return gin.H{"token": token, "user": u.Info()}
}

func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Msg: "invalid request body"}}})
		return
	}
	var fes []domain.FieldError
	if strings.TrimSpace(req.Name) == "" {
		fes = append(fes, domain.FieldError{Field: "name", Msg: "name is required"})
	}
	if !validEmail(req.Email) {
		fes = append(fes, domain.FieldError{Field: "email", Msg: "a valid email is required"})
	}
	if len(req.Password) < 6 {
		fes = append(fes, domain.FieldError{Field: "password", Msg: "password must be at least 6 characters"})
	}
	if len(fes) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fes})
		return
	}
	token, u, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse(token, u))
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Msg: "email and password are required"}}})
		return
	}
	token, u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(token, u))
}

func (h *Handlers) Me(c *gin.Context) {
	token, u, err := h.auth.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(token, u))
}

func (h *Handlers) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Msg: "invalid request body"}}})
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Field: "name", Msg: "name cannot be empty"}}})
		return
	}
	if req.Email != nil && !validEmail(*req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Field: "email", Msg: "a valid email is required"}}})
		return
	}
	token, u, err := h.auth.UpdateProfile(c.Request.Context(), currentUser(c), req.Name, req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(token, u))
}

func (h *Handlers) DeleteMe(c *gin.Context) {
	if err := h.auth.DeleteAccount(c.Request.Context(), currentUser(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "account deleted"})
}

// validEmail is a shape check, not RFC validation: something before and
// after a single-ish @ with a dot in the domain part.
func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	dom := s[at+1:]
	dot := strings.LastIndex(dom, ".")
	return dot > 0 && dot < len(dom)-1
}
