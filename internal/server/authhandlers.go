package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// registerJSON creates a new account over the JSON API.
func (s *Server) registerJSON(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	user, err := s.Auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_id":         user.ID,
		"username":        user.Username,
		"account_balance": user.AccountBalance,
	})
}

// loginJSON verifies credentials and returns a bearer token.
func (s *Server) loginJSON(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	token, user, err := s.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "username": user.Username})
}

// showLogin renders the login form.
func (s *Server) showLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// loginForm handles the HTML login form: on success the token goes into the
// session cookie and the user lands on their open positions.
func (s *Server) loginForm(c *gin.Context) {
	token, _, err := s.Auth.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"error": "Invalid username or password."})
		return
	}
	c.SetCookie(s.CookieName, token, 0, "/", "", false, true)
	c.Redirect(http.StatusFound, "/trades/open")
}

// showRegister renders the registration form.
func (s *Server) showRegister(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{})
}

// registerForm handles the HTML registration form and logs the new user in.
func (s *Server) registerForm(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if _, err := s.Auth.Register(c.Request.Context(), username, password); err != nil {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{"error": "Could not create the account."})
		return
	}

	token, _, err := s.Auth.Login(c.Request.Context(), username, password)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.SetCookie(s.CookieName, token, 0, "/", "", false, true)
	c.Redirect(http.StatusFound, "/trades/open")
}

// logout clears the session cookie.
func (s *Server) logout(c *gin.Context) {
	c.SetCookie(s.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}
