package server

import (
	"net/http"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/session"

	"github.com/gin-gonic/gin"
)

func (s *Server) createSession(c *gin.Context) {
	c.JSON(http.StatusCreated, s.sessions.New())
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.sessions.Get(sessionID(c))
	if err != nil {
		abortWith(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type viewRequest struct {
	View string `json:"view" binding:"required"`
	User string `json:"user"`
}

func (s *Server) putSessionView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err)
		return
	}
	view, err := session.ParseView(req.View)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err)
		return
	}
	sess, err := s.sessions.Update(sessionID(c), func(sess *session.Session) {
		sess.View = view
		if req.User != "" {
			sess.User = req.User
		}
	})
	if err != nil {
		abortWith(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
