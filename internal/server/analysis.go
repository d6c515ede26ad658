package server

import (
	"errors"
	"net/http"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) getAnalysis(c *gin.Context) {
	code := market.Normalize(c.Param("code"))
	an, err := s.analyzer.Analyze(c.Request.Context(), code)
	if err != nil {
		s.logger.Info("analysis failed", zap.String("code", code), zap.Error(err))
		abortWith(c, statusFor(err), err)
		return
	}

	if err := s.recorder.RecordAnalysis(an.Snapshot()); err != nil {
		s.logger.Error("record analysis", zap.String("code", code), zap.Error(err))
	}
	if id := sessionID(c); id != "" {
		_, err := s.sessions.Update(id, func(sess *session.Session) {
			sess.Code = an.Code
			sess.View = session.ViewAnalysis
		})
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			s.logger.Warn("update session", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, an)
}

func (s *Server) getAnalysisHistory(c *gin.Context) {
	code := market.Normalize(c.Param("code"))
	limit, err := intParam(c, "limit", 20, 1, 500)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err)
		return
	}
	snaps, err := s.recorder.RecentAnalyses(code, limit)
	if err != nil {
		s.logger.Error("load history", zap.String("code", code), zap.Error(err))
		abortWith(c, http.StatusInternalServerError, err)
		return
	}
	if snaps == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, snaps)
}
