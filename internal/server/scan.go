package server

import (
	"context"
	"net/http"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/recorder"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/scanner"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// scanMessage is one frame of the scan stream.
type scanMessage struct {
	Type    string       `json:"type"` // "hit", "error" or "done"
	Hit     *scanner.Hit `json:"hit,omitempty"`
	Code    string       `json:"code,omitempty"`
	Error   string       `json:"error,omitempty"`
	RunID   string       `json:"run_id,omitempty"`
	Pool    int          `json:"pool,omitempty"`
	Hits    int          `json:"hits,omitempty"`
	Errors  int          `json:"errors,omitempty"`
	Aborted bool         `json:"aborted,omitempty"`
}

type scanParams struct {
	market    model.Market
	limit     int
	minWeekly int
}

func (s *Server) scanParams(c *gin.Context, sess *session.Session) (scanParams, error) {
	p := scanParams{}
	var err error
	if p.market, err = marketParam(c); err != nil {
		return p, err
	}
	defLimit := s.scan.Limit
	if sess != nil && sess.ScanLimit > 0 {
		defLimit = sess.ScanLimit
	}
	if p.limit, err = intParam(c, "limit", defLimit, 0, 1000); err != nil {
		return p, err
	}
	if p.minWeekly, err = intParam(c, "min_weekly", s.scan.MinWeekly, 0, 100); err != nil {
		return p, err
	}
	return p, nil
}

// handleScan upgrades to a websocket and streams scan results until the scan
// ends or the client goes away.
func (s *Server) handleScan(c *gin.Context) {
	var sess *session.Session
	if id := sessionID(c); id != "" {
		sess, _ = s.sessions.Get(id)
	}
	params, err := s.scanParams(c, sess)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err)
		return
	}
	pool, ok := s.pools[params.market]
	if !ok {
		abortWith(c, http.StatusNotFound, errNoPool(params.market))
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go s.watchClose(conn, cancel)
	go keepAlive(ctx, conn)

	codes, err := pool.Codes(ctx)
	if err != nil {
		s.logger.Error("load pool", zap.String("market", string(params.market)), zap.Error(err))
		if werr := s.writeFrame(conn, scanMessage{Type: "error", Error: err.Error()}); werr != nil {
			s.logger.Debug("write error frame", zap.Error(werr))
		}
		return
	}
	if sess != nil {
		_, err := s.sessions.Update(sess.ID, func(ss *session.Session) {
			ss.View = session.ViewScan
			ss.ScanPool = codes
			ss.ScanLimit = params.limit
		})
		if err != nil {
			s.logger.Warn("update session", zap.String("session", sess.ID), zap.Error(err))
		}
	}

	run := &recorder.ScanRun{
		ID:        uuid.NewString(),
		Market:    params.market,
		Source:    "ws",
		StartedAt: time.Now(),
		PoolSize:  len(codes),
		MinWeekly: params.minWeekly,
	}
	sc := &scanner.Scanner{
		Analyzer:  s.analyzer,
		Delay:     s.scan.Delay,
		Limit:     params.limit,
		MinWeekly: params.minWeekly,
	}
	s.logger.Info("scan stream started", zap.String("run", run.ID), zap.String("market", string(run.Market)), zap.Int("pool", len(codes)))

	for hit, err := range sc.Scan(ctx, codes) {
		var msg scanMessage
		if err != nil {
			run.Errors++
			msg = scanMessage{Type: "error", Code: hit.Code, Error: err.Error()}
		} else {
			run.Hits++
			run.TopCodes = append(run.TopCodes, hit.Code)
			if hit.Analysis != nil {
				if err := s.recorder.RecordAnalysis(hit.Analysis.Snapshot()); err != nil {
					s.logger.Error("record analysis", zap.String("code", hit.Code), zap.Error(err))
				}
			}
			h := hit
			msg = scanMessage{Type: "hit", Hit: &h}
		}
		if err := s.writeFrame(conn, msg); err != nil {
			s.logger.Debug("write scan frame", zap.String("run", run.ID), zap.Error(err))
			cancel()
			break
		}
	}

	run.FinishedAt = time.Now()
	if err := s.recorder.RecordScan(run); err != nil {
		s.logger.Error("record scan", zap.String("run", run.ID), zap.Error(err))
	}
	aborted := ctx.Err() != nil
	s.logger.Info("scan stream finished", zap.String("run", run.ID),
		zap.Int("hits", run.Hits), zap.Int("errors", run.Errors), zap.Bool("aborted", aborted))
	if aborted {
		return
	}
	if err := s.writeFrame(conn, scanMessage{
		Type: "done", RunID: run.ID, Pool: run.PoolSize, Hits: run.Hits, Errors: run.Errors,
	}); err != nil {
		s.logger.Warn("write done frame", zap.String("run", run.ID), zap.Error(err))
		return
	}
	if err := conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(writeWait)); err != nil {
		s.logger.Debug("write close frame", zap.String("run", run.ID), zap.Error(err))
	}
}

// watchClose reads until the client disconnects and then cancels the scan.
func (s *Server) watchClose(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("scan client read", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// keepAlive pings the client so idle scans outlive the read deadline.
// WriteControl may run concurrently with the frame writer.
func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, msg scanMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (s *Server) getScanPool(c *gin.Context) {
	m, err := marketParam(c)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err)
		return
	}
	pool, ok := s.pools[m]
	if !ok {
		abortWith(c, http.StatusNotFound, errNoPool(m))
		return
	}
	codes, err := pool.Codes(c.Request.Context())
	if err != nil {
		s.logger.Error("load pool", zap.String("market", string(m)), zap.Error(err))
		abortWith(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"market": m, "codes": codes, "count": len(codes)})
}

func (s *Server) getScanRuns(c *gin.Context) {
	limit, err := intParam(c, "limit", 20, 1, 200)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err)
		return
	}
	runs, err := s.recorder.RecentScans(limit)
	if err != nil {
		abortWith(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []recorder.ScanRun{}
	}
	c.JSON(http.StatusOK, runs)
}
