// Package server 通过 WebSocket 把查看器命令转交给 annotate.Controller。
// 每个连接对应一个查看器实例和一个控制器，消息按到达顺序串行处理。
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/novvoo/go-pdf-annotate/pkg/annotate"
)

// Config 服务配置
type Config struct {
	Addr             string        // 监听地址
	Path             string        // WebSocket 路径
	Advertise        bool          // 是否通过 mDNS 广播
	ServiceName      string        // mDNS 实例名，空时使用主机名
	MaxDocumentBytes int64         // 单个文档的最大字节数
	ReadTimeout      time.Duration // 连接空闲超时，0 表示不限制

	Controller annotate.ControllerOptions
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Addr:             ":8765",
		Path:             "/ws",
		MaxDocumentBytes: 32 << 20,
		ReadTimeout:      10 * time.Minute,
	}
}

// Server 注释服务
type Server struct {
	cfg      Config
	log      *annotate.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]string
}

// New 创建服务。logger 为 nil 时使用全局记录器
func New(cfg Config, logger *annotate.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if logger == nil {
		logger = annotate.GetLogger()
	}
	return &Server{
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]string),
	}
}

// Handler 返回挂载了 WebSocket 路径的 HTTP 处理器
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.serveWS)
	return mux
}

// Sessions 当前活动连接数
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// ListenAndServe 监听 cfg.Addr 直到 ctx 结束
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve 在 ln 上提供服务直到 ctx 结束。ctx 结束时关闭所有连接
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{Handler: s.Handler()}

	if s.cfg.Advertise {
		port := ln.Addr().(*net.TCPAddr).Port
		zone, err := advertise(s.cfg.ServiceName, port, []string{"path=" + s.cfg.Path})
		if err != nil {
			s.log.Warn("mdns advertisement disabled: %v", err)
		} else {
			defer zone.Shutdown()
			s.log.Info("advertising %s on port %d", ServiceType, port)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	s.log.Info("listening on %s%s", ln.Addr(), s.cfg.Path)
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) track(conn *websocket.Conn, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = id
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	s.track(conn, id)
	defer s.untrack(conn)

	log := s.log.With("session=" + id[:8])
	opts := s.cfg.Controller
	opts.Logger = log
	ctrl := annotate.NewController(&opts)

	if s.cfg.MaxDocumentBytes > 0 {
		// base64 膨胀约 4/3，另留 JSON 外壳余量
		conn.SetReadLimit(s.cfg.MaxDocumentBytes/3*4 + 64<<10)
	}

	log.Info("viewer connected from %s", r.RemoteAddr)
	for {
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("connection closed: %v", err)
			} else {
				log.Info("viewer disconnected")
			}
			return
		}

		resp := s.handle(ctrl, log, msgType, frame)
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("write failed: %v", err)
			return
		}
	}
}

// handle 处理一帧消息；错误作为响应返回，不关闭连接
func (s *Server) handle(ctrl *annotate.Controller, log *annotate.Logger, msgType int, frame []byte) *Response {
	if msgType != websocket.TextMessage {
		return errorResponse(errors.Join(errBadRequest, errors.New("expected a text frame")))
	}
	req, err := decodeRequest(frame, s.cfg.MaxDocumentBytes)
	if err != nil {
		log.Debug("rejected frame: %v", err)
		return errorResponse(err)
	}
	res, err := ctrl.Dispatch(req.command())
	if err != nil {
		log.Debug("%s failed: %v", req.Type, err)
		return errorResponse(err)
	}
	return newResponse(res)
}
