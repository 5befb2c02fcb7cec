package router

import (
	"net/http"

	"github.com/gorilla/websocket"

	postHandler "postserver/internal/post"
	"postserver/middleware"
	"postserver/pkg/logger"
	"postserver/pkg/metrics"
	"postserver/socket"
)

func Setup(posts *postHandler.PostHandler, hub *socket.Hub, upgrader *websocket.Upgrader, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	// Realtime post events
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, upgrader, w, r)
	})

	// REST API
	mux.HandleFunc("GET /posts", posts.GetPosts)
	mux.HandleFunc("GET /post/{id}", posts.GetPost)
	mux.HandleFunc("POST /addPost", posts.CreatePost)
	mux.HandleFunc("POST /updatePost", posts.UpdatePost)
	mux.HandleFunc("POST /deletePost/{id}", posts.DeletePost)

	// Operations
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", health)

	cors := middleware.CORSMiddleware(allowedOrigins)
	return middleware.RecoverMiddleware(middleware.LoggingMiddleware(cors(mux)))
}

func health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.FromContext(r.Context()).Warnf("Router: failed to write health response: %v", err)
	}
}
