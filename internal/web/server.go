// Package web implements the HTTP server for redapp. It serves the single
// page client, the JSON API, the help pages and two websockets: one pushing
// the application state whenever it changes, one streaming notices.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"realestate.dapp/redapp/internal/api"
	"realestate.dapp/redapp/internal/app"
	"realestate.dapp/redapp/internal/docs"
	"realestate.dapp/redapp/internal/logger"
	"realestate.dapp/redapp/internal/types"
)

// TemplateData holds the data to be passed to the HTML template.
type TemplateData struct {
	Account        string
	Connected      bool
	Pending        string
	Properties     []types.PropertyView
	Notices        []logger.Message
	CurrentVersion string
	BuildTime      string
	DocList        []string
	DocContent     template.HTML
	CurrentDoc     string
}

// stateMessage is what /ws/properties pushes.
type stateMessage struct {
	Account     string               `json:"account"`
	Connected   bool                 `json:"connected"`
	Pending     string               `json:"pending"`
	Properties  []types.PropertyView `json:"properties"`
	RefreshedAt time.Time            `json:"refreshed_at"`
}

// Server is the web server for the page and API.
type Server struct {
	state      *app.Store
	port       int
	templates  *template.Template
	logger     *logger.Logger
	apiService *api.Service
	docService *docs.Service
	httpServer *http.Server
}

// NewServer creates a new web server.
func NewServer(state *app.Store, apiService *api.Service, docService *docs.Service, notices *logger.Logger, port int) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		state:      state,
		port:       port,
		templates:  templates,
		logger:     notices,
		apiService: apiService,
		docService: docService,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Page routes
	mux.HandleFunc("/", s.handlePageLoad)
	mux.HandleFunc("/views/docs", s.handleDocsView)

	// API routes (delegated to apiService)
	mux.HandleFunc("/api/health", s.apiService.HandleHealth)
	mux.HandleFunc("/api/version", s.apiService.HandleVersion)
	mux.HandleFunc("/api/session", s.apiService.HandleSession)
	mux.HandleFunc("/api/properties", s.apiService.HandleProperties)
	mux.HandleFunc("/api/properties/add", s.apiService.HandleAddProperty)
	mux.HandleFunc("/api/properties/transfer", s.apiService.HandleTransferProperty)
	mux.HandleFunc("/api/notices", s.apiService.HandleNotices)

	// WebSocket routes
	mux.HandleFunc("/ws/properties", s.handlePropertiesWS)
	mux.HandleFunc("/ws/status", s.handleStatusWS)

	return mux
}

// Start runs the server in the background. The returned channel yields the
// error that stopped it.
func (s *Server) Start() <-chan error {
	log.Printf("Web UI: Starting page and API server on http://localhost:%d", s.port)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)

	go func() {
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
		close(errCh)
	}()

	return errCh
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handlePageLoad(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	st := s.state.Current()
	docList, _ := s.docService.ListDocs()
	data := TemplateData{
		Account:        st.Account,
		Connected:      st.Connected,
		Pending:        st.Pending,
		Properties:     s.apiService.Views(st.Properties),
		Notices:        s.logger.GetRecent(20),
		CurrentVersion: types.Version,
		BuildTime:      types.BuildTime,
		DocList:        docList,
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleDocsView(w http.ResponseWriter, r *http.Request) {
	docName := r.URL.Query().Get("doc")
	docList, _ := s.docService.ListDocs()
	if docName == "" && len(docList) > 0 {
		docName = docList[0]
	}

	var docContent string
	if docName != "" {
		content, err := s.docService.GetDoc(r.Context(), docName)
		if err != nil {
			log.Printf("Failed to load doc %s: %v", docName, err)
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		docContent = content
	}

	s.render(w, "docs.html", TemplateData{
		CurrentVersion: types.Version,
		BuildTime:      types.BuildTime,
		DocList:        docList,
		DocContent:     template.HTML(docContent),
		CurrentDoc:     docName,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data TemplateData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Error executing %s template: %s", name, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	s.setCacheHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handlePropertiesWS pushes the application state on connect and after
// every change.
func (s *Server) handlePropertiesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	states, cancel := s.state.Subscribe()
	defer cancel()
	closed := watchClose(conn)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			msg := stateMessage{
				Account:     st.Account,
				Connected:   st.Connected,
				Pending:     st.Pending,
				Properties:  s.apiService.Views(st.Properties),
				RefreshedAt: st.RefreshedAt,
			}
			if err := writeJSON(conn, msg); err != nil {
				return
			}
		}
	}
}

// handleStatusWS streams notices, oldest first, starting with recent history.
func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	closed := watchClose(conn)

	// GetRecent returns newest first
	initial := s.logger.GetRecent(50)
	var lastID string
	for i := len(initial) - 1; i >= 0; i-- {
		if err := writeJSON(conn, initial[i]); err != nil {
			return
		}
		lastID = initial[i].ID
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			for _, msg := range s.logger.After(lastID) {
				if err := writeJSON(conn, msg); err != nil {
					return
				}
				lastID = msg.ID
			}
		}
	}
}

// setCacheHeaders sets cache-busting headers to prevent browser caching.
func (s *Server) setCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
