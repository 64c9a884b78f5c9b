package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marksense/api/internal/auth"
	"marksense/api/internal/export"
	"marksense/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/register" {
		s.handleRegister(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		s.handleLogin(w, r)
		return
	}

	// Everything below requires a bearer token.
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/ai/") {
		s.handleAI(w, r, session)
		return
	}

	if r.URL.Path == "/api/notes" {
		switch r.Method {
		case http.MethodGet:
			s.handleListNotes(w, r, session)
		case http.MethodPost:
			s.handleCreateNote(w, r, session)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/notes/search" {
		s.handleSearchNotes(w, r, session)
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) >= 3 && parts[0] == "api" && parts[1] == "notes" {
		noteID := parts[2]
		rest := parts[3:]

		switch {
		case len(rest) == 0:
			switch r.Method {
			case http.MethodGet:
				s.handleGetNote(w, r, session, noteID)
			case http.MethodPut:
				s.handleUpdateNote(w, r, session, noteID)
			case http.MethodDelete:
				s.handleDeleteNote(w, r, session, noteID)
			default:
				writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(rest) == 1 && rest[0] == "export" && r.Method == http.MethodGet:
			s.handleExportNote(w, r, session, noteID)
		case len(rest) == 1 && rest[0] == "history" && r.Method == http.MethodGet:
			s.handleNoteHistory(w, r, session, noteID)
		case len(rest) == 2 && rest[0] == "history" && r.Method == http.MethodGet:
			s.handleNoteAtRevision(w, r, session, noteID, rest[1])
		default:
			writeError(w, http.StatusNotFound, "Not found")
		}
		return
	}

	writeError(w, http.StatusNotFound, "Not found")
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}
	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"success": status == "ready",
		"status":  status,
		"checks":  checks,
	})
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Authorization token required")
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := s.service.Register(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := s.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (s *HTTPServer) handleListNotes(w http.ResponseWriter, r *http.Request, session Session) {
	notes, err := s.service.ListNotes(r.Context(), session.UserID)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}

	items := make([]map[string]any, 0, len(notes))
	for _, note := range notes {
		items = append(items, noteJSON(note))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(items),
		"data":    items,
	})
}

func (s *HTTPServer) handleGetNote(w http.ResponseWriter, r *http.Request, session Session, noteID string) {
	note, err := s.service.GetNote(r.Context(), session.UserID, noteID)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    noteJSON(note),
	})
}

func (s *HTTPServer) handleCreateNote(w http.ResponseWriter, r *http.Request, session Session) {
	var body CreateNoteInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := s.service.CreateNote(r.Context(), session, body)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Note created successfully",
		"data":    noteJSON(note),
	})
}

func (s *HTTPServer) handleUpdateNote(w http.ResponseWriter, r *http.Request, session Session, noteID string) {
	var body NotePatch
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := s.service.UpdateNote(r.Context(), session, noteID, body)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Note updated successfully",
		"data":    noteJSON(note),
	})
}

func (s *HTTPServer) handleDeleteNote(w http.ResponseWriter, r *http.Request, session Session, noteID string) {
	if err := s.service.DeleteNote(r.Context(), session, noteID); err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Note deleted successfully",
	})
}

func (s *HTTPServer) handleSearchNotes(w http.ResponseWriter, r *http.Request, session Session) {
	query := r.URL.Query().Get("q")
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	response, err := s.service.SearchNotes(r.Context(), session.UserID, query, limit, offset)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    response,
	})
}

func (s *HTTPServer) handleNoteHistory(w http.ResponseWriter, r *http.Request, session Session, noteID string) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	commits, err := s.service.NoteHistory(r.Context(), session.UserID, noteID, limit)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    commits,
	})
}

func (s *HTTPServer) handleNoteAtRevision(w http.ResponseWriter, r *http.Request, session Session, noteID, hash string) {
	content, err := s.service.NoteAtRevision(r.Context(), session.UserID, noteID, hash)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    content,
	})
}

func (s *HTTPServer) handleExportNote(w http.ResponseWriter, r *http.Request, session Session, noteID string) {
	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(export.FormatMarkdown)
	}
	format, err := export.ParseFormat(formatParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "format must be markdown, html or pdf")
		return
	}

	result, err := s.service.ExportNote(r.Context(), session, noteID, format)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}

	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleAI(w http.ResponseWriter, r *http.Request, session Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	orchestrator := s.service.AI()

	switch strings.TrimPrefix(r.URL.Path, "/api/ai/") {
	case "generate-tags":
		var body struct {
			Content string `json:"content"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Content == "" {
			writeError(w, http.StatusBadRequest, "Content is required")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tags": orchestrator.GenerateTags(r.Context(), body.Content)})

	case "writing-assistance":
		var body struct {
			Content        string `json:"content"`
			CursorPosition int    `json:"cursorPosition"`
			UserQuery      string `json:"userQuery"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Content == "" {
			writeError(w, http.StatusBadRequest, "Content is required")
			return
		}
		assistance := orchestrator.WritingAssistance(r.Context(), body.Content, body.CursorPosition, body.UserQuery)
		writeJSON(w, http.StatusOK, map[string]any{"assistance": assistance})

	case "markdown-suggestions":
		var body struct {
			Context    string `json:"context"`
			SyntaxType string `json:"syntaxType"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Context == "" || body.SyntaxType == "" {
			writeError(w, http.StatusBadRequest, "Context and syntax type are required")
			return
		}
		suggestions := orchestrator.MarkdownSuggestions(r.Context(), body.Context, body.SyntaxType)
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})

	case "summarize":
		var body struct {
			Content string `json:"content"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Content == "" {
			writeError(w, http.StatusBadRequest, "Content is required")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"summary": orchestrator.Summarize(r.Context(), body.Content)})

	case "rephrase":
		var body struct {
			Content string `json:"content"`
			Style   string `json:"style"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Content == "" {
			writeError(w, http.StatusBadRequest, "Content is required")
			return
		}
		rephrased := orchestrator.Rephrase(r.Context(), body.Content, body.Style)
		writeJSON(w, http.StatusOK, map[string]any{"rephrasedContent": rephrased})

	case "chat":
		var body struct {
			Message     string `json:"message"`
			NoteContent string `json:"noteContent"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Message == "" {
			writeError(w, http.StatusBadRequest, "Message is required")
			return
		}
		response := orchestrator.ChatAssistant(r.Context(), body.Message, body.NoteContent)
		writeJSON(w, http.StatusOK, map[string]any{"response": response})

	case "analyze":
		var body struct {
			Content string `json:"content"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Content == "" {
			writeError(w, http.StatusBadRequest, "Content is required")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"analysis": orchestrator.AnalyzeContent(r.Context(), body.Content)})

	case "markdown-help":
		var body struct {
			Request string `json:"request"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Request == "" {
			writeError(w, http.StatusBadRequest, "Request is required")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"help": orchestrator.MarkdownHelp(r.Context(), body.Request)})

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func noteJSON(note store.Note) map[string]any {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":        note.ID,
		"userId":    note.OwnerID,
		"title":     note.Title,
		"content":   note.Content,
		"tags":      tags,
		"createdAt": note.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": note.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func mapError(err error) (status int, message string) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Message
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "Invalid or expired token"
	}
	return http.StatusInternalServerError, "Server error"
}
