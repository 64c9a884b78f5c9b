package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"marksense/api/internal/ai"
	"marksense/api/internal/auth"
	"marksense/api/internal/config"
	"marksense/api/internal/export"
	"marksense/api/internal/notegit"
	"marksense/api/internal/search"
	"marksense/api/internal/store"
	"marksense/api/internal/util"
)

type Session struct {
	Token     string
	UserID    string
	Username  string
	ExpiresAt time.Time
}

type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CreateNoteInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// NotePatch distinguishes absent fields (nil) from present-but-empty
// values. A non-nil empty Tags slice clears the stored tags.
type NotePatch struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

const (
	maxTitleLen   = 100
	maxContentLen = 10000
	maxTagCount   = 10
)

type dataStore interface {
	CreateUser(context.Context, store.User) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByUsername(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	ListNotesByOwner(context.Context, string) ([]store.Note, error)
	GetNote(context.Context, string, string) (store.Note, error)
	InsertNote(context.Context, store.Note) error
	UpdateNote(context.Context, store.Note) error
	DeleteNote(context.Context, string, string) (bool, error)
	Ping(ctx context.Context) error
}

type noteSearcher interface {
	Search(search.Query) search.Response
	IndexNote(search.NoteRecord)
	DeleteNote(id string)
}

type noteHistorian interface {
	CommitNote(noteID string, content notegit.Content, author, message string) (notegit.CommitInfo, error)
	History(noteID string, limit int) ([]notegit.CommitInfo, error)
	GetContentByHash(noteID, hash string) (notegit.Content, error)
	RemoveNoteRepo(noteID string) error
}

type Service struct {
	cfg     config.Config
	store   dataStore
	search  noteSearcher
	history noteHistorian
	ai      *ai.Orchestrator
}

func New(cfg config.Config, dataStore *store.PostgresStore, searchSvc *search.Service, historySvc *notegit.Service, orchestrator *ai.Orchestrator) *Service {
	svc := &Service{
		cfg:    cfg,
		store:  dataStore,
		search: searchSvc,
		ai:     orchestrator,
	}
	if historySvc != nil {
		svc.history = historySvc
	}
	return svc
}

// AI exposes the completion orchestrator for the gateway handlers.
func (s *Service) AI() *ai.Orchestrator {
	return s.ai
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Register(ctx context.Context, username, email, password string) (string, PublicUser, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return "", PublicUser{}, validationError("Username, email and password are required")
	}

	// Email is checked before username so the conflict message names the
	// right field.
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return "", PublicUser{}, conflictError("User with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", PublicUser{}, err
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return "", PublicUser{}, conflictError("Username already taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", PublicUser{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", PublicUser{}, err
	}

	user := store.User{
		ID:           util.NewID("usr"),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return "", PublicUser{}, err
	}

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, s.cfg.TokenTTL)
	if err != nil {
		return "", PublicUser{}, err
	}
	return token, publicUser(user), nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, PublicUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	invalid := domainError(http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid email or password")

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", PublicUser{}, invalid
	}
	if err != nil {
		return "", PublicUser{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", PublicUser{}, invalid
	}

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, s.cfg.TokenTTL)
	if err != nil {
		return "", PublicUser{}, err
	}
	return token, publicUser(user), nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	userID, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
	}, nil
}

func (s *Service) ListNotes(ctx context.Context, ownerID string) ([]store.Note, error) {
	return s.store.ListNotesByOwner(ctx, ownerID)
}

func (s *Service) GetNote(ctx context.Context, ownerID, noteID string) (store.Note, error) {
	note, err := s.store.GetNote(ctx, ownerID, noteID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Note{}, notFoundError("Note not found")
	}
	if err != nil {
		return store.Note{}, err
	}
	return note, nil
}

func (s *Service) CreateNote(ctx context.Context, session Session, input CreateNoteInput) (store.Note, error) {
	title := strings.TrimSpace(input.Title)
	content := input.Content
	if title == "" || content == "" {
		return store.Note{}, validationError("Title and content are required")
	}
	if err := validateNoteFields(title, content); err != nil {
		return store.Note{}, err
	}
	tags, err := normalizeTags(input.Tags)
	if err != nil {
		return store.Note{}, err
	}

	now := time.Now().UTC()
	note := store.Note{
		ID:        util.NewID("note"),
		OwnerID:   session.UserID,
		Title:     title,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertNote(ctx, note); err != nil {
		return store.Note{}, err
	}

	s.indexNote(note)
	s.commitNote(note, session.Username, "Create note")
	return note, nil
}

func (s *Service) UpdateNote(ctx context.Context, session Session, noteID string, patch NotePatch) (store.Note, error) {
	note, err := s.GetNote(ctx, session.UserID, noteID)
	if err != nil {
		return store.Note{}, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return store.Note{}, validationError("Title and content are required")
		}
		note.Title = title
	}
	if patch.Content != nil {
		if *patch.Content == "" {
			return store.Note{}, validationError("Title and content are required")
		}
		note.Content = *patch.Content
	}
	if err := validateNoteFields(note.Title, note.Content); err != nil {
		return store.Note{}, err
	}
	if patch.Tags != nil {
		tags, err := normalizeTags(*patch.Tags)
		if err != nil {
			return store.Note{}, err
		}
		note.Tags = tags
	}

	note.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateNote(ctx, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Note{}, notFoundError("Note not found")
		}
		return store.Note{}, err
	}

	s.indexNote(note)
	s.commitNote(note, session.Username, "Update note")
	return note, nil
}

func (s *Service) DeleteNote(ctx context.Context, session Session, noteID string) error {
	deleted, err := s.store.DeleteNote(ctx, session.UserID, noteID)
	if err != nil {
		return err
	}
	if !deleted {
		return notFoundError("Note not found")
	}

	s.search.DeleteNote(noteID)
	if s.history != nil {
		if err := s.history.RemoveNoteRepo(noteID); err != nil {
			log.Printf("remove note history %s: %v", noteID, err)
		}
	}
	return nil
}

func (s *Service) SearchNotes(ctx context.Context, ownerID, query string, limit, offset int) (search.Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return search.Response{}, validationError("Search query is required")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.search.Search(search.Query{
		Text:    query,
		OwnerID: ownerID,
		Limit:   limit,
		Offset:  offset,
	}), nil
}

func (s *Service) NoteHistory(ctx context.Context, ownerID, noteID string, limit int) ([]notegit.CommitInfo, error) {
	if _, err := s.GetNote(ctx, ownerID, noteID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if s.history == nil {
		return []notegit.CommitInfo{}, nil
	}
	commits, err := s.history.History(noteID, limit)
	if err != nil {
		// Notes created while the history dir was unavailable have no repo.
		log.Printf("note history %s: %v", noteID, err)
		return []notegit.CommitInfo{}, nil
	}
	return commits, nil
}

func (s *Service) NoteAtRevision(ctx context.Context, ownerID, noteID, hash string) (notegit.Content, error) {
	if _, err := s.GetNote(ctx, ownerID, noteID); err != nil {
		return notegit.Content{}, err
	}
	if s.history == nil {
		return notegit.Content{}, notFoundError("Revision not found")
	}
	content, err := s.history.GetContentByHash(noteID, hash)
	if err != nil {
		return notegit.Content{}, notFoundError("Revision not found")
	}
	return content, nil
}

func (s *Service) ExportNote(ctx context.Context, session Session, noteID string, format export.Format) (*export.Result, error) {
	note, err := s.GetNote(ctx, session.UserID, noteID)
	if err != nil {
		return nil, err
	}
	result, err := export.Export(export.Note{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Tags:      note.Tags,
		Author:    session.Username,
		UpdatedAt: note.UpdatedAt,
	}, format)
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available on this server")
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) indexNote(note store.Note) {
	s.search.IndexNote(search.NoteRecord{
		ID:      note.ID,
		OwnerID: note.OwnerID,
		Title:   note.Title,
		Content: note.Content,
		Tags:    note.Tags,
	})
}

// commitNote records the note state in its version history. Failures are
// logged, never surfaced: history is auxiliary to the note itself.
func (s *Service) commitNote(note store.Note, author, message string) {
	if s.history == nil {
		return
	}
	_, err := s.history.CommitNote(note.ID, notegit.Content{
		Title:   note.Title,
		Content: note.Content,
		Tags:    note.Tags,
	}, author, message)
	if err != nil {
		log.Printf("commit note %s: %v", note.ID, err)
	}
}

func validateNoteFields(title, content string) error {
	if len([]rune(title)) > maxTitleLen {
		return validationError("Title cannot be more than 100 characters")
	}
	if len([]rune(content)) > maxContentLen {
		return validationError("Content cannot be more than 10000 characters")
	}
	return nil
}

func normalizeTags(tags []string) ([]string, error) {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		normalized = append(normalized, tag)
	}
	if len(normalized) > maxTagCount {
		return nil, validationError("A note cannot have more than 10 tags")
	}
	return normalized, nil
}

func publicUser(user store.User) PublicUser {
	return PublicUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}
