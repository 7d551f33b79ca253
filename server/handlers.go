package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/internal/types"
	"github.com/xhad/docspace/pkg/engine"
)

type createDocumentRequest struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

type importRequest struct {
	URL string `json:"url"`
}

type documentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	CharCount  int       `json:"charCount"`
	ChunkCount int       `json:"chunkCount"`
}

type documentDetail struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	Content    string    `json:"content"`
	ChunkCount int       `json:"chunkCount"`
}

type rechunkResponse struct {
	ID          string `json:"id"`
	Sentences   int    `json:"sentences"`
	SplitPoints []int  `json:"splitPoints"`
	Chunks      int    `json:"chunks"`
	Degenerate  int    `json:"degenerate"`
	Fallback    bool   `json:"fallback"`
}

type searchResponse struct {
	Query     string                `json:"query"`
	Count     int                   `json:"count"`
	Results   []models.SearchResult `json:"results"`
	Error     string                `json:"error,omitempty"`
	Retryable bool                  `json:"retryable,omitempty"`
}

func summary(doc *models.Document) documentResponse {
	s := doc.Summary()
	return documentResponse{
		ID:         s.ID,
		FileName:   s.FileName,
		UploadedAt: s.UploadedAt,
		CharCount:  s.CharCount,
		ChunkCount: s.ChunkCount,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)).Decode(&req); err != nil {
		s.writeError(w, r, types.InvalidInput("invalid JSON body"))
		return
	}

	doc, err := s.engine.CreateDocument(r.Context(), req.FileName, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary(doc))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// multipart overhead on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+64<<10)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, types.InvalidInput("file exceeds %d bytes", s.config.MaxUploadBytes))
			return
		}
		s.writeError(w, r, types.InvalidInput("no file uploaded"))
		return
	}
	defer file.Close()

	doc, err := s.engine.UploadDocument(r.Context(), header.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary(doc))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, types.InvalidInput("invalid JSON body"))
		return
	}

	docs, err := s.engine.ImportURL(r.Context(), req.URL, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, summary(d))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.engine.ListDocuments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []models.DocumentSummary{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentDetail{
		ID:         doc.ID,
		FileName:   doc.FileName,
		UploadedAt: doc.UploadedAt,
		Content:    doc.Content,
		ChunkCount: len(doc.Chunks),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRechunk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := s.engine.Rechunk(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rechunkResponse{
		ID:          id,
		Sentences:   res.Sentences,
		SplitPoints: res.SplitPoints,
		Chunks:      len(res.Chunks),
		Degenerate:  res.Degenerate,
		Fallback:    res.Fallback,
	})
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.engine.ListChunks(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if chunks == nil {
		chunks = []models.Chunk{}
	}
	writeJSON(w, http.StatusOK, chunks)
}

func (s *Server) handleLexicalSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results, err := s.engine.LexicalSearch(r.Context(), q, queryInt(r, "limit"))
	s.writeSearch(w, r, q, results, err)
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := engine.SearchRequest{
		Query: query.Get("q"),
		Limit: queryInt(r, "limit"),
		Scope: models.ParseScope(query.Get("scope")),
	}
	if raw := query.Get("minScore"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeSearch(w, r, req.Query, nil, types.InvalidInput("minScore must be a number"))
			return
		}
		req.MinScore = &v
	}

	results, err := s.engine.SemanticSearch(r.Context(), req)
	s.writeSearch(w, r, req.Query, results, err)
}

// writeSearch reports failures as an empty result set with an error field.
func (s *Server) writeSearch(w http.ResponseWriter, r *http.Request, q string, results []models.SearchResult, err error) {
	if results == nil {
		results = []models.SearchResult{}
	}
	resp := searchResponse{Query: q, Count: len(results), Results: results}
	if err != nil {
		s.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		resp = searchResponse{
			Query:     q,
			Results:   []models.SearchResult{},
			Error:     err.Error(),
			Retryable: types.IsRetryable(err),
		}
	}
	writeJSON(w, statusFor(err), resp)
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)

	body := map[string]any{"error": err.Error()}
	if types.IsRetryable(err) {
		body["retryable"] = true
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
