package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// Runner is the part of App the web server drives
type Runner interface {
	Run(ctx context.Context, inputs SessionInputs) (*Result, error)
}

// Server is the browser-facing operator surface
type Server struct {
	runner Runner
	page   *template.Template
	router *mux.Router
	// one run at a time, a second submission is refused rather than queued
	busy chan struct{}
}

// pageData is everything index.html renders
type pageData struct {
	State          RunState
	URL            string
	QuestionCount  int
	MinQuestions   int
	MaxQuestions   int
	Title          string
	Preview        string
	Quiz           string
	TranscriptHref template.URL
	TranscriptName string
	Error          string
	FailedStage    string
}

// quizRequest is the JSON body accepted by the API
type quizRequest struct {
	URL           string `json:"url"`
	APIKey        string `json:"api_key"`
	QuestionCount int    `json:"num_questions"`
}

// quizResponse is the JSON body returned by the API
type quizResponse struct {
	RunID      string `json:"run_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Preview    string `json:"preview,omitempty"`
	Quiz       string `json:"quiz,omitempty"`
	Error      string `json:"error,omitempty"`
	Stage      string `json:"stage,omitempty"`
}

// NewServer wires routes for runner
func NewServer(runner Runner) (*Server, error) {
	page, err := template.ParseFS(defaultFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	s := &Server{
		runner: runner,
		page:   page,
		router: mux.NewRouter(),
		busy:   make(chan struct{}, 1),
	}

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.handleRun).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(jsonContentType)
	api.HandleFunc("/quiz", s.handleAPIQuiz).Methods(http.MethodPost)

	return s, nil
}

// ServeHTTP makes Server an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return serveUntilDone(ctx, s, ln)
}

// serveUntilDone serves handler on ln and shuts down gracefully once ctx is done
func serveUntilDone(ctx context.Context, handler http.Handler, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		LogInfo("listening on %s", ln.Addr())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		LogInfo("shutting down %s", ln.Addr())
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.newPage(SessionInputs{QuestionCount: DefaultQuestions}))
}

// handleRun is the form submission. Missing text fields keep the page Idle
// without starting a run.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	inputs, err := formInputs(r)
	data := s.newPage(inputs)
	if err != nil {
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, data)
		return
	}

	if !inputs.Ready() {
		s.render(w, http.StatusOK, data)
		return
	}

	if !s.acquire() {
		data.Error = "a quiz is already being generated, try again when it finishes"
		s.render(w, http.StatusServiceUnavailable, data)
		return
	}
	defer s.release()

	result, err := s.runner.Run(r.Context(), inputs)
	if err != nil {
		data.State = StateFailed
		data.Error = err.Error()
		if stage, ok := FailedStage(err); ok {
			data.FailedStage = stage.String()
		}
		s.render(w, statusFor(err), data)
		return
	}

	data.State = StateDone
	data.Title = result.Title
	data.Preview = result.Preview()
	data.Quiz = result.Quiz
	data.TranscriptHref = transcriptDataURL(result.Transcript)
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleAPIQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, quizResponse{Error: fmt.Sprintf("decoding request: %v", err)})
		return
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = DefaultQuestions
	}

	inputs := SessionInputs{
		URL:           strings.TrimSpace(req.URL),
		Credential:    strings.TrimSpace(req.APIKey),
		QuestionCount: req.QuestionCount,
	}
	if err := inputs.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, quizResponse{Error: err.Error()})
		return
	}

	if !s.acquire() {
		writeJSON(w, http.StatusServiceUnavailable, quizResponse{Error: "a quiz is already being generated"})
		return
	}
	defer s.release()

	result, err := s.runner.Run(r.Context(), inputs)
	if err != nil {
		resp := quizResponse{Error: err.Error()}
		if stage, ok := FailedStage(err); ok {
			resp.Stage = stage.String()
		}
		writeJSON(w, statusFor(err), resp)
		return
	}

	writeJSON(w, http.StatusOK, quizResponse{
		RunID:      result.RunID,
		Title:      result.Title,
		Transcript: result.Transcript,
		Preview:    result.Preview(),
		Quiz:       result.Quiz,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) acquire() bool {
	select {
	case s.busy <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() {
	<-s.busy
}

func (s *Server) newPage(inputs SessionInputs) pageData {
	return pageData{
		State:          StateIdle,
		URL:            inputs.URL,
		QuestionCount:  inputs.QuestionCount,
		MinQuestions:   MinQuestions,
		MaxQuestions:   MaxQuestions,
		TranscriptName: TranscriptFileName,
	}
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		LogError("rendering page: %v", err)
	}
}

// formInputs reads the three form fields; the count must parse and lie in range
func formInputs(r *http.Request) (SessionInputs, error) {
	if err := r.ParseForm(); err != nil {
		return SessionInputs{QuestionCount: DefaultQuestions}, fmt.Errorf("parsing form: %w", err)
	}

	inputs := SessionInputs{
		URL:           strings.TrimSpace(r.PostFormValue("url")),
		Credential:    strings.TrimSpace(r.PostFormValue("api_key")),
		QuestionCount: DefaultQuestions,
	}

	if raw := strings.TrimSpace(r.PostFormValue("num_questions")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return inputs, fmt.Errorf("%w (got %q)", ErrQuestionCount, raw)
		}
		inputs.QuestionCount = n
	}
	if inputs.QuestionCount < MinQuestions || inputs.QuestionCount > MaxQuestions {
		return inputs, fmt.Errorf("%w (got %d)", ErrQuestionCount, inputs.QuestionCount)
	}

	return inputs, nil
}

// transcriptDataURL embeds the transcript in the download link so the
// server keeps nothing once the response is written
func transcriptDataURL(transcript string) template.URL {
	return template.URL("data:text/plain;charset=utf-8," + url.PathEscape(transcript))
}

// statusFor maps a run failure to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingURL), errors.Is(err, ErrMissingCredential), errors.Is(err, ErrQuestionCount):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		LogError("encoding response: %v", err)
	}
}
