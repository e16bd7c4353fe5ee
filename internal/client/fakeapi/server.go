package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/common"
	"github.com/gorilla/mux"
)

// Route names, usable with Calls, FailNext and OnRequest.
const (
	RouteLogin         = "login"
	RouteMe            = "me"
	RoutePending       = "pending"
	RouteApproved      = "approved"
	RouteGetEvent      = "get_event"
	RouteCreateEvent   = "create_event"
	RouteApprove       = "approve"
	RouteReject        = "reject"
	RouteAdvancePhase  = "advance_phase"
	RouteUploadImage   = "upload_image"
	RouteNotifications = "notifications"
)

// reviewers may approve, reject and advance.
var reviewers = map[models.Role]bool{
	models.RoleAdmin:          true,
	models.RoleDAF:            true,
	models.RoleCommunications: true,
	models.RoleAcademic:       true,
}

type account struct {
	user     models.User
	password string
}

type failure struct {
	status  int
	message string
}

type Server struct {
	TokenTTL time.Duration

	mu            sync.Mutex
	secret        []byte
	now           func() time.Time
	accounts      map[string]account
	nextUserID    int64
	events        map[int64]models.EventProposal
	nextEventID   int64
	notifications []models.Notification
	uploads       map[int64][]byte
	calls         map[string]int
	failures      map[string][]failure
	hooks         map[string]func(*http.Request)

	router *mux.Router
	http   *httptest.Server
}

func New() *Server {
	s := &Server{
		TokenTTL: time.Hour,
		secret:   common.GenerateRandByteArray(32),
		now:      time.Now,
		accounts: make(map[string]account),
		events:   make(map[int64]models.EventProposal),
		uploads:  make(map[int64][]byte),
		calls:    make(map[string]int),
		failures: make(map[string][]failure),
		hooks:    make(map[string]func(*http.Request)),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.countCalls)

	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost).Name(RouteLogin)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.authenticate)
	authed.HandleFunc("/auth/me", s.me).Methods(http.MethodGet).Name(RouteMe)
	authed.HandleFunc("/eventos/pendientes", s.listByStatus(models.StatusPending, true)).Methods(http.MethodGet).Name(RoutePending)
	authed.HandleFunc("/eventos/aprobados", s.listByStatus(models.StatusApproved, false)).Methods(http.MethodGet).Name(RouteApproved)
	authed.HandleFunc("/eventos", s.createEvent).Methods(http.MethodPost).Name(RouteCreateEvent)
	authed.HandleFunc("/eventos/{id:[0-9]+}", s.getEvent).Methods(http.MethodGet).Name(RouteGetEvent)
	authed.HandleFunc("/eventos/{id:[0-9]+}/approve", s.review(models.StatusApproved)).Methods(http.MethodPut).Name(RouteApprove)
	authed.HandleFunc("/eventos/{id:[0-9]+}/reject", s.review(models.StatusRejected)).Methods(http.MethodPut).Name(RouteReject)
	authed.HandleFunc("/eventos/{id:[0-9]+}/fase", s.advancePhase).Methods(http.MethodPut).Name(RouteAdvancePhase)
	authed.HandleFunc("/eventos/{id:[0-9]+}/imagen", s.uploadImage).Methods(http.MethodPost).Name(RouteUploadImage)
	authed.HandleFunc("/notificaciones", s.listNotifications).Methods(http.MethodGet).Name(RouteNotifications)

	return r
}

// Handler exposes the router, for tests that run their own httptest server.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves the fake on a loopback port and returns its base URL.
func (s *Server) Start() string {
	s.http = httptest.NewServer(s.router)
	return s.http.URL
}

// URL is the base URL of a started server.
func (s *Server) URL() string {
	if s.http == nil {
		return ""
	}
	return s.http.URL
}

func (s *Server) Close() {
	if s.http != nil {
		s.http.Close()
	}
}

// AddUser registers an account and returns it with its assigned id.
func (s *Server) AddUser(u models.User, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	u.ID = s.nextUserID
	s.accounts[strings.ToLower(u.Email)] = account{user: u, password: password}
	return u
}

// TokenFor issues a session token for a registered email without a login
// round trip.
func (s *Server) TokenFor(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return "", fmt.Errorf("no account %q", email)
	}
	return generateToken(a.user.ID, s.secret, s.TokenTTL, s.now())
}

// RevokeSessions invalidates every token issued so far.
func (s *Server) RevokeSessions() {
	s.mu.Lock()
	s.secret = common.GenerateRandByteArray(32)
	s.mu.Unlock()
}

// AddEvent stores e under a fresh id and returns the stored copy.
func (s *Server) AddEvent(e models.EventProposal) models.EventProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	e.ID = s.nextEventID
	if e.Status == "" {
		e.Status = models.StatusPending
	}
	if e.Phase == 0 {
		e.Phase = models.PhasePlanning
	}
	s.events[e.ID] = e
	return e
}

func (s *Server) Event(id int64) (models.EventProposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	return e, ok
}

// SetEventStatus changes a stored event behind the client's back, the way a
// second reviewer would.
func (s *Server) SetEventStatus(id int64, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		e.Status = status
		s.events[id] = e
	}
}

func (s *Server) AddNotification(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

// Upload returns the bytes last uploaded as the image of event id.
func (s *Server) Upload(id int64) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads[id]
}

// Calls reports how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailNext makes the next request to route answer status with message.
// Calls queue up.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, message: message})
}

// OnRequest runs fn for every request to route before it is handled. fn
// may block, which lets tests hold a response in flight.
func (s *Server) OnRequest(route string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[route] = fn
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		s.mu.Lock()
		s.calls[name]++
		hook := s.hooks[name]
		var fail *failure
		if q := s.failures[name]; len(q) > 0 {
			fail = &q[0]
			s.failures[name] = q[1:]
		}
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if fail != nil {
			writeError(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Token requerido")
			return
		}

		s.mu.Lock()
		secret := s.secret
		s.mu.Unlock()

		id, err := userFromToken(token, secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token inválido o expirado")
			return
		}
		u, ok := s.userByID(id)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Usuario no encontrado")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

func (s *Server) userByID(id int64) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return models.User{}, false
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || a.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token, err := s.TokenFor(a.user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "usuario": wireUser(a.user)})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"usuario": wireUser(userFrom(r.Context()))})
}

// listByStatus answers pending lists in an envelope and approved lists as
// a bare array, as the real backend does.
func (s *Server) listByStatus(status models.Status, envelope bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out := make([]map[string]any, 0)
		for id := int64(1); id <= s.nextEventID; id++ {
			if e, ok := s.events[id]; ok && e.Status == status {
				out = append(out, wireEvent(e))
			}
		}
		s.mu.Unlock()

		if envelope {
			writeJSON(w, http.StatusOK, map[string]any{"eventos": out})
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.Event(eventID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Evento no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, wireEvent(e))
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var d models.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if strings.TrimSpace(d.Name) == "" {
		writeError(w, http.StatusBadRequest, "El nombre del evento es obligatorio")
		return
	}

	u := userFrom(r.Context())
	e := s.AddEvent(models.EventProposal{
		Draft:   d,
		Status:  models.StatusPending,
		Phase:   models.PhasePlanning,
		Creator: models.Creator{Name: u.FullName(), Email: u.Email, Role: u.Role},
	})
	writeJSON(w, http.StatusCreated, map[string]any{"evento": wireEvent(e)})
}

func (s *Server) review(to models.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !reviewers[userFrom(r.Context()).Role] {
			writeError(w, http.StatusForbidden, "No tienes permisos para revisar eventos")
			return
		}

		id := eventID(r)
		s.mu.Lock()
		e, ok := s.events[id]
		switch {
		case !ok:
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, "Evento no encontrado")
			return
		case e.Status != models.StatusPending:
			s.mu.Unlock()
			writeError(w, http.StatusConflict, "El evento ya fue revisado")
			return
		}
		e.Status = to
		s.events[id] = e
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, wireEvent(e))
	}
}

func (s *Server) advancePhase(w http.ResponseWriter, r *http.Request) {
	if !reviewers[userFrom(r.Context()).Role] {
		writeError(w, http.StatusForbidden, "No tienes permisos para avanzar fases")
		return
	}

	var req struct {
		Fase               int    `json:"fase"`
		ActualSatisfaction string `json:"actualSatisfaction"`
		OtherResults       string `json:"otherResults"`
		ConfirmedDate      string `json:"confirmedDate"`
		ConfirmedTime      string `json:"confirmedTime"`
		ConfirmedPlace     string `json:"confirmedPlace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	id := eventID(r)
	s.mu.Lock()
	e, ok := s.events[id]
	switch {
	case !ok:
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Evento no encontrado")
		return
	case e.Status != models.StatusApproved:
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Solo los eventos aprobados avanzan de fase")
		return
	case models.Phase(req.Fase) != e.Phase+1:
		s.mu.Unlock()
		writeError(w, http.StatusConflict, fmt.Sprintf("El evento está en la fase %d", e.Phase))
		return
	}
	e.Phase = models.Phase(req.Fase)
	switch e.Phase {
	case models.PhaseScheduling:
		if req.ConfirmedDate != "" {
			e.ScheduledDate = req.ConfirmedDate
		}
		if req.ConfirmedTime != "" {
			e.ScheduledTime = req.ConfirmedTime
		}
		if req.ConfirmedPlace != "" {
			e.Place = req.ConfirmedPlace
		}
	case models.PhaseClosure:
		e.ExpectedResults.ActualSatisfaction = req.ActualSatisfaction
		if req.OtherResults != "" {
			e.ExpectedResults.OtherResults = req.OtherResults
		}
	}
	s.events[id] = e
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"evento": wireEvent(e)})
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	id := eventID(r)
	if _, ok := s.Event(id); !ok {
		writeError(w, http.StatusNotFound, "Evento no encontrado")
		return
	}

	f, hdr, err := r.FormFile("imagen")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Falta el archivo 'imagen'")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	url := fmt.Sprintf("/uploads/eventos/%d/%s", id, hdr.Filename)
	s.mu.Lock()
	s.uploads[id] = data
	e := s.events[id]
	e.ImageURL = url
	s.events[id] = e
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": url})
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, map[string]any{
			"id":      n.ID,
			"titulo":  n.Title,
			"mensaje": n.Message,
			"fecha":   n.CreatedAt,
			"leido":   n.Read,
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func eventID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func wireUser(u models.User) map[string]any {
	return map[string]any{
		"id_usuario":       u.ID,
		"nombre":           u.Name,
		"apellido_paterno": u.SurnamePaternal,
		"apellido_materno": u.SurnameMaternal,
		"correo":           u.Email,
		"rol":              string(u.Role),
	}
}

func wireEvent(e models.EventProposal) map[string]any {
	estado := map[models.Status]string{
		models.StatusPending:  "pendiente",
		models.StatusApproved: "aprobado",
		models.StatusRejected: "rechazado",
	}[e.Status]

	return map[string]any{
		"id_evento":       e.ID,
		"nombre":          e.Name,
		"descripcion":     e.Description,
		"lugar":           e.Place,
		"fecha":           e.ScheduledDate,
		"hora":            e.ScheduledTime,
		"responsable":     e.ResponsiblePerson,
		"asistentes":      e.ExpectedAttendees,
		"imagen":          e.ImageURL,
		"etiquetas":       e.Tags,
		"classification":  e.Classification,
		"tipos_evento":    e.EventTypes,
		"objectives":      e.Objectives,
		"targetSegments":  e.TargetSegments,
		"expectedResults": e.ExpectedResults,
		"resources":       e.Resources,
		"committee":       e.Committee,
		"budget":          e.Budget,
		"estado":          estado,
		"fase":            int(e.Phase),
		"creador": map[string]string{
			"nombre": e.Creator.Name,
			"correo": e.Creator.Email,
			"rol":    string(e.Creator.Role),
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"mensaje": message})
}
