package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// wireEvent accepts every field-name variant the backend has shipped for an
// event. It is only ever used by the decoders below.
type wireEvent struct {
	ID       int64 `json:"id"`
	IDEvento int64 `json:"id_evento"`

	Nombre string `json:"nombre"`
	Titulo string `json:"titulo"`
	Name   string `json:"name"`
	Title  string `json:"title"`

	Descripcion string `json:"descripcion"`
	Description string `json:"description"`

	Lugar    string `json:"lugar"`
	Place    string `json:"place"`
	Location string `json:"location"`

	Fecha         string `json:"fecha"`
	ScheduledDate string `json:"scheduledDate"`
	Hora          string `json:"hora"`
	ScheduledTime string `json:"scheduledTime"`

	Responsable       string `json:"responsable"`
	ResponsiblePerson string `json:"responsiblePerson"`

	Asistentes        *int `json:"asistentes"`
	ExpectedAttendees *int `json:"expectedAttendees"`

	Imagen   string `json:"imagen"`
	ImageURL string `json:"imageUrl"`

	Tags      []string `json:"tags"`
	Etiquetas []string `json:"etiquetas"`

	Classification    Classification    `json:"classification"`
	EventTypes        []string          `json:"eventTypes"`
	TiposEvento       []string          `json:"tipos_evento"`
	Objectives        []Objective       `json:"objectives"`
	InstitutionalPlan []string          `json:"institutionalPlan"`
	TargetSegments    []TargetSegment   `json:"targetSegments"`
	ExpectedResults   ExpectedResults   `json:"expectedResults"`
	Resources         []Resource        `json:"resources"`
	Committee         []CommitteeMember `json:"committee"`
	Budget            Budget            `json:"budget"`

	Estado string `json:"estado"`
	Status string `json:"status"`

	Fase  *int `json:"fase"`
	Phase *int `json:"phase"`

	Creador *wireCreator `json:"creador"`
	Creator *wireCreator `json:"creator"`
}

type wireCreator struct {
	Nombre string `json:"nombre"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Correo string `json:"correo"`
	Rol    string `json:"rol"`
	Role   string `json:"role"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...*int) (int, bool) {
	for _, v := range values {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

// ParseStatus maps the backend's English or Spanish status names.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendiente":
		return StatusPending, nil
	case "approved", "aprobado", "aprobada":
		return StatusApproved, nil
	case "rejected", "rechazado", "rechazada":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (w *wireEvent) proposal() (EventProposal, error) {
	var e EventProposal

	e.ID = w.ID
	if e.ID == 0 {
		e.ID = w.IDEvento
	}
	e.Name = firstNonEmpty(w.Nombre, w.Titulo, w.Name, w.Title)
	e.Description = firstNonEmpty(w.Descripcion, w.Description)
	e.Place = firstNonEmpty(w.Lugar, w.Place, w.Location)
	e.ScheduledDate = dateOnly(firstNonEmpty(w.Fecha, w.ScheduledDate))
	e.ScheduledTime = firstNonEmpty(w.Hora, w.ScheduledTime)
	e.ResponsiblePerson = firstNonEmpty(w.Responsable, w.ResponsiblePerson)
	e.ExpectedAttendees, _ = firstInt(w.Asistentes, w.ExpectedAttendees)
	e.ImageURL = firstNonEmpty(w.Imagen, w.ImageURL)
	e.Tags = NormalizeTags(append(append([]string{}, w.Tags...), w.Etiquetas...))
	e.Classification = w.Classification
	e.EventTypes = w.EventTypes
	if len(e.EventTypes) == 0 {
		e.EventTypes = w.TiposEvento
	}
	e.Objectives = w.Objectives
	e.InstitutionalPlan = w.InstitutionalPlan
	e.TargetSegments = w.TargetSegments
	e.ExpectedResults = w.ExpectedResults
	e.Resources = w.Resources
	e.Committee = w.Committee
	e.Budget = w.Budget

	status, err := ParseStatus(firstNonEmpty(w.Estado, w.Status))
	if err != nil {
		return EventProposal{}, fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}
	e.Status = status

	phase, ok := firstInt(w.Fase, w.Phase)
	if !ok {
		phase = int(PhasePlanning)
	}
	e.Phase = Phase(phase)

	creator := w.Creator
	if creator == nil {
		creator = w.Creador
	}
	if creator != nil {
		e.Creator = Creator{
			Name:  firstNonEmpty(creator.Nombre, creator.Name),
			Email: firstNonEmpty(creator.Email, creator.Correo),
		}
		if r := firstNonEmpty(creator.Rol, creator.Role); r != "" {
			if role, err := ParseRole(r); err == nil {
				e.Creator.Role = role
			}
		}
	}

	if err := e.Validate(); err != nil {
		return EventProposal{}, err
	}
	return e, nil
}

// dateOnly trims an RFC 3339 timestamp down to its date part; anything else
// is returned unchanged.
func dateOnly(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(dateLayout)
	}
	return s
}

// DecodeEvent maps one backend event payload into the canonical shape.
func DecodeEvent(data []byte) (EventProposal, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return EventProposal{}, fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}
	return w.proposal()
}

// DecodeEvents maps a list payload. The backend returns either a bare array
// or an envelope {"eventos": [...]} / {"data": [...]}. Rows that fail to
// decode or validate are left out and reported in skipped; err is set only
// when the payload itself is not a list.
func DecodeEvents(data []byte) (events []EventProposal, skipped []error, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var env struct {
			Eventos []json.RawMessage `json:"eventos"`
			Data    []json.RawMessage `json:"data"`
		}
		if err2 := json.Unmarshal(data, &env); err2 != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidProposal, err)
		}
		raw = env.Eventos
		if raw == nil {
			raw = env.Data
		}
	}

	events = make([]EventProposal, 0, len(raw))
	for i, item := range raw {
		e, err := DecodeEvent(item)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		events = append(events, e)
	}
	return events, skipped, nil
}

type wireUser struct {
	ID              int64  `json:"id"`
	IDUsuario       int64  `json:"id_usuario"`
	Nombre          string `json:"nombre"`
	Name            string `json:"name"`
	ApellidoPaterno string `json:"apellido_paterno"`
	SurnamePaternal string `json:"surnamePaternal"`
	ApellidoMaterno string `json:"apellido_materno"`
	SurnameMaternal string `json:"surnameMaternal"`
	Email           string `json:"email"`
	Correo          string `json:"correo"`
	Rol             string `json:"rol"`
	Role            string `json:"role"`
}

// DecodeUser maps a backend user payload. Unknown roles are an error: the
// role gates every workflow action.
func DecodeUser(data []byte) (User, error) {
	var w wireUser
	if err := json.Unmarshal(data, &w); err != nil {
		return User{}, err
	}
	role, err := ParseRole(firstNonEmpty(w.Rol, w.Role))
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:              w.ID,
		Name:            firstNonEmpty(w.Nombre, w.Name),
		SurnamePaternal: firstNonEmpty(w.ApellidoPaterno, w.SurnamePaternal),
		SurnameMaternal: firstNonEmpty(w.ApellidoMaterno, w.SurnameMaternal),
		Email:           firstNonEmpty(w.Email, w.Correo),
		Role:            role,
	}
	if u.ID == 0 {
		u.ID = w.IDUsuario
	}
	return u, nil
}

type wireNotification struct {
	ID        int64     `json:"id"`
	Titulo    string    `json:"titulo"`
	Title     string    `json:"title"`
	Mensaje   string    `json:"mensaje"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Fecha     time.Time `json:"fecha"`
	Leido     *bool     `json:"leido"`
	Read      *bool     `json:"read"`
}

func DecodeNotifications(data []byte) ([]Notification, error) {
	var raw []wireNotification
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(raw))
	for _, w := range raw {
		n := Notification{
			ID:        w.ID,
			Title:     firstNonEmpty(w.Titulo, w.Title),
			Message:   firstNonEmpty(w.Mensaje, w.Message),
			CreatedAt: w.CreatedAt,
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = w.Fecha
		}
		if w.Leido != nil {
			n.Read = *w.Leido
		} else if w.Read != nil {
			n.Read = *w.Read
		}
		out = append(out, n)
	}
	return out, nil
}
