package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/credentials"
	"github.com/dmitrijs2005/eventdesk/internal/client/fakeapi"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	backend *fakeapi.Server
	store   *credentials.Store
	out     *bytes.Buffer
	url     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := fakeapi.New()
	url := backend.Start()
	t.Cleanup(backend.Close)

	backend.AddUser(models.User{Name: "Ana", SurnamePaternal: "Rojas", Email: "ana@uni.edu", Role: models.RoleAdmin}, "secret")
	backend.AddUser(models.User{Name: "Luis", Email: "luis@uni.edu", Role: models.RoleStudent}, "secret")

	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte("secret"), nil }
	t.Cleanup(func() { getPassword = orig })

	captureOutput(t)

	log := logging.NewNopLogger()
	return &harness{
		backend: backend,
		store:   credentials.NewStore(credentials.NewWebBackend(filepath.Join(t.TempDir(), "session.json")), log),
		out:     &bytes.Buffer{},
		url:     url,
	}
}

// run drives a full session: the first line is the login email, the rest
// are REPL input.
func (h *harness) run(lines ...string) string {
	log := logging.NewNopLogger()
	api := client.New(h.url, h.store, client.WithLogger(log))
	r := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))

	h.out.Reset()
	a := newApp(api, h.store, log, r, h.out)
	a.Run(context.Background())
	return h.out.String()
}

func (h *harness) pending(name string) models.EventProposal {
	return h.backend.AddEvent(models.EventProposal{Draft: models.Draft{Name: name, EventTypes: []string{"taller"}}})
}

func TestApp_LoginAndApprove(t *testing.T) {
	h := newHarness(t)
	e := h.pending("Taller X")

	out := h.run("ana@uni.edu", "pending", "approve 1", "approved", "exit")

	assert.Contains(t, out, "Welcome, Ana Rojas (admin)")
	assert.Contains(t, out, "Taller X")
	assert.Contains(t, out, "approve,reject")
	assert.Contains(t, out, "Event #1 approved.")

	got, _ := h.backend.Event(e.ID)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, models.PhasePlanning, got.Phase)
}

func TestApp_RestoresSessionWithoutPrompt(t *testing.T) {
	h := newHarness(t)

	h.run("ana@uni.edu", "exit")
	out := h.run("whoami", "exit")

	assert.Contains(t, out, "Signed in as ana@uni.edu (admin)")
	assert.Contains(t, out, "Ana Rojas <ana@uni.edu>")
	assert.Equal(t, 1, h.backend.Calls(fakeapi.RouteLogin))
}

func TestApp_WrongPasswordStaysSignedOut(t *testing.T) {
	h := newHarness(t)
	getPassword = func(io.Writer) ([]byte, error) { return []byte("nope"), nil }

	out := h.run("ana@uni.edu", "pending", "exit")

	assert.Contains(t, out, "Error: Credenciales inválidas")
	assert.Nil(t, h.store.Load(context.Background()))
	assert.Zero(t, h.backend.Calls(fakeapi.RoutePending))
}

func TestApp_RejectNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	e := h.pending("Feria")

	out := h.run("ana@uni.edu", "pending", "reject 1", "n", "exit")
	assert.Contains(t, out, "Cancelled.")
	assert.Zero(t, h.backend.Calls(fakeapi.RouteReject))

	out = h.run("pending", "reject 1", "y", "exit")
	assert.Contains(t, out, "Event #1 rejected.")
	got, _ := h.backend.Event(e.ID)
	assert.Equal(t, models.StatusRejected, got.Status)
}

func TestApp_AdvanceCollectsPhaseData(t *testing.T) {
	h := newHarness(t)
	e := h.backend.AddEvent(models.EventProposal{
		Draft:  models.Draft{Name: "Charla", EventTypes: []string{"charla"}, Place: "Aula 1"},
		Status: models.StatusApproved,
		Phase:  models.PhaseReview,
	})

	out := h.run("ana@uni.edu", "approved", "advance 1", "2026-11-20", "10:00", "Aula Magna", "exit")

	assert.Contains(t, out, "Moving to phase 3 (scheduling).")
	assert.Contains(t, out, "Event #1 is now in phase 3 (scheduling).")
	got, _ := h.backend.Event(e.ID)
	assert.Equal(t, models.PhaseScheduling, got.Phase)
	assert.Equal(t, "Aula Magna", got.Place)
	assert.Equal(t, "2026-11-20", got.ScheduledDate)
}

func TestApp_AdvanceRejectedIsGuarded(t *testing.T) {
	h := newHarness(t)
	h.backend.AddEvent(models.EventProposal{
		Draft:  models.Draft{Name: "Charla", EventTypes: []string{"charla"}},
		Status: models.StatusRejected,
	})

	out := h.run("ana@uni.edu", "advance 1", "exit")

	assert.Contains(t, out, "That action is not available for this event anymore.")
	assert.Zero(t, h.backend.Calls(fakeapi.RouteAdvancePhase))
}

func TestApp_StudentCannotApprove(t *testing.T) {
	h := newHarness(t)
	h.pending("Taller X")

	out := h.run("luis@uni.edu", "approve 1", "exit")

	assert.Contains(t, out, "Your role is not allowed to do that.")
	assert.Zero(t, h.backend.Calls(fakeapi.RouteApprove))
}

func TestApp_ApproveAfterOtherReviewerIsGuarded(t *testing.T) {
	h := newHarness(t)
	e := h.pending("Taller X")

	h.run("ana@uni.edu", "exit")
	h.backend.SetEventStatus(e.ID, models.StatusApproved)

	out := h.run("approve 1", "exit")

	assert.Contains(t, out, "That action is not available for this event anymore.")
	assert.Zero(t, h.backend.Calls(fakeapi.RouteApprove))
}

func TestApp_ConflictShowsServerMessage(t *testing.T) {
	h := newHarness(t)
	e := h.pending("Taller X")
	h.backend.OnRequest(fakeapi.RouteApprove, func(*http.Request) {
		h.backend.SetEventStatus(e.ID, models.StatusRejected)
	})

	out := h.run("ana@uni.edu", "pending", "approve 1", "pending", "exit")

	assert.Contains(t, out, "Error: El evento ya fue revisado")
	assert.NotContains(t, out, "Type 'retry'")
	assert.Contains(t, out, "No pending events.")
	assert.Equal(t, 1, h.backend.Calls(fakeapi.RouteApprove))
}

func TestApp_RetryAfterServerError(t *testing.T) {
	h := newHarness(t)
	h.pending("Taller X")
	h.backend.FailNext(fakeapi.RoutePending, http.StatusInternalServerError, "boom")

	out := h.run("ana@uni.edu", "pending", "retry", "retry", "exit")

	assert.Contains(t, out, "The server could not complete the request. Please retry.")
	assert.Contains(t, out, "Type 'retry' to try again.")
	assert.Contains(t, out, "Taller X")
	assert.Contains(t, out, "Nothing to retry.")
	assert.Equal(t, 2, h.backend.Calls(fakeapi.RoutePending))
}

func TestApp_ExpiredSessionPromptsLogin(t *testing.T) {
	h := newHarness(t)
	h.pending("Taller X")

	var once sync.Once
	h.backend.OnRequest(fakeapi.RoutePending, func(*http.Request) {
		once.Do(h.backend.RevokeSessions)
	})

	out := h.run("ana@uni.edu", "pending", "ana@uni.edu", "pending", "exit")

	assert.Contains(t, out, "Your session has expired. Please sign in again.")
	assert.Equal(t, 2, h.backend.Calls(fakeapi.RouteLogin))
	assert.Equal(t, 2, h.backend.Calls(fakeapi.RoutePending))
	assert.Equal(t, 1, strings.Count(out, "Taller X"))
	assert.NotNil(t, h.store.Load(context.Background()))
}

func TestApp_RevokedStoredSessionPromptsLogin(t *testing.T) {
	h := newHarness(t)

	h.run("ana@uni.edu", "exit")
	h.backend.RevokeSessions()

	out := h.run("ana@uni.edu", "whoami", "exit")

	assert.Contains(t, out, "Your session has expired. Please sign in again.")
	assert.Contains(t, out, "Welcome, Ana Rojas (admin)")
	assert.Equal(t, 2, h.backend.Calls(fakeapi.RouteLogin))
}

func TestApp_SubmitWithImage(t *testing.T) {
	h := newHarness(t)
	img := filepath.Join(t.TempDir(), "poster.png")
	require.NoError(t, os.WriteFile(img, []byte("png-bytes"), 0o600))

	out := h.run("ana@uni.edu", "submit",
		"Taller X",             // name
		"Hands-on session", "", // description
		"Aula 1",     // place
		"2026-11-20", // date
		"10:00",      // time
		"Ana Rojas",  // responsible
		"30",         // attendees
		"taller",     // types
		"go, cli",    // tags
		"Docencia",   // strategic
		"Talleres",   // subcategory
		"technological,Projector,1", "", // resources
		"100",     // income
		"40",      // expenses
		img,       // image
		"show 1",
		"exit",
	)

	assert.Contains(t, out, "Event #1 submitted, status pending, phase 1.")
	assert.Contains(t, out, "Image uploaded:")
	assert.Contains(t, out, "Projector x1 (technological)")
	assert.Equal(t, []byte("png-bytes"), h.backend.Upload(1))

	got, _ := h.backend.Event(1)
	assert.Equal(t, "Taller X", got.Name)
	assert.InDelta(t, 60.0, got.Budget.Balance, 0.001)
}

func TestApp_SubmitInvalidDraftIsNotSent(t *testing.T) {
	h := newHarness(t)

	out := h.run("ana@uni.edu", "submit",
		"", "", "", "", "", "", "", "", "", "", "", "", "", "", "",
		"exit",
	)

	assert.Contains(t, out, "name is required")
	assert.Zero(t, h.backend.Calls(fakeapi.RouteCreateEvent))
}

func TestApp_NotificationsAndDashboard(t *testing.T) {
	h := newHarness(t)
	h.pending("Taller X")
	h.backend.AddNotification(models.Notification{ID: 1, Title: "Nuevo evento", Message: "Taller X"})
	h.backend.AddNotification(models.Notification{ID: 2, Title: "Aprobado", Message: "Feria", Read: true})

	out := h.run("ana@uni.edu", "notifications", "dashboard", "exit")

	assert.Contains(t, out, "Nuevo evento")
	assert.Contains(t, out, "pending: 1  approved: 0  notifications: 2 (1 unread)")
}
