package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"kenhavate/internal/database"
	"kenhavate/internal/models"
	"kenhavate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type notifierRecorder struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (n *notifierRecorder) Notify(_ context.Context, msg models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *notifierRecorder) titlesFor(userID uint) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, msg := range n.sent {
		if msg.UserID == userID {
			out = append(out, msg.Title)
		}
	}
	return out
}

type auditRecorder struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	err     error
}

func (a *auditRecorder) Record(_ context.Context, e models.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return a.err
}

func (a *auditRecorder) events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Event
	}
	return out
}

// env wires every service over one in-memory SQLite database.
type env struct {
	db       *gorm.DB
	store    *repository.Store
	notifier *notifierRecorder
	auditor  *auditRecorder

	ideas          *IdeaService
	collaborations *CollaborationService
	revisions      *RevisionService
	comments       *CommentService

	owner    *models.User
	peer     *models.User
	stranger *models.User
	admin    *models.User
	area     *models.ThematicArea
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	store := repository.NewStore(db, nil)
	e := &env{
		db:       db,
		store:    store,
		notifier: &notifierRecorder{},
		auditor:  &auditRecorder{},
	}
	effects := Effects{Notifier: e.notifier, Auditor: e.auditor}
	isAdmin := UserAdminCheck(store.Users)

	e.ideas = NewIdeaService(store, effects, isAdmin)
	e.collaborations = NewCollaborationService(store, effects, isAdmin)
	e.revisions = NewRevisionService(store, effects, isAdmin)
	e.comments = NewCommentService(store, effects, isAdmin)

	e.owner = e.user(t, "Amina Otieno", false)
	e.peer = e.user(t, "Brian Kiptoo", false)
	e.stranger = e.user(t, "Carol Wanjiru", false)
	e.admin = e.user(t, "Daniel Mwangi", true)

	e.area = &models.ThematicArea{Name: "Road Safety", Active: true}
	require.NoError(t, store.ThematicAreas.Create(context.Background(), e.area))
	return e
}

func (e *env) user(t *testing.T, name string, admin bool) *models.User {
	t.Helper()
	u := &models.User{
		Name:     name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@kenha.example",
		Password: "x",
		IsAdmin:  admin,
	}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return u
}

func (e *env) fields() models.IdeaFields {
	areaID := e.area.ID
	return models.IdeaFields{
		Title:                  "Solar powered road studs",
		ThematicAreaID:         &areaID,
		Abstract:               "Replace reflective studs with solar LED studs on black spots.",
		ProblemStatement:       "Night-time visibility on rural highways is poor.",
		ProposedSolution:       "Install solar LED studs along curves and junctions.",
		CostBenefitAnalysis:    "Lower accident rates outweigh installation cost.",
		DeclarationOfInterests: "None.",
		OriginalIdeaDisclaimer: true,
	}
}

// submitted creates a submitted idea owned by e.owner.
func (e *env) submitted(t *testing.T) *models.Idea {
	t.Helper()
	idea, err := e.ideas.Submit(context.Background(), SubmitInput{ActorID: e.owner.ID, Fields: e.fields()})
	require.NoError(t, err)
	return idea
}

// openIdea is a submitted idea with collaboration enabled.
func (e *env) openIdea(t *testing.T) *models.Idea {
	t.Helper()
	idea := e.submitted(t)
	idea, err := e.collaborations.ToggleCollaboration(context.Background(), ToggleCollaborationInput{
		ActorID: e.owner.ID,
		IdeaID:  idea.ID,
		Enabled: true,
	})
	require.NoError(t, err)
	return idea
}

// collaborate makes user an active collaborator on idea via an accepted invitation.
func (e *env) collaborate(t *testing.T, idea *models.Idea, user *models.User, level models.PermissionLevel) *models.IdeaCollaborator {
	t.Helper()
	ctx := context.Background()
	req, err := e.collaborations.SendInvitation(ctx, SendInvitationInput{
		ActorID:         idea.UserID,
		IdeaID:          idea.ID,
		InviteeEmail:    user.Email,
		PermissionLevel: level,
	})
	require.NoError(t, err)
	collab, err := e.collaborations.AcceptInvitation(ctx, RespondInput{ActorID: user.ID, RequestID: req.ID})
	require.NoError(t, err)
	return collab
}

func (e *env) reload(t *testing.T, id uint) *models.Idea {
	t.Helper()
	idea, err := e.store.Ideas.GetByID(context.Background(), id)
	require.NoError(t, err)
	return idea
}

func (e *env) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

// assertFieldError asserts a validation error that names field.
func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, field, fmt.Sprintf("fields: %v", appErr.Fields))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk read failed")
}
