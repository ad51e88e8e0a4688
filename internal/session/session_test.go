package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seazone-ai/sia/internal/llm"
	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/pkg/logger"
)

func newTestManager() *Manager {
	return NewManager(model.Settings{
		Model:                     llm.DefaultModel,
		Temperature:               llm.DefaultTemperature,
		SystemPrompt:              "system",
		EnableValidateLocation:    true,
		EnableSubmitQualification: true,
	}, logger.NewNop())
}

func TestManagerCreateDefaults(t *testing.T) {
	m := newTestManager()

	sess := m.Create(nil)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, llm.DefaultModel, sess.Settings().Model)
	assert.Equal(t, llm.DefaultTemperature, sess.Settings().Temperature)
	assert.True(t, sess.Settings().EnableValidateLocation)

	got, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestManagerCreateOverride(t *testing.T) {
	m := newTestManager()

	sess := m.Create(&model.Settings{Model: "gemini-3-flash-preview", Temperature: 0.9})
	assert.Equal(t, "gemini-3-flash-preview", sess.Settings().Model)
	assert.Equal(t, 0.9, sess.Settings().Temperature)
	// unset override fields keep the defaults
	assert.Equal(t, "system", sess.Settings().SystemPrompt)
}

func TestManagerGetUnknown(t *testing.T) {
	m := newTestManager()

	_, err := m.Get("0190b7b4-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerDelete(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	require.NoError(t, m.Delete(sess.ID))
	_, err := m.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, m.Delete(sess.ID), ErrSessionNotFound)
}

func TestTurnInFlight(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	require.NoError(t, sess.BeginTurn())
	assert.ErrorIs(t, sess.BeginTurn(), ErrTurnInFlight)
	assert.ErrorIs(t, sess.Reset(), ErrTurnInFlight)
	assert.ErrorIs(t, sess.DeleteMessage("any"), ErrTurnInFlight)
	assert.ErrorIs(t, m.Delete(sess.ID), ErrTurnInFlight)

	sess.EndTurn()
	require.NoError(t, sess.BeginTurn())
	sess.EndTurn()
}

func TestEditUserMessageKeepsIdentity(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	u1 := sess.AppendUser("primeira")
	sess.AppendAssistant(NewAssistantMessage())
	u2 := sess.AppendUser("segunda")
	sess.AppendAssistant(NewAssistantMessage())

	role, err := sess.EditMessage(u2.ID, "segunda, corrigida")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)

	// the edited message survives with its id and timestamp; only what
	// came after it is gone
	msgs := sess.History()
	require.Len(t, msgs, 3)
	assert.Equal(t, u1.ID, msgs[0].ID)
	assert.Equal(t, u2.ID, msgs[2].ID)
	assert.Equal(t, u2.CreatedAt, msgs[2].CreatedAt)
	assert.Equal(t, "segunda, corrigida", msgs[2].TextContent())
	sess.EndTurn()
}

func TestEditUserMessageClaimsTurn(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	u := sess.AppendUser("oi")
	sess.AppendAssistant(NewAssistantMessage())

	// the edit claims the turn slot in the same critical section as the
	// truncation, so nothing can start a turn before regeneration runs
	_, err := sess.EditMessage(u.ID, "oi, de novo")
	require.NoError(t, err)
	assert.ErrorIs(t, sess.BeginTurn(), ErrTurnInFlight)

	sess.EndTurn()
	require.NoError(t, sess.BeginTurn())
	sess.EndTurn()
}

func TestEditAssistantMessageInPlace(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	sess.AppendUser("oi")
	a := NewAssistantMessage()
	a.Parts = []model.Part{
		model.TextPart("texto antigo"),
		{Type: model.PartToolInvocation, ToolName: "validateLocation", ToolCallID: "call_1", State: model.InvocationDone},
	}
	sess.AppendAssistant(a)

	role, err := sess.EditMessage(a.ID, "texto novo")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, role)

	msgs := sess.History()
	require.Len(t, msgs, 2)
	assert.Equal(t, "texto novo", a.TextContent())
	// invocation parts survive the edit
	require.NotNil(t, a.Invocation("call_1"))
}

func TestViewCopiesMessages(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	sess.AppendUser("oi")
	a := NewAssistantMessage()
	a.Parts = []model.Part{model.TextPart("resposta original")}
	sess.AppendAssistant(a)

	v := sess.View()
	require.Len(t, v.Messages, 2)

	// snapshots are serialized outside the session lock; later in-place
	// edits must not show through
	_, err := sess.EditMessage(a.ID, "resposta ajustada")
	require.NoError(t, err)

	assert.Equal(t, "resposta original", v.Messages[1].TextContent())
	assert.Equal(t, "resposta ajustada", sess.History()[1].TextContent())
}

func TestDeleteMessage(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	u := sess.AppendUser("oi")
	sess.AppendAssistant(NewAssistantMessage())

	require.NoError(t, sess.DeleteMessage(u.ID))
	require.Len(t, sess.History(), 1)

	assert.ErrorIs(t, sess.DeleteMessage(u.ID), ErrMessageNotFound)
}

func TestReset(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	sess.AppendUser("oi")
	a := NewAssistantMessage()
	a.Usage = &model.TokenUsage{Prompt: 10, Completion: 5, Total: 15}
	sess.AppendAssistant(a)
	sess.EndTurn()
	require.NotZero(t, sess.Aggregates().Usage.Total)

	require.NoError(t, sess.Reset())
	assert.Empty(t, sess.History())
	assert.Zero(t, sess.Aggregates().Usage.Total)
}

func TestTruncateAfterLastUser(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	sess.AppendUser("primeira")
	sess.AppendAssistant(NewAssistantMessage())
	sess.AppendUser("segunda")
	sess.AppendAssistant(NewAssistantMessage())
	sess.AppendAssistant(NewAssistantMessage())

	text, err := sess.TruncateAfterLastUser()
	require.NoError(t, err)
	assert.Equal(t, "segunda", text)

	msgs := sess.History()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleUser, msgs[2].Role)

	// idempotent once the tail is already a user message
	text, err = sess.TruncateAfterLastUser()
	require.NoError(t, err)
	assert.Equal(t, "segunda", text)
	assert.Len(t, sess.History(), 3)
}

func TestUpdateSettings(t *testing.T) {
	m := newTestManager()
	sess := m.Create(nil)

	s := sess.Settings()
	s.Model = "gpt-5.2"
	s.EnableSubmitQualification = false
	require.NoError(t, sess.UpdateSettings(s))
	assert.Equal(t, "gpt-5.2", sess.Settings().Model)
	assert.False(t, sess.Settings().EnableSubmitQualification)

	require.NoError(t, sess.BeginTurn())
	assert.ErrorIs(t, sess.UpdateSettings(s), ErrTurnInFlight)
	sess.EndTurn()
}
