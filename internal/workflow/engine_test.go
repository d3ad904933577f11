package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignly/campaignly/internal/models"
)

// fakeCampaignStore keeps campaigns in a map keyed by (user, name).
type fakeCampaignStore struct {
	byID   map[string]*models.Campaign
	nextID int
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{byID: make(map[string]*models.Campaign)}
}

func (f *fakeCampaignStore) Upsert(c *models.Campaign) (string, error) {
	for id, existing := range f.byID {
		if existing.UserID == c.UserID && existing.CampaignName == c.CampaignName {
			c.ID = id
			c.Status = existing.Status
			copy := *c
			f.byID[id] = &copy
			return id, nil
		}
	}
	f.nextID++
	c.ID = fmt.Sprintf("campaign-%d", f.nextID)
	c.Status = models.StatusDraft
	copy := *c
	f.byID[c.ID] = &copy
	return c.ID, nil
}

func (f *fakeCampaignStore) GetByID(id string) (*models.Campaign, error) {
	if c, ok := f.byID[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeCampaignStore) SetStatus(id, status string) error {
	c, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("campaign %s not found", id)
	}
	c.Status = status
	return nil
}

func (f *fakeCampaignStore) VerifyOwnership(userID, campaignID string) (bool, error) {
	c, ok := f.byID[campaignID]
	return ok && c.UserID == userID, nil
}

type fakeStrategyStore struct {
	texts map[string][]string
}

func newFakeStrategyStore() *fakeStrategyStore {
	return &fakeStrategyStore{texts: make(map[string][]string)}
}

func (f *fakeStrategyStore) Insert(campaignID, text string) (string, error) {
	f.texts[campaignID] = append(f.texts[campaignID], text)
	return fmt.Sprintf("strategy-%d", len(f.texts[campaignID])), nil
}

func (f *fakeStrategyStore) GetLatest(campaignID string) (*models.Strategy, error) {
	texts := f.texts[campaignID]
	if len(texts) == 0 {
		return nil, nil
	}
	return &models.Strategy{CampaignID: campaignID, StrategyText: texts[len(texts)-1]}, nil
}

type fakeEmailStore struct {
	records map[string]map[int]*models.ApprovedEmail
	failing bool
}

func newFakeEmailStore() *fakeEmailStore {
	return &fakeEmailStore{records: make(map[string]map[int]*models.ApprovedEmail)}
}

func (f *fakeEmailStore) Insert(e *models.ApprovedEmail) (*models.ApprovedEmail, error) {
	if f.failing {
		return nil, errors.New("store unreachable")
	}
	if f.records[e.CampaignID] == nil {
		f.records[e.CampaignID] = make(map[int]*models.ApprovedEmail)
	}
	if existing, ok := f.records[e.CampaignID][e.EmailNumber]; ok {
		return existing, nil
	}
	e.ID = fmt.Sprintf("email-%s-%d", e.CampaignID, e.EmailNumber)
	copy := *e
	f.records[e.CampaignID][e.EmailNumber] = &copy
	return &copy, nil
}

func (f *fakeEmailStore) ListByCampaign(campaignID string) ([]models.ApprovedEmail, error) {
	out := []models.ApprovedEmail{}
	for n := 1; n <= len(f.records[campaignID])+10; n++ {
		if e, ok := f.records[campaignID][n]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEmailStore) UpdateFeedback(campaignID string, number int, feedback string) error {
	e, ok := f.records[campaignID][number]
	if !ok {
		return fmt.Errorf("email %d not approved", number)
	}
	e.Feedback = feedback
	return nil
}

// fakeGenerator returns canned content; draftCount overrides the requested
// count to simulate a misbehaving content service.
type fakeGenerator struct {
	strategy    string
	strategyErr error
	draftsErr   error
	draftCount  int // 0 means honor the request
}

func (f *fakeGenerator) GenerateStrategy(ctx context.Context, brief models.Brief) (string, error) {
	if f.strategyErr != nil {
		return "", f.strategyErr
	}
	if f.strategy != "" {
		return f.strategy, nil
	}
	return "canned strategy", nil
}

func (f *fakeGenerator) GenerateEmails(ctx context.Context, brief models.Brief, strategy string, progress func(string)) ([]models.Draft, error) {
	if f.draftsErr != nil {
		return nil, f.draftsErr
	}
	count := brief.NumEmails
	if f.draftCount > 0 {
		count = f.draftCount
	}
	drafts := make([]models.Draft, 0, count)
	for i := 1; i <= count; i++ {
		progress(fmt.Sprintf("Crafting email draft %d of %d...", i, count))
		drafts = append(drafts, models.Draft{
			Number:  i,
			Subject: fmt.Sprintf("Subject %d", i),
			Content: fmt.Sprintf("Body %d", i),
		})
	}
	return drafts, nil
}

type testEnv struct {
	engine     *Engine
	campaigns  *fakeCampaignStore
	strategies *fakeStrategyStore
	emails     *fakeEmailStore
	generator  *fakeGenerator
	states     *MemoryStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		campaigns:  newFakeCampaignStore(),
		strategies: newFakeStrategyStore(),
		emails:     newFakeEmailStore(),
		generator:  &fakeGenerator{},
		states:     NewMemoryStore(),
	}
	env.engine = NewEngine(env.campaigns, env.strategies, env.emails,
		env.generator, env.states, slog.New(slog.DiscardHandler))
	return env
}

func validBrief(numEmails int) models.Brief {
	return models.Brief{
		CampaignName:   "Spring Launch",
		ProductName:    "Widget Pro",
		TargetAudience: "SMB owners",
		CampaignGoal:   "Drive signups",
		Timeline:       4,
		NumEmails:      numEmails,
		Frequency:      "Weekly",
		EmailTone:      "Professional",
		TemplateStyle:  "Minimalist",
	}
}

func TestEngine_StartHappyPath(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var progress []string
	state, err := env.engine.Start(ctx, "user-1", validBrief(3), func(msg string) {
		progress = append(progress, msg)
	})
	require.NoError(t, err)

	assert.Len(t, state.Drafts, 3)
	assert.Equal(t, 3, state.NumRequested)
	assert.False(t, state.StrategyApproved)
	assert.Equal(t, 0, state.ApprovedCount())

	// Campaign persisted in draft status
	campaign, err := env.campaigns.GetByID(state.CampaignID)
	require.NoError(t, err)
	require.NotNil(t, campaign)
	assert.Equal(t, models.StatusDraft, campaign.Status)

	// Strategy persisted before drafts
	strategy, err := env.strategies.GetLatest(state.CampaignID)
	require.NoError(t, err)
	require.NotNil(t, strategy)
	assert.Equal(t, "canned strategy", strategy.StrategyText)

	// Progress emitted for each major step
	require.NotEmpty(t, progress)
	assert.Equal(t, "Analyzing campaign requirements...", progress[0])
	assert.Contains(t, progress, "Generating campaign strategy...")
	assert.Contains(t, progress, "Crafting email draft 1 of 3...")
	assert.Contains(t, progress, "Crafting email draft 3 of 3...")
	assert.Contains(t, progress, "Finalizing campaign materials...")
}

func TestEngine_StartValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	brief := validBrief(3)
	brief.ProductName = ""

	_, err := env.engine.Start(ctx, "user-1", brief, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "product_name", verr.Field)

	// Nothing persisted before validation passes
	assert.Empty(t, env.campaigns.byID)
	assert.Empty(t, env.strategies.texts)
}

func TestEngine_StartCountMismatch(t *testing.T) {
	env := newTestEnv()
	env.generator.draftCount = 4

	_, err := env.engine.Start(context.Background(), "user-1", validBrief(3), nil)
	require.ErrorIs(t, err, ErrGenerationCountMismatch)

	// No review state saved for the mismatched result
	for id := range env.campaigns.byID {
		state, err := env.states.Get(id)
		require.NoError(t, err)
		assert.Nil(t, state)
	}
}

func TestEngine_StartDraftFailureKeepsStrategy(t *testing.T) {
	env := newTestEnv()
	env.generator.draftsErr = errors.New("model unavailable")

	_, err := env.engine.Start(context.Background(), "user-1", validBrief(3), nil)
	require.Error(t, err)

	// Campaign and strategy already saved remain saved
	require.Len(t, env.campaigns.byID, 1)
	for id := range env.campaigns.byID {
		strategy, err := env.strategies.GetLatest(id)
		require.NoError(t, err)
		assert.NotNil(t, strategy)
	}
}

func TestEngine_ApproveStrategyIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(2), nil)
	require.NoError(t, err)

	state, err = env.engine.ApproveStrategy(ctx, "user-1", state.CampaignID)
	require.NoError(t, err)
	assert.True(t, state.StrategyApproved)

	state, err = env.engine.ApproveStrategy(ctx, "user-1", state.CampaignID)
	require.NoError(t, err)
	assert.True(t, state.StrategyApproved)
}

func TestEngine_ApproveEmailIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(3), nil)
	require.NoError(t, err)
	id := state.CampaignID

	first, err := env.engine.ApproveEmail(ctx, "user-1", id, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "Subject 1", first.Subject)

	state, err = env.engine.State("user-1", id)
	require.NoError(t, err)
	assert.Equal(t, 1, state.ApprovedCount())

	// Approving the same number again returns the existing record and the
	// count does not grow
	second, err := env.engine.ApproveEmail(ctx, "user-1", id, 1, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	state, err = env.engine.State("user-1", id)
	require.NoError(t, err)
	assert.Equal(t, 1, state.ApprovedCount())
}

func TestEngine_ApproveEmailOutOfRange(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(3), nil)
	require.NoError(t, err)

	for _, n := range []int{0, -1, 4} {
		_, err := env.engine.ApproveEmail(ctx, "user-1", state.CampaignID, n, "")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "number %d", n)
	}
}

func TestEngine_ApproveEmailWriteFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(2), nil)
	require.NoError(t, err)

	env.emails.failing = true
	_, err = env.engine.ApproveEmail(ctx, "user-1", state.CampaignID, 1, "")
	require.Error(t, err)

	// The failed write must not be marked approved in session state
	state, err = env.engine.State("user-1", state.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.ApprovedCount())
}

func TestEngine_LaunchGating(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(2), nil)
	require.NoError(t, err)
	id := state.CampaignID

	// Nothing approved yet
	err = env.engine.Launch(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrNotLaunchable)

	// Strategy approved, only 1 of 2 emails: still blocked, message names
	// the missing email
	_, err = env.engine.ApproveStrategy(ctx, "user-1", id)
	require.NoError(t, err)
	_, err = env.engine.ApproveEmail(ctx, "user-1", id, 1, "")
	require.NoError(t, err)

	err = env.engine.Launch(ctx, "user-1", id)
	require.ErrorIs(t, err, ErrNotLaunchable)
	assert.Contains(t, err.Error(), "1 more email")

	// All emails but no strategy also blocks
	env2 := newTestEnv()
	state2, err := env2.engine.Start(ctx, "user-1", validBrief(1), nil)
	require.NoError(t, err)
	_, err = env2.engine.ApproveEmail(ctx, "user-1", state2.CampaignID, 1, "")
	require.NoError(t, err)
	err = env2.engine.Launch(ctx, "user-1", state2.CampaignID)
	require.ErrorIs(t, err, ErrNotLaunchable)
	assert.Contains(t, err.Error(), "strategy")
}

func TestEngine_FullApprovalScenario(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(3), nil)
	require.NoError(t, err)
	id := state.CampaignID
	require.Len(t, state.Drafts, 3)

	_, err = env.engine.ApproveEmail(ctx, "user-1", id, 1, "")
	require.NoError(t, err)
	_, err = env.engine.ApproveEmail(ctx, "user-1", id, 2, "")
	require.NoError(t, err)
	record, err := env.engine.ApproveEmail(ctx, "user-1", id, 3, "shorten CTA")
	require.NoError(t, err)
	assert.Equal(t, "shorten CTA", record.Feedback)

	_, err = env.engine.ApproveStrategy(ctx, "user-1", id)
	require.NoError(t, err)

	require.NoError(t, env.engine.Launch(ctx, "user-1", id))

	campaign, err := env.campaigns.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLaunched, campaign.Status)

	details, err := env.engine.Details(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Len(t, details.ApprovedEmails, 3)
	assert.Equal(t, "canned strategy", details.Strategy)
}

func TestEngine_DeleteBlocksFurtherActions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(2), nil)
	require.NoError(t, err)
	id := state.CampaignID

	require.NoError(t, env.engine.Delete(ctx, "user-1", id))

	// Soft delete: record still exists with deleted status
	campaign, err := env.campaigns.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, campaign)
	assert.Equal(t, models.StatusDeleted, campaign.Status)

	// No further approvals or launch
	_, err = env.engine.ApproveEmail(ctx, "user-1", id, 1, "")
	assert.ErrorIs(t, err, ErrCampaignDeleted)
	_, err = env.engine.ApproveStrategy(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrCampaignDeleted)
	err = env.engine.Launch(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrCampaignDeleted)
}

func TestEngine_DeleteLaunchedRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(1), nil)
	require.NoError(t, err)
	id := state.CampaignID

	_, err = env.engine.ApproveStrategy(ctx, "user-1", id)
	require.NoError(t, err)
	_, err = env.engine.ApproveEmail(ctx, "user-1", id, 1, "")
	require.NoError(t, err)
	require.NoError(t, env.engine.Launch(ctx, "user-1", id))

	assert.Error(t, env.engine.Delete(ctx, "user-1", id))
}

func TestEngine_AccessDenied(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(2), nil)
	require.NoError(t, err)
	id := state.CampaignID

	_, err = env.engine.ApproveStrategy(ctx, "intruder", id)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.engine.ApproveEmail(ctx, "intruder", id, 1, "")
	assert.ErrorIs(t, err, ErrAccessDenied)
	err = env.engine.Launch(ctx, "intruder", id)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.engine.Details(ctx, "intruder", id)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestEngine_AddFeedbackAfterApproval(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	state, err := env.engine.Start(ctx, "user-1", validBrief(2), nil)
	require.NoError(t, err)
	id := state.CampaignID

	_, err = env.engine.ApproveEmail(ctx, "user-1", id, 1, "")
	require.NoError(t, err)

	require.NoError(t, env.engine.AddFeedback(ctx, "user-1", id, 1, "tighter opener"))

	// Feedback recorded but the approval untouched
	state, err = env.engine.State("user-1", id)
	require.NoError(t, err)
	assert.Equal(t, "tighter opener", state.Feedback[1])
	assert.True(t, state.ApprovedNumbers[1])

	// Feedback on a not-yet-approved email is rejected
	assert.Error(t, env.engine.AddFeedback(ctx, "user-1", id, 2, "x"))
}

func TestState_RemainingMessage(t *testing.T) {
	s := newState("c1", 3)
	assert.Contains(t, s.RemainingMessage(), "strategy")
	assert.Contains(t, s.RemainingMessage(), "3 more emails")

	s.StrategyApproved = true
	s.ApprovedNumbers[1] = true
	s.ApprovedNumbers[2] = true
	assert.Equal(t, "approve 1 more email", s.RemainingMessage())

	s.ApprovedNumbers[3] = true
	assert.True(t, s.Launchable())
	assert.Equal(t, "", s.RemainingMessage())
}

func TestBoltStore_RoundTrip(t *testing.T) {
	store, err := NewBoltStore(t.TempDir() + "/state.db")
	require.NoError(t, err)
	defer store.Close()

	missing, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	state := newState("campaign-1", 2)
	state.StrategyApproved = true
	state.ApprovedNumbers[1] = true
	state.Feedback[1] = "solid"
	state.Drafts = []models.Draft{{Number: 1, Subject: "Hi", Content: "Body"}}

	require.NoError(t, store.Put(state))

	loaded, err := store.Get("campaign-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.StrategyApproved)
	assert.True(t, loaded.ApprovedNumbers[1])
	assert.Equal(t, "solid", loaded.Feedback[1])
	require.Len(t, loaded.Drafts, 1)
	assert.Equal(t, "Hi", loaded.Drafts[0].Subject)

	require.NoError(t, store.Delete("campaign-1"))
	gone, err := store.Get("campaign-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
