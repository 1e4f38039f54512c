package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gitlab.com/arkline/modguard/internal/models"
)

// These tests run against a real database, like the rest of the platform's
// integration suites. They are skipped when MODGUARD_TEST_DATABASE_URL is
// unset.
var testSDB *SharedDB

func TestMain(m *testing.M) {
	url := os.Getenv("MODGUARD_TEST_DATABASE_URL")
	if url != "" {
		// Migrations are addressed relative to the module root.
		if err := os.Chdir("./../.."); err != nil {
			panic(err)
		}
		if err := MigrateDown(url); err != nil {
			panic(err)
		}
		if err := MigrateUp(url); err != nil {
			panic(err)
		}
		config := &models.EnvConfig{DatabaseURL: url}
		sdb, err := Connect(config, zerolog.Nop())
		if err != nil {
			panic(err)
		}
		testSDB = &sdb
	}
	os.Exit(m.Run())
}

func testDB(t *testing.T) *SharedDB {
	t.Helper()
	if testSDB == nil {
		t.Skip("MODGUARD_TEST_DATABASE_URL not set")
	}
	return testSDB
}

type stubContentStore struct {
	author       int
	authorErr    error
	deletedPosts []int
	deleteErr    error
}

func (s *stubContentStore) GetAuthor(ctx context.Context, target models.TargetRef) (int, error) {
	if s.authorErr != nil {
		return 0, s.authorErr
	}
	if target.Type == models.TargetUser {
		return target.ID, nil
	}
	return s.author, nil
}
func (s *stubContentStore) DeletePost(ctx context.Context, postID int) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedPosts = append(s.deletedPosts, postID)
	return nil
}
func (s *stubContentStore) DeleteComment(ctx context.Context, commentID int) error {
	return s.deleteErr
}

func moderator(t *testing.T, sdb *SharedDB, content models.ContentStore) *ModeratorH {
	t.Helper()
	h, err := sdb.GetModeratorH(models.Identity{UserID: 9, IsAdmin: true}, content)
	require.NoError(t, err)
	return h
}

// backdateBan makes the user's active ban look naturally expired without
// touching is_active, the state lazy expiry has to cope with.
func backdateBan(t *testing.T, sdb *SharedDB, userID int) {
	t.Helper()
	_, err := sdb.db.Exec(context.Background(),
		"UPDATE user_bans SET expires_at = now() - interval '1 day' WHERE user_id = $1 AND is_active",
		userID)
	require.NoError(t, err)
}

func TestGetModeratorHRequiresAdmin(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)

	_, err := sdb.GetModeratorH(models.Identity{UserID: 5, IsAdmin: false}, &stubContentStore{})
	require.ErrorIs(err, models.ErrPermDenied)
}

func TestBanLifecycle(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	const userID = 101

	ban, err := sdb.CreateBan(ctx, userID, 9, "spam", models.BanTypeTemporary, 7)
	require.NoError(err)
	require.True(ban.IsActive)
	require.NotNil(ban.ExpiresAt)
	require.WithinDuration(time.Now().AddDate(0, 0, 7), *ban.ExpiresAt, time.Minute)

	banned, err := sdb.EffectiveIsBanned(ctx, userID)
	require.NoError(err)
	require.True(banned)

	_, err = sdb.CreateBan(ctx, userID, 9, "again", models.BanTypePermanent, 0)
	require.ErrorIs(err, models.ErrAlreadyBanned)

	lifted, err := sdb.LiftBan(ctx, userID, 9, "appeal accepted")
	require.NoError(err)
	require.False(lifted.IsActive)
	require.NotNil(lifted.LiftedBy)
	require.Equal(9, *lifted.LiftedBy)
	require.NotNil(lifted.LiftedAt)

	banned, err = sdb.EffectiveIsBanned(ctx, userID)
	require.NoError(err)
	require.False(banned)

	_, err = sdb.LiftBan(ctx, userID, 9, "again")
	require.ErrorIs(err, models.ErrNoActiveBan)

	history, err := sdb.BanHistory(ctx, userID)
	require.NoError(err)
	require.Len(history, 1)
}

func TestCreateBanValidation(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()

	_, err := sdb.CreateBan(ctx, 9, 9, "oops", models.BanTypePermanent, 0)
	require.ErrorIs(err, models.ErrSelfBan)

	_, err = sdb.CreateBan(ctx, 110, 9, "spam", models.BanTypeTemporary, 0)
	require.ErrorIs(err, models.ErrInvalidDuration)

	_, err = sdb.CreateBan(ctx, 110, 9, "spam", models.BanType("shadow"), 0)
	require.ErrorIs(err, models.ErrInvalidFormat)
}

func TestExpiredBanDoesNotBlock(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	const userID = 102

	_, err := sdb.CreateBan(ctx, userID, 9, "spam", models.BanTypeTemporary, 1)
	require.NoError(err)
	backdateBan(t, sdb, userID)

	banned, err := sdb.EffectiveIsBanned(ctx, userID)
	require.NoError(err)
	require.False(banned)

	gateErr := sdb.CheckNotBanned(ctx, userID)
	require.NoError(gateErr)

	// Re-banning must succeed even though the expired row still says
	// is_active in storage.
	ban, err := sdb.CreateBan(ctx, userID, 9, "spam again", models.BanTypePermanent, 0)
	require.NoError(err)
	require.True(ban.IsActive)

	history, err := sdb.BanHistory(ctx, userID)
	require.NoError(err)
	require.Len(history, 2)
	require.True(history[0].IsActive)
	require.False(history[1].IsActive)
}

func TestLiftExpiredBan(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	const userID = 103

	_, err := sdb.CreateBan(ctx, userID, 9, "spam", models.BanTypeTemporary, 1)
	require.NoError(err)
	backdateBan(t, sdb, userID)

	// No-op for enforcement, still recorded for audit.
	lifted, err := sdb.LiftBan(ctx, userID, 9, "cleanup")
	require.NoError(err)
	require.False(lifted.IsActive)
}

func TestEnforcementGateBlocked(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	const userID = 104

	_, err := sdb.CreateBan(ctx, userID, 9, "harassment", models.BanTypePermanent, 0)
	require.NoError(err)

	err = sdb.CheckNotBanned(ctx, userID)
	var blocked *models.Blocked
	require.ErrorAs(err, &blocked)
	require.Equal("harassment", blocked.Reason)
	require.Equal(models.BanTypePermanent, blocked.BanType)
	require.Nil(blocked.ExpiresAt)
}

func TestDuplicatePendingReport(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	target := models.TargetRef{Type: models.TargetPost, ID: 201}

	report, err := sdb.SubmitReport(ctx, 120, target, models.ReasonSpam, nil)
	require.NoError(err)
	require.Equal(models.ReportPending, report.Status)

	_, err = sdb.SubmitReport(ctx, 120, target, models.ReasonSpam, nil)
	require.ErrorIs(err, models.ErrDuplicatePending)

	// A different reporter may still report the same target.
	_, err = sdb.SubmitReport(ctx, 121, target, models.ReasonSpam, nil)
	require.NoError(err)

	// Once resolved, the same reporter may report again.
	modH := moderator(t, sdb, &stubContentStore{})
	_, _, err = modH.ResolveReport(ctx, report.ID, models.ReportDismissed, "not spam", nil)
	require.NoError(err)
	_, err = sdb.SubmitReport(ctx, 120, target, models.ReasonSpam, nil)
	require.NoError(err)
}

func TestSubmitReportValidation(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()

	_, err := sdb.SubmitReport(ctx, 120, models.TargetRef{}, models.ReasonSpam, nil)
	require.ErrorIs(err, models.ErrMissingTarget)

	_, err = sdb.SubmitReport(ctx, 120, models.TargetRef{Type: models.TargetPost, ID: 1}, "ugly", nil)
	require.ErrorIs(err, models.ErrInvalidFormat)
}

func TestResolveIdempotent(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	modH := moderator(t, sdb, &stubContentStore{})

	report, err := sdb.SubmitReport(ctx, 130, models.TargetRef{Type: models.TargetComment, ID: 301}, models.ReasonHarassment, nil)
	require.NoError(err)

	resolved, _, err := modH.ResolveReport(ctx, report.ID, models.ReportDismissed, "reviewed, fine", nil)
	require.NoError(err)
	require.Equal(models.ReportDismissed, resolved.Status)
	require.NotNil(resolved.ReviewedBy)
	require.Equal(9, *resolved.ReviewedBy)

	_, _, err = modH.ResolveReport(ctx, report.ID, models.ReportResolved, "changed my mind", nil)
	require.ErrorIs(err, models.ErrAlreadyResolved)

	// State unchanged by the rejected second call.
	after, err := sdb.GetReport(ctx, report.ID)
	require.NoError(err)
	require.Equal(models.ReportDismissed, after.Status)
}

func TestResolveReviewingRepeatable(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	modH := moderator(t, sdb, &stubContentStore{})

	report, err := sdb.SubmitReport(ctx, 131, models.TargetRef{Type: models.TargetMessage, ID: 302}, models.ReasonScam, nil)
	require.NoError(err)

	for i := 0; i < 2; i++ {
		r, _, err := modH.ResolveReport(ctx, report.ID, models.ReportReviewing, "", nil)
		require.NoError(err)
		require.Equal(models.ReportReviewing, r.Status)
		require.Nil(r.ReviewedAt)
	}

	r, _, err := modH.ResolveReport(ctx, report.ID, models.ReportResolved, "done", nil)
	require.NoError(err)
	require.Equal(models.ReportResolved, r.Status)
}

func TestResolveWithCascade(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	const authorID = 140
	content := &stubContentStore{author: authorID}
	modH := moderator(t, sdb, content)

	report, err := sdb.SubmitReport(ctx, 141, models.TargetRef{Type: models.TargetPost, ID: 401}, models.ReasonSpam, nil)
	require.NoError(err)

	resolved, action, err := modH.ResolveReport(ctx, report.ID, models.ReportResolved, "spam confirmed", &models.CascadeRequest{
		ActionType:      models.ActionTemporaryBan,
		Reason:          "spam",
		BanDurationDays: 7,
	})
	require.NoError(err)
	require.Equal(models.ReportResolved, resolved.Status)
	require.NotNil(action)
	require.Equal(models.ActionTemporaryBan, action.ActionType)
	require.Equal(authorID, action.TargetUserID)
	require.NotNil(action.RelatedReportID)
	require.Equal(report.ID, *action.RelatedReportID)
	require.NotNil(action.BanExpiresAt)
	require.WithinDuration(time.Now().AddDate(0, 0, 7), *action.BanExpiresAt, time.Minute)

	ban, err := sdb.ActiveBan(ctx, authorID)
	require.NoError(err)
	require.NotNil(ban)
	require.Equal(models.BanTypeTemporary, ban.BanType)

	_, err = sdb.CreateBan(ctx, authorID, 9, "again", models.BanTypePermanent, 0)
	require.ErrorIs(err, models.ErrAlreadyBanned)
}

func TestResolveCascadeUnresolvableTarget(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	content := &stubContentStore{authorErr: errors.New("content store down")}
	modH := moderator(t, sdb, content)

	report, err := sdb.SubmitReport(ctx, 142, models.TargetRef{Type: models.TargetPost, ID: 402}, models.ReasonSpam, nil)
	require.NoError(err)

	resolved, action, err := modH.ResolveReport(ctx, report.ID, models.ReportResolved, "spam", &models.CascadeRequest{
		ActionType: models.ActionWarning,
		Reason:     "spam",
	})
	require.ErrorIs(err, models.ErrUnresolvableTarget)
	require.Nil(action)
	// The resolution itself stands; only the cascade failed.
	require.NotNil(resolved)
	require.Equal(models.ReportResolved, resolved.Status)
}

func TestApplyActionBanConflict(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	modH := moderator(t, sdb, &stubContentStore{})
	const userID = 150

	_, err := modH.ApplyAction(ctx, models.ActionRequest{
		TargetUserID: userID, ActionType: models.ActionPermanentBan, Reason: "scam",
	})
	require.NoError(err)

	action, err := modH.ApplyAction(ctx, models.ActionRequest{
		TargetUserID: userID, ActionType: models.ActionTemporaryBan, Reason: "scam", BanDurationDays: 3,
	})
	require.ErrorIs(err, models.ErrBanConflict)
	// The audit record is kept even though the ban was not applied.
	require.NotNil(action)

	history, err := modH.ActionHistory(ctx, userID)
	require.NoError(err)
	require.Len(history, 2)
	// Newest first.
	require.Equal(models.ActionTemporaryBan, history[0].ActionType)
}

func TestApplyActionBanLift(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	modH := moderator(t, sdb, &stubContentStore{})
	const userID = 151

	action, err := modH.ApplyAction(ctx, models.ActionRequest{
		TargetUserID: userID, ActionType: models.ActionBanLift, Reason: "appeal",
	})
	require.ErrorIs(err, models.ErrNothingToLift)
	require.NotNil(action)

	_, err = modH.ApplyAction(ctx, models.ActionRequest{
		TargetUserID: userID, ActionType: models.ActionPermanentBan, Reason: "scam",
	})
	require.NoError(err)

	_, err = modH.ApplyAction(ctx, models.ActionRequest{
		TargetUserID: userID, ActionType: models.ActionBanLift, Reason: "appeal accepted",
	})
	require.NoError(err)

	banned, err := sdb.EffectiveIsBanned(ctx, userID)
	require.NoError(err)
	require.False(banned)
}

func TestApplyActionContentRemoval(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()
	const userID = 152
	postID := 501

	content := &stubContentStore{}
	modH := moderator(t, sdb, content)

	_, err := modH.ApplyAction(ctx, models.ActionRequest{
		TargetUserID: userID,
		TargetPostID: &postID,
		ActionType:   models.ActionContentRemoval,
		Reason:       "nsfw",
	})
	require.NoError(err)
	require.Equal([]int{postID}, content.deletedPosts)

	// A failing deletion surfaces distinctly but keeps the audit row.
	failing := &stubContentStore{deleteErr: errors.New("boom")}
	modH = moderator(t, sdb, failing)
	action, err := modH.ApplyAction(ctx, models.ActionRequest{
		TargetUserID: userID,
		TargetPostID: &postID,
		ActionType:   models.ActionContentRemoval,
		Reason:       "nsfw",
	})
	require.ErrorIs(err, models.ErrContentDeleteFailed)
	require.NotNil(action)

	history, err := modH.ActionHistory(ctx, userID)
	require.NoError(err)
	require.Len(history, 2)
}

func TestListBansBuckets(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()

	// user 160: lifted; user 161: expired; user 162: active.
	_, err := sdb.CreateBan(ctx, 160, 9, "a", models.BanTypePermanent, 0)
	require.NoError(err)
	_, err = sdb.LiftBan(ctx, 160, 9, "b")
	require.NoError(err)

	_, err = sdb.CreateBan(ctx, 161, 9, "c", models.BanTypeTemporary, 1)
	require.NoError(err)
	backdateBan(t, sdb, 161)

	_, err = sdb.CreateBan(ctx, 162, 9, "d", models.BanTypePermanent, 0)
	require.NoError(err)

	states := map[models.BanState]int{
		models.BanStateLifted:  160,
		models.BanStateExpired: 161,
		models.BanStateActive:  162,
	}
	for state, userID := range states {
		bans, err := sdb.ListBans(ctx, state)
		require.NoError(err)
		found := false
		for _, b := range bans {
			require.Equal(state, b.StateAt(time.Now()))
			if b.UserID == userID {
				found = true
			}
		}
		require.True(found, "expected user %d in %s bucket", userID, state)
	}
}

func TestBannedWordCRUD(t *testing.T) {
	require := require.New(t)
	sdb := testDB(t)
	ctx := context.Background()

	word := &models.BannedWord{
		Pattern:   "rugpull",
		Severity:  models.SeverityMedium,
		Category:  "scam",
		IsActive:  true,
		CreatedBy: 9,
	}
	require.NoError(sdb.CreateBannedWord(ctx, word))
	require.NotZero(word.ID)

	bad := &models.BannedWord{Pattern: "(oops", IsRegex: true, Severity: models.SeverityLow, CreatedBy: 9}
	require.ErrorIs(sdb.CreateBannedWord(ctx, bad), models.ErrInvalidFormat)

	badSeverity := &models.BannedWord{Pattern: "x", Severity: "fatal", CreatedBy: 9}
	require.ErrorIs(sdb.CreateBannedWord(ctx, badSeverity), models.ErrInvalidFormat)

	sev := models.SeverityCritical
	updated, err := sdb.UpdateBannedWord(ctx, word.ID, models.BannedWordUpdate{Severity: &sev})
	require.NoError(err)
	require.Equal(models.SeverityCritical, updated.Severity)

	inactive := false
	updated, err = sdb.UpdateBannedWord(ctx, word.ID, models.BannedWordUpdate{IsActive: &inactive})
	require.NoError(err)
	require.False(updated.IsActive)

	active, err := sdb.ListActiveBannedWords(ctx)
	require.NoError(err)
	for _, w := range active {
		require.NotEqual(word.ID, w.ID)
	}

	require.NoError(sdb.DeleteBannedWord(ctx, word.ID))
	require.ErrorIs(sdb.DeleteBannedWord(ctx, word.ID), models.ErrNotFound)
	_, err = sdb.GetBannedWord(ctx, word.ID)
	require.ErrorIs(err, models.ErrNotFound)
}
