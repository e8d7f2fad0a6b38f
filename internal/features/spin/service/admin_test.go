package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/features/spin/models"
)

type fakeImageStore struct {
	key         string
	contentType string
	body        string
	err         error
}

func (s *fakeImageStore) Upload(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, _ := io.ReadAll(body)
	s.key, s.contentType, s.body = key, contentType, string(data)
	return "https://cdn.example.com/" + key, nil
}

func newAdminFixture(images ImageStore) (AdminService, *fakeCodeRepo, *fakePrizeRepo) {
	codes := newFakeCodeRepo()
	prizes := newFakePrizeRepo(
		models.Prize{ID: 1, Label: "₺100", WheelIndex: 0, Enabled: true},
		models.Prize{ID: 7, Label: "₺1000", WheelIndex: 3, Enabled: true},
	)
	prizes.codes = codes
	return NewAdminService(codes, prizes, images), codes, prizes
}

func requireAppError(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, status, appErr.HTTPStatus())
	return appErr
}

func TestAdmin_SetTierWeightsEnforcesTotal(t *testing.T) {
	svc, _, _ := newAdminFixture(nil)
	ctx := context.Background()

	_, err := svc.SetTierWeights(ctx, "gold", map[int64]int{1: 5000, 7: 4000})
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, apperrors.ErrCodeInvalidWeights, appErr.Code)

	_, err = svc.SetTierWeights(ctx, "gold", map[int64]int{1: 5000, 99: 5000})
	requireAppError(t, err, http.StatusNotFound)

	_, err = svc.SetTierWeights(ctx, "Gold!", map[int64]int{1: 10000})
	requireAppError(t, err, http.StatusBadRequest)

	resp, err := svc.SetTierWeights(ctx, "gold", map[int64]int{1: 7000, 7: 3000})
	require.NoError(t, err)
	assert.Equal(t, 10000, resp.TotalBP)
	assert.Len(t, resp.Weights, 2)
}

func TestAdmin_CannotDisableOrDeleteWeightedPrize(t *testing.T) {
	svc, codes, prizes := newAdminFixture(nil)
	ctx := context.Background()
	require.NoError(t, prizes.SetTierWeights(ctx, "gold", map[int64]int{1: 10000, 7: 0}))

	disabled := false
	_, err := svc.UpdatePrize(ctx, 1, &models.PrizeUpdateRequest{Enabled: &disabled})
	requireAppError(t, err, http.StatusConflict)

	_, err = svc.DeletePrize(ctx, 1)
	requireAppError(t, err, http.StatusConflict)

	// Zero-weight prizes can go, and their manual codes go with them.
	_, err = svc.CreateCode(ctx, &models.CodeCreateRequest{Code: "MAN001", Mode: models.CodeModeManual, PrizeID: idPtr(7)})
	require.NoError(t, err)

	resp, err := svc.DeletePrize(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.DeletedCodes)
	_, err = codes.GetByCode(ctx, "MAN001")
	assert.Error(t, err)
}

func TestAdmin_DeletePrizeFailureKeepsCodes(t *testing.T) {
	svc, codes, prizes := newAdminFixture(nil)
	ctx := context.Background()

	_, err := svc.CreateCode(ctx, &models.CodeCreateRequest{Code: "MAN002", Mode: models.CodeModeManual, PrizeID: idPtr(7)})
	require.NoError(t, err)

	prizes.deleteErr = errors.New("connection reset")
	_, err = svc.DeletePrize(ctx, 7)
	requireAppError(t, err, http.StatusInternalServerError)

	c, err := codes.GetByCode(ctx, "MAN002")
	require.NoError(t, err)
	assert.Equal(t, int64(7), *c.PrizeID)
	_, err = prizes.GetByID(ctx, 7)
	assert.NoError(t, err)
}

func TestAdmin_CreateCodeValidation(t *testing.T) {
	svc, _, _ := newAdminFixture(nil)
	ctx := context.Background()

	_, err := svc.CreateCode(ctx, &models.CodeCreateRequest{Code: "MAN001", Mode: models.CodeModeManual})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = svc.CreateCode(ctx, &models.CodeCreateRequest{Code: "MAN001", Mode: models.CodeModeManual, PrizeID: idPtr(404)})
	requireAppError(t, err, http.StatusNotFound)

	_, err = svc.CreateCode(ctx, &models.CodeCreateRequest{Code: "AUTO01", Mode: models.CodeModeAuto, PrizeID: idPtr(1)})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = svc.CreateCode(ctx, &models.CodeCreateRequest{Code: "a b", Mode: models.CodeModeAuto})
	requireAppError(t, err, http.StatusBadRequest)

	c, err := svc.CreateCode(ctx, &models.CodeCreateRequest{
		Code: "ABC123", Mode: models.CodeModeManual, PrizeID: idPtr(7), Username: strPtr(" yasin "),
	})
	require.NoError(t, err)
	assert.Equal(t, models.CodeStatusIssued, c.Status)
	assert.Equal(t, "yasin", *c.Username)

	_, err = svc.CreateCode(ctx, &models.CodeCreateRequest{Code: "ABC123", Mode: models.CodeModeAuto})
	appErr := requireAppError(t, err, http.StatusConflict)
	assert.Equal(t, apperrors.ErrCodeCodeExists, appErr.Code)
}

func TestAdmin_GenerateCodes(t *testing.T) {
	svc, codes, _ := newAdminFixture(nil)
	ctx := context.Background()

	resp, err := svc.GenerateCodes(ctx, &models.CodeBatchRequest{
		Count: 25, Prefix: "VIP-", Length: 6, Mode: models.CodeModeAuto, Tier: strPtr("gold"),
	})
	require.NoError(t, err)
	assert.Equal(t, 25, resp.Count)

	seen := map[string]bool{}
	for _, code := range resp.Codes {
		assert.True(t, strings.HasPrefix(code, "VIP-"))
		assert.Len(t, code, 10)
		assert.False(t, seen[code])
		seen[code] = true

		stored, err := codes.GetByCode(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, "gold", *stored.Tier)
		assert.Equal(t, models.CodeStatusIssued, stored.Status)
	}

	_, err = svc.GenerateCodes(ctx, &models.CodeBatchRequest{Count: 1, Prefix: "bad prefix", Mode: models.CodeModeAuto})
	requireAppError(t, err, http.StatusBadRequest)
}

func TestAdmin_ListCodesClampsPaging(t *testing.T) {
	svc, _, _ := newAdminFixture(nil)

	_, err := svc.ListCodes(context.Background(), models.CodeFilter{Status: "pending"})
	requireAppError(t, err, http.StatusBadRequest)

	list, err := svc.ListCodes(context.Background(), models.CodeFilter{Limit: 10000, Offset: -5})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdmin_UploadPrizeImage(t *testing.T) {
	ctx := context.Background()

	svc, _, _ := newAdminFixture(nil)
	_, err := svc.UploadPrizeImage(ctx, 7, "a.png", "image/png", strings.NewReader("x"))
	requireAppError(t, err, http.StatusServiceUnavailable)

	images := &fakeImageStore{}
	svc, _, prizes := newAdminFixture(images)

	_, err = svc.UploadPrizeImage(ctx, 7, "notes.txt", "text/plain", strings.NewReader("x"))
	requireAppError(t, err, http.StatusBadRequest)

	p, err := svc.UploadPrizeImage(ctx, 7, "Prize.PNG", "image/png", strings.NewReader("pngdata"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(images.key, "prizes/7/"))
	assert.True(t, strings.HasSuffix(images.key, ".png"))
	assert.Equal(t, "pngdata", images.body)
	require.NotNil(t, p.ImageURL)

	stored, err := prizes.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, *p.ImageURL, *stored.ImageURL)

	images.err = errors.New("bucket gone")
	_, err = svc.UploadPrizeImage(ctx, 7, "b.png", "image/png", strings.NewReader("x"))
	requireAppError(t, err, http.StatusBadGateway)
}

func TestAdmin_CreateAndUpdatePrize(t *testing.T) {
	svc, _, _ := newAdminFixture(nil)
	ctx := context.Background()

	_, err := svc.CreatePrize(ctx, &models.PrizeCreateRequest{Label: "  "})
	requireAppError(t, err, http.StatusBadRequest)

	idx := 4
	p, err := svc.CreatePrize(ctx, &models.PrizeCreateRequest{Label: " ₺5000 ", WheelIndex: &idx})
	require.NoError(t, err)
	assert.Equal(t, "₺5000", p.Label)
	assert.True(t, p.Enabled)
	assert.Equal(t, 4, p.WheelIndex)

	label := "₺2500"
	updated, err := svc.UpdatePrize(ctx, p.ID, &models.PrizeUpdateRequest{Label: &label})
	require.NoError(t, err)
	assert.Equal(t, "₺2500", updated.Label)

	_, err = svc.UpdatePrize(ctx, 999, &models.PrizeUpdateRequest{Label: &label})
	requireAppError(t, err, http.StatusNotFound)
}
