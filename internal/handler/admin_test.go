package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/busroute/internal/domain"
)

func newAdminMux(svc *fakeQuoteService) *http.ServeMux {
	mux := http.NewServeMux()
	NewAdminHandler(svc, discardLogger()).RegisterRoutes(mux, func(next http.Handler) http.Handler { return next })
	return mux
}

func seedQuote(t *testing.T, svc *fakeQuoteService, tier domain.Tier) *domain.Quote {
	t.Helper()
	q, err := svc.Submit(t.Context(), domain.QuoteRequest{
		DistrictName:   "Lincoln County Schools",
		Email:          "dana@lincoln.k12.example",
		BusCount:       120,
		LegacyBusCount: 20,
		NewBusCount:    100,
		Tier:           tier,
	})
	require.NoError(t, err)
	return q
}

func TestAdminHandler_RoutesRequireAdmin(t *testing.T) {
	svc := newFakeQuoteService()
	q := seedQuote(t, svc, domain.TierBasic)

	mux := http.NewServeMux()
	NewAdminHandler(svc, discardLogger()).RegisterRoutes(mux, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	})

	for _, route := range []struct{ method, path string }{
		{"GET", "/admin/quotes"},
		{"GET", "/admin/quotes/summary"},
		{"GET", "/admin/quotes/" + q.ID},
		{"POST", "/admin/quotes/" + q.ID + "/approve"},
		{"POST", "/admin/quotes/" + q.ID + "/reject"},
		{"POST", "/admin/quotes/" + q.ID + "/document"},
	} {
		rec := doJSON(mux, route.method, route.path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
	assert.Equal(t, domain.QuoteStatusPending, svc.quotes[q.ID].Status)
}

func TestAdminHandler_List(t *testing.T) {
	svc := newFakeQuoteService()
	seedQuote(t, svc, domain.TierBasic)
	seedQuote(t, svc, domain.TierEnterprise)

	rec := doJSON(newAdminMux(svc), "GET", "/admin/quotes?status=pending,approved&status=REJECTED&limit=10&offset=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuoteListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Quotes, 2)
	assert.Equal(t, int64(2), resp.Total)

	assert.Equal(t, []domain.QuoteStatus{
		domain.QuoteStatusPending, domain.QuoteStatusApproved, domain.QuoteStatusRejected,
	}, svc.lastList.Statuses)
	assert.Equal(t, int32(10), svc.lastList.Limit)
	assert.Equal(t, int32(5), svc.lastList.Offset)
}

func TestAdminHandler_List_EmptyIsArray(t *testing.T) {
	rec := doJSON(newAdminMux(newFakeQuoteService()), "GET", "/admin/quotes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quotes":[]`)
}

func TestAdminHandler_List_BadPagination(t *testing.T) {
	for _, query := range []string{"limit=ten", "offset=1.5", "limit=99999999999"} {
		t.Run(query, func(t *testing.T) {
			rec := doJSON(newAdminMux(newFakeQuoteService()), "GET", "/admin/quotes?"+query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAdminHandler_ApproveThenReject(t *testing.T) {
	svc := newFakeQuoteService()
	q := seedQuote(t, svc, domain.TierProfessional)
	mux := newAdminMux(svc)

	rec := doJSON(mux, "POST", "/admin/quotes/"+q.ID+"/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "APPROVED", resp.Status)
	assert.Equal(t, domain.Dollars(48900), resp.Amount)

	rec = doJSON(mux, "POST", "/admin/quotes/"+q.ID+"/reject", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.ECONFLICT, decodeError(t, rec).Error.Code)
}

func TestAdminHandler_Reject(t *testing.T) {
	svc := newFakeQuoteService()
	q := seedQuote(t, svc, domain.TierBasic)

	rec := doJSON(newAdminMux(svc), "POST", "/admin/quotes/"+q.ID+"/reject", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.QuoteStatusRejected, svc.quotes[q.ID].Status)
}

func TestAdminHandler_Decide_NotFound(t *testing.T) {
	rec := doJSON(newAdminMux(newFakeQuoteService()), "POST", "/admin/quotes/Q-0-0/approve", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandler_Summary(t *testing.T) {
	svc := newFakeQuoteService()
	basic := seedQuote(t, svc, domain.TierBasic)
	seedQuote(t, svc, domain.TierEnterprise)
	_, err := svc.Approve(t.Context(), basic.ID)
	require.NoError(t, err)

	rec := doJSON(newAdminMux(svc), "GET", "/admin/quotes/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(2), resp.Count)
	assert.Equal(t, domain.Dollars(27700+71900), resp.Amount)
	require.Len(t, resp.Statuses, 3)
	assert.Equal(t, StatusTotalResponse{Status: "PENDING", Count: 1, Amount: domain.Dollars(71900)}, resp.Statuses[0])
	assert.Equal(t, StatusTotalResponse{Status: "APPROVED", Count: 1, Amount: domain.Dollars(27700)}, resp.Statuses[1])
	assert.Equal(t, StatusTotalResponse{Status: "REJECTED"}, resp.Statuses[2])
}

func TestAdminHandler_Get(t *testing.T) {
	svc := newFakeQuoteService()
	q := seedQuote(t, svc, domain.TierEnterprise)

	rec := doJSON(newAdminMux(svc), "GET", "/admin/quotes/"+q.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, q.ID, resp.ID)
}

func TestAdminHandler_RegenerateDocument(t *testing.T) {
	svc := newFakeQuoteService()
	q := seedQuote(t, svc, domain.TierBasic)
	mux := newAdminMux(svc)

	rec := doJSON(mux, "POST", "/admin/quotes/"+q.ID+"/document", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{q.ID}, svc.regenerated)

	rec = doJSON(mux, "POST", "/admin/quotes/Q-0-0/document", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
