package tago_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/gashu/pkg/adapters/tago"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ArrivalProvider = (*tago.Client)(nil)

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/getSttnAcctoArvlPrearngeInfoList", r.URL.Path)
		assert.Equal(t, "svc", q.Get("serviceKey"))
		assert.Equal(t, "33010", q.Get("cityCode"))
		assert.Equal(t, "CJB283000123", q.Get("nodeId"))
		assert.Equal(t, "json", q.Get("_type"))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchArrivals_List(t *testing.T) {
	srv := serve(t, `{"response":{"header":{"resultCode":"00","resultMsg":"OK"},"body":{"items":{"item":[
		{"routeno":502,"nodenm":"충북대학교","arrprevstationcnt":3,"arrtime":240},
		{"routeno":"814-1","nodenm":"충북대학교","arrprevstationcnt":"7","arrtime":"798"}
	]}}}}`)

	got, err := tago.New("svc", tago.WithBaseURL(srv.URL)).FetchArrivals(context.Background(), "CJB283000123", "")
	require.NoError(t, err)
	assert.Equal(t, []domain.Arrival{
		{RouteNo: "502", NodeName: "충북대학교", ArrPrevStationCnt: 3, ArrTime: 240},
		{RouteNo: "814-1", NodeName: "충북대학교", ArrPrevStationCnt: 7, ArrTime: 798},
	}, got)
}

func TestFetchArrivals_SingleItem(t *testing.T) {
	srv := serve(t, `{"response":{"header":{"resultCode":"00"},"body":{"items":{"item":{"routeno":105,"nodenm":"복대가경시장","arrprevstationcnt":12,"arrtime":798}}}}}`)

	got, err := tago.New("svc", tago.WithBaseURL(srv.URL)).FetchArrivals(context.Background(), "CJB283000123", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "105", got[0].RouteNo)
}

func TestFetchArrivals_Empty(t *testing.T) {
	srv := serve(t, `{"response":{"header":{"resultCode":"00"},"body":{"items":""}}}`)

	got, err := tago.New("svc", tago.WithBaseURL(srv.URL)).FetchArrivals(context.Background(), "CJB283000123", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchArrivals_ResultCodeError(t *testing.T) {
	srv := serve(t, `{"response":{"header":{"resultCode":"30","resultMsg":"SERVICE_KEY_IS_NOT_REGISTERED_ERROR"}}}`)

	_, err := tago.New("svc", tago.WithBaseURL(srv.URL)).FetchArrivals(context.Background(), "CJB283000123", "")
	assert.ErrorContains(t, err, "SERVICE_KEY_IS_NOT_REGISTERED_ERROR")
}
