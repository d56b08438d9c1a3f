package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

func TestClientGetRecords_FollowsPages(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer secret" || r.URL.Query().Get("plant_codes") != "PLT001" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"equipment_code":"EQ-` + page + `"}],"meta":{"current_page":` + page + `,"last_page":3}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{BaseURL: srv.URL, Token: "secret"})
	q := url.Values{}
	q.Set("plant_codes", "PLT001")
	records, err := c.GetRecords(context.Background(), "/equipments", q)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "EQ-1", records[0].String("equipment_code"))
	require.Equal(t, "EQ-3", records[2].String("equipment_code"))
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClientGetRecords_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"plant_code":"PLT001","counter_reading":1234.5}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{BaseURL: srv.URL})
	records, err := c.GetRecords(context.Background(), "/equipment-running-times", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "1234.5", records[0].String("counter_reading"))
}

func TestClientGetRecords_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{BaseURL: srv.URL})
	_, err := c.GetRecords(context.Background(), "/equipments", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, "boom", apiErr.Body)
}

func TestClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{BaseURL: srv.URL, BreakerFailures: 2})
	for i := 0; i < 2; i++ {
		_, err := c.GetRecords(context.Background(), "/equipments", nil)
		require.Error(t, err)
	}
	_, err := c.GetRecords(context.Background(), "/equipments", nil)
	require.True(t, errors.Is(err, gobreaker.ErrOpenState), "got %v", err)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClientClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{BaseURL: srv.URL, BreakerFailures: 1})
	for i := 0; i < 3; i++ {
		_, err := c.GetRecords(context.Background(), "/missing", nil)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr, "attempt "+strconv.Itoa(i))
	}
}

func TestClientBreakerIsScopedPerTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("plant_code") == "BAD" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"plant_code":"GOOD"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{BaseURL: srv.URL, BreakerFailures: 1})
	bad := url.Values{"plant_code": {"BAD"}, "start_date": {"2026-10-16"}}
	_, err := c.GetRecords(context.Background(), "/equipments", bad)
	require.Error(t, err)

	bad.Set("start_date", "2026-10-17")
	_, err = c.GetRecords(context.Background(), "/equipments", bad)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	records, err := c.GetRecords(context.Background(), "/equipments", url.Values{"plant_code": {"GOOD"}})
	require.NoError(t, err)
	require.Len(t, records, 1)
}
