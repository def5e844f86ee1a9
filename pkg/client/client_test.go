package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"localhost:8080", "http://localhost:8080"},
		{" 10.0.0.1:80 ", "http://10.0.0.1:80"},
		{"http://node-a:8080/", "http://node-a:8080"},
		{"https://node-b", "https://node-b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseURL(tt.in), tt.in)
	}
}

func TestAddSynonyms(t *testing.T) {
	var gotQuery map[string]string
	var gotBody []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/synonyms", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotQuery = map[string]string{
			"word":       r.URL.Query().Get("word"),
			"distribute": r.URL.Query().Get("distribute"),
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := New(srv.URL).AddSynonyms(context.Background(), "big deal", []string{"huge", "vast"}, false)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"word": "big deal", "distribute": "false"}, gotQuery)
	assert.Equal(t, []string{"huge", "vast"}, gotBody)
}

func TestRequestIDFromContext(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get(RequestIDHeader))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.AddSynonyms(WithRequestID(context.Background(), "req-42"), "a", []string{"b"}, false))
	require.NoError(t, c.AddSynonyms(context.Background(), "a", []string{"b"}, false))

	assert.Equal(t, []string{"req-42", ""}, got)
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestGetSynonyms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a", r.URL.Query().Get("word"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"total":3,"synonyms":["b","c"]}`)
	}))
	defer srv.Close()

	page, err := New(srv.URL).GetSynonyms(context.Background(), "a", 2)

	require.NoError(t, err)
	assert.Equal(t, synonyms.Page{Total: 3, Synonyms: []string{"b", "c"}}, page)
}

func TestDefineClusterAndList(t *testing.T) {
	var members []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "a:1", r.URL.Query().Get("thisInstance"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&members))
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(members)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.DefineCluster(context.Background(), "a:1", []string{"a:1", "b:1"}))

	got, err := c.Cluster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:1"}, got)
}

func TestImport(t *testing.T) {
	entries := []synonyms.Entry{{Word: "a", Synonyms: []string{"b"}}, {Word: "z", Synonyms: []string{}}}

	for _, compress := range []bool{false, true} {
		var got []synonyms.Entry
		var encoding string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/synchronization", r.URL.Path)
			encoding = r.Header.Get("Content-Encoding")
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			if encoding == "snappy" {
				data, err = snappy.Decode(nil, data)
				require.NoError(t, err)
			}
			require.NoError(t, json.Unmarshal(data, &got))
			w.WriteHeader(http.StatusNoContent)
		}))

		err := New(srv.URL, WithCompression(compress)).Import(context.Background(), entries)
		srv.Close()

		require.NoError(t, err)
		assert.Equal(t, entries, got)
		if compress {
			assert.Equal(t, "snappy", encoding)
		} else {
			assert.Empty(t, encoding)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"Service Unavailable","message":"Cluster is not defined","code":503}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetSynonyms(context.Background(), "a", 1)

	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 503, se.Code)
	assert.Equal(t, "Cluster is not defined", se.Message)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
}

func TestErrorStatus_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL).TriggerSync(context.Background())

	assert.EqualError(t, err, "http 500: boom")
	assert.NotErrorIs(t, err, ErrNotReady)
}

func TestConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	err := New(addr).AddSynonyms(context.Background(), "a", []string{"b"}, true)

	require.Error(t, err)
	assert.False(t, IsStatus(err, http.StatusNotFound))
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(srv.URL).Import(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
