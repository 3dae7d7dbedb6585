package hubapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/classroom-sre/hub-manager/internal/errdef"
	"github.com/classroom-sre/hub-manager/pkg/hubapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) AdminToken() (string, error) {
	return string(s), nil
}

type countingToken struct {
	calls int
}

func (c *countingToken) AdminToken() (string, error) {
	c.calls++
	return fmt.Sprintf("token-%d", c.calls), nil
}

func TestGetService(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/hub/api/services/calc101", r.URL.Path)
			assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(hubapi.ServiceDescriptor{
				Name: "calc101",
				URL:  "http://127.0.0.1:9999",
			})
		}))
		defer server.Close()

		client := hubapi.NewClient(server.URL+"/hub/api", staticToken("s3cret"))
		descriptor, err := client.GetService(context.Background(), "calc101")

		require.NoError(t, err)
		assert.Equal(t, "calc101", descriptor.Name)
		assert.Equal(t, "http://127.0.0.1:9999", descriptor.URL)
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := hubapi.NewClient(server.URL+"/hub/api", staticToken("s3cret"))
		_, err := client.GetService(context.Background(), "bio200")

		assert.True(t, errdef.IsNotFound(err), "404 should map to a not found domain error")
		assert.ErrorContains(t, err, "bio200")
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := hubapi.NewClient(server.URL+"/hub/api", staticToken("s3cret"))
		_, err := client.GetService(context.Background(), "calc101")

		apiErr, ok := hubapi.IsAPIError(err)
		require.True(t, ok, "should be an API error")
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Contains(t, apiErr.Body, "boom")
	})
}

func TestCreateUser(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/hub/api/users/ada", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := hubapi.NewClient(server.URL+"/hub/api", staticToken("s3cret"))
		outcome, err := client.CreateUser(context.Background(), "ada")

		require.NoError(t, err)
		assert.Equal(t, hubapi.UserCreated, outcome)
	})

	t.Run("AlreadyExistsIsNotAnError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		client := hubapi.NewClient(server.URL+"/hub/api", staticToken("s3cret"))
		outcome, err := client.CreateUser(context.Background(), "ada")

		require.NoError(t, err)
		assert.Equal(t, hubapi.UserAlreadyExists, outcome)
	})
}

func TestAddUserToGroup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hub/api/groups/formgrade-calc101/users", r.URL.Path)

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"ada"}, body["users"])
	}))
	defer server.Close()

	client := hubapi.NewClient(server.URL+"/hub/api", staticToken("s3cret"))
	err := client.AddUserToGroup(context.Background(), "formgrade-calc101", "ada")

	require.NoError(t, err)
}

func TestSetAdmin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/hub/api/users/ada", r.URL.Path)

		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body["admin"])
	}))
	defer server.Close()

	client := hubapi.NewClient(server.URL+"/hub/api", staticToken("s3cret"))
	err := client.SetAdmin(context.Background(), "ada")

	require.NoError(t, err)
}

func TestTransportErrorIsDistinguished(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := hubapi.NewClient(server.URL+"/hub/api", staticToken("s3cret"))
	_, err := client.GetService(context.Background(), "calc101")

	assert.True(t, hubapi.IsTransportError(err), "a refused connection should be a transport error")
	_, isAPIError := hubapi.IsAPIError(err)
	assert.False(t, isAPIError)
}

func TestTokenIsReadFreshPerCall(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	}))
	defer server.Close()

	tokens := &countingToken{}
	client := hubapi.NewClient(server.URL+"/hub/api", tokens)

	_, err := client.CreateUser(context.Background(), "ada")
	require.NoError(t, err)
	err = client.SetAdmin(context.Background(), "ada")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer token-1", "Bearer token-2"}, seen)
}
