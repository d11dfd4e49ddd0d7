package feign_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofeign/gofeign/feign"
	"github.com/gofeign/gofeign/feign/retry"
)

type contributor struct {
	Login string `json:"login"`
}

type githubClient struct {
	GetContributors func(ctx context.Context, owner, repo string) ([]contributor, error) `feign:"GET /repos/{owner}/{repo}/contributors"`
	SearchTags       func(ctx context.Context, tags []string) ([]contributor, error)      `feign:"GET /tags?tag={tags}" feign-collection:"tag=csv"`
}

func TestGitHubContributorsScenario(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/golang/go/contributors", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]contributor{{Login: "rsc"}, {Login: "bradfitz"}})
	}))
	defer srv.Close()

	var client githubClient
	err := feign.NewBuilder().Build(&client, feign.NewHardCodedTarget("github", srv.URL))
	require.NoError(t, err)

	got, err := client.GetContributors(context.Background(), "golang", "go")
	require.NoError(t, err)
	assert.Equal(t, []contributor{{Login: "rsc"}, {Login: "bradfitz"}}, got)
}

func TestTagQueryCSVCollectionFormat(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]contributor{})
	}))
	defer srv.Close()

	var client githubClient
	err := feign.NewBuilder().Build(&client, feign.NewHardCodedTarget("github", srv.URL))
	require.NoError(t, err)

	_, err = client.SearchTags(context.Background(), []string{"go", "http"})
	require.NoError(t, err)
	assert.Equal(t, "tag=go,http", gotQuery)
}

func Test503WithRetryAfter_RetriesThenExhausts(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var client githubClient
	err := feign.NewBuilder().
		Retryer(func() retry.Retryer { return retry.NewDefault(time.Millisecond, 5*time.Millisecond, 3) }).
		Build(&client, feign.NewHardCodedTarget("github", srv.URL))
	require.NoError(t, err)

	_, err = client.GetContributors(context.Background(), "golang", "go")
	require.Error(t, err)
	assert.Equal(t, 3, hits)
}

func TestDecode404AsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var client githubClient
	err := feign.NewBuilder().Decode404(true).Build(&client, feign.NewHardCodedTarget("github", srv.URL))
	require.NoError(t, err)

	got, err := client.GetContributors(context.Background(), "golang", "go")
	require.NoError(t, err)
	assert.Nil(t, got)
}

type formClient struct {
	CreateUser func(ctx context.Context, name string, age string) (contributor, error) `feign:"POST /users" feign-body:"name={name}&age={age}"`
}

func TestFormEncodedBodyVariant(t *testing.T) {
	var gotBody, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(contributor{Login: "new-user"})
	}))
	defer srv.Close()

	var client formClient
	err := feign.NewBuilder().Build(&client, feign.NewHardCodedTarget("users", srv.URL))
	require.NoError(t, err)

	got, err := client.CreateUser(context.Background(), "ada", "36")
	require.NoError(t, err)
	assert.Equal(t, "new-user", got.Login)
	assert.Equal(t, "name=ada&age=36", gotBody)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
}

func TestBodyFormMutualExclusion_ContractError(t *testing.T) {
	type badClient struct {
		Create func(ctx context.Context, payload contributor, name string) (contributor, error) `feign:"POST /users" feign-body:"name={name}"`
	}
	var c badClient
	err := feign.NewBuilder().Build(&c, feign.NewEmptyTarget("bad"))
	assert.Error(t, err)
}
