//go:build integration_test || all_tests

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2beens/guestbook/internal/guestbook"

	"github.com/PuerkitoBio/goquery"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestHealth() {
	t := s.T()

	resp, err := s.httpClient.Get(serverEndpoint + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"postgres":"ok","redis":"ok"}`, string(body))
}

func (s *IntegrationTestSuite) TestEmptyGuestbookPage() {
	t := s.T()

	resp, err := s.httpClient.Get(serverEndpoint + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "No messages yet. Be the first!", strings.TrimSpace(doc.Find("p.empty-state").Text()))
	assert.Equal(t, 0, doc.Find(".entry-card").Length())
}

func (s *IntegrationTestSuite) TestSubmitFormAndSeeEntry() {
	t := s.T()
	before := time.Now().Add(-time.Second)

	name := gofakeit.Name()
	message := gofakeit.Sentence(10)
	resp, err := s.httpClient.PostForm(serverEndpoint+"/", url.Values{
		"name":    {name},
		"message": {message},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	// the client followed the 303 to the page
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	cards := doc.Find(".entry-card")
	require.Equal(t, 1, cards.Length())
	assert.Equal(t, name, cards.Find(".entry-name").Text())
	assert.Equal(t, message, cards.Find(".entry-message").Text())
	assert.Equal(t, 0, doc.Find(".notification").Length())

	var (
		dbName    string
		createdAt time.Time
	)
	row := s.DB.QueryRow(`SELECT name, created_at FROM guestbook;`)
	require.NoError(t, row.Scan(&dbName, &createdAt))
	assert.Equal(t, name, dbName)
	assert.True(t, createdAt.After(before), "%v should be after %v", createdAt, before)
}

func (s *IntegrationTestSuite) TestApiNewAndListEntries() {
	t := s.T()

	names := []string{"Ana", "Bob", "Cid"}
	for _, name := range names {
		req, err := http.NewRequest(
			http.MethodPost,
			serverEndpoint+"/api/entries",
			strings.NewReader(fmt.Sprintf(`{"name":%q,"message":"hello from %s"}`, name, name)),
		)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	}

	resp, err := s.httpClient.Get(serverEndpoint + "/api/entries")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entriesResp guestbook.EntriesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entriesResp))
	require.Equal(t, len(names), entriesResp.Total)

	// newest first
	assert.Equal(t, "Cid", entriesResp.Entries[0].Name)
	assert.Equal(t, "Ana", entriesResp.Entries[2].Name)
	for i := 1; i < len(entriesResp.Entries); i++ {
		assert.False(t, entriesResp.Entries[i].CreatedAt.After(entriesResp.Entries[i-1].CreatedAt))
	}
}

func (s *IntegrationTestSuite) TestPsqlStore() {
	t := s.T()
	ctx := context.Background()
	store := guestbook.NewPsqlStore(s.dbPool)

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	// insert out of order, the store sorts
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	for _, offset := range []int{2, 0, 1} {
		_, err := s.DB.Exec(
			`INSERT INTO guestbook (name, message, created_at) VALUES ($1, $2, $3);`,
			fmt.Sprintf("name-%d", offset), "msg", base.Add(time.Duration(offset)*time.Hour),
		)
		require.NoError(t, err)
	}
	require.NoError(t, store.CreateEntry(ctx, "Ada", "Hello"))

	entries, err = store.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "Ada", entries[0].Name)
	assert.Equal(t, "name-2", entries[1].Name)
	assert.Equal(t, "name-1", entries[2].Name)
	assert.Equal(t, "name-0", entries[3].Name)

	ids := map[string]bool{}
	for _, e := range entries {
		assert.Len(t, e.ID, 36)
		ids[e.ID] = true
	}
	assert.Len(t, ids, 4)
}

func (s *IntegrationTestSuite) TestSubmitRateLimited() {
	t := s.T()

	// don't follow the redirects, only the submit route counts
	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	limited := 0
	for i := 0; i < submitsAllowedPerMin+5; i++ {
		resp, err := client.PostForm(serverEndpoint+"/", url.Values{
			"name":    {"spammer"},
			"message": {fmt.Sprintf("message %d", i)},
		})
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		switch resp.StatusCode {
		case http.StatusSeeOther:
		case http.StatusTooManyRequests:
			limited++
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		default:
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
	}
	assert.Equal(t, 5, limited)

	var count int
	require.NoError(t, s.DB.QueryRow(`SELECT count(*) FROM guestbook;`).Scan(&count))
	assert.Equal(t, submitsAllowedPerMin, count)
}
