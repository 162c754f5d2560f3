package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/feed"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/opportunity"
	"github.com/trezcool/elimu/core/scrape"
	"github.com/trezcool/elimu/tests"
)

func TestScrapeTriggerAndApprove(t *testing.T) {
	fx := setUp(t)
	adminToken := fx.token(t, testutil.CreateAdmin(t, fx.users, "admin"))
	member := testutil.CreateMember(t, fx.users, "john")
	memberToken := fx.token(t, member)

	fx.invoker.response = `{"items": [
		{"source": "devblog", "url": "https://dev.blog/go", "title": "Go in production", "kind": "learning", "tags": ["go"]},
		{"source": "jobs", "url": "https://jobs.test/1", "title": "Gopher wanted", "kind": "opportunity"}
	]}`

	rec := fx.do(newAuthRequest(http.MethodPost, "/v1/admin/scraped-content/trigger", memberToken, []byte(`{}`)))
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission)}, rec)

	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/admin/scraped-content/trigger", adminToken, []byte(`{"sources": ["DevBlog", "jobs"]}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res scrape.TriggerResult
	unmarshal(t, rec, &res)
	assert.Equal(t, 2, res.Ingested)
	assert.JSONEq(t, fx.invoker.response, string(res.Response))
	assert.Equal(t, scrape.FunctionName, fx.invoker.name)
	assert.Equal(t, map[string]interface{}{"sources": []string{"devblog", "jobs"}}, fx.invoker.payload)

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/admin/scraped-content?status=pending&kind=learning", adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []scrape.Content
	unmarshal(t, rec, &pending)
	require.Len(t, pending, 1)
	lcRow := pending[0]

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/admin/scraped-content?kind=opportunity", adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshal(t, rec, &pending)
	require.Len(t, pending, 1)
	oppRow := pending[0]

	// nothing is published yet
	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/feed/learning", memberToken))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)

	t.Run("approve learning content", func(t *testing.T) {
		rec := fx.do(newAuthRequest(http.MethodPost, "/v1/admin/scraped-content/"+lcRow.ID+"/approve", adminToken, []byte(`{"learning_kind": "Video", "publish": true}`)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res scrape.ApproveResult
		unmarshal(t, rec, &res)
		assert.Equal(t, scrape.StatusApproved, res.Content.Status)
		assert.Nil(t, res.Opportunity)
		require.NotNil(t, res.Learning)
		assert.Equal(t, learning.KindVideo, res.Learning.Kind)
		assert.Equal(t, "https://dev.blog/go", res.Learning.URL)
		assert.True(t, res.Learning.IsPublished)

		rec = fx.do(newAuthRequest(http.MethodPost, "/v1/admin/scraped-content/"+lcRow.ID+"/approve", adminToken, []byte(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "already approved")

		rec = fx.do(newAuthRequest(http.MethodGet, "/v1/feed/learning", memberToken))
		require.Equal(t, http.StatusOK, rec.Code)
		var items []feed.Scored[learning.Content]
		unmarshal(t, rec, &items)
		require.Len(t, items, 1)
		assert.Equal(t, res.Learning.ID, items[0].Item.ID)
	})

	t.Run("approve opportunity unpublished", func(t *testing.T) {
		rec := fx.do(newAuthRequest(http.MethodPost, "/v1/admin/scraped-content/"+oppRow.ID+"/approve", adminToken, []byte(`{"opportunity_kind": "internship"}`)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res scrape.ApproveResult
		unmarshal(t, rec, &res)
		require.NotNil(t, res.Opportunity)
		assert.Equal(t, opportunity.KindInternship, res.Opportunity.Kind)
		assert.Equal(t, "jobs", res.Opportunity.Organization)
		assert.False(t, res.Opportunity.IsPublished)

		rec = fx.do(newAuthRequest(http.MethodGet, "/v1/feed/opportunities", memberToken))
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)
	})

	t.Run("reject", func(t *testing.T) {
		rec := fx.do(newAuthRequest(http.MethodPost, "/v1/admin/scraped-content/"+oppRow.ID+"/reject", adminToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sc scrape.Content
		unmarshal(t, rec, &sc)
		assert.Equal(t, scrape.StatusRejected, sc.Status)

		rec = fx.do(newAuthRequest(http.MethodPost, "/v1/admin/scraped-content/unknown/reject", adminToken))
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "scraped content not found"})}, rec)
	})

	t.Run("invalid approve form", func(t *testing.T) {
		rec := fx.do(newAuthRequest(http.MethodPost, "/v1/admin/scraped-content/"+oppRow.ID+"/approve", adminToken, []byte(`{"opportunity_kind": "gig"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestFeedRanking(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	adminToken := fx.token(t, testutil.CreateAdmin(t, fx.users, "admin"))

	usr := testutil.CreateMember(t, fx.users, "john")
	token := fx.token(t, usr)
	rec := fx.do(newAuthRequest(http.MethodPut, "/v1/users/me", token, []byte(`{"name": "John", "interests": ["golang"]}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = fx.do(newRequest(http.MethodGet, "/v1/feed/opportunities"))
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	generic, _, err := fx.deps.OpportunitySvc.Save(ctx, opportunity.Form{Title: "Accountant", Organization: "Acme", Kind: opportunity.KindJob, IsPublished: true})
	require.NoError(t, err)

	// the feed pool is invalidated by the manager
	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/admin/opportunities", adminToken, []byte(`{
		"title": "Golang engineer",
		"organization": "Gophers",
		"kind": "job",
		"url": "https://gophers.test/jobs/1",
		"tags": ["golang"],
		"is_published": true
	}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var relevant opportunity.Opportunity
	unmarshal(t, rec, &relevant)

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/feed/opportunities?limit=5", token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []feed.Scored[opportunity.Opportunity]
	unmarshal(t, rec, &items)
	require.Len(t, items, 2)
	assert.Equal(t, relevant.ID, items[0].Item.ID)
	assert.Equal(t, generic.ID, items[1].Item.ID)
	assert.Greater(t, items[0].Score, items[1].Score)

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/feed/opportunities?limit=1", token))
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshal(t, rec, &items)
	assert.Len(t, items, 1)
}
