package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/article"
	"github.com/trezcool/elimu/core/site"
)

func TestSiteHighlights(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()

	rec := fx.do(newRequest(http.MethodGet, "/api/site/highlights"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	featured, _, err := fx.deps.ArticleSvc.Save(ctx, article.Form{Title: "Featured", IsPublished: true, IsFeatured: true})
	require.NoError(t, err)
	_, _, err = fx.deps.ArticleSvc.Save(ctx, article.Form{Title: "Draft", IsFeatured: true})
	require.NoError(t, err)

	want, err := fx.deps.SiteSvc.Highlights(ctx)
	require.NoError(t, err)
	require.Len(t, want.Articles, 1)
	require.Equal(t, featured.ID, want.Articles[0].ID)

	rec = fx.do(newRequest(http.MethodGet, "/api/site/highlights"))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, want)}, rec)

	var got site.Highlights
	unmarshal(t, rec, &got)
	require.Len(t, got.Articles, 1)
}
