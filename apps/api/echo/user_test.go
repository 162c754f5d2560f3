package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/tests"
)

func TestUserLogin(t *testing.T) {
	fx := setUp(t)
	testutil.CreateUser(t, fx.users, "John", "john", "john@test.com", strongPwd, []string{user.RoleMember}, true)
	testutil.CreateUser(t, fx.users, "Old", "old", "old@test.com", strongPwd, []string{user.RoleMember}, false)
	path := "/v1/users/login"

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "wrong password",
			body:     []byte(`{"username": "john", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown user",
			body:     []byte(`{"username": "jane", "password": "` + strongPwd + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated",
			body:     []byte(`{"username": "old", "password": "` + strongPwd + `"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "by username",
			body:     []byte(`{"username": " JOHN ", "password": "` + strongPwd + `"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "by email",
			body:     []byte(`{"username": "john@test.com", "password": "` + strongPwd + `"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(newRequest(http.MethodPost, path, tt.body))
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			checkCode(t, tt, rec)
			if tt.wantCode == http.StatusOK {
				var resp echoapi.LoginResponse
				unmarshal(t, rec, &resp)
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func TestUserSignup(t *testing.T) {
	fx := setUp(t)
	testutil.CreateMember(t, fx.users, "taken")
	path := "/v1/users/signup"

	rec := fx.do(newRequest(http.MethodPost, path, []byte(`{"name": "Taken", "username": "taken", "password": "`+strongPwd+`", "password_confirm": "`+strongPwd+`"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = fx.do(newRequest(http.MethodPost, path, []byte(`{
		"name": " Jane Doe ",
		"username": "Jane",
		"email": "jane@test.com",
		"password": "`+strongPwd+`",
		"password_confirm": "`+strongPwd+`"
	}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp echoapi.SignupResponse
	unmarshal(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Jane Doe", resp.User.Name)
	assert.Equal(t, "jane", resp.User.Username)
	assert.True(t, resp.User.IsMember())

	// the returned token works right away
	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserProfile(t *testing.T) {
	fx := setUp(t)
	usr := testutil.CreateMember(t, fx.users, "john")
	token := fx.token(t, usr)

	rec := fx.do(newRequest(http.MethodGet, "/v1/users/me"))
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/users/me", "not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/users/me", token))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}, rec)

	rec = fx.do(newAuthRequest(http.MethodPut, "/v1/users/me", token, []byte(`{
		"name": "John Doe",
		"headline": " Gopher ",
		"interests": ["Go", "go", "Cloud"]
	}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.User
	unmarshal(t, rec, &updated)
	assert.Equal(t, "John Doe", updated.Name)
	assert.Equal(t, "Gopher", updated.Headline)
	assert.Equal(t, []string{"go", "cloud"}, []string(updated.Interests))

	rec = fx.do(newAuthRequest(http.MethodPut, "/v1/users/me", token, []byte(`{"name": ""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserTokenRefresh(t *testing.T) {
	fx := setUp(t)
	usr := testutil.CreateMember(t, fx.users, "john")

	rec := fx.do(newAuthRequest(http.MethodPost, "/v1/users/token-refresh", fx.token(t, usr)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp echoapi.LoginResponse
	unmarshal(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserDeactivatedToken(t *testing.T) {
	fx := setUp(t)
	usr := testutil.CreateUser(t, fx.users, "Old", "old", "old@test.com", "", []string{user.RoleMember}, false)

	rec := fx.do(newAuthRequest(http.MethodGet, "/v1/users/me", fx.token(t, usr)))
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})}, rec)
}

func TestUserPasswordReset(t *testing.T) {
	fx := setUp(t)
	testutil.CreateMember(t, fx.users, "john")

	for _, email := range []string{"john@test.com", "nobody@test.com"} {
		rec := fx.do(newRequest(http.MethodPost, "/v1/users/password-reset", []byte(`{"email": "`+email+`"}`)))
		assert.Equal(t, http.StatusOK, rec.Code, email)
		assert.Contains(t, rec.Body.String(), "success")
	}

	rec := fx.do(newRequest(http.MethodPost, "/v1/users/password-reset", []byte(`{"email": "nope"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserLeaderboard(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	alice := testutil.CreateMember(t, fx.users, "alice")
	bob := testutil.CreateMember(t, fx.users, "bob")
	_, err := fx.users.AddPoints(ctx, alice.ID, 50)
	require.NoError(t, err)
	_, err = fx.users.AddPoints(ctx, bob.ID, 20)
	require.NoError(t, err)

	rec := fx.do(newRequest(http.MethodGet, "/v1/users/leaderboard?limit=1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []user.LeaderboardEntry
	unmarshal(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 50, entries[0].Points)
}

func TestUserAdmin(t *testing.T) {
	fx := setUp(t)
	admin := testutil.CreateAdmin(t, fx.users, "admin")
	member := testutil.CreateMember(t, fx.users, "member")
	adminToken, memberToken := fx.token(t, admin), fx.token(t, member)

	tests := []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/admin/users",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "members are forbidden",
			method:   http.MethodGet,
			path:     "/v1/admin/users",
			token:    memberToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermission),
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/v1/admin/users/" + member.ID,
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, member),
		},
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/v1/admin/users/unknown",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "roles",
			method:   http.MethodGet,
			path:     "/v1/admin/users/roles",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, user.Roles),
		},
		{
			name:     "delete without confirm",
			method:   http.MethodDelete,
			path:     "/v1/admin/users/" + member.ID,
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errNeedsConfirming),
		},
		{
			name:     "delete self",
			method:   http.MethodDelete,
			path:     "/v1/admin/users/" + admin.ID + "?confirm=true",
			token:    adminToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermission),
		},
		{
			name:     "delete multiple including self",
			method:   http.MethodDelete,
			path:     "/v1/admin/users?confirm=true&id=" + member.ID + "&id=" + admin.ID,
			token:    adminToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermission),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("create, update & delete", func(t *testing.T) {
		rec := fx.do(newAuthRequest(http.MethodPost, "/v1/admin/users", adminToken, []byte(`{
			"name": "Mentor",
			"username": "mentor",
			"password": "`+strongPwd+`",
			"password_confirm": "`+strongPwd+`",
			"roles": ["mentor:"]
		}`)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created user.User
		unmarshal(t, rec, &created)
		assert.True(t, created.IsMentor())

		rec = fx.do(newAuthRequest(http.MethodPut, "/v1/admin/users/"+created.ID, adminToken, []byte(`{"is_active": false}`)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated user.User
		unmarshal(t, rec, &updated)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "Mentor", updated.Name)

		rec = fx.do(newAuthRequest(http.MethodGet, "/v1/admin/users?search=ment", adminToken))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), created.ID))

		rec = fx.do(newAuthRequest(http.MethodDelete, "/v1/admin/users/"+created.ID+"?confirm=true", adminToken))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = fx.do(newAuthRequest(http.MethodDelete, "/v1/admin/users?confirm=true&id="+member.ID+"&id="+created.ID, adminToken))
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.DeleteResponse{Deleted: 1})}, rec)
	})
}
