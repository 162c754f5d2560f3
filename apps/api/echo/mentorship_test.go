package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/mentor"
	"github.com/trezcool/elimu/services/email"
	"github.com/trezcool/elimu/tests"
)

func TestMentorBooking(t *testing.T) {
	fx := setUp(t)
	ctx := context.Background()
	john := testutil.CreateMember(t, fx.users, "john")
	jane := testutil.CreateMember(t, fx.users, "jane")
	johnToken, janeToken := fx.token(t, john), fx.token(t, jane)
	adminToken := fx.token(t, testutil.CreateAdmin(t, fx.users, "admin"))

	mtr, _, err := fx.deps.MentorSvc.Save(ctx, mentor.Form{Name: "Ada", Email: "ada@test.com", IsActive: true})
	require.NoError(t, err)
	inactive, _, err := fx.deps.MentorSvc.Save(ctx, mentor.Form{Name: "Grace"})
	require.NoError(t, err)

	at := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	body := func(at time.Time) []byte {
		return []byte(`{"scheduled_at": "` + at.Format(time.RFC3339) + `", "duration_minutes": 60, "topic": "Career change"}`)
	}

	tests := []httpTest{
		{
			name:     "anonymous",
			path:     "/v1/mentors/" + mtr.ID + "/book",
			body:     body(at),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "inactive mentor",
			path:     "/v1/mentors/" + inactive.ID + "/book",
			body:     body(at),
			token:    johnToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "mentor not found"}),
		},
		{
			name:     "in the past",
			path:     "/v1/mentors/" + mtr.ID + "/book",
			body:     body(time.Now().Add(-time.Hour)),
			token:    johnToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "too short",
			path:     "/v1/mentors/" + mtr.ID + "/book",
			body:     []byte(`{"scheduled_at": "` + at.Format(time.RFC3339) + `", "duration_minutes": 5, "topic": "Hi"}`),
			token:    johnToken,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body))
			if tt.wantData == nil {
				checkCode(t, tt, rec)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// book
	rec := fx.do(newAuthRequest(http.MethodPost, "/v1/mentors/"+mtr.ID+"/book", johnToken, body(at)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bk mentor.Booking
	unmarshal(t, rec, &bk)
	assert.Equal(t, mentor.StatusPending, bk.Status)
	assert.Equal(t, john.ID, bk.UserID)
	assert.True(t, at.Equal(bk.ScheduledAt))

	msgs := emailsvc.GetSentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ada@test.com", msgs[0].To[0].Address)

	// the slot is taken
	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/mentors/"+mtr.ID+"/book", janeToken, body(at.Add(30*time.Minute))))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// listing
	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/bookings", johnToken))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, bk)}, rec)
	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/bookings", janeToken))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)
	rec = fx.do(newAuthRequest(http.MethodGet, "/v1/bookings?status=cancelled", johnToken))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)

	// cancelling
	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/bookings/"+bk.ID+"/cancel", janeToken))
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission)}, rec)

	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/bookings/"+bk.ID+"/cancel", johnToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cancelled mentor.Booking
	unmarshal(t, rec, &cancelled)
	assert.Equal(t, mentor.StatusCancelled, cancelled.Status)

	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/bookings/"+bk.ID+"/cancel", adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "already cancelled")

	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/bookings/unknown/cancel", johnToken))
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "booking not found"})}, rec)

	// the slot is free again
	rec = fx.do(newAuthRequest(http.MethodPost, "/v1/mentors/"+mtr.ID+"/book", janeToken, body(at)))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
