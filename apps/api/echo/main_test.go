package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/article"
	"github.com/trezcool/elimu/core/challenge"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/event"
	"github.com/trezcool/elimu/core/feed"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/media"
	"github.com/trezcool/elimu/core/mentor"
	"github.com/trezcool/elimu/core/opportunity"
	"github.com/trezcool/elimu/core/payment"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/scrape"
	"github.com/trezcool/elimu/core/site"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/services/cache"
	"github.com/trezcool/elimu/services/email"
	"github.com/trezcool/elimu/services/storage"
	"github.com/trezcool/elimu/storage/database/dummy"
	"github.com/trezcool/elimu/tests"
)

const strongPwd = "Xq7!vbR9kz"

var (
	errMissingToken    = httpErr{Error: "missing or malformed jwt"}
	errPermission      = httpErr{Error: "permission denied"}
	errNeedsConfirming = httpErr{Error: "confirmation required"}
)

type invokerMock struct {
	name     string
	payload  interface{}
	response string
}

func (m *invokerMock) Invoke(_ context.Context, name string, payload interface{}, result interface{}) error {
	m.name, m.payload = name, payload
	return json.Unmarshal([]byte(m.response), result)
}

type fixture struct {
	conf    *core.Config
	app     echoapi.Server
	deps    echoapi.ServerDeps
	users   user.Repository
	invoker *invokerMock
}

func setUp(t *testing.T) fixture {
	t.Helper()

	conf := testutil.NewConfig()
	conf.WorkDir = t.TempDir()
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	emailsvc.ResetSentMessages()

	// set up DB & repos
	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	inv := new(invokerMock)

	// set up services
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	articleSvc := article.NewService(dummydb.NewArticleRepository(db))
	courseSvc := course.NewService(dummydb.NewCourseRepository(db))
	eventSvc := event.NewService(dummydb.NewEventRepository(db))
	oppSvc := opportunity.NewService(dummydb.NewOpportunityRepository(db))
	lcSvc := learning.NewService(dummydb.NewLearningRepository(db))
	chlSvc := challenge.NewService(dummydb.NewChallengeRepository(db))
	attemptRepo := dummydb.NewAttemptRepository(db)
	mentorSvc := mentor.NewService(dummydb.NewMentorRepository(db))
	subsRepo := dummydb.NewSubscriptionRepository(db)
	vouchersRepo := dummydb.NewVoucherRepository(db)
	feedSvc := feed.NewService(lcSvc, oppSvc, cachesvc.NewNopCache(), conf, logger)

	deps := echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		ArticleSvc:      articleSvc,
		CourseSvc:       courseSvc,
		EventSvc:        eventSvc,
		OpportunitySvc:  oppSvc,
		LearningSvc:     lcSvc,
		ChallengeSvc:    chlSvc,
		SubmissionSvc:   challenge.NewSubmissionService(dummydb.NewSubmissionRepository(db), chlSvc, usrSvc),
		QuizSvc:         quiz.NewService(dummydb.NewQuizRepository(db), attemptRepo, usrSvc),
		AttemptSvc:      quiz.NewAttemptService(attemptRepo),
		MentorSvc:       mentorSvc,
		BookingSvc:      mentor.NewBookingService(dummydb.NewBookingRepository(db), mentorSvc, usrSvc, mailSvc, logger),
		PaymentSvc:      payment.NewService(dummydb.NewPaymentRepository(db), subsRepo, vouchersRepo, usrSvc, mailSvc, conf, logger),
		SubscriptionSvc: payment.NewSubscriptionService(subsRepo),
		VoucherSvc:      payment.NewVoucherService(vouchersRepo),
		ScrapeSvc:       scrape.NewService(dummydb.NewScrapedContentRepository(db), inv, lcSvc, oppSvc, feedSvc, validate, logger),
		FeedSvc:         feedSvc,
		MediaSvc:        media.NewService(storagesvc.NewLocalStorage(conf), usrSvc, conf),
		SiteSvc:         site.NewService(courseSvc, articleSvc, eventSvc, oppSvc),
	}

	// set up server
	app := echoapi.NewServer(deps)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	return fixture{conf: conf, app: app, deps: deps, users: usrRepo, invoker: inv}
}

// do serves the request and returns the recorded response.
func (fx fixture) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	fx.app.ServeHTTP(rec, req)
	return rec
}

func (fx fixture) token(t *testing.T, usr user.User) string {
	return getToken(t, fx.conf, usr)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCode(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	checkCode(t, tt, rec)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func TestHome(t *testing.T) {
	fx := setUp(t)
	rec := fx.do(newRequest(http.MethodGet, "/"))
	if rec.Code != http.StatusOK || rec.Body.String() != "Welcome to Elimu!" {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
	}
}
