package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	"github.com/trezcool/gradebook/testutil"
)

const adminPassword = "Pwd#123!"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*echoapi.Server

	conf   *core.Config
	repo   grading.Repository
	svc    *grading.Service
	logger *testutil.Logger
}

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt.GenerateFromPassword(): %v", err)
	}
	return &core.Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Gradebook",
		SecretKey: "secret",
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Admin: core.AdminConfig{Username: "admin", PasswordHash: string(hash)},
	}
}

// newServer starts an in-memory app. wrap, if given, decorates the grading service.
func newServer(t *testing.T, wrap ...func(grading.ServiceInterface) grading.ServiceInterface) testApp {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	repo := inmemdb.NewGradingRepository(db)
	logger := testutil.NewLogger()
	svc := grading.NewService(repo, logger)

	var svcIface grading.ServiceInterface = svc
	for _, w := range wrap {
		svcIface = w(svcIface)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	grading.InitValidators(validate, translator)

	conf := testConfig(t)
	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		DB:         db,
		GradingSvc: svcIface,
		Validate:   validate,
		Translator: translator,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return testApp{Server: srv, conf: conf, repo: repo, svc: svc, logger: logger}
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

func getToken(t *testing.T, conf *core.Config, claims ...*echoapi.Claims) string {
	t.Helper()
	clms := echoapi.GetAdminClaims(conf)
	if len(claims) > 0 {
		clms = claims[0]
	}
	token, err := echoapi.GenerateToken(conf, clms)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
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
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			if check, ok := tt.extra.(func(*testing.T, *httptest.ResponseRecorder)); ok {
				check(t, rec)
			}
		})
	}
}

// wantFinalGrade checks the value of a final grade response.
func wantFinalGrade(value string) func(*testing.T, *httptest.ResponseRecorder) {
	return func(t *testing.T, rec *httptest.ResponseRecorder) {
		var fg grading.FinalGrade
		if err := json.Unmarshal(rec.Body.Bytes(), &fg); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if got := fg.Value.StringFixed(2); got != value {
			t.Errorf("final grade = %s; want %s", got, value)
		}
	}
}
