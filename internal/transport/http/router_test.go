package httptransport_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"provena/internal/investor"
	"provena/internal/jwttoken"
	kycqueue "provena/internal/kyc/queue"
	kycservice "provena/internal/kyc/service"
	"provena/internal/platform/middleware"
	"provena/internal/record/policy"
	recordservice "provena/internal/record/service"
	"provena/internal/record/store"
	httptransport "provena/internal/transport/http"
	"provena/pkg/domain"
)

type RouterSuite struct {
	suite.Suite
	admin  domain.Actor
	server *httptest.Server
}

func (s *RouterSuite) SetupTest() {
	s.admin = domain.Actor{
		ID:    domain.ActorID(uuid.New()),
		Role:  domain.RoleAdmin,
		Email: "admin@provena.test",
	}

	records := recordservice.New(store.NewInMemory(), policy.DefaultTable())
	queue := kycqueue.NewMemory()
	reviews := kycservice.New(records, queue)
	investors := investor.New(records, investor.NewMemoryCredentials(), investor.WithQueue(queue))

	router := httptransport.NewRouter(httptransport.Deps{
		Records:   records,
		Reviews:   reviews,
		Investors: investors,
		Tokens:    jwttoken.NewService("router-test-key", "provena-test"),
		Auth:      middleware.WithTestActor(s.admin),
	})
	s.server = httptest.NewServer(router)
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) postJSON(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) decode(resp *http.Response, into any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
}

func (s *RouterSuite) TestCreateAndReadRecord() {
	resp := s.postJSON("/records/INVESTOR", map[string]any{
		"attributes": map[string]any{"email": "new@example.com", "kycStatus": "PENDING"},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created struct {
		EntityID string `json:"entityId"`
		Version  int64  `json:"version"`
		Tag      string `json:"tag"`
	}
	s.decode(resp, &created)
	s.Equal(int64(1), created.Version)
	s.Equal("CURRENT", created.Tag)

	getResp, err := http.Get(s.server.URL + "/records/INVESTOR/" + created.EntityID)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, getResp.StatusCode)

	var fetched struct {
		Attributes map[string]any `json:"attributes"`
	}
	s.decode(getResp, &fetched)
	s.Equal("new@example.com", fetched.Attributes["email"])
}

func (s *RouterSuite) TestCriticalUpdateNeedsReason() {
	resp := s.postJSON("/records/INVESTOR", map[string]any{
		"attributes": map[string]any{"email": "gate@example.com", "kycStatus": "PENDING"},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var created struct {
		EntityID string `json:"entityId"`
	}
	s.decode(resp, &created)

	path := "/records/INVESTOR/" + created.EntityID
	noReason := s.patchJSON(path, map[string]any{
		"patch": map[string]any{"kycStatus": "IN_PROGRESS"},
	})
	s.Require().Equal(http.StatusBadRequest, noReason.StatusCode)
	var envelope struct {
		Error string `json:"error"`
	}
	s.decode(noReason, &envelope)
	s.Equal("invalid_reason", envelope.Error)

	withReason := s.patchJSON(path, map[string]any{
		"patch":  map[string]any{"kycStatus": "IN_PROGRESS"},
		"reason": "Review started after document check",
	})
	s.Require().Equal(http.StatusOK, withReason.StatusCode)
	var updated struct {
		Version int64 `json:"version"`
	}
	s.decode(withReason, &updated)
	s.Equal(int64(2), updated.Version)
}

func (s *RouterSuite) TestInvestorAliasRoutes() {
	resp := s.postJSON("/investors", map[string]any{
		"attributes": map[string]any{"email": "alias@example.com", "kycStatus": "PENDING"},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var created struct {
		EntityID   string `json:"entityId"`
		EntityType string `json:"entityType"`
	}
	s.decode(resp, &created)
	s.Equal("INVESTOR", created.EntityType)

	versionsResp, err := http.Get(s.server.URL + "/investors/" + created.EntityID + "/versions")
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, versionsResp.StatusCode)
	var listed struct {
		Versions []struct {
			Version int64 `json:"version"`
		} `json:"versions"`
	}
	s.decode(versionsResp, &listed)
	s.Require().Len(listed.Versions, 1)
}

func (s *RouterSuite) TestUnknownEntityType() {
	resp := s.postJSON("/records/WIDGET", map[string]any{
		"attributes": map[string]any{"name": "x"},
	})
	s.Require().Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *RouterSuite) TestRegisterLoginAndQueue() {
	resp := s.postJSON("/register", map[string]string{
		"email":    "applicant@example.com",
		"password": "long-enough-password",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	login := s.postJSON("/login", map[string]string{
		"email":    "applicant@example.com",
		"password": "long-enough-password",
	})
	s.Require().Equal(http.StatusOK, login.StatusCode)
	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	s.decode(login, &tokenResp)
	s.NotEmpty(tokenResp.AccessToken)
	s.Equal("Bearer", tokenResp.TokenType)

	queueResp, err := http.Get(s.server.URL + "/kyc/queue")
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, queueResp.StatusCode)
	var snapshot struct {
		Pending []struct {
			EntityID string `json:"entityId"`
		} `json:"pending"`
	}
	s.decode(queueResp, &snapshot)
	s.Len(snapshot.Pending, 1)
}

func (s *RouterSuite) TestBadLogin() {
	resp := s.postJSON("/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever-password",
	})
	s.Require().Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *RouterSuite) patchJSON(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s%s", s.server.URL, path), bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}
