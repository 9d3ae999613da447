package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// E2ETestSuite exercises a running server end to end. It is opt-in:
// set E2E_BASE_URL (e.g. http://localhost:8080) to enable it, with the
// API running against a scratch database.
type E2ETestSuite struct {
	suite.Suite
	baseURL string
	client  *http.Client

	ownerToken   string
	ownerID      int
	proctorToken string
	proctorID    int
	proctorName  string

	sessionID    int
	invitationID int
}

func TestE2E(t *testing.T) {
	if os.Getenv("E2E_BASE_URL") == "" {
		t.Skip("E2E_BASE_URL not set, skipping end-to-end suite")
	}
	suite.Run(t, new(E2ETestSuite))
}

func (s *E2ETestSuite) SetupSuite() {
	s.baseURL = os.Getenv("E2E_BASE_URL")
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// apiResponse mirrors the envelope every endpoint responds with.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *E2ETestSuite) do(method, path, token string, body any) (*http.Response, apiResponse) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.baseURL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var parsed apiResponse
	// Some endpoints (204) have no body.
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func (s *E2ETestSuite) register(username, password string) {
	resp, _ := s.do("POST", "/register", "", map[string]string{
		"username": username, "password": password,
	})
	s.Require().Contains([]int{http.StatusCreated, http.StatusConflict}, resp.StatusCode)
}

func (s *E2ETestSuite) login(username, password string) (string, int) {
	resp, parsed := s.do("POST", "/login", "", map[string]string{
		"username": username, "password": password,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var data struct {
		Token  string `json:"token"`
		UserID int    `json:"userId"`
	}
	s.Require().NoError(json.Unmarshal(parsed.Data, &data))
	s.Require().NotEmpty(data.Token)
	return data.Token, data.UserID
}

func (s *E2ETestSuite) Test01_RegisterAndLogin() {
	stamp := time.Now().UnixNano()
	owner := fmt.Sprintf("owner%d", stamp)
	s.proctorName = fmt.Sprintf("proctor%d", stamp)

	s.register(owner, "ownerpass")
	s.register(s.proctorName, "proctorpass")
	s.ownerToken, s.ownerID = s.login(owner, "ownerpass")
	s.proctorToken, s.proctorID = s.login(s.proctorName, "proctorpass")
}

func (s *E2ETestSuite) Test02_LoginInvalidPassword() {
	resp, parsed := s.do("POST", "/login", "", map[string]string{
		"username": s.proctorName, "password": "wrong",
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Require().NotNil(parsed.Error)
	s.Equal("UNAUTHORIZED", parsed.Error.Code)
}

func (s *E2ETestSuite) Test03_HealthIsPublic() {
	resp, err := s.client.Get(s.baseURL + "/health")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}
