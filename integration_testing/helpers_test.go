//go:build integration_test || all_tests

package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/2beens/blogapp/internal/auth"
	"github.com/2beens/blogapp/internal/users"
)

const testPassword = "s3cret-pass"

type testUser struct {
	*users.User
	token string
}

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path, token string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reader)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *IntegrationTestSuite) decode(resp *http.Response, expectedStatus int, v any) {
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().Equal(expectedStatus, resp.StatusCode, string(respBytes))
	if v != nil {
		s.Require().NoError(json.Unmarshal(respBytes, v))
	}
}

// newLoggedUser registers a random user and logs them in.
func (s *IntegrationTestSuite) newLoggedUser(ctx context.Context) testUser {
	email := gofakeit.Email()

	var registered users.User
	s.decode(s.doRequest(ctx, "POST", "/a/register", "", map[string]string{
		"email":    email,
		"password": testPassword,
	}), http.StatusCreated, &registered)

	var loginResp auth.LoginResponse
	s.decode(s.doRequest(ctx, "POST", "/a/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	}), http.StatusOK, &loginResp)
	s.Require().NotEmpty(loginResp.Token)
	s.Require().Equal(registered.ID, loginResp.User.ID)

	return testUser{User: loginResp.User, token: loginResp.Token}
}
