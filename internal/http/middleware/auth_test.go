// README: Tests for the Firebase auth middleware.
package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"lifti/internal/http/middleware"
	"lifti/internal/infra"
)

var errTokenRevoked = errors.New("token revoked")

// tokenTable maps bearer token strings to the decoded token the fake verifier
// hands back, the way the Firebase SDK would for a real ID token.
type tokenTable map[string]*infra.FirebaseToken

func (tt tokenTable) VerifyIDToken(_ context.Context, raw string) (*infra.FirebaseToken, error) {
	token, ok := tt[raw]
	if !ok {
		return nil, errTokenRevoked
	}
	return token, nil
}

type echoedCaller struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
}

// callIdentity runs one request through the middleware and an echo handler
// that reports whatever caller identity the middleware attached.
func callIdentity(t *testing.T, tokens tokenTable, authHeader string) (int, echoedCaller) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(tokens))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, echoedCaller{
			UID:  middleware.CallerUID(c),
			Role: middleware.CallerRole(c),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var caller echoedCaller
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &caller); err != nil {
			t.Fatalf("decode echo body: %v", err)
		}
	}
	return w.Code, caller
}

func TestAuthRejectsUnverifiedCallers(t *testing.T) {
	tokens := tokenTable{"drivertoken": {UID: "drv_thabo"}}

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"basic scheme", "Basic ZHJ2X3RoYWJvOnB3"},
		{"bare token without scheme", "drivertoken"},
		{"revoked token", "Bearer expiredtoken"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := callIdentity(t, tokens, tc.header)
			if code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", code)
			}
		})
	}
}

func TestAuthAttachesCallerIdentity(t *testing.T) {
	tokens := tokenTable{
		"drivertoken": {
			UID:    "drv_thabo",
			Claims: map[string]interface{}{"role": "driver"},
		},
		"financetoken": {
			UID:    "usr_lindiwe",
			Claims: map[string]interface{}{"role": "finance_admin"},
		},
		"passengertoken": {
			UID: "psg_naledi",
		},
		"brokenroletoken": {
			// A non-string role claim is ignored rather than trusted.
			UID:    "usr_odd",
			Claims: map[string]interface{}{"role": 42},
		},
	}

	cases := []struct {
		name     string
		token    string
		wantUID  string
		wantRole string
	}{
		{"driver role claim", "drivertoken", "drv_thabo", "driver"},
		{"finance admin role claim", "financetoken", "usr_lindiwe", "finance_admin"},
		{"passenger without role claim", "passengertoken", "psg_naledi", ""},
		{"non-string role claim dropped", "brokenroletoken", "usr_odd", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, caller := callIdentity(t, tokens, "Bearer "+tc.token)
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200", code)
			}
			if caller.UID != tc.wantUID {
				t.Errorf("uid = %q, want %q", caller.UID, tc.wantUID)
			}
			if caller.Role != tc.wantRole {
				t.Errorf("role = %q, want %q", caller.Role, tc.wantRole)
			}
		})
	}
}
