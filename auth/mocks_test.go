package auth_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// noopLogger swallows everything; used where log output is irrelevant
type noopLogger struct{}

func (noopLogger) Debug(format string, args ...any) {}
func (noopLogger) Info(format string, args ...any)  {}
func (noopLogger) Warn(format string, args ...any)  {}
func (noopLogger) Error(format string, args ...any) {}

// MockIdentity implements auth.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

// testConfig implements auth.Config with fixed values
type testConfig struct {
	signingKey         string
	contextKey         string
	tokenExpiration    int
	artifactExpiration int
	authScheme         string
	issuer             string
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:         "test-signing-key",
		contextKey:         "user",
		tokenExpiration:    1,
		artifactExpiration: 1,
		authScheme:         "Bearer",
		issuer:             "test-issuer",
	}
}

func (c *testConfig) GetSigningKey() string      { return c.signingKey }
func (c *testConfig) GetContextKey() string      { return c.contextKey }
func (c *testConfig) GetTokenExpiration() int    { return c.tokenExpiration }
func (c *testConfig) GetArtifactExpiration() int { return c.artifactExpiration }
func (c *testConfig) GetAuthScheme() string      { return c.authScheme }
func (c *testConfig) GetIssuer() string          { return c.issuer }

// recordingNotifier captures delivered artifacts instead of sending mail
type recordingNotifier struct {
	mu sync.Mutex

	verifications map[string]string
	resets        map[string]string
	failWith      error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		verifications: map[string]string{},
		resets:        map[string]string{},
	}
}

func (n *recordingNotifier) SendVerificationEmail(ctx context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.verifications[email] = token
	return nil
}

func (n *recordingNotifier) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.resets[email] = token
	return nil
}

func (n *recordingNotifier) verificationFor(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.verifications[email]
}

func (n *recordingNotifier) resetFor(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resets[email]
}
