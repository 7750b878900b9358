package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/settlement"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// testUserHeader lets a test act as someone other than the default user.
const testUserHeader = "X-Test-User"

// testAuthInterceptor returns a Connect interceptor that sets a test user ID in the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			userID := models.UserID("alice")
			if h := req.Header().Get(testUserHeader); h != "" {
				userID = models.UserID(h)
			}
			return next(middleware.WithUser(ctx, userID, string(userID)+"@example.com"), req)
		}
	}
}

type testClients struct {
	auth        apiconnect.AuthServiceClient
	groups      apiconnect.GroupServiceClient
	expenses    apiconnect.ExpenseServiceClient
	settlements apiconnect.SettlementServiceClient
	store       *sqlite.SQLiteStore
}

// setupTestServer creates a test server with every service backed by a temp SQLite database.
func setupTestServer(t *testing.T) *testClients {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	engine := settlement.NewEngine(store, store)
	bus := settlement.NewBus()
	settlement.NewTrigger(engine).Register(bus)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authSvc := NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())

	authInterceptor := connect.WithInterceptors(testAuthInterceptor())
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(authSvc, connect.WithInterceptors(middleware.OptionalAuth(jwtManager))))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store), authInterceptor))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(store, bus), authInterceptor))
	mux.Handle(apiconnect.NewSettlementServiceHandler(NewSettlementService(store, engine), authInterceptor))

	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testClients{
		auth:        apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:      apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses:    apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		settlements: apiconnect.NewSettlementServiceClient(http.DefaultClient, server.URL),
		store:       store,
	}
}

// as makes req run as userID.
func as[T any](userID string, req *connect.Request[T]) *connect.Request[T] {
	req.Header().Set(testUserHeader, userID)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil error", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected %v, got %v (%v)", want, got, err)
	}
}
