package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
	"github.com/rocketscienceinc/gridclash-backend/internal/entity"
	"github.com/rocketscienceinc/gridclash-backend/internal/gridclash"
)

const allowOrigin = "http://localhost:8080"

type mockMirror struct {
	mock.Mock
}

func (m *mockMirror) GetSnapshot(ctx context.Context) (*entity.Snapshot, error) {
	args := m.Called(ctx)

	snapshot, _ := args.Get(0).(*entity.Snapshot)

	return snapshot, args.Error(1)
}

func (m *mockMirror) TopScores(ctx context.Context, limit int64) ([]entity.ScoreEntry, error) {
	args := m.Called(ctx, limit)

	scores, _ := args.Get(0).([]entity.ScoreEntry)

	return scores, args.Error(1)
}

func newTestServer(mirror Mirror) (*Server, *gridclash.GameEngine) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	engine := gridclash.New(2, 0)

	return New(logger, engine, mirror, allowOrigin), engine
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)

	return recorder
}

func TestServer_Ping(t *testing.T) {
	server, _ := newTestServer(nil)

	resp := serve(server, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "pong", resp.Body.String())
	assert.Equal(t, allowOrigin, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Auth(t *testing.T) {
	t.Run("New client gets an identity cookie", func(t *testing.T) {
		server, _ := newTestServer(nil)

		// When: /auth is called without a cookie
		resp := serve(server, httptest.NewRequest(http.MethodGet, "/auth", nil))

		// Then: 201 with a fresh atid cookie
		assert.Equal(t, http.StatusCreated, resp.Code)
		assert.JSONEq(t, `{}`, resp.Body.String())

		cookies := resp.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, entity.IdentityCookie, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.Equal(t, "/", cookies[0].Path)
	})

	t.Run("Known client keeps its cookie", func(t *testing.T) {
		server, _ := newTestServer(nil)

		req := httptest.NewRequest(http.MethodGet, "/auth", nil)
		req.AddCookie(&http.Cookie{Name: entity.IdentityCookie, Value: "p1"})
		resp := serve(server, req)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{}`, resp.Body.String())
		assert.Empty(t, resp.Result().Cookies())
	})
}

func TestServer_Board(t *testing.T) {
	server, engine := newTestServer(nil)

	// Given: one player on the board
	_, err := engine.AddPlayer("p1")
	require.NoError(t, err)

	// When: the board is requested
	resp := serve(server, httptest.NewRequest(http.MethodGet, "/board", nil))

	// Then: it contains the player at the origin
	require.Equal(t, http.StatusOK, resp.Code)

	var snapshot entity.Snapshot
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snapshot))
	require.NotNil(t, snapshot.WorldMap[0][0])
	assert.Equal(t, "p1", snapshot.WorldMap[0][0].ID)
	assert.Equal(t, 1, snapshot.Players)
}

func TestServer_MirroredBoard(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		server, _ := newTestServer(nil)

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/board?source=mirror", nil))

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("Stored snapshot is returned", func(t *testing.T) {
		// Given: a mirror holding snapshot 7
		stored := &entity.Snapshot{Phase: entity.InProgress(), Players: 2, Seq: 7}
		mirror := &mockMirror{}
		mirror.On("GetSnapshot", mock.Anything).Return(stored, nil).Once()
		server, _ := newTestServer(mirror)

		// When: the mirrored board is requested
		resp := serve(server, httptest.NewRequest(http.MethodGet, "/board?source=mirror", nil))

		// Then: the stored snapshot comes back, not the live board
		require.Equal(t, http.StatusOK, resp.Code)

		var snapshot entity.Snapshot
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snapshot))
		assert.Equal(t, *stored, snapshot)
		mirror.AssertExpectations(t)
	})

	t.Run("Nothing mirrored yet", func(t *testing.T) {
		mirror := &mockMirror{}
		mirror.On("GetSnapshot", mock.Anything).Return(nil, apperror.ErrSnapshotNotFound).Once()
		server, _ := newTestServer(mirror)

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/board?source=mirror", nil))

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("Redis failure", func(t *testing.T) {
		mirror := &mockMirror{}
		mirror.On("GetSnapshot", mock.Anything).Return(nil, errors.New("redis down")).Once()
		server, _ := newTestServer(mirror)

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/board?source=mirror", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})

	t.Run("Unknown source", func(t *testing.T) {
		server, _ := newTestServer(&mockMirror{})

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/board?source=disk", nil))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestServer_Leaderboard(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		server, _ := newTestServer(nil)

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("Default limit", func(t *testing.T) {
		leaderboard := &mockMirror{}
		leaderboard.On("TopScores", mock.Anything, int64(defaultLeaderboardLimit)).
			Return([]entity.ScoreEntry{{PlayerID: "p2", Score: 4}, {PlayerID: "p1", Score: 1}}, nil).
			Once()
		server, _ := newTestServer(leaderboard)

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `[{"player_id":"p2","score":4},{"player_id":"p1","score":1}]`, resp.Body.String())
		leaderboard.AssertExpectations(t)
	})

	t.Run("Limit is capped", func(t *testing.T) {
		leaderboard := &mockMirror{}
		leaderboard.On("TopScores", mock.Anything, int64(maxLeaderboardLimit)).
			Return([]entity.ScoreEntry{}, nil).
			Once()
		server, _ := newTestServer(leaderboard)

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=1000", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		leaderboard.AssertExpectations(t)
	})

	t.Run("Invalid limit", func(t *testing.T) {
		server, _ := newTestServer(&mockMirror{})

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=zero", nil))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Redis failure", func(t *testing.T) {
		leaderboard := &mockMirror{}
		leaderboard.On("TopScores", mock.Anything, mock.Anything).
			Return(nil, errors.New("redis down")).
			Once()
		server, _ := newTestServer(leaderboard)

		resp := serve(server, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestServer_CORS(t *testing.T) {
	server, _ := newTestServer(nil)

	// When: a preflight request arrives
	resp := serve(server, httptest.NewRequest(http.MethodOptions, "/board", nil))

	// Then: it is answered by the CORS layer
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, allowOrigin, resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Content-Type", resp.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "GET, PUT, OPTIONS", resp.Header().Get("Access-Control-Allow-Methods"))
}
