package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eldertales_api/blob"
	"eldertales_api/events"
	"eldertales_api/identity"
	"eldertales_api/replay"
	"eldertales_api/social"
	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"

	"firebase.google.com/go/messaging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Error      string          `json:"error"`
}

type countingSender struct {
	sent int
}

func (s *countingSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	s.sent++
	return "id", nil
}

type testServer struct {
	router   *gin.Engine
	verifier *identity.JWTVerifier
	store    *store.MemoryStore
	recorder *events.Recorder
	sender   *countingSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, func(*Dependencies) {})
}

func newTestServerWith(t *testing.T, configure func(deps *Dependencies)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := tools.NewConsoleLogger(io.Discard)
	s := &testServer{
		verifier: identity.NewJWTVerifier("test-secret", "eldertales"),
		store:    store.NewMemoryStore(),
		recorder: &events.Recorder{},
		sender:   &countingSender{},
	}

	deps := Dependencies{
		Logger:         logger,
		Service:        social.NewService(s.store, blob.NewMemoryStore("http://cdn"), s.recorder, logger),
		Store:          s.store,
		Verifier:       s.verifier,
		ReplayCache:    replay.NewMemoryCache(),
		IdempotencyTTL: time.Hour,
		Sender:         s.sender,
		TaskSecret:     "task-secret",
	}
	configure(&deps)

	router, err := NewRouter(deps)
	require.NoError(t, err)
	s.router = router
	return s
}

func (s *testServer) token(t *testing.T, userId string) string {
	t.Helper()
	token, err := s.verifier.Sign(userId, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, req *http.Request, actor string) (int, envelope, http.Header) {
	t.Helper()
	if actor != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, actor))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body, w.Header()
}

func (s *testServer) call(t *testing.T, method, path, actor string, payload interface{}) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	code, env, _ := s.do(t, req, actor)
	return code, env
}

func (s *testServer) register(t *testing.T, id, name string) {
	t.Helper()
	code, env := s.call(t, http.MethodPost, "/user/register", id, types.RegisterRequest{
		Name: name, Age: 70, Contact: "555-0100", Email: strings.ToLower(name) + "@example.com",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
}

func (s *testServer) createPost(t *testing.T, actor, description string, withImage bool) types.Post {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("description", description))
	if withImage {
		part, err := w.CreateFormFile(types.MEDIA_FORM_FIELD, "x.png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/post", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, env, _ := s.do(t, req, actor)
	require.Equal(t, http.StatusCreated, code, env.Message)

	var post types.Post
	require.NoError(t, json.Unmarshal(env.Data, &post))
	return post
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, env := s.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Error)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/post", "/post/getAllOtherPosts", "/user/current-user", "/user/followers"} {
		t.Run(path, func(t *testing.T) {
			code, env := s.call(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, "Unauthorized", env.Error)
			assert.False(t, env.Success)
		})
	}
}

func TestLikeScenarioOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a", "Alice")
	s.register(t, "b", "Bob")
	post := s.createPost(t, "a", "Hello", false)
	likePath := "/post/" + post.Id + "/like"

	type likeState struct {
		LikesCount int  `json:"likesCount"`
		IsLiked    bool `json:"isLiked"`
	}

	code, env := s.call(t, http.MethodPut, likePath, "b", nil)
	require.Equal(t, http.StatusOK, code)
	var state likeState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, likeState{LikesCount: 1, IsLiked: true}, state)

	code, env = s.call(t, http.MethodPut, likePath, "b", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, likeState{LikesCount: 0, IsLiked: false}, state)

	t.Run("retry with the same idempotency key does not flip twice", func(t *testing.T) {
		send := func() (envelope, http.Header) {
			req := httptest.NewRequest(http.MethodPut, likePath, nil)
			req.Header.Set(types.IDEMPOTENCY_KEY_HEADER, "like-1")
			_, env, header := s.do(t, req, "b")
			return env, header
		}

		first, _ := send()
		second, header := send()
		assert.Equal(t, "true", header.Get(types.IDEMPOTENCY_REPLAYED_HEADER))
		assert.JSONEq(t, string(first.Data), string(second.Data))

		stored, err := s.store.GetPost(context.Background(), post.Id)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, stored.Likes)
	})

	t.Run("unknown post", func(t *testing.T) {
		code, env := s.call(t, http.MethodPut, "/post/missing/like", "b", nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "NotFound", env.Error)
	})
}

func TestFollowScenarioOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a", "Alice")
	s.register(t, "b", "Bob")

	followers := func() types.Connections {
		code, env := s.call(t, http.MethodGet, "/user/followers", "b", nil)
		require.Equal(t, http.StatusOK, code)
		var conns types.Connections
		require.NoError(t, json.Unmarshal(env.Data, &conns))
		return conns
	}

	code, _ := s.call(t, http.MethodPost, "/user/b/follow", "a", nil)
	require.Equal(t, http.StatusOK, code)

	conns := followers()
	assert.Equal(t, 1, conns.Count)
	require.Len(t, conns.Users, 1)
	assert.Equal(t, "a", conns.Users[0].Id)

	code, env := s.call(t, http.MethodPost, "/user/b/follow", "a", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidOperation", env.Error)

	code, _ = s.call(t, http.MethodPost, "/user/b/unfollow", "a", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, followers().Count)

	t.Run("toggle route", func(t *testing.T) {
		code, env := s.call(t, http.MethodPut, "/user/b/follow", "a", nil)
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"isFollowing":true,"followersCount":1}`, string(env.Data))
	})

	t.Run("self follow", func(t *testing.T) {
		code, _ := s.call(t, http.MethodPut, "/user/a/follow", "a", nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestPostRoutes(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a", "Alice")
	s.register(t, "b", "Bob")
	post := s.createPost(t, "a", "Hello", true)

	t.Run("detail upgrades the primary media url", func(t *testing.T) {
		code, env := s.call(t, http.MethodGet, "/post/"+post.Id, "b", nil)
		require.Equal(t, http.StatusOK, code)

		var view types.PostView
		require.NoError(t, json.Unmarshal(env.Data, &view))
		require.NotNil(t, view.MediaURL)
		assert.True(t, strings.HasPrefix(*view.MediaURL, "https://cdn/"))
		assert.True(t, strings.HasPrefix(post.Media[0], "http://cdn/"))
	})

	t.Run("others feed and search", func(t *testing.T) {
		code, env := s.call(t, http.MethodGet, "/post/getAllOtherPosts?pageNumber=1&pageSize=10", "b", nil)
		require.Equal(t, http.StatusOK, code)
		var views []types.PostView
		require.NoError(t, json.Unmarshal(env.Data, &views))
		require.Len(t, views, 1)
		assert.Equal(t, post.Id, views[0].PostId)

		code, _ = s.call(t, http.MethodGet, "/post/search?keyword=hello", "a", nil)
		assert.Equal(t, http.StatusOK, code)

		code, _ = s.call(t, http.MethodGet, "/post/search", "a", nil)
		assert.Equal(t, http.StatusBadRequest, code)

		code, _ = s.call(t, http.MethodGet, "/post/getAllOtherPosts?pageSize=500", "b", nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("save routes", func(t *testing.T) {
		code, _ := s.call(t, http.MethodPost, "/post/save/"+post.Id, "b", nil)
		require.Equal(t, http.StatusOK, code)

		code, env := s.call(t, http.MethodPut, "/post/"+post.Id+"/savePost", "b", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "InvalidOperation", env.Error)

		code, env = s.call(t, http.MethodGet, "/post/saved/save", "b", nil)
		require.Equal(t, http.StatusOK, code)
		var views []types.PostView
		require.NoError(t, json.Unmarshal(env.Data, &views))
		require.Len(t, views, 1)
		assert.True(t, views[0].IsSaved)

		code, env = s.call(t, http.MethodPut, "/post/"+post.Id+"/save", "b", nil)
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"isSaved":false,"savedCount":0}`, string(env.Data))
	})

	t.Run("comments", func(t *testing.T) {
		code, env := s.call(t, http.MethodPost, "/post/"+post.Id+"/comments", "b", types.CommentRequest{Content: "lovely"})
		require.Equal(t, http.StatusCreated, code)
		var comment types.Comment
		require.NoError(t, json.Unmarshal(env.Data, &comment))

		path := "/post/" + post.Id + "/comments/" + comment.Id
		code, _ = s.call(t, http.MethodPut, path, "a", types.CommentRequest{Content: "mine"})
		assert.Equal(t, http.StatusForbidden, code)

		code, _ = s.call(t, http.MethodPut, path, "b", types.CommentRequest{Content: "really lovely"})
		assert.Equal(t, http.StatusOK, code)

		code, _ = s.call(t, http.MethodPost, "/post/"+post.Id+"/comments", "b", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, code)

		code, _ = s.call(t, http.MethodDelete, path, "b", nil)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("user posts", func(t *testing.T) {
		code, env := s.call(t, http.MethodGet, "/post/a/posts", "b", nil)
		require.Equal(t, http.StatusOK, code)
		var views []types.PostView
		require.NoError(t, json.Unmarshal(env.Data, &views))
		assert.Len(t, views, 1)

		code, _ = s.call(t, http.MethodGet, "/post/ghost/posts", "b", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("only the owner deletes", func(t *testing.T) {
		code, _ := s.call(t, http.MethodDelete, "/post/"+post.Id, "b", nil)
		assert.Equal(t, http.StatusForbidden, code)

		code, _ = s.call(t, http.MethodDelete, "/post/"+post.Id, "a", nil)
		assert.Equal(t, http.StatusOK, code)

		code, _ = s.call(t, http.MethodGet, "/post/"+post.Id, "a", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a", "Alice")

	code, env := s.call(t, http.MethodGet, "/user/current-user", "a", nil)
	require.Equal(t, http.StatusOK, code)
	var view types.UserView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "alice", view.User.Name)

	code, _ = s.call(t, http.MethodGet, "/user/user/ghost", "a", nil)
	assert.Equal(t, http.StatusNotFound, code)

	t.Run("other profiles hide private fields", func(t *testing.T) {
		s.register(t, "b", "Bob")
		s.createPost(t, "a", "hello", false)
		code, _ := s.call(t, http.MethodPost, "/user/a/follow", "b", nil)
		require.Equal(t, http.StatusOK, code)

		code, env := s.call(t, http.MethodGet, "/user/user/a", "b", nil)
		require.Equal(t, http.StatusOK, code)

		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &fields))
		for _, private := range []string{"savedPosts", "contact", "age", "followers", "following", "posts"} {
			assert.NotContains(t, fields, private)
		}
		assert.Equal(t, "a", fields["id"])
		assert.EqualValues(t, 1, fields["postsCount"])
		assert.EqualValues(t, 1, fields["followersCount"])
		assert.EqualValues(t, 0, fields["followingCount"])
	})

	code, _ = s.call(t, http.MethodPost, "/user/register", "a", types.RegisterRequest{Name: "Alice", Age: 70, Contact: "1", Email: "alice@example.com"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.call(t, http.MethodPost, "/user/register", "c", map[string]interface{}{"name": "Carl", "age": 70})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMessagingAndTaskRoutes(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a", "Alice")

	code, _ := s.call(t, http.MethodPost, "/api/messaging", "b", types.RegistrationTokenRequest{ClientId: "ios", Token: "device"})
	require.Equal(t, http.StatusOK, code)

	message := `{"kind":"like","recipientId":"b","actorId":"a","postId":"p1"}`
	send := func(secret string) int {
		req := httptest.NewRequest(http.MethodPost, types.CLOUD_TASKS_HANDLER_PATH, strings.NewReader(message))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(types.TASK_SECRET_HEADER, secret)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusForbidden, send("wrong"))
	assert.Equal(t, 0, s.sender.sent)

	assert.Equal(t, http.StatusOK, send("task-secret"))
	assert.Equal(t, 1, s.sender.sent)

	t.Run("unknown kinds are rejected", func(t *testing.T) {
		body := `{"kind":"promo","recipientId":"b","actorId":"a","title":"You won","body":"click here"}`
		req := httptest.NewRequest(http.MethodPost, types.CLOUD_TASKS_HANDLER_PATH, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(types.TASK_SECRET_HEADER, "task-secret")
		code, env, _ := s.do(t, req, "")

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "InvalidArgument", env.Error)
		assert.Equal(t, 1, s.sender.sent)
	})
}

func TestTaskRouteWithoutSecret(t *testing.T) {
	s := newTestServerWith(t, func(deps *Dependencies) { deps.TaskSecret = "" })
	require.NoError(t, s.store.SetRegistrationToken(context.Background(), "b", "ios", "device"))

	req := httptest.NewRequest(http.MethodPost, types.CLOUD_TASKS_HANDLER_PATH,
		strings.NewReader(`{"kind":"like","recipientId":"b","actorId":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CloudTasks-QueueName", "notifications")
	code, env, _ := s.do(t, req, "")

	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Forbidden", env.Error)
	assert.Equal(t, 0, s.sender.sent)
}
