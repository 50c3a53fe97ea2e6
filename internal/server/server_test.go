package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wayfarer/internal/config"
	"wayfarer/internal/inbox"
	"wayfarer/internal/lifecycle"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const anonymous = -1

type apiEnv struct {
	t      *testing.T
	app    *fiber.App
	db     *gorm.DB
	users  []models.User
	tokens []string
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{
		JWTSecret:       "test-secret",
		PublicOrigin:    "https://wayfarer.test",
		AvatarUploadDir: t.TempDir(),
		AllowedOrigins:  "http://localhost:5173",
		FeatureFlags:    "invite_email_reminders=on,inbox_stream=on",
	}
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	env := &apiEnv{t: t, app: srv.App(), db: db}
	env.users = testutil.SeedUsers(t, db, "alice", "bob", "carol")
	for _, u := range env.users {
		tok, err := middleware.IssueToken(cfg.JWTSecret, u.ID, time.Hour)
		require.NoError(t, err)
		env.tokens = append(env.tokens, tok)
	}
	return env
}

func (e *apiEnv) send(req *http.Request, as int) *http.Response {
	e.t.Helper()
	if as != anonymous {
		req.Header.Set("Authorization", "Bearer "+e.tokens[as])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *apiEnv) do(method, path string, body any, as int) *http.Response {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, as)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *apiEnv) inbox(as int, tab inbox.Tab) []inbox.Item {
	e.t.Helper()
	resp := e.do(http.MethodGet, "/api/inbox?tab="+string(tab), nil, as)
	require.Equal(e.t, fiber.StatusOK, resp.StatusCode)
	return decode[InboxResponse](e.t, resp).Items
}

func (e *apiEnv) createGroup(as int, name string, members ...int) models.Group {
	e.t.Helper()
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, e.users[m].ID)
	}
	resp := e.do(http.MethodPost, "/api/groups", fiber.Map{"name": name, "member_ids": ids}, as)
	require.Equal(e.t, fiber.StatusCreated, resp.StatusCode)
	return decode[models.Group](e.t, resp)
}

func TestAPI_RequiresToken(t *testing.T) {
	e := newAPI(t)
	resp := e.do(http.MethodGet, "/api/inbox", nil, anonymous)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/inbox", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp = e.send(req, anonymous)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_HealthAndDocs(t *testing.T) {
	e := newAPI(t)
	assert.Equal(t, fiber.StatusOK, e.do(http.MethodGet, "/health/live", nil, anonymous).StatusCode)
	assert.Equal(t, fiber.StatusOK, e.do(http.MethodGet, "/health/ready", nil, anonymous).StatusCode)
	assert.Equal(t, fiber.StatusOK, e.do(http.MethodGet, "/swagger/doc.json", nil, anonymous).StatusCode)
}

func TestAPI_InboxRejectsUnknownTab(t *testing.T) {
	e := newAPI(t)
	resp := e.do(http.MethodGet, "/api/inbox?tab=starred", nil, 0)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, resp).Code)
}

func TestAPI_CreateGroupReachesMembersOnly(t *testing.T) {
	e := newAPI(t)
	g := e.createGroup(0, "Trip Squad", 1)
	assert.False(t, g.IsPublic)

	for _, as := range []int{0, 1} {
		items := e.inbox(as, inbox.TabGroups)
		require.Len(t, items, 1)
		assert.Equal(t, "Trip Squad", items[0].DisplayName)
		assert.Empty(t, items[0].LastMessagePreview)
	}
	assert.Empty(t, e.inbox(2, inbox.TabGroups))

	all := e.inbox(0, inbox.TabAll)
	require.Len(t, all, 1)
	assert.Equal(t, models.KindGroup, all[0].Kind)
}

func TestAPI_CreateGroupValidation(t *testing.T) {
	e := newAPI(t)
	resp := e.do(http.MethodPost, "/api/groups", fiber.Map{"name": "   "}, 0)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = e.do(http.MethodPost, "/api/groups", fiber.Map{"name": string(bytes.Repeat([]byte("x"), 200))}, 0)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, e.inbox(0, inbox.TabGroups))
}

func TestAPI_CommunityTakesNoInitialMembers(t *testing.T) {
	e := newAPI(t)
	resp := e.do(http.MethodPost, "/api/communities",
		fiber.Map{"name": "Hikers", "member_ids": []uint{e.users[1].ID}}, 0)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = e.do(http.MethodPost, "/api/communities", fiber.Map{"name": "Hikers"}, 0)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	c := decode[models.Community](t, resp)
	assert.True(t, c.IsPublic)

	items := e.inbox(0, inbox.TabCommunities)
	require.Len(t, items, 1)
	assert.Equal(t, "1 member", items[0].LastMessagePreview)
}

func TestAPI_DirectConversationIsIdempotent(t *testing.T) {
	e := newAPI(t)
	resp := e.do(http.MethodPost, "/api/conversations", fiber.Map{"peer_id": e.users[1].ID}, 0)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	first := decode[inbox.Item](t, resp)
	assert.Equal(t, "bob Tester", first.DisplayName)

	resp = e.do(http.MethodPost, "/api/conversations", fiber.Map{"peer_id": e.users[0].ID}, 1)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	second := decode[inbox.Item](t, resp)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice Tester", second.DisplayName)

	resp = e.do(http.MethodPost, "/api/conversations", fiber.Map{}, 0)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAPI_InboxActions(t *testing.T) {
	e := newAPI(t)
	g := e.createGroup(0, "Book Club", 1)
	path := fmt.Sprintf("/api/inbox/group/%d/", g.ID)

	resp := e.do(http.MethodPost, path+"archive", nil, 0)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[ActionResponse](t, resp)
	assert.Equal(t, lifecycle.NoticeSuccess, out.Notice.Kind)
	assert.Equal(t, "Book Club archived.", out.Notice.Text)
	assert.Equal(t, inbox.TabGroups, out.Tab)
	assert.Empty(t, out.Items)

	// Archive is per member.
	assert.Len(t, e.inbox(1, inbox.TabGroups), 1)
	archived := e.inbox(0, inbox.TabArchived)
	require.Len(t, archived, 1)
	assert.True(t, archived[0].IsArchived)

	resp = e.do(http.MethodPost, path+"unarchive", nil, 0)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out = decode[ActionResponse](t, resp)
	assert.Equal(t, inbox.TabArchived, out.Tab)
	assert.Len(t, e.inbox(0, inbox.TabGroups), 1)

	resp = e.do(http.MethodPost, path+"leave", nil, 1)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, e.inbox(1, inbox.TabGroups))
	assert.Len(t, e.inbox(0, inbox.TabGroups), 1)
}

func TestAPI_InboxActionErrors(t *testing.T) {
	e := newAPI(t)
	g := e.createGroup(0, "Book Club", 1)

	cases := []struct {
		name   string
		path   string
		as     int
		status int
	}{
		{"groups are never deleted", fmt.Sprintf("/api/inbox/group/%d/delete", g.ID), 0, fiber.StatusBadRequest},
		{"direct conversations are never left", "/api/inbox/direct/1/leave", 0, fiber.StatusBadRequest},
		{"unknown action", fmt.Sprintf("/api/inbox/group/%d/mute", g.ID), 0, fiber.StatusBadRequest},
		{"unknown kind", "/api/inbox/channel/1/archive", 0, fiber.StatusBadRequest},
		{"bad id", "/api/inbox/group/x/archive", 0, fiber.StatusBadRequest},
		{"not in the caller's inbox", fmt.Sprintf("/api/inbox/group/%d/archive", g.ID), 2, fiber.StatusNotFound},
		{"unarchive an active group", fmt.Sprintf("/api/inbox/group/%d/unarchive", g.ID), 0, fiber.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.do(http.MethodPost, tc.path, nil, tc.as)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAPI_MembersAndAdmins(t *testing.T) {
	e := newAPI(t)
	g := e.createGroup(0, "Trip Squad", 1)
	members := fmt.Sprintf("/api/groups/%d/members", g.ID)

	resp := e.do(http.MethodPost, members, fiber.Map{"user_id": e.users[2].ID}, 0)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Len(t, e.inbox(2, inbox.TabGroups), 1)

	resp = e.do(http.MethodDelete, fmt.Sprintf("%s/%d", members, e.users[0].ID), nil, 0)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = e.do(http.MethodDelete, fmt.Sprintf("%s/%d", members, e.users[2].ID), nil, 0)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Empty(t, e.inbox(2, inbox.TabGroups))

	name := "Trip Squad 2026"
	resp = e.do(http.MethodPatch, fmt.Sprintf("/api/groups/%d", g.ID), fiber.Map{"name": name}, 0)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, name, e.inbox(1, inbox.TabGroups)[0].DisplayName)

	// Non-admin edits are refused by the service layer.
	resp = e.do(http.MethodPatch, fmt.Sprintf("/api/groups/%d", g.ID), fiber.Map{"name": "Mine"}, 1)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestAPI_InviteLifecycle(t *testing.T) {
	e := newAPI(t)
	g := e.createGroup(0, "Trip Squad", 1)
	invites := fmt.Sprintf("/api/groups/%d/invites", g.ID)

	resp := e.do(http.MethodPost, invites, fiber.Map{"email": " Dana@Example.com "}, 0)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	inv := decode[InviteView](t, resp)
	require.NotNil(t, inv.Email)
	assert.Equal(t, "dana@example.com", *inv.Email)
	assert.Equal(t, models.InviteStatusPending, inv.Status)
	assert.Equal(t, "https://wayfarer.test/signup?invite="+inv.InviteCode, inv.Link)

	resp = e.do(http.MethodPost, invites, nil, 0)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	open := decode[InviteView](t, resp)
	assert.Nil(t, open.Email)

	resp = e.do(http.MethodPost, invites, fiber.Map{"email": "not-an-email"}, 0)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = e.do(http.MethodPost, fmt.Sprintf("%s/%d/remind", invites, inv.ID), nil, 0)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = e.do(http.MethodGet, invites, nil, 0)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[[]InviteView](t, resp)
	require.Len(t, list, 2)

	revoke := fmt.Sprintf("%s/%d/revoke", invites, inv.ID)
	require.Equal(t, fiber.StatusNoContent, e.do(http.MethodPost, revoke, nil, 0).StatusCode)
	resp = e.do(http.MethodPost, revoke, nil, 0)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeInvalidState, decode[models.ErrorResponse](t, resp).Code)

	resp = e.do(http.MethodPost, fmt.Sprintf("%s/%d/remind", invites, inv.ID), nil, 0)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = e.do(http.MethodGet, "/api/invites/link/"+open.InviteCode, nil, anonymous)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://wayfarer.test/signup?invite="+open.InviteCode, decode[map[string]string](t, resp)["link"])
}

func TestAPI_SearchUsers(t *testing.T) {
	e := newAPI(t)

	resp := e.do(http.MethodGet, "/api/users/search?q=bob", nil, 0)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	found := decode[UserSearchResponse](t, resp)
	require.Len(t, found.Users, 1)
	assert.Equal(t, "bob", found.Users[0].Username)
	assert.False(t, found.OfferInvite)

	resp = e.do(http.MethodGet, "/api/users/search?q=Zoe@Example.com", nil, 0)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	miss := decode[UserSearchResponse](t, resp)
	assert.Empty(t, miss.Users)
	assert.True(t, miss.OfferInvite)
	assert.Equal(t, "zoe@example.com", miss.InviteEmail)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAPI_AvatarUpload(t *testing.T) {
	e := newAPI(t)

	body, ct := multipartBody(t, nil, "file", "me.png", testutil.PNG(64, 48))
	req := httptest.NewRequest(http.MethodPost, "/api/avatars", body)
	req.Header.Set("Content-Type", ct)
	resp := e.send(req, 0)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	url := decode[map[string]string](t, resp)["url"]
	require.NotEmpty(t, url)

	resp = e.do(http.MethodGet, url, nil, anonymous)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, ct = multipartBody(t, nil, "file", "notes.txt", []byte("plain text"))
	req = httptest.NewRequest(http.MethodPost, "/api/avatars", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, fiber.StatusBadRequest, e.send(req, 0).StatusCode)
}

func TestAPI_CreateGroupMultipart(t *testing.T) {
	e := newAPI(t)

	body, ct := multipartBody(t, map[string]string{
		"name":       "Trip Squad",
		"is_public":  "true",
		"member_ids": fmt.Sprintf("%d, %d", e.users[1].ID, e.users[2].ID),
	}, "avatar", "squad.png", testutil.PNG(32, 32))
	req := httptest.NewRequest(http.MethodPost, "/api/groups", body)
	req.Header.Set("Content-Type", ct)
	resp := e.send(req, 0)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	g := decode[models.Group](t, resp)
	assert.True(t, g.IsPublic)
	assert.NotEmpty(t, g.AvatarURL)
	assert.Len(t, e.inbox(2, inbox.TabGroups), 1)

	body, ct = multipartBody(t, map[string]string{"name": "Trip Squad", "member_ids": "2,zero"}, "", "", nil)
	req = httptest.NewRequest(http.MethodPost, "/api/groups", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, fiber.StatusBadRequest, e.send(req, 0).StatusCode)
}

func TestAPI_FeatureFlags(t *testing.T) {
	e := newAPI(t)
	resp := e.do(http.MethodGet, "/api/feature-flags", nil, 0)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	evaluated := body["evaluated"].(map[string]any)
	assert.Equal(t, true, evaluated["inbox_stream"])
}

func TestAPI_InboxStreamNeedsUpgrade(t *testing.T) {
	e := newAPI(t)
	resp := e.do(http.MethodGet, "/ws?token="+e.tokens[0], nil, anonymous)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	resp = e.do(http.MethodGet, "/ws", nil, anonymous)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
