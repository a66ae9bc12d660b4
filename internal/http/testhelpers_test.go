package httpx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
	"github.com/stretchr/testify/require"
)

const (
	testCSRFToken  = "test-csrf-token"
	testAdminEmail = "admin@dharmaimoveis.com.br"
	testAgentEmail = "corretor@example.com"
	testPending    = "pendente@example.com"
)

// fakeProperties is an in-memory PropertiesService.
type fakeProperties struct {
	mu         sync.Mutex
	props      map[string]*model.Property
	lastFilter service.CatalogFilter
	created    []*model.CreatePropertyRequest
	updated    map[string]model.UpdatePropertyRequest
	createErr  error
	updateErr  error
}

func newFakeProperties(props ...*model.Property) *fakeProperties {
	f := &fakeProperties{props: map[string]*model.Property{}, updated: map[string]model.UpdatePropertyRequest{}}
	for _, p := range props {
		f.props[p.ID] = p
	}
	return f
}

func (f *fakeProperties) Catalog(_ context.Context, filter service.CatalogFilter) ([]*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	out := make([]*model.Property, 0, len(f.props))
	for _, p := range f.props {
		if filter.Type != "" && !strings.EqualFold(p.Type, filter.Type) {
			continue
		}
		if filter.Status == model.PropertyStatusSold && !p.Sold || filter.Status == model.PropertyStatusAvailable && p.Sold {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProperties) GetByID(_ context.Context, id string) (*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.props[id]
	if !ok {
		return nil, apperrors.NotFound("imóvel não encontrado")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProperties) Create(_ context.Context, req *model.CreatePropertyRequest) (*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := &model.Property{ID: "new-1", Title: req.Title, Price: req.Price, Details: req.Details, Images: req.Images}
	f.props[p.ID] = p
	return p, nil
}

func (f *fakeProperties) Update(_ context.Context, id string, req model.UpdatePropertyRequest) (*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.props[id], nil
}

func (f *fakeProperties) ToggleSold(_ context.Context, id string) (*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.props[id]
	if !ok {
		return nil, apperrors.NotFound("imóvel não encontrado")
	}
	p.Sold = !p.Sold
	return p, nil
}

func (f *fakeProperties) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.props[id]; !ok {
		return false, nil
	}
	delete(f.props, id)
	return true, nil
}

// fakeLikes keeps like sets in memory.
type fakeLikes struct {
	mu    sync.Mutex
	liked map[string]map[string]bool // property -> visitor
	base  map[string]int
}

func newFakeLikes() *fakeLikes {
	return &fakeLikes{liked: map[string]map[string]bool{}, base: map[string]int{}}
}

func (f *fakeLikes) Toggle(_ context.Context, propertyID, visitorID string) (*model.LikeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if propertyID == "missing" {
		return nil, apperrors.NotFound("imóvel não encontrado")
	}
	set := f.liked[propertyID]
	if set == nil {
		set = map[string]bool{}
		f.liked[propertyID] = set
	}
	if set[visitorID] {
		delete(set, visitorID)
	} else {
		set[visitorID] = true
	}
	return &model.LikeResult{PropertyID: propertyID, Liked: set[visitorID], Likes: f.base[propertyID] + len(set)}, nil
}

func (f *fakeLikes) LikedBy(_ context.Context, visitorID string, ids []string) map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]bool{}
	for _, id := range ids {
		if f.liked[id][visitorID] {
			out[id] = true
		}
	}
	return out
}

type readSeekCloser struct{ *bytes.Reader }

func (readSeekCloser) Close() error { return nil }

// fakeImages records saves and removals.
type fakeImages struct {
	mu      sync.Mutex
	saved   []service.Upload
	bodies  [][]byte
	removed []string
	objects map[string][]byte
	saveErr error
}

func newFakeImages() *fakeImages { return &fakeImages{objects: map[string][]byte{}} }

func (f *fakeImages) Save(_ context.Context, uploads []service.Upload) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	urls := make([]string, 0, len(uploads))
	for i, up := range uploads {
		data, err := io.ReadAll(up.Body)
		if err != nil {
			return nil, err
		}
		f.saved = append(f.saved, up)
		f.bodies = append(f.bodies, data)
		urls = append(urls, "/media/properties/img-"+string(rune('a'+i))+".jpg")
	}
	return urls, nil
}

func (f *fakeImages) Open(_ context.Context, key string) (io.ReadCloser, core.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, core.ObjectInfo{}, apperrors.NotFound("imagem não encontrada")
	}
	info := core.ObjectInfo{Key: key, ContentType: "image/png", Size: int64(len(data)), ModTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return readSeekCloser{bytes.NewReader(data)}, info, nil
}

func (f *fakeImages) Remove(_ context.Context, urls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, urls...)
}

type fakeDashboard struct{ d *model.Dashboard }

func (f fakeDashboard) Load(context.Context) (*model.Dashboard, error) { return f.d, nil }

// fakeUsers tracks approval calls.
type fakeUsers struct {
	mu       sync.Mutex
	lists    service.UserLists
	approved []string
	revoked  []string
	actors   []string
}

func (f *fakeUsers) Lists(context.Context) (*service.UserLists, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := f.lists
	return &cp, nil
}

func (f *fakeUsers) Approve(_ context.Context, userID, actor string) (*domainauth.UserMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, userID)
	f.actors = append(f.actors, actor)
	return &domainauth.UserMetadata{UserID: userID, IsApproved: true}, nil
}

func (f *fakeUsers) Revoke(_ context.Context, userID, actor string) (*domainauth.UserMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, userID)
	f.actors = append(f.actors, actor)
	return &domainauth.UserMetadata{UserID: userID}, nil
}

// fakeAuth is a func-field AuthFlowService.
type fakeAuth struct {
	LoginFn        func(context.Context, service.LoginInput) (*service.LoginResult, error)
	RegisterFn     func(context.Context, service.RegisterInput) (*service.RegisterResult, error)
	StartFn        func(context.Context, service.StartOAuthInput) (*ports.BeginOAuthResult, error)
	CallbackFn     func(context.Context, service.OAuthCallbackInput) (*service.LoginResult, error)
	LogoutFn       func(context.Context, string)
	RegistrationOn bool
}

func (f *fakeAuth) Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error) {
	if f.LoginFn == nil {
		return nil, domainauth.NewFlowError(domainauth.ReasonInvalidCredentials, nil)
	}
	return f.LoginFn(ctx, in)
}

func (f *fakeAuth) Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error) {
	if f.RegisterFn == nil {
		return nil, domainauth.NewFlowError(domainauth.ReasonRegistrationDisabled, nil)
	}
	return f.RegisterFn(ctx, in)
}

func (f *fakeAuth) StartOAuth(ctx context.Context, in service.StartOAuthInput) (*ports.BeginOAuthResult, error) {
	if f.StartFn == nil {
		return nil, domainauth.NewFlowError(domainauth.ReasonProviderUnavailable, nil)
	}
	return f.StartFn(ctx, in)
}

func (f *fakeAuth) HandleOAuthCallback(ctx context.Context, in service.OAuthCallbackInput) (*service.LoginResult, error) {
	if f.CallbackFn == nil {
		return nil, domainauth.NewFlowError(domainauth.ReasonCallbackError, nil)
	}
	return f.CallbackFn(ctx, in)
}

func (f *fakeAuth) Logout(ctx context.Context, token string) {
	if f.LogoutFn != nil {
		f.LogoutFn(ctx, token)
	}
}

func (f *fakeAuth) RegistrationEnabled() bool { return f.RegistrationOn }

// fakeSessions resolves tokens from a map. When stall is set it waits for
// the context to end, as a provider that never answers would.
type fakeSessions struct {
	sessions map[string]*domainauth.Session
	stall    bool
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) *domainauth.Session {
	if f.stall {
		<-ctx.Done()
		return nil
	}
	return f.sessions[token]
}

// fakeValidator approves by email; the admin email gets RoleAdmin.
type fakeValidator struct {
	decisions map[string]domainauth.Decision
}

func (f fakeValidator) IsAuthorized(_ context.Context, sess *domainauth.Session) domainauth.Decision {
	if sess == nil {
		return domainauth.DecisionDenied
	}
	return f.decisions[sess.Email]
}

func (fakeValidator) RoleFor(sess *domainauth.Session, d domainauth.Decision) domainauth.Role {
	switch {
	case sess == nil || !d.Authorized():
		return domainauth.RoleGuest
	case sess.Email == testAdminEmail:
		return domainauth.RoleAdmin
	default:
		return domainauth.RoleAgent
	}
}

type testEnv struct {
	handler    http.Handler
	properties *fakeProperties
	likes      *fakeLikes
	images     *fakeImages
	users      *fakeUsers
	auth       *fakeAuth
	sessions   *fakeSessions
}

type envOption func(*RouterServices, *testEnv)

func withGuardTimeout(d time.Duration) envOption {
	return func(rs *RouterServices, _ *testEnv) { rs.GuardTimeout = d }
}

func withLoginLimit(perMinute, burst int) envOption {
	return func(rs *RouterServices, _ *testEnv) {
		rs.LoginRateLimit = RateLimitConfig{PerMinute: perMinute, Burst: burst}
	}
}

func sampleProperties() []*model.Property {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return []*model.Property{
		{
			ID: "p1", Title: "Casa com quintal", Location: "Santo André", Type: "Casa", Price: "R$ 450.000",
			Details: "Três dormitórios.\n\nGaragem para dois carros.", Ref: "REF000001",
			ImageURL: "/media/properties/p1-a.jpg", Images: []string{"/media/properties/p1-a.jpg", "/media/properties/p1-b.jpg"},
			Likes: 2, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour),
		},
		{
			ID: "p2", Title: "Apartamento no centro", Location: "São Bernardo", Type: "Apartamento", Price: "R$ 320.000",
			Details: "Dois dormitórios.", Ref: "REF000002", Sold: true,
			CreatedAt: base, UpdatedAt: base,
		},
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		properties: newFakeProperties(sampleProperties()...),
		likes:      newFakeLikes(),
		images:     newFakeImages(),
		users:      &fakeUsers{},
		auth:       &fakeAuth{},
		sessions: &fakeSessions{sessions: map[string]*domainauth.Session{
			"admin-token":   {Token: "admin-token", Email: testAdminEmail, Name: "Administrador"},
			"agent-token":   {Token: "agent-token", Email: testAgentEmail, Name: "Corretor"},
			"pending-token": {Token: "pending-token", Email: testPending},
		}},
	}
	validator := fakeValidator{decisions: map[string]domainauth.Decision{
		testAdminEmail: domainauth.DecisionAuthorized,
		testAgentEmail: domainauth.DecisionAuthorized,
		testPending:    domainauth.DecisionPending,
	}}
	rs := RouterServices{
		Properties: env.properties,
		Likes:      env.likes,
		Images:     env.images,
		Dashboard: fakeDashboard{d: &model.Dashboard{
			Stats:    model.PropertyStats{Total: 2, Available: 1, Sold: 1, TotalLikes: 2},
			TopLiked: sampleProperties()[:1],
			Recent:   sampleProperties(),
			Pending:  1,
		}},
		Users:          env.users,
		Auth:           env.auth,
		Guard:          service.NewRouteGuard(service.RouteGuardOptions{Sessions: env.sessions, Validator: validator, SignOut: env.auth}),
		Inquiry:        service.InquiryLinker{Phone: "+55 (11) 99999-9999", AgentName: "Leandro"},
		Site:           SiteInfo{Name: "Leco Imóveis", AgentName: "Leandro", CRECI: "283775F"},
		OAuthProviders: []string{"google"},
		TemplateFS:     os.DirFS(TemplatePathFromTest),
		StaticFS:       os.DirFS("../../" + StaticPathFromRoot),
	}
	for _, opt := range opts {
		opt(&rs, env)
	}
	h, err := NewRouter(rs)
	require.NoError(t, err)
	env.handler = h
	return env
}

// request builds a request carrying the CSRF cookie and, when set, a session.
func (e *testEnv) request(method, target string, body io.Reader, session string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	if session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session})
	}
	return req
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target, session string) *httptest.ResponseRecorder {
	t.Helper()
	return e.serve(e.request(http.MethodGet, target, nil, session))
}

// postForm submits a url-encoded form with a valid CSRF token.
func (e *testEnv) postForm(t *testing.T, target string, form url.Values, session string) *httptest.ResponseRecorder {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFFieldName, testCSRFToken)
	req := e.request(http.MethodPost, target, strings.NewReader(form.Encode()), session)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.serve(req)
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
