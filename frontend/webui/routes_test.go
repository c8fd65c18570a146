package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"miniblog/blog"
	"miniblog/blog/inmemoryimpl"
	"miniblog/frontend"
	"miniblog/httpapi"
	"miniblog/postsapi"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type RoutesSuite struct {
	suite.Suite

	backend *httptest.Server
	manager *inmemoryimpl.InMemoryManager
	state   *frontend.State
	history *History
	router  http.Handler
}

func TestRoutes(t *testing.T) {
	suite.Run(t, new(RoutesSuite))
}

func (s *RoutesSuite) SetupTest() {
	s.manager = inmemoryimpl.NewInMemoryManager(
		blog.Post{ID: 1, Title: "My First Blog Post", Datetime: "July 01, 2021 11:17:36 AM", Body: "Made a **video**"},
		blog.Post{ID: 2, Title: "My 2nd Post", Datetime: "July 01, 2021 11:17:36 AM", Body: "Attended an event"},
	)
	s.backend = httptest.NewServer(httpapi.NewHandler(s.manager, zerolog.Nop()))

	s.history = NewHistory("/")
	s.state = frontend.New(postsapi.New(s.backend.URL, nil), s.history, zerolog.Nop())
	s.state.Now = func() time.Time { return time.Date(2024, time.June, 4, 9, 5, 1, 0, time.UTC) }
	s.Require().NoError(s.state.Load(context.Background()))
	s.router = NewRouter(s.state, s.history, zerolog.Nop())
}

func (s *RoutesSuite) TearDownTest() {
	s.backend.Close()
}

func (s *RoutesSuite) do(method string, target string, body string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RoutesSuite) get(target string) *httptest.ResponseRecorder {
	return s.do(http.MethodGet, target, "", "")
}

// page decodes a response, placing the view data into data.
func (s *RoutesSuite) page(w *httptest.ResponseRecorder, data any) Page {
	var raw struct {
		Page
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &raw))
	if data != nil {
		s.Require().NoError(json.Unmarshal(raw.Data, data))
	}
	return raw.Page
}

func (s *RoutesSuite) TestHome_NewestFirst() {
	w := s.get("/")
	s.Require().Equal(http.StatusOK, w.Code)

	var home HomeView
	page := s.page(w, &home)
	s.Require().Equal("home", page.View)
	s.Require().Len(home.Posts, 2)
	s.Require().Equal(2, home.Posts[0].ID)
}

func (s *RoutesSuite) TestHome_SearchSticks() {
	var home HomeView
	page := s.page(s.get("/?search=FIRST"), &home)
	s.Require().Equal("FIRST", page.Search)
	s.Require().Len(home.Posts, 1)
	s.Require().Equal(1, home.Posts[0].ID)

	home = HomeView{}
	s.page(s.get("/"), &home)
	s.Require().Len(home.Posts, 1)

	home = HomeView{}
	s.page(s.get("/?search="), &home)
	s.Require().Len(home.Posts, 2)
}

func (s *RoutesSuite) TestCreate_FormRedirectsBack() {
	s.get("/")
	s.get("/post")

	form := url.Values{"title": {"Third"}, "body": {"Hello there"}}
	w := s.do(http.MethodPost, "/post", form.Encode(), "application/x-www-form-urlencoded")
	s.Require().Equal(http.StatusSeeOther, w.Code)
	s.Require().Equal("/", w.Header().Get("Location"))

	stored, err := s.manager.GetPost(context.Background(), 3)
	s.Require().NoError(err)
	s.Require().Equal(blog.Post{ID: 3, Title: "Third", Datetime: "June 04, 2024 9:05:01 AM", Body: "Hello there"}, stored)

	var home HomeView
	s.page(s.get("/"), &home)
	s.Require().Equal(3, home.Posts[0].ID)

	var form2 NewPostView
	s.page(s.get("/post"), &form2)
	s.Require().Equal(frontend.Draft{}, form2.Draft)
}

func (s *RoutesSuite) TestCreate_JSON() {
	w := s.do(http.MethodPost, "/post", `{"title":"json","body":"payload"}`, "application/json")
	s.Require().Equal(http.StatusSeeOther, w.Code)
	p, ok := s.state.Post(3)
	s.Require().True(ok)
	s.Require().Equal("json", p.Title)
}

func (s *RoutesSuite) TestCreate_BackendDownKeepsDraft() {
	s.get("/post")
	s.backend.Close()

	w := s.do(http.MethodPost, "/post", `{"title":"lost?","body":"no"}`, "application/json")
	s.Require().Equal(http.StatusBadGateway, w.Code)

	var view NewPostView
	s.page(w, &view)
	s.Require().Equal("lost?", view.Draft.Title)
	s.Require().Len(s.state.Posts(), 2)
	s.Require().Equal("/post", s.history.Location())
}

func (s *RoutesSuite) TestShowPost_RendersMarkdown() {
	var view PostView
	page := s.page(s.get("/post/1"), &view)
	s.Require().Equal("post", page.View)
	s.Require().Equal(1, view.Post.ID)
	s.Require().Contains(view.BodyHTML, "<strong>video</strong>")
}

func (s *RoutesSuite) TestShowPost_DropsRawHTML() {
	created, err := s.manager.AddPost(context.Background(), blog.Post{
		Title: "sneaky",
		Body:  "Hello\n\n<script>alert('x')</script>\n\nan <img src=x onerror=alert(1)> image and **bold** [link](javascript:alert(1))",
	})
	s.Require().NoError(err)
	s.Require().NoError(s.state.Load(context.Background()))

	var view PostView
	s.page(s.get("/post/"+strconv.Itoa(created.ID)), &view)
	s.Require().NotContains(view.BodyHTML, "<script")
	s.Require().NotContains(view.BodyHTML, "<img")
	s.Require().NotContains(view.BodyHTML, "javascript:")
	s.Require().Contains(view.BodyHTML, "<strong>bold</strong>")
	s.Require().Contains(view.BodyHTML, "Hello")
}

func (s *RoutesSuite) TestShowPost_NotFound() {
	for _, target := range []string{"/post/9", "/post/abc"} {
		w := s.get(target)
		s.Require().Equal(http.StatusNotFound, w.Code, target)
		s.Require().Equal("post-not-found", s.page(w, nil).View)
	}
}

func (s *RoutesSuite) TestEdit_PrefillsAndReplaces() {
	s.get("/")
	s.get("/post/2")

	var view EditView
	s.page(s.get("/edit/2"), &view)
	s.Require().Equal(frontend.Draft{Title: "My 2nd Post", Body: "Attended an event"}, view.Draft)

	w := s.do(http.MethodPut, "/edit/2", `{"title":"T","body":"changed"}`, "application/json")
	s.Require().Equal(http.StatusSeeOther, w.Code)
	s.Require().Equal("/post/2", w.Header().Get("Location"))

	posts := s.state.Posts()
	s.Require().Len(posts, 2)
	s.Require().Equal(blog.Post{ID: 2, Title: "T", Datetime: "June 04, 2024 9:05:01 AM", Body: "changed"}, posts[0])
	s.Require().Equal("My First Blog Post", posts[1].Title)

	stored, err := s.manager.GetPost(context.Background(), 2)
	s.Require().NoError(err)
	s.Require().Equal(posts[0], stored)
}

func (s *RoutesSuite) TestEdit_FormPost() {
	form := url.Values{"title": {"via form"}, "body": {"b"}}
	w := s.do(http.MethodPost, "/edit/1", form.Encode(), "application/x-www-form-urlencoded")
	s.Require().Equal(http.StatusSeeOther, w.Code)
	p, _ := s.state.Post(1)
	s.Require().Equal("via form", p.Title)
}

func (s *RoutesSuite) TestEdit_RemoteRejection() {
	// the backend lost post 2 behind our back
	s.Require().NoError(s.manager.DeletePost(context.Background(), 2))

	w := s.do(http.MethodPut, "/edit/2", `{"title":"T","body":"b"}`, "application/json")
	s.Require().Equal(http.StatusBadGateway, w.Code)
	p, ok := s.state.Post(2)
	s.Require().True(ok)
	s.Require().Equal("My 2nd Post", p.Title)
}

func (s *RoutesSuite) TestDelete_RedirectsBack() {
	s.get("/")
	s.get("/post/1")

	w := s.do(http.MethodDelete, "/post/1", "", "")
	s.Require().Equal(http.StatusSeeOther, w.Code)
	s.Require().Equal("/", w.Header().Get("Location"))

	_, ok := s.state.Post(1)
	s.Require().False(ok)
	s.Require().Len(s.state.Posts(), 1)

	_, err := s.manager.GetPost(context.Background(), 1)
	s.Require().ErrorIs(err, blog.ErrNotFound)
}

func (s *RoutesSuite) TestDelete_BadIDNeverReachesStore() {
	w := s.do(http.MethodDelete, "/post/two", "", "")
	s.Require().Equal(http.StatusNotFound, w.Code)
	s.Require().Len(s.state.Posts(), 2)
}

func (s *RoutesSuite) TestAboutAndMissing() {
	w := s.get("/about")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().Equal("about", s.page(w, nil).View)

	w = s.get("/no/such/page")
	s.Require().Equal(http.StatusNotFound, w.Code)
	page := s.page(w, nil)
	s.Require().Equal("missing", page.View)
	s.Require().Equal("/no/such/page", page.Path)
}
