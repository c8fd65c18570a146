// Package webui maps the front-end routes onto the frontend.State: GET
// routes render JSON views of the state, the others run a mutation and then
// redirect to wherever the history went back to.
package webui

import (
	"encoding/json"
	"net/http"
	"strings"

	"miniblog/blog"
	"miniblog/frontend"
	"miniblog/httpapi"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/russross/blackfriday/v2"
)

const siteTitle = "Mini Blog"

// renderBody turns a post body into HTML, dropping any raw HTML it carries
// and links with unsafe schemes. Renderers keep state, so one per call.
func renderBody(body string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink,
	})
	return string(blackfriday.Run([]byte(body), blackfriday.WithRenderer(renderer)))
}

type UI struct {
	state   *frontend.State
	history *History
	logger  zerolog.Logger
}

// NewRouter wires the routes. history must be the navigator state was built
// with.
func NewRouter(state *frontend.State, history *History, logger zerolog.Logger) http.Handler {
	ui := &UI{state: state, history: history, logger: logger}

	r := mux.NewRouter()
	r.Use(httpapi.RequestID, httpapi.AccessLog(logger))
	r.HandleFunc("/", ui.Home).Methods(http.MethodGet)
	r.HandleFunc("/post", ui.NewPost).Methods(http.MethodGet)
	r.HandleFunc("/post", ui.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/post/{id}", ui.ShowPost).Methods(http.MethodGet)
	r.HandleFunc("/post/{id}", ui.DeletePost).Methods(http.MethodDelete)
	r.HandleFunc("/edit/{id}", ui.EditPost).Methods(http.MethodGet)
	r.HandleFunc("/edit/{id}", ui.UpdatePost).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/about", ui.About).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(ui.Missing)
	return r
}

func (ui *UI) render(w http.ResponseWriter, r *http.Request, status int, view string, data any) {
	raw, err := json.Marshal(Page{
		Title:  siteTitle,
		Path:   r.URL.Path,
		Search: ui.state.Search(),
		View:   view,
		Data:   data,
	})
	if err != nil {
		ui.logger.Error().Err(err).Str("view", view).Msg("failed to render view")
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// afterMutation sends the user to the page history went back to.
func (ui *UI) afterMutation(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, ui.history.Location(), http.StatusSeeOther)
}

// readDraft accepts a JSON body or a form.
func readDraft(r *http.Request) (frontend.Draft, error) {
	var draft frontend.Draft
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&draft)
		return draft, err
	}
	if err := r.ParseForm(); err != nil {
		return draft, err
	}
	draft.Title = r.FormValue("title")
	draft.Body = r.FormValue("body")
	return draft, nil
}

func routeID(r *http.Request) (int, bool) {
	id, err := blog.ParseID(mux.Vars(r)["id"])
	return id, err == nil
}

func (ui *UI) Home(w http.ResponseWriter, r *http.Request) {
	ui.history.Visit(r.URL.Path)
	if search, ok := r.URL.Query()["search"]; ok {
		ui.state.SetSearch(strings.Join(search, " "))
	}
	ui.render(w, r, http.StatusOK, "home", HomeView{Posts: ui.state.SearchResults()})
}

func (ui *UI) NewPost(w http.ResponseWriter, r *http.Request) {
	ui.history.Visit(r.URL.Path)
	ui.render(w, r, http.StatusOK, "new-post", NewPostView{Draft: ui.state.Draft()})
}

func (ui *UI) CreatePost(w http.ResponseWriter, r *http.Request) {
	draft, err := readDraft(r)
	if err != nil {
		ui.render(w, r, http.StatusBadRequest, "new-post", NewPostView{Draft: ui.state.Draft()})
		return
	}
	ui.state.SetPostTitle(draft.Title)
	ui.state.SetPostBody(draft.Body)

	if _, err := ui.state.Create(r.Context()); err != nil {
		ui.render(w, r, http.StatusBadGateway, "new-post", NewPostView{Draft: ui.state.Draft()})
		return
	}
	ui.afterMutation(w, r)
}

func (ui *UI) ShowPost(w http.ResponseWriter, r *http.Request) {
	ui.history.Visit(r.URL.Path)
	id, ok := routeID(r)
	if !ok {
		ui.postNotFound(w, r)
		return
	}
	post, ok := ui.state.Post(id)
	if !ok {
		ui.postNotFound(w, r)
		return
	}
	ui.render(w, r, http.StatusOK, "post", PostView{
		Post:     post,
		BodyHTML: renderBody(post.Body),
	})
}

func (ui *UI) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		ui.postNotFound(w, r)
		return
	}
	if err := ui.state.Delete(r.Context(), id); err != nil {
		post, _ := ui.state.Post(id)
		ui.render(w, r, http.StatusBadGateway, "post", PostView{
			Post:     post,
			BodyHTML: renderBody(post.Body),
		})
		return
	}
	ui.afterMutation(w, r)
}

func (ui *UI) EditPost(w http.ResponseWriter, r *http.Request) {
	ui.history.Visit(r.URL.Path)
	id, ok := routeID(r)
	if !ok {
		ui.postNotFound(w, r)
		return
	}
	post, ok := ui.state.Post(id)
	if !ok {
		ui.postNotFound(w, r)
		return
	}
	if err := ui.state.PrepareEdit(id); err != nil {
		ui.postNotFound(w, r)
		return
	}
	ui.render(w, r, http.StatusOK, "edit-post", EditView{Post: post, Draft: ui.state.EditDraft()})
}

func (ui *UI) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		ui.postNotFound(w, r)
		return
	}
	draft, err := readDraft(r)
	if err != nil {
		post, _ := ui.state.Post(id)
		ui.render(w, r, http.StatusBadRequest, "edit-post", EditView{Post: post, Draft: ui.state.EditDraft()})
		return
	}
	ui.state.SetEditTitle(draft.Title)
	ui.state.SetEditBody(draft.Body)

	if _, err := ui.state.Edit(r.Context(), id); err != nil {
		post, _ := ui.state.Post(id)
		ui.render(w, r, http.StatusBadGateway, "edit-post", EditView{Post: post, Draft: ui.state.EditDraft()})
		return
	}
	ui.afterMutation(w, r)
}

func (ui *UI) About(w http.ResponseWriter, r *http.Request) {
	ui.history.Visit(r.URL.Path)
	ui.render(w, r, http.StatusOK, "about", MessageView{
		Heading: "About",
		Message: "A small blog: read, search, write and edit posts.",
	})
}

func (ui *UI) postNotFound(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusNotFound, "post-not-found", MessageView{
		Heading: "Post Not Found",
		Message: "Well, that's disappointing. Visit our homepage.",
	})
}

func (ui *UI) Missing(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		ui.history.Visit(r.URL.Path)
	}
	ui.render(w, r, http.StatusNotFound, "missing", MessageView{
		Heading: "Page Not Found",
		Message: "Well, that's disappointing. Visit our homepage.",
	})
}
