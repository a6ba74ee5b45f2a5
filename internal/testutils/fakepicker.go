package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"gallery-viewer/internal/domain/gallery"
)

// Routes of the fake picker, used with FailNext and Calls
const (
	RouteGalleries = "galleries"
	RouteSettings  = "settings"
	RouteImages    = "images"
	RouteMark      = "mark"
	RouteDelete    = "delete"
)

const sessionCookie = "sessionid"

type wireImage struct {
	Name    string  `json:"name"`
	Marked  bool    `json:"marked"`
	ModTime float64 `json:"mod_time"`
	IsFav   bool    `json:"is_fav"`
	URL     string  `json:"url"`
}

// FakePicker is an in-memory picker service behind httptest. Like the real
// service it keeps settings per session cookie and returns relative image URLs.
type FakePicker struct {
	Server *httptest.Server

	mu          sync.Mutex
	galleries   []gallery.Gallery
	images      map[string][]gallery.Image
	settings    map[string]gallery.Settings
	defaults    gallery.Settings
	failures    map[string]int
	calls       map[string]int
	delay       time.Duration
	nextSession int
}

// NewFakePicker starts a fake picker that is closed when the test ends
func NewFakePicker(tb testing.TB) *FakePicker {
	tb.Helper()

	f := &FakePicker{
		images:   make(map[string][]gallery.Image),
		settings: make(map[string]gallery.Settings),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.Get("/galleries/", f.listGalleries)
	r.Get("/settings/", f.getSettings)
	r.Post("/settings/", f.saveSettings)
	r.Get("/galleries/{slug}/images/", f.listImages)
	r.Post("/galleries/{slug}/images/*", f.markImage)
	r.Post("/delete-image/{slug}/*", f.deleteImage)
	r.Get("/get-image/{slug}/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	})

	f.Server = httptest.NewServer(r)
	tb.Cleanup(f.Server.Close)

	return f
}

// URL is the base URL of the fake service
func (f *FakePicker) URL() string {
	return f.Server.URL
}

// AddGallery registers a gallery
func (f *FakePicker) AddGallery(slug, title string) *FakePicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.galleries = append(f.galleries, gallery.Gallery{Slug: slug, Title: title})
	if _, ok := f.images[slug]; !ok {
		f.images[slug] = nil
	}
	return f
}

// AddImage adds an image to a gallery in server order
func (f *FakePicker) AddImage(slug string, img gallery.Image) *FakePicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[slug] = append(f.images[slug], img)
	return f
}

// SetSettings sets what a session without saved settings reads
func (f *FakePicker) SetSettings(settings gallery.Settings) *FakePicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults = settings
	return f
}

// SetDelay slows every response down
func (f *FakePicker) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// FailNext makes the next call to route answer with status
func (f *FakePicker) FailNext(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = status
}

// Calls returns how many times route was called
func (f *FakePicker) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// Images returns the current images of a gallery
func (f *FakePicker) Images(slug string) []gallery.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.images[slug])
}

// begin counts the call and applies delays and forced failures
func (f *FakePicker) begin(w http.ResponseWriter, route string) bool {
	f.mu.Lock()
	f.calls[route]++
	status, fail := f.failures[route]
	delete(f.failures, route)
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		http.Error(w, "forced failure", status)
		return false
	}
	return true
}

func (f *FakePicker) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}

	f.mu.Lock()
	f.nextSession++
	id := "s" + strconv.Itoa(f.nextSession)
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/"})
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toWire(slug string, img gallery.Image) wireImage {
	return wireImage{
		Name:    img.Name,
		Marked:  img.Marked,
		ModTime: float64(img.ModDate.UnixMilli()) / 1000,
		IsFav:   img.IsFav,
		URL:     "/get-image/" + slug + "/" + img.Name,
	}
}

func (f *FakePicker) listGalleries(w http.ResponseWriter, r *http.Request) {
	if !f.begin(w, RouteGalleries) {
		return
	}
	f.mu.Lock()
	galleries := slices.Clone(f.galleries)
	f.mu.Unlock()

	if galleries == nil {
		galleries = []gallery.Gallery{}
	}
	writeJSON(w, http.StatusOK, galleries)
}

func (f *FakePicker) getSettings(w http.ResponseWriter, r *http.Request) {
	if !f.begin(w, RouteSettings) {
		return
	}
	id := f.session(w, r)

	f.mu.Lock()
	settings, ok := f.settings[id]
	if !ok {
		settings = f.defaults
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, settings)
}

func (f *FakePicker) saveSettings(w http.ResponseWriter, r *http.Request) {
	if !f.begin(w, RouteSettings) {
		return
	}
	id := f.session(w, r)

	var settings gallery.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.images[settings.SelectedGallery]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"selected_gallery": {"gallery '" + settings.SelectedGallery + "' doesn't exist"},
		})
		return
	}
	if !settings.ShowMode.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"show_mode": {"invalid show_mode value"}})
		return
	}

	f.settings[id] = settings
	writeJSON(w, http.StatusOK, settings)
}

func (f *FakePicker) listImages(w http.ResponseWriter, r *http.Request) {
	if !f.begin(w, RouteImages) {
		return
	}
	slug := chi.URLParam(r, "slug")
	mode := gallery.ShowMode(r.URL.Query().Get("show_mode"))
	if mode == "" {
		mode = gallery.ShowModeUnmarked
	}

	f.mu.Lock()
	images, ok := f.images[slug]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	out := make([]wireImage, 0, len(images))
	for _, img := range images {
		switch {
		case mode == gallery.ShowModeUnmarked && img.Marked:
			continue
		case mode == gallery.ShowModeMarked && !img.Marked:
			continue
		}
		out = append(out, toWire(slug, img))
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakePicker) markImage(w http.ResponseWriter, r *http.Request) {
	if !f.begin(w, RouteMark) {
		return
	}
	slug := chi.URLParam(r, "slug")
	rest := chi.URLParam(r, "*")

	var mark bool
	var name string
	switch {
	case strings.HasSuffix(rest, "/unmark"):
		name = strings.TrimSuffix(rest, "/unmark")
	case strings.HasSuffix(rest, "/mark"):
		name, mark = strings.TrimSuffix(rest, "/mark"), true
	default:
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	images := f.images[slug]
	idx := slices.IndexFunc(images, func(img gallery.Image) bool { return img.Name == name })
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No such file: " + name})
		return
	}
	images[idx].Marked = mark
	writeJSON(w, http.StatusOK, toWire(slug, images[idx]))
}

func (f *FakePicker) deleteImage(w http.ResponseWriter, r *http.Request) {
	if !f.begin(w, RouteDelete) {
		return
	}
	slug := chi.URLParam(r, "slug")
	name := chi.URLParam(r, "*")

	f.mu.Lock()
	defer f.mu.Unlock()

	images := f.images[slug]
	idx := slices.IndexFunc(images, func(img gallery.Image) bool { return img.Name == name })
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No such file: " + name})
		return
	}
	f.images[slug] = slices.Delete(images, idx, idx+1)
	w.WriteHeader(http.StatusNoContent)
}
