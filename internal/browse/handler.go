package browse

import (
	"bytes"
	"encoding/json"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"dirindex/internal/control"
	"dirindex/internal/handler"
	"dirindex/internal/locale"
	"dirindex/internal/model"
	"dirindex/internal/theme"
	"dirindex/internal/wand"
)

type Options struct {
	Driver       model.FsDriver
	Catalog      *locale.Catalog
	Theme        theme.Settings
	Policy       Policy
	SiteName     string // empty means derived from the request host
	BasePath     string
	Thumbnails   bool
	ErrorPageURL string
	Metrics      *Metrics
	Logger       control.Logger
}

// Handler answers listing and file requests. Everything it holds is read-only
// after NewHandler returns, so one Handler serves all requests concurrently.
type Handler struct {
	opts  Options
	style template.CSS
}

func NewHandler(opts Options) (*Handler, error) {
	switch {
	case opts.Driver == nil:
		return nil, errors.New(`browse: driver is required`)
	case opts.Catalog == nil:
		return nil, errors.New(`browse: catalog is required`)
	case opts.Logger == nil:
		return nil, errors.New(`browse: logger is required`)
	}
	if opts.Theme.Colors == nil {
		opts.Theme = theme.Default()
	}
	opts.BasePath = strings.TrimRight(opts.BasePath, `/`)
	return &Handler{opts: opts, style: style(opts.Theme)}, nil
}

// Browse lists the directory rel in language lang. Unknown languages fall back
// to the default one.
func (h *Handler) Browse(rel string, listing model.Listing, lang string) (Page, error) {
	if h.opts.Policy.Forbids(rel) {
		return Page{}, errors.Wrapf(model.ErrFsAccessDenied, `browse %s`, rel)
	}
	table := h.opts.Catalog.Select(lang)
	listing.Sort = model.ParseSortKey(string(listing.Sort))
	listing.Order = model.ParseOrder(string(listing.Order))
	listing.Hide = h.opts.Policy.Hides
	entries, err := h.opts.Driver.List(rel, listing)
	if err != nil {
		return Page{}, err
	}
	if entries == nil {
		entries = []model.FsEntry{}
	}
	listing.Hide = nil

	page := Page{
		Lang:     table.Code(),
		Dir:      table.Dir(),
		Table:    table,
		Path:     clean(rel),
		Rows:     make([]Row, 0, len(entries)),
		Entries:  entries,
		Listing:  listing,
		Style:    h.style,
		Theme:    h.opts.Theme,
		Favicon:  h.favicon(),
		SiteName: h.opts.SiteName,
		Base:     h.opts.BasePath,
	}
	if page.Path != `` {
		parent := path.Dir(page.Path)
		if parent == `.` {
			parent = ``
		}
		page.Parent = &Row{
			Name:  table.Text(`parent_directory`),
			Link:  h.link(page.Lang, parent, listing.Sort, listing.Order, ``),
			Icon:  `fas fa-level-up-alt`,
			IsDir: true,
		}
	}
	for _, entry := range entries {
		row := Row{
			Name:     entry.Name,
			Icon:     icon(entry),
			Modified: formatTime(entry.Modified),
			IsDir:    entry.IsDir,
		}
		if entry.IsDir {
			row.Link = h.link(page.Lang, entry.Path, listing.Sort, listing.Order, ``)
		} else {
			row.Link = h.fileLink(entry.Path)
			row.Size = formatSize(entry.Size)
			if h.opts.Thumbnails && entry.Type == model.FileTypeImage {
				row.Thumb = row.Link + `?thumb=` + strconv.Itoa(listThumb)
			}
		}
		page.Rows = append(page.Rows, row)
	}
	page.Sorts = SortLinks{
		Name:     h.sortLink(page, model.SortByName),
		Size:     h.sortLink(page, model.SortBySize),
		Modified: h.sortLink(page, model.SortByModified),
	}
	return page, nil
}

// Serve opens the file rel. The caller closes its content.
func (h *Handler) Serve(rel string) (model.FsFile, error) {
	if h.opts.Policy.Forbids(rel) {
		return model.FsFile{}, errors.Wrapf(model.ErrFsAccessDenied, `serve %s`, rel)
	}
	return h.opts.Driver.Open(rel)
}

// StatusOf maps an error from Browse or Serve to an HTTP status.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrFsNotFound), errors.Is(err, model.ErrFsNotADirectory), errors.Is(err, model.ErrFsNotAFile):
		return http.StatusNotFound
	case errors.Is(err, model.ErrFsAccessDenied):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.GetHead)
	router.NotFound(h.status(http.StatusNotFound))
	router.MethodNotAllowed(h.status(http.StatusMethodNotAllowed))
	router.Get(`/`, h.root)
	if h.opts.Theme.FaviconIsRemote() {
		router.Get(`/favicon.ico`, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, h.opts.Theme.Favicon, http.StatusFound)
		})
	}
	router.Get(`/{lang}`, h.index)
	router.Get(`/*`, func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, param(r, `*`))
	})
	return router
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	table, ok := h.opts.Catalog.Table(query.Get(`lang`))
	if !ok {
		table = h.opts.Catalog.Negotiate(r.Header.Get(`Accept-Language`))
	}
	raw := r.URL.RawQuery
	if query.Has(`lang`) {
		query.Del(`lang`)
		raw = query.Encode()
	}
	target := h.opts.BasePath + `/` + table.Code()
	if raw != `` {
		target += `?` + raw
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type listingDocument struct {
	Path    string          `json:"path"`
	Lang    string          `json:"lang"`
	Parent  *string         `json:"parent,omitempty"`
	Sort    model.SortKey   `json:"sort"`
	Order   model.Order     `json:"order"`
	Query   string          `json:"query,omitempty"`
	Entries []model.FsEntry `json:"entries"`
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	lang := param(r, `lang`)
	if _, ok := h.opts.Catalog.Table(lang); !ok {
		h.serve(w, r, lang)
		return
	}
	query := r.URL.Query()
	listing := model.Listing{
		Sort:  model.ParseSortKey(query.Get(`sort`)),
		Order: model.ParseOrder(query.Get(`order`)),
		Query: strings.TrimSpace(query.Get(`q`)),
	}
	page, err := h.Browse(query.Get(`dir`), listing, lang)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if page.SiteName == `` {
		page.SiteName = siteName(r.Host)
	}
	w.Header().Add(`Vary`, `Accept`)

	if wantsJSON(r) {
		document := listingDocument{
			Path:    page.Path,
			Lang:    page.Lang,
			Sort:    page.Listing.Sort,
			Order:   page.Listing.Order,
			Query:   page.Listing.Query,
			Entries: page.Entries,
		}
		if page.Parent != nil {
			parent := path.Dir(page.Path)
			if parent == `.` {
				parent = ``
			}
			document.Parent = &parent
		}
		data, err := json.Marshal(document)
		if err != nil {
			h.fail(w, r, errors.Wrap(err, `encode listing`))
			return
		}
		h.opts.Metrics.listed(page.Lang, `json`)
		w.Header().Set(`Content-Type`, `application/json`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	buffer := &bytes.Buffer{}
	if err := render(buffer, page); err != nil {
		h.fail(w, r, errors.Wrap(err, `render listing`))
		return
	}
	h.opts.Logger.Trace(`browse.list path=/%s lang=%s entries=%d`, page.Path, page.Lang, len(page.Entries))
	h.opts.Metrics.listed(page.Lang, `html`)
	w.Header().Set(`Content-Type`, `text/html; charset=utf-8`)
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, rel string) {
	file, err := h.Serve(rel)
	if err != nil {
		if errors.Is(err, model.ErrFsNotAFile) {
			table := h.opts.Catalog.Negotiate(r.Header.Get(`Accept-Language`))
			http.Redirect(w, r, h.link(table.Code(), clean(rel), ``, ``, ``), http.StatusFound)
			return
		}
		h.fail(w, r, err)
		return
	}
	defer func() {
		if err := file.Content.Close(); err != nil {
			h.opts.Logger.Warn(`browse.close path=%s error=%s`, file.Path, err)
		}
	}()

	query := r.URL.Query()
	if query.Has(`thumb`) {
		h.thumbnail(w, r, file, query.Get(`thumb`))
		return
	}
	if preview, _ := strconv.ParseBool(query.Get(`preview`)); preview && wand.IsMarkdown(file.Name) {
		h.preview(w, r, file)
		return
	}

	header := w.Header()
	header.Set(`Content-Type`, file.MimeType)
	header.Set(`X-Content-Type-Options`, `nosniff`)
	if file.Type == model.FileTypeText || file.MimeType == `image/svg+xml` {
		header.Set(`Content-Security-Policy`, `sandbox`)
	}
	disposition := `attachment`
	if wand.Previewable(file.Type) {
		disposition = `inline`
	}
	header.Set(`Content-Disposition`, mime.FormatMediaType(disposition, map[string]string{`filename`: file.Name}))
	h.opts.Metrics.servedFile(file.Type, disposition)
	http.ServeContent(w, r, file.Name, file.Modified, file.Content)
}

func (h *Handler) thumbnail(w http.ResponseWriter, r *http.Request, file model.FsFile, text string) {
	size, err := parseThumb(text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, mimeType, err := thumbnail(file, size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.opts.Metrics.servedFile(file.Type, `thumbnail`)
	w.Header().Set(`Content-Type`, mimeType)
	w.Header().Set(`Cache-Control`, `public, max-age=3600`)
	http.ServeContent(w, r, ``, file.Modified, bytes.NewReader(data))
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request, file model.FsFile) {
	body, err := markdown(file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	table := h.opts.Catalog.Negotiate(r.Header.Get(`Accept-Language`))
	buffer := &bytes.Buffer{}
	if err := previewTemplate.Execute(buffer, preview{
		Lang:    table.Code(),
		Dir:     table.Dir(),
		Name:    file.Name,
		Raw:     h.fileLink(file.Path),
		Body:    template.HTML(body),
		Style:   h.style,
		Theme:   h.opts.Theme,
		Favicon: h.favicon(),
	}); err != nil {
		h.fail(w, r, errors.Wrap(err, `render preview`))
		return
	}
	h.opts.Metrics.servedFile(file.Type, `preview`)
	w.Header().Set(`Content-Type`, `text/html; charset=utf-8`)
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusOf(err)
	if code >= http.StatusInternalServerError {
		h.opts.Logger.Error(`browse.fail path=%s code=%d error=%s`, r.URL.Path, code, err)
	} else {
		h.opts.Logger.Debug(`browse.fail path=%s code=%d error=%s`, r.URL.Path, code, err)
	}
	h.opts.Metrics.failed(code)
	handler.Status(code, h.opts.ErrorPageURL).ServeHTTP(w, r)
}

func (h *Handler) status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.opts.Metrics.failed(code)
		handler.Status(code, h.opts.ErrorPageURL).ServeHTTP(w, r)
	}
}

func (h *Handler) favicon() string {
	switch {
	case h.opts.Theme.Favicon == ``:
		return ``
	case h.opts.Theme.FaviconIsRemote():
		return h.opts.Theme.Favicon
	}
	return h.opts.BasePath + `/favicon.ico`
}

// link points at the listing of dir. Default sort and order are left out.
func (h *Handler) link(lang string, dir string, sort model.SortKey, order model.Order, query string) string {
	params := []string{}
	if dir != `` {
		params = append(params, `dir=`+strings.ReplaceAll(url.QueryEscape(dir), `%2F`, `/`))
	}
	if sort != `` && sort != model.SortByName {
		params = append(params, `sort=`+string(sort))
	}
	if order == model.OrderDesc {
		params = append(params, `order=`+string(order))
	}
	if query != `` {
		params = append(params, `q=`+url.QueryEscape(query))
	}
	link := h.opts.BasePath + `/` + lang
	if len(params) > 0 {
		link += `?` + strings.Join(params, `&`)
	}
	return link
}

// sortLink sorts by key, flipping the order when the page is already sorted by it.
func (h *Handler) sortLink(page Page, key model.SortKey) string {
	order := model.OrderAsc
	if page.Listing.Sort == key && page.Listing.Order != model.OrderDesc {
		order = model.OrderDesc
	}
	return h.link(page.Lang, page.Path, key, order, page.Listing.Query)
}

func (h *Handler) fileLink(rel string) string {
	segments := strings.Split(rel, `/`)
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return h.opts.BasePath + `/` + strings.Join(segments, `/`)
}

func clean(rel string) string {
	return strings.Trim(path.Clean(`/`+strings.ReplaceAll(rel, `\`, `/`)), `/`)
}

// param returns a decoded route parameter. chi matches on the escaped path
// when the request has one.
func param(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if r.URL.RawPath == `` {
		return value
	}
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get(`format`) == `json` {
		return true
	}
	return strings.Contains(r.Header.Get(`Accept`), `application/json`)
}
